package analyzer

// hostTable maps `Math/name` and `System/name` symbols to the fixed set of
// native builtins spec §4.3 describes ("Math/abs -> __abs",
// "System/getenv -> __getenv", "System/nanoTime -> __nano-time", etc).
// internal/builtin registers a builtin Var under each of these names in
// the "cljw.host" namespace; the analyzer only needs the name mapping.
var hostTable = map[string]string{
	"Math/abs":      "__abs",
	"Math/sqrt":     "__sqrt",
	"Math/pow":      "__pow",
	"Math/floor":    "__floor",
	"Math/ceil":     "__ceil",
	"Math/round":    "__round",
	"Math/max":      "__math-max",
	"Math/min":      "__math-min",
	"Math/PI":       "__pi",
	"System/getenv":    "__getenv",
	"System/nanoTime":  "__nano-time",
	"System/exit":      "__exit",
	"System/currentTimeMillis": "__current-time-millis",
	"System/gcStats":   "__gc-stats",
}

const hostNamespace = "cljw.host"
