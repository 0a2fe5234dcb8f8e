package rt

import "github.com/cljwlang/cljw/internal/value"

// TypeTag returns the protocol/record dispatch key for v (spec §4.9:
// extend-type and defrecord both key their method tables by this string).
// Record instances carry their own tag; everything else falls back to
// value.TypeName, which extend-type's analyzer-side name mapping
// (see internal/analyzer's builtinTypeKey) is kept in sync with.
func TypeTag(v value.Value) string {
	if r, ok := v.(*value.ReifyInstance); ok {
		return r.TypeKey
	}
	return value.TypeName(v)
}
