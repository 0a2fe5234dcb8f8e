package rt

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/value"
)

// ClojureError is the single concrete error type every evaluator backend
// panics with (spec §7's error kinds): Kind names the catch-matchable
// class ("Exception", "ArithmeticException", "IllegalArgumentException", or
// a user-chosen tag for data thrown via ex-info), Data carries the thrown
// Value (an ex-info map, or the raw thrown value for a bare (throw v)).
// Using panic/recover here, rather than threading error returns through
// every evaluator call, is what lets value.CallBridge stay a one-method
// interface (Call(fn, args) Value) shared by LazySeq, Delay, and macro
// expansion alike.
type ClojureError struct {
	Kind  string
	Msg   string
	Data  value.Value
	Cause error
}

func (e *ClojureError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind
}

func (e *ClojureError) Unwrap() error { return e.Cause }

func NewError(kind, msg string) *ClojureError {
	return &ClojureError{Kind: kind, Msg: msg}
}

func WrapError(kind string, cause error) *ClojureError {
	return &ClojureError{Kind: kind, Msg: cause.Error(), Cause: cause}
}

// Throw converts a user-level `(throw v)` value into a ClojureError. A map
// with a :type or :kind keyword entry (the ex-info convention) supplies
// Kind; anything else gets the generic "Exception" tag with the printed
// value as its message.
func Throw(v value.Value) *ClojureError {
	if m, ok := v.(*value.Map); ok {
		if k, ok := m.Get(value.NewKeyword("", "type")); ok {
			return &ClojureError{Kind: printKey(k), Msg: exInfoMsg(m), Data: v}
		}
		if k, ok := m.Get(value.NewKeyword("", "kind")); ok {
			return &ClojureError{Kind: printKey(k), Msg: exInfoMsg(m), Data: v}
		}
	}
	return &ClojureError{Kind: "Exception", Msg: value.PrintStr(v), Data: v}
}

func printKey(v value.Value) string {
	switch k := v.(type) {
	case value.Keyword:
		return k.Name
	case value.Symbol:
		return k.Name
	case value.Str:
		return string(k)
	default:
		return value.PrintStr(v)
	}
}

func exInfoMsg(m *value.Map) string {
	if msg, ok := m.Get(value.NewKeyword("", "message")); ok {
		if s, ok := msg.(value.Str); ok {
			return string(s)
		}
	}
	return value.PrintStr(m)
}

// CatchMatches reports whether a catch clause's class name matches err,
// "Exception" and "Throwable" (and "_", Clojure's catch-all default
// binding form reused as a tag here) acting as the universal wildcard per
// spec §7.
func CatchMatches(className string, err *ClojureError) bool {
	switch className {
	case "Exception", "Throwable", "_", "":
		return true
	}
	return className == err.Kind
}
