package builtin

import (
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

func registerCompare(ns *rt.Namespace) {
	defIntrinsic(ns, "=", 1, -1, func(args []value.Value) (value.Value, error) {
		for i := 1; i < len(args); i++ {
			if !value.Eql(args[0], args[i]) {
				return value.False, nil
			}
		}
		return value.True, nil
	}, "eq")
	def(ns, "not=", 1, -1, func(args []value.Value) (value.Value, error) {
		for i := 1; i < len(args); i++ {
			if !value.Eql(args[0], args[i]) {
				return value.True, nil
			}
		}
		return value.False, nil
	})
	defIntrinsic(ns, "<", 1, -1, cmpChain(func(a, b float64) bool { return a < b }), "lt")
	defIntrinsic(ns, "<=", 1, -1, cmpChain(func(a, b float64) bool { return a <= b }), "le")
	def(ns, ">", 1, -1, cmpChain(func(a, b float64) bool { return a > b }))
	def(ns, ">=", 1, -1, cmpChain(func(a, b float64) bool { return a >= b }))

	def(ns, "not", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.Bool(!value.IsTruthy(args[0])), nil
	})
}

func cmpChain(ok func(a, b float64) bool) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		for i := 0; i+1 < len(args); i++ {
			a, _, err := numVal(args[i])
			if err != nil {
				return nil, err
			}
			b, _, err := numVal(args[i+1])
			if err != nil {
				return nil, err
			}
			if !ok(a, b) {
				return value.False, nil
			}
		}
		return value.True, nil
	}
}
