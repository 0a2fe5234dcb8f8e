package builtin

import (
	"fmt"
	"math"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

func numVal(v value.Value) (float64, bool, error) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true, nil
	case value.Float:
		return float64(n), false, nil
	default:
		return 0, false, fmt.Errorf("%s cannot be cast to a number", value.TypeName(v))
	}
}

// reduceNums applies op left to right over args, starting from ident when
// args is empty, preserving integer-ness when every operand is an Int (the
// source's int/float contagion rule).
func reduceNums(args []value.Value, ident float64, op func(a, b float64) float64) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(ident), nil
	}
	acc, isInt, err := numVal(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		n, ni, err := numVal(a)
		if err != nil {
			return nil, err
		}
		acc = op(acc, n)
		isInt = isInt && ni
	}
	if isInt && acc == math.Trunc(acc) {
		return value.Int(int64(acc)), nil
	}
	return value.Float(acc), nil
}

func registerArithmetic(ns *rt.Namespace) {
	defIntrinsic(ns, "+", 0, -1, func(args []value.Value) (value.Value, error) {
		return reduceNums(args, 0, func(a, b float64) float64 { return a + b })
	}, "add")
	defIntrinsic(ns, "*", 0, -1, func(args []value.Value) (value.Value, error) {
		return reduceNums(args, 1, func(a, b float64) float64 { return a * b })
	}, "mul")
	defIntrinsic(ns, "-", 1, -1, func(args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			n, isInt, err := numVal(args[0])
			if err != nil {
				return nil, err
			}
			if isInt {
				return value.Int(-int64(n)), nil
			}
			return value.Float(-n), nil
		}
		return reduceNums(args, 0, func(a, b float64) float64 { return a - b })
	}, "sub")
	defIntrinsic(ns, "/", 1, -1, func(args []value.Value) (value.Value, error) {
		if len(args) == 1 {
			args = append([]value.Value{value.Int(1)}, args...)
		}
		first, isInt, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		acc := first
		for _, a := range args[1:] {
			n, ni, err := numVal(a)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, &rt.ClojureError{Kind: "ArithmeticException", Msg: "Divide by zero"}
			}
			acc /= n
			isInt = isInt && ni
		}
		if isInt && acc == math.Trunc(acc) {
			return value.Int(int64(acc)), nil
		}
		return value.Float(acc), nil
	}, "div")
	def(ns, "quot", 2, 2, func(args []value.Value) (value.Value, error) {
		a, _, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		b, _, err := numVal(args[1])
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, &rt.ClojureError{Kind: "ArithmeticException", Msg: "Divide by zero"}
		}
		return value.Int(int64(a / b)), nil
	})
	def(ns, "rem", 2, 2, func(args []value.Value) (value.Value, error) {
		a, _, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		b, _, err := numVal(args[1])
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, &rt.ClojureError{Kind: "ArithmeticException", Msg: "Divide by zero"}
		}
		return value.Int(int64(math.Mod(a, b))), nil
	})
	def(ns, "mod", 2, 2, func(args []value.Value) (value.Value, error) {
		a, _, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		b, _, err := numVal(args[1])
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, &rt.ClojureError{Kind: "ArithmeticException", Msg: "Divide by zero"}
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return value.Int(int64(m)), nil
	})
	def(ns, "inc", 1, 1, func(args []value.Value) (value.Value, error) {
		n, isInt, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		if isInt {
			return value.Int(int64(n) + 1), nil
		}
		return value.Float(n + 1), nil
	})
	def(ns, "dec", 1, 1, func(args []value.Value) (value.Value, error) {
		n, isInt, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		if isInt {
			return value.Int(int64(n) - 1), nil
		}
		return value.Float(n - 1), nil
	})
}
