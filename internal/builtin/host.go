package builtin

import (
	"math"
	"os"
	"time"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// registerHost installs the fixed Math/System table internal/analyzer's
// hostTable names, plus the __lazy-seq/__delay thunk constructors
// lazy-seq/delay desugar into. This is the entire surface spec §1's scope
// boundary allows for host interop: no general reflection, no arbitrary
// class loading.
func registerHost(ns *rt.Namespace, env *rt.Env) {
	def(ns, "__abs", 1, 1, func(args []value.Value) (value.Value, error) {
		n, isInt, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		if isInt {
			return value.Int(int64(math.Abs(n))), nil
		}
		return value.Float(math.Abs(n)), nil
	})
	def(ns, "__sqrt", 1, 1, mathUnary(math.Sqrt))
	def(ns, "__floor", 1, 1, mathUnary(math.Floor))
	def(ns, "__ceil", 1, 1, mathUnary(math.Ceil))
	def(ns, "__round", 1, 1, func(args []value.Value) (value.Value, error) {
		n, _, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		return value.Int(int64(math.Round(n))), nil
	})
	def(ns, "__pow", 2, 2, func(args []value.Value) (value.Value, error) {
		a, _, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		b, _, err := numVal(args[1])
		if err != nil {
			return nil, err
		}
		return value.Float(math.Pow(a, b)), nil
	})
	def(ns, "__math-max", 1, -1, mathFold(math.Max))
	def(ns, "__math-min", 1, -1, mathFold(math.Min))
	def(ns, "__pi", 0, 0, func(args []value.Value) (value.Value, error) {
		return value.Float(math.Pi), nil
	})
	def(ns, "__getenv", 1, 1, func(args []value.Value) (value.Value, error) {
		s, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		v, ok := os.LookupEnv(s)
		if !ok {
			return value.NilValue, nil
		}
		return value.Str(v), nil
	})
	def(ns, "__nano-time", 0, 0, func(args []value.Value) (value.Value, error) {
		return value.Int(time.Now().UnixNano()), nil
	})
	def(ns, "__current-time-millis", 0, 0, func(args []value.Value) (value.Value, error) {
		return value.Int(time.Now().UnixMilli()), nil
	})
	def(ns, "__exit", 0, 1, func(args []value.Value) (value.Value, error) {
		code := 0
		if len(args) == 1 {
			n, _, err := numVal(args[0])
			if err != nil {
				return nil, err
			}
			code = int(n)
		}
		os.Exit(code)
		return value.NilValue, nil
	})

	def(ns, "__gc-stats", 0, 0, func(args []value.Value) (value.Value, error) {
		s := env.Heap.Stats()
		return value.NewMap(
			value.NewKeyword("", "bytes-allocated"), value.Int(s.BytesAllocated),
			value.NewKeyword("", "collections"), value.Int(int64(s.Collections)),
			value.NewKeyword("", "blocks-live"), value.Int(int64(s.BlocksLive)),
			value.NewKeyword("", "max-rss-bytes"), value.Int(s.MaxRSSBytes),
		), nil
	})

	// __lazy-seq/__delay receive the zero-arg fn* the lazy-seq/delay special
	// forms desugar their body into, and wrap it with env.Bridge so forcing
	// calls back into whichever backend produced the closure.
	def(ns, "__lazy-seq", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.NewLazySeq(args[0], env.Bridge), nil
	})
	def(ns, "__delay", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.NewDelay(args[0], env.Bridge), nil
	})
}

func mathUnary(fn func(float64) float64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		n, _, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		return value.Float(fn(n)), nil
	}
}

func mathFold(fn func(a, b float64) float64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		acc, isInt, err := numVal(args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			n, ni, err := numVal(a)
			if err != nil {
				return nil, err
			}
			acc = fn(acc, n)
			isInt = isInt && ni
		}
		if isInt {
			return value.Int(int64(acc)), nil
		}
		return value.Float(acc), nil
	}
}
