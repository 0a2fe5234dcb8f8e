package builtin

import (
	"fmt"
	"sync/atomic"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// gensymSeq backs the gensym builtin, separate from the reader's own
// auto-gensym counter (internal/reader/syntaxquote.go) since this one
// must be callable from running programs rather than only from within a
// single syntax-quote form.
var gensymSeq int64

func registerCollections(ns *rt.Namespace, env *rt.Env) {
	def(ns, "seq", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.Seq(args[0]), nil
	})
	def(ns, "first", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.First(args[0]), nil
	})
	def(ns, "rest", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.Rest(args[0]), nil
	})
	def(ns, "next", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.Next(args[0]), nil
	})
	def(ns, "cons", 2, 2, func(args []value.Value) (value.Value, error) {
		return value.NewCons(args[0], args[1]), nil
	})
	def(ns, "count", 1, 1, func(args []value.Value) (value.Value, error) {
		return value.Int(value.Count(args[0])), nil
	})
	defIntrinsic(ns, "vector", 0, -1, func(args []value.Value) (value.Value, error) {
		return value.NewVector(args...), nil
	}, "vec_new")
	defIntrinsic(ns, "list", 0, -1, func(args []value.Value) (value.Value, error) {
		return value.NewList(args...), nil
	}, "list_new")
	defIntrinsic(ns, "hash-map", 0, -1, func(args []value.Value) (value.Value, error) {
		if len(args)%2 != 0 {
			return nil, fmt.Errorf("hash-map requires an even number of arguments")
		}
		return value.NewMap(args...), nil
	}, "map_new")
	defIntrinsic(ns, "hash-set", 0, -1, func(args []value.Value) (value.Value, error) {
		return value.NewSet(args...), nil
	}, "set_new")
	def(ns, "get", 2, 3, func(args []value.Value) (value.Value, error) {
		var found value.Value
		var ok bool
		switch coll := args[0].(type) {
		case *value.Map:
			found, ok = coll.Get(args[1])
		case *value.Set:
			if coll.Contains(args[1]) {
				found, ok = args[1], true
			}
		case *value.Vector:
			if i, iok := args[1].(value.Int); iok {
				found, ok = coll.Nth(int(i))
			}
		case value.Nil:
		}
		if ok {
			return found, nil
		}
		if len(args) == 3 {
			return args[2], nil
		}
		return value.NilValue, nil
	})
	def(ns, "get-in", 2, 3, func(args []value.Value) (value.Value, error) {
		cur := args[0]
		ks := value.Seq(args[1])
		for {
			sq, ok := ks.(value.Seqer)
			if !ok {
				break
			}
			k := sq.First()
			switch coll := cur.(type) {
			case *value.Map:
				v, found := coll.Get(k)
				if !found {
					if len(args) == 3 {
						return args[2], nil
					}
					return value.NilValue, nil
				}
				cur = v
			case *value.Vector:
				i, iok := k.(value.Int)
				v, found := value.Value(nil), false
				if iok {
					v, found = coll.Nth(int(i))
				}
				if !found {
					if len(args) == 3 {
						return args[2], nil
					}
					return value.NilValue, nil
				}
				cur = v
			default:
				if len(args) == 3 {
					return args[2], nil
				}
				return value.NilValue, nil
			}
			ks = value.Seq(sq.Rest())
		}
		return cur, nil
	})
	def(ns, "assoc", 3, -1, func(args []value.Value) (value.Value, error) {
		if len(args)%2 != 1 {
			return nil, fmt.Errorf("assoc expects key value pairs")
		}
		switch coll := args[0].(type) {
		case *value.Map:
			m := coll
			for i := 1; i+1 < len(args); i += 2 {
				m = m.Assoc(args[i], args[i+1])
			}
			return m, nil
		case *value.Vector:
			v := coll
			for i := 1; i+1 < len(args); i += 2 {
				idx, ok := args[i].(value.Int)
				if !ok {
					return nil, fmt.Errorf("vector assoc index must be an integer")
				}
				v = v.Assoc(int(idx), args[i+1])
			}
			return v, nil
		case value.Nil:
			m := value.EmptyMap
			for i := 1; i+1 < len(args); i += 2 {
				m = m.Assoc(args[i], args[i+1])
			}
			return m, nil
		default:
			return nil, fmt.Errorf("%s does not support assoc", value.TypeName(args[0]))
		}
	})
	def(ns, "dissoc", 1, -1, func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			if _, isNil := args[0].(value.Nil); isNil {
				return value.NilValue, nil
			}
			return nil, fmt.Errorf("%s does not support dissoc", value.TypeName(args[0]))
		}
		for _, k := range args[1:] {
			m = m.Dissoc(k)
		}
		return m, nil
	})
	def(ns, "conj", 0, -1, func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.EmptyList, nil
		}
		coll, items := args[0], args[1:]
		for _, it := range items {
			switch c := coll.(type) {
			case *value.Vector:
				coll = c.Conj(it)
			case *value.Set:
				coll = c.Conj(it)
			case *value.List:
				coll = c.Cons(it)
			case *value.Cons:
				coll = value.NewCons(it, c)
			case value.Nil:
				coll = value.NewList(it)
			case *value.Map:
				entry, ok := it.(*value.Vector)
				if !ok || entry.Count() != 2 {
					return nil, fmt.Errorf("conj on a map requires a 2-element vector entry")
				}
				k, _ := entry.Nth(0)
				v, _ := entry.Nth(1)
				coll = c.Assoc(k, v)
			default:
				return nil, fmt.Errorf("%s does not support conj", value.TypeName(coll))
			}
		}
		return coll, nil
	})
	def(ns, "nth", 2, 3, func(args []value.Value) (value.Value, error) {
		i, ok := args[1].(value.Int)
		if !ok {
			return nil, fmt.Errorf("nth index must be an integer")
		}
		if v, ok := args[0].(*value.Vector); ok {
			if r, found := v.Nth(int(i)); found {
				return r, nil
			}
			if len(args) == 3 {
				return args[2], nil
			}
			return nil, &rt.ClojureError{Kind: "IndexOutOfBoundsException", Msg: "nth index out of range"}
		}
		n := int(i)
		cur := value.Seq(args[0])
		for n > 0 {
			sq, ok := cur.(value.Seqer)
			if !ok {
				break
			}
			cur = value.Seq(sq.Rest())
			n--
		}
		if sq, ok := cur.(value.Seqer); ok && n == 0 {
			return sq.First(), nil
		}
		if len(args) == 3 {
			return args[2], nil
		}
		return nil, &rt.ClojureError{Kind: "IndexOutOfBoundsException", Msg: "nth index out of range"}
	})
	def(ns, "contains?", 2, 2, func(args []value.Value) (value.Value, error) {
		switch c := args[0].(type) {
		case *value.Map:
			_, ok := c.Get(args[1])
			return value.Bool(ok), nil
		case *value.Set:
			return value.Bool(c.Contains(args[1])), nil
		case *value.Vector:
			i, ok := args[1].(value.Int)
			return value.Bool(ok && int(i) >= 0 && int(i) < c.Count()), nil
		default:
			return value.False, nil
		}
	})
	def(ns, "keys", 1, 1, func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, fmt.Errorf("keys requires a map")
		}
		out := make([]value.Value, len(m.Entries()))
		for i, e := range m.Entries() {
			out[i] = e.Key
		}
		return value.NewList(out...), nil
	})
	def(ns, "vals", 1, 1, func(args []value.Value) (value.Value, error) {
		m, ok := args[0].(*value.Map)
		if !ok {
			return nil, fmt.Errorf("vals requires a map")
		}
		out := make([]value.Value, len(m.Entries()))
		for i, e := range m.Entries() {
			out[i] = e.Val
		}
		return value.NewList(out...), nil
	})
	def(ns, "reverse", 1, 1, func(args []value.Value) (value.Value, error) {
		var items []value.Value
		cur := value.Seq(args[0])
		for {
			sq, ok := cur.(value.Seqer)
			if !ok {
				break
			}
			items = append(items, sq.First())
			cur = value.Seq(sq.Rest())
		}
		out := value.EmptyList
		for _, it := range items {
			out = out.Cons(it)
		}
		return out, nil
	})
	def(ns, "concat", 0, -1, func(args []value.Value) (value.Value, error) {
		var out []value.Value
		for _, a := range args {
			out = append(out, seqToSlice(a)...)
		}
		return value.NewList(out...), nil
	})
	def(ns, "vec", 1, 1, func(args []value.Value) (value.Value, error) {
		if v, ok := args[0].(*value.Vector); ok {
			return v, nil
		}
		return value.NewVector(seqToSlice(args[0])...), nil
	})
	def(ns, "set", 1, 1, func(args []value.Value) (value.Value, error) {
		if s, ok := args[0].(*value.Set); ok {
			return s, nil
		}
		return value.NewSet(seqToSlice(args[0])...), nil
	})
	def(ns, "list*", 1, -1, func(args []value.Value) (value.Value, error) {
		last := args[len(args)-1]
		items := append([]value.Value{}, args[:len(args)-1]...)
		items = append(items, seqToSlice(last)...)
		return value.NewList(items...), nil
	})
	def(ns, "merge", 0, -1, func(args []value.Value) (value.Value, error) {
		out := value.EmptyMap
		for _, a := range args {
			m, ok := a.(*value.Map)
			if !ok {
				if _, isNil := a.(value.Nil); isNil {
					continue
				}
				return nil, fmt.Errorf("merge requires maps")
			}
			for _, e := range m.Entries() {
				out = out.Assoc(e.Key, e.Val)
			}
		}
		return out, nil
	})
	def(ns, "last", 1, 1, func(args []value.Value) (value.Value, error) {
		items := seqToSlice(args[0])
		if len(items) == 0 {
			return value.NilValue, nil
		}
		return items[len(items)-1], nil
	})
	def(ns, "butlast", 1, 1, func(args []value.Value) (value.Value, error) {
		items := seqToSlice(args[0])
		if len(items) <= 1 {
			return value.NilValue, nil
		}
		return value.NewList(items[:len(items)-1]...), nil
	})
	def(ns, "empty", 1, 1, func(args []value.Value) (value.Value, error) {
		switch args[0].(type) {
		case *value.Vector:
			return value.NewVector(), nil
		case *value.Set:
			return value.NewSet(), nil
		case *value.Map:
			return value.EmptyMap, nil
		default:
			return value.EmptyList, nil
		}
	})
	def(ns, "gensym", 0, 1, func(args []value.Value) (value.Value, error) {
		prefix := "G__"
		if len(args) == 1 {
			s, ok := args[0].(value.Str)
			if !ok {
				return nil, fmt.Errorf("gensym prefix must be a string")
			}
			prefix = string(s)
		}
		n := atomic.AddInt64(&gensymSeq, 1)
		return value.NewSymbol("", fmt.Sprintf("%s%d", prefix, n)), nil
	})

	registerHigherOrder(ns, env)
}
