package gc

import "github.com/cljwlang/cljw/internal/value"

// children returns the Values directly contained by v, for the mark phase
// to recurse into. Scalar/immediate kinds return nil (no references to
// follow); this is intentionally not an exhaustive switch like
// value.TypeName's — an unhandled composite kind here means "treated as a
// leaf", which is always safe, just potentially under-marks a kind added
// later without updating this file.
func children(v value.Value) []value.Value {
	switch x := v.(type) {
	case *value.List:
		return seqChildren(x)
	case *value.Vector:
		return x.Items()
	case *value.Map:
		out := make([]value.Value, 0, x.Count()*2)
		for _, e := range x.Entries() {
			out = append(out, e.Key, e.Val)
		}
		return out
	case *value.Set:
		return x.Members()
	case *value.Cons:
		return seqChildren(x)
	case *value.LazySeq:
		out := []value.Value{x.Thunk()}
		if cached, ok := x.Cached(); ok {
			out = append(out, cached)
		}
		return out
	case *value.Fn:
		var out []value.Value
		for _, c := range x.Captures {
			out = append(out, c...)
		}
		if x.Meta != nil {
			out = append(out, x.Meta)
		}
		return out
	case *value.Atom:
		out := []value.Value{x.Deref()}
		if x.Meta != nil {
			out = append(out, x.Meta)
		}
		return out
	case *value.Volatile:
		return []value.Value{x.Deref()}
	case *value.Delay:
		out := []value.Value{x.Thunk()}
		if cached, ok := x.Cached(); ok {
			out = append(out, cached)
		}
		return out
	case *value.Protocol:
		var out []value.Value
		for _, methods := range x.Impls {
			for _, fn := range methods {
				out = append(out, fn)
			}
		}
		return out
	case *value.MultiFn:
		out := []value.Value{x.DispatchFn}
		for _, e := range x.Methods {
			out = append(out, e.Fn)
		}
		return out
	case *value.ReifyInstance:
		out := []value.Value{x.Fields}
		for _, fn := range x.Methods {
			out = append(out, fn)
		}
		return out
	case *value.Reduced:
		return []value.Value{x.Val}
	default:
		return nil
	}
}

// seqChildren walks a spine (List/Cons) one element at a time via the
// normal Seq API rather than reaching into private fields.
func seqChildren(v value.Value) []value.Value {
	var out []value.Value
	cur := v
	for {
		s := value.Seq(cur)
		if _, ok := s.(value.Nil); ok {
			return out
		}
		sq := s.(value.Seqer)
		out = append(out, sq.First())
		cur = sq.Rest()
	}
}
