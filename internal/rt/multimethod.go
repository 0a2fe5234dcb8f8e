package rt

import "github.com/cljwlang/cljw/internal/value"

// tagFor produces the hierarchy key for a dispatch value: keywords and
// symbols dispatch by their printed form (so `derive` on ::circle works
// the way users expect), everything else dispatches by HashKey equality
// only and never participates in isa? ancestry.
func tagFor(v value.Value) (string, bool) {
	switch t := v.(type) {
	case value.Keyword:
		return t.String(), true
	case value.Symbol:
		return t.String(), true
	default:
		return "", false
	}
}

// ResolveMethod implements spec §4.9's dispatch algorithm: exact match on
// HashKey first, then (if the dispatch value is a keyword/symbol) the
// most specific isa? ancestor with a registered method, falling back to
// :default.
func ResolveMethod(h *Hierarchy, mf *value.MultiFn, dispatchVal value.Value) (value.Value, bool) {
	if fn, ok := mf.ExactMethod(dispatchVal); ok {
		return fn, true
	}
	if tag, isTag := tagFor(dispatchVal); isTag {
		var candidates []value.MultiMethodEntry
		for _, entry := range mf.Methods {
			entryTag, ok := tagFor(entry.DispatchVal)
			if !ok {
				continue
			}
			if h.IsA(tag, entryTag) {
				candidates = append(candidates, entry)
			}
		}
		if len(candidates) == 1 {
			return candidates[0].Fn, true
		}
		if len(candidates) > 1 {
			best := candidates[0]
			for _, c := range candidates[1:] {
				cTag, _ := tagFor(c.DispatchVal)
				bTag, _ := tagFor(best.DispatchVal)
				if mf.Prefers(c.DispatchVal, best.DispatchVal) ||
					(h.IsA(cTag, bTag) && !mf.Prefers(best.DispatchVal, c.DispatchVal)) {
					best = c
				}
			}
			return best.Fn, true
		}
	}
	if fn, ok := mf.DefaultMethod(); ok {
		return fn, true
	}
	return nil, false
}
