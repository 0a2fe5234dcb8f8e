package builtin

import (
	"fmt"

	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// registerRecords wires the two synthetic constructors defrecord's
// expansion calls through (see internal/analyzer's analyzeDefRecord):
// __record-new takes the record name and field keyword/value pairs in
// declaration order; __record-from-map takes the name and an arbitrary
// map, keeping only the declared fields' keys.
func registerRecords(ns *rt.Namespace, env *rt.Env) {
	def(ns, "__record-new", 1, -1, func(args []value.Value) (value.Value, error) {
		name, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		if len(args[1:])%2 != 0 {
			return nil, fmt.Errorf("record constructor requires key/value pairs")
		}
		m := value.EmptyMap
		for i := 1; i+1 < len(args); i += 2 {
			m = m.Assoc(args[i], args[i+1])
		}
		return &value.ReifyInstance{TypeKey: name, Fields: m}, nil
	})
	def(ns, "__record-from-map", 2, 2, func(args []value.Value) (value.Value, error) {
		name, err := asStr(args[0])
		if err != nil {
			return nil, err
		}
		src, ok := args[1].(*value.Map)
		if !ok {
			return nil, fmt.Errorf("map->Record requires a map")
		}
		fields, ok := env.RecordSchemas[name]
		m := value.EmptyMap
		if ok {
			for _, f := range fields {
				k := value.NewKeyword("", f)
				if v, found := src.Get(k); found {
					m = m.Assoc(k, v)
				}
			}
		} else {
			for _, e := range src.Entries() {
				m = m.Assoc(e.Key, e.Val)
			}
		}
		return &value.ReifyInstance{TypeKey: name, Fields: m}, nil
	})
}
