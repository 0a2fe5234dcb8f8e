package treewalk

import (
	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/rt"
	"github.com/cljwlang/cljw/internal/value"
)

// evalDefRecord only records the field layout; the constructor Defs the
// analyzer splices in alongside this node do the actual work, calling
// through to internal/builtin's __record-new/__record-from-map.
func evalDefRecord(env *rt.Env, n *ast.DefRecord) value.Value {
	env.RecordSchemas[n.Name] = append([]string(nil), n.Fields...)
	return value.NilValue
}
