package operators

import (
	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/ir"
)

// Selection is a non-materializing filter: it contributes no new IUs,
// and simply wraps whatever the rest of the pipeline does in an `if`, so
// a row failing Predicate is dropped without unwinding the pipeline
// (spec §4.H).
type Selection struct {
	Predicate expr.Expr
}

// Compile emits this selection's `if` around then, the block produced by
// compiling the rest of the pipeline (the next operator's own Compile
// call, recursively).
func (s *Selection) Compile(b *ir.Builder, then func(b *ir.Builder)) {
	b.PushBlock()
	then(b)
	thenBlock := b.PopBlock()
	b.If(func(row *ir.Row) bool { return s.Predicate.Eval(row).Bool() }, thenBlock)
}
