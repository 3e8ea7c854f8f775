package operators

import (
	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
)

// Projection is one derived-column definition a Map operator introduces.
type Projection struct {
	Out  *iu.IU
	Expr expr.Expr
}

// Map evaluates each Projection against the current row and binds the
// result into Out's slot, then falls straight through — spec §4.H's Map
// is non-materializing, like Selection.
type Map struct {
	Scope       *ir.Scope
	Projections []Projection
}

// Compile emits this map's projections followed by then.
func (m *Map) Compile(b *ir.Builder, then func(b *ir.Builder)) {
	for _, p := range m.Projections {
		p := p
		slot := m.Scope.Slot(p.Out)
		b.Emit(func(row *ir.Row) ir.Signal {
			row.Set(slot, p.Expr.Eval(row))
			return ir.SignalNext
		})
	}
	then(b)
}
