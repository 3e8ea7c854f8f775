package operators

import (
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
)

// Scan is the pipeline's source operator (spec §4.H). Unlike every other
// operator in this package it does not go through ir.Builder to produce
// its own rows: the partition bounds a scan reads come from the
// scheduler at run time, not from anything known when the pipeline is
// compiled, so Scan drives its row loop directly in Go and only hands
// off to the compiled downstream Block (Selection/Map/.../consume) per
// row. This mirrors the original in spirit — the generated scan loop is
// parameterized by a runtime partition range — without requiring the
// partition bounds to be baked into the IR.
type Scan struct {
	Table *Table
	// Cols maps table column index to the IU that row binds it to.
	Cols []*iu.IU
}

// RunRange executes body once per row in [lo, hi), first loading this
// scan's declared columns into scope's slots. A SignalReturn from body
// (e.g. Aggregation ending a thread's local phase early, or a LIMIT)
// stops the loop.
func (s *Scan) RunRange(lo, hi int, scope *ir.Scope, body ir.Block) {
	// Resolve every column's slot before sizing the row: scope.Slot
	// allocates on first touch, and scope.NewRow sizes the row from
	// however many slots exist at the moment it's called, so the
	// allocation has to happen first or a column touched for the first
	// time here would index past the end of row.Slots.
	slots := make([]int, len(s.Cols))
	for i, id := range s.Cols {
		slots[i] = scope.Slot(id)
	}

	row := scope.NewRow()
	for i := lo; i < hi; i++ {
		for colIdx, slot := range slots {
			row.Set(slot, s.Table.Columns[colIdx].Vals[i])
		}
		if body.Run(row) == ir.SignalReturn {
			return
		}
	}
}
