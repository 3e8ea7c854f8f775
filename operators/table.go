// Package operators implements the produce/consume operator tree (spec
// §4.H): Scan, Selection, Map, InnerJoin, Aggregation, and Sort, each
// built the way its original description compiles it but lowered to
// ir.Builder-composed closures instead of LLVM IR.
package operators

import "github.com/tpch-jitq/queryjit/types"

// Column is one in-memory, already-typed column of a boundary-loaded
// table (package loader produces these from the mmap'd TPC-H files;
// tests build them directly as fixtures).
type Column struct {
	Name string
	Type types.Tag
	Vals []types.Value
}

// Table is a column-oriented in-memory relation, the scan operator's
// input. NumRows is authoritative — every Column must have exactly
// NumRows values.
type Table struct {
	Name    string
	Columns []*Column
	NumRows int
}

// NewTable builds a Table from columns, deriving NumRows from the first
// column (panics if columns disagree on length, a fixture-construction
// bug rather than a runtime condition).
func NewTable(name string, columns ...*Column) *Table {
	t := &Table{Name: name, Columns: columns}
	if len(columns) > 0 {
		t.NumRows = len(columns[0].Vals)
	}
	for _, c := range columns {
		if len(c.Vals) != t.NumRows {
			panic("operators: table " + name + ": column " + c.Name + " length mismatch")
		}
	}
	return t
}

// Column looks up a column by name, or returns nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}
