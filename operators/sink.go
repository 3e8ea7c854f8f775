package operators

import (
	"fmt"
	"io"

	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/types"
)

// Sink is the terminal consumer every pipeline eventually reaches: spec
// §4.H's "materialize/print the result."
type Sink interface {
	Emit(row *ir.Row)
}

// WriterSink formats one row per line, tab-separated, in Cols order —
// the engine's stand-in for the original's result printer.
type WriterSink struct {
	W     io.Writer
	Scope *ir.Scope
	Cols  []*iu.IU
}

func (s *WriterSink) Emit(row *ir.Row) {
	for i, c := range s.Cols {
		if i > 0 {
			fmt.Fprint(s.W, "\t")
		}
		fmt.Fprint(s.W, formatValue(row.Get(s.Scope.Slot(c)).(types.Value)))
	}
	fmt.Fprintln(s.W)
}

func formatValue(v types.Value) string {
	switch v.Tag {
	case types.Int32:
		return fmt.Sprint(v.Int32())
	case types.Int64:
		return fmt.Sprint(v.Int64())
	case types.Char:
		return fmt.Sprint(v.Char())
	case types.Bool:
		return fmt.Sprint(v.Bool())
	case types.Double:
		return fmt.Sprintf("%.2f", v.Double())
	case types.Date:
		return fmt.Sprint(v.Date())
	case types.String:
		return v.Str().String()
	default:
		return "?"
	}
}
