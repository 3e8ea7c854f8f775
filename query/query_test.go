package query

import (
	"testing"

	"github.com/tpch-jitq/queryjit/compiler"
	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/operators"
	"github.com/tpch-jitq/queryjit/scheduler"
	"github.com/tpch-jitq/queryjit/types"
)

func TestValidateRejectsUnknownSymbol(t *testing.T) {
	q := New(1)
	defer q.Close()

	if err := q.Validate(compiler.Plan{Name: "ok", Symbols: []string{"hash", "hashKeys"}}); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if err := q.Validate(compiler.Plan{Name: "bad", Symbols: []string{"nonexistent"}}); err == nil {
		t.Fatalf("Validate() = nil, want error")
	}
}

// TestCountStarAcrossPartitions drives a multi-worker scan+selection+
// aggregation end to end, the engine's version of spec §8's "count(*)
// over lineitem" testable property: the result must equal a plain
// sequential count regardless of how many partitions the scheduler
// split the table into.
func TestCountStarAcrossPartitions(t *testing.T) {
	const n = 10000
	vals := make([]types.Value, n)
	for i := range vals {
		vals[i] = types.Int32Value(int32(i % 7))
	}
	table := operators.NewTable("t", &operators.Column{Name: "k", Type: types.Int32, Vals: vals})

	q := New(4)
	defer q.Close()

	k := iu.New("k", types.Int32)
	scan := &operators.Scan{Table: table, Cols: []*iu.IU{k}}

	groupOut := iu.New("k_out", types.Int32)
	countOut := iu.New("cnt", types.Int64)
	agg := operators.NewAggregation(q.Scope,
		[]expr.Expr{expr.Ref{ID: k, Typ: types.Int32, Scope: q.Scope}},
		[]*iu.IU{groupOut},
		[]operators.Aggregate{{Out: countOut, Kind: operators.AggCount}},
		q.Pool.NumWorkers(),
	)

	q.RunScan(scan, scheduler.MultiThreaded, func(workerID uint64) ir.Block {
		return ir.Block{agg.LocalConsume(workerID)}
	})

	var total int64
	results := make(map[int32]int64)
	agg.Finalize(func(row *ir.Row) {
		g := row.Get(q.Scope.Slot(groupOut)).(types.Value).Int32()
		c := row.Get(q.Scope.Slot(countOut)).(types.Value).Int64()
		results[g] = c
		total += c
	})

	if total != n {
		t.Fatalf("total = %d, want %d", total, n)
	}
	if len(results) != 7 {
		t.Fatalf("got %d groups, want 7", len(results))
	}
	for g, c := range results {
		want := int64(n / 7)
		if int32(g) < int32(n%7) {
			want++
		}
		if c != want {
			t.Errorf("group %d count = %d, want %d", g, c, want)
		}
	}
}

// TestSelectionBeforeAggregationFiltersRows combines Selection with
// Aggregation across a multi-worker scan, spec §8's distinct-count /
// filtered-count shape.
func TestSelectionBeforeAggregationFiltersRows(t *testing.T) {
	const n = 2000
	vals := make([]types.Value, n)
	for i := range vals {
		vals[i] = types.Int32Value(int32(i))
	}
	table := operators.NewTable("t", &operators.Column{Name: "v", Type: types.Int32, Vals: vals})

	q := New(4)
	defer q.Close()

	v := iu.New("v", types.Int32)
	scan := &operators.Scan{Table: table, Cols: []*iu.IU{v}}
	sel := &operators.Selection{Predicate: expr.Binary{
		Op: types.OpLt, L: expr.Ref{ID: v, Typ: types.Int32, Scope: q.Scope}, R: expr.Const{Val: types.Int32Value(1000)},
	}}

	countOut := iu.New("cnt", types.Int64)
	agg := operators.NewAggregation(q.Scope, nil, nil,
		[]operators.Aggregate{{Out: countOut, Kind: operators.AggCount}},
		q.Pool.NumWorkers(),
	)

	q.RunScan(scan, scheduler.MultiThreaded, func(workerID uint64) ir.Block {
		b := ir.NewBuilder()
		sel.Compile(b, func(b *ir.Builder) {
			b.Emit(agg.LocalConsume(workerID))
		})
		return b.Build()
	})

	var total int64
	agg.Finalize(func(row *ir.Row) {
		total = row.Get(q.Scope.Slot(countOut)).(types.Value).Int64()
	})

	if total != 1000 {
		t.Fatalf("filtered count = %d, want 1000", total)
	}
}
