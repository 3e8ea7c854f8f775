package operators

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/types"
)

func regionTable() *Table {
	names := []string{"AFRICA", "AMERICA", "ASIA", "EUROPE", "MIDDLE EAST"}
	vals := make([]types.Value, len(names))
	for i, n := range names {
		vals[i] = types.StringValue(types.NewStringView([]byte(n)))
	}
	ids := make([]types.Value, len(names))
	for i := range names {
		ids[i] = types.Int32Value(int32(i))
	}
	return NewTable("region",
		&Column{Name: "r_regionkey", Type: types.Int32, Vals: ids},
		&Column{Name: "r_name", Type: types.String, Vals: vals},
	)
}

func TestScanSelectionSinkCountsMatchingRows(t *testing.T) {
	table := regionTable()
	scope := ir.NewScope()
	nameIU := iu.New("r_name", types.String)
	scan := &Scan{Table: table, Cols: []*iu.IU{iu.New("r_regionkey", types.Int32), nameIU}}

	sel := &Selection{Predicate: expr.Like{
		X: expr.Ref{ID: nameIU, Typ: types.String, Scope: scope}, Pattern: "A", Kind: expr.LikeContainsKind,
	}}

	var count int
	b := ir.NewBuilder()
	sel.Compile(b, func(b *ir.Builder) {
		b.Emit(func(row *ir.Row) ir.Signal { count++; return ir.SignalNext })
	})
	body := b.Build()

	scan.RunRange(0, table.NumRows, scope, body)

	if count != 4 { // AFRICA, AMERICA, ASIA, MIDDLE EAST
		t.Errorf("count = %d, want 4", count)
	}
}

func TestScanMapSinkDerivesColumn(t *testing.T) {
	table := regionTable()
	scope := ir.NewScope()
	key := iu.New("r_regionkey", types.Int32)
	scan := &Scan{Table: table, Cols: []*iu.IU{key}}

	doubled := iu.New("doubled", types.Int32)
	m := &Map{Scope: scope, Projections: []Projection{
		{Out: doubled, Expr: expr.Binary{Op: types.OpMul, L: expr.Ref{ID: key, Typ: types.Int32, Scope: scope}, R: expr.Const{Val: types.Int32Value(2)}}},
	}}

	var buf bytes.Buffer
	sink := &WriterSink{W: &buf, Scope: scope, Cols: []*iu.IU{doubled}}

	b := ir.NewBuilder()
	m.Compile(b, func(b *ir.Builder) {
		b.Emit(func(row *ir.Row) ir.Signal { sink.Emit(row); return ir.SignalNext })
	})
	body := b.Build()
	scan.RunRange(0, table.NumRows, scope, body)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "0" || lines[1] != "2" || lines[4] != "8" {
		t.Errorf("unexpected output: %v", lines)
	}
}

func TestAggregationGroupsAndReduces(t *testing.T) {
	scope := ir.NewScope()
	region := iu.New("region", types.Int32)
	amount := iu.New("amount", types.Int64)
	scan := &Scan{
		Table: NewTable("t",
			&Column{Name: "region", Type: types.Int32, Vals: []types.Value{types.Int32Value(0), types.Int32Value(1), types.Int32Value(0)}},
			&Column{Name: "amount", Type: types.Int64, Vals: []types.Value{types.Int64Value(10), types.Int64Value(5), types.Int64Value(7)}},
		),
		Cols: []*iu.IU{region, amount},
	}

	groupOut := iu.New("region_out", types.Int32)
	sumOut := iu.New("total", types.Int64)
	agg := NewAggregation(scope,
		[]expr.Expr{expr.Ref{ID: region, Typ: types.Int32, Scope: scope}},
		[]*iu.IU{groupOut},
		[]Aggregate{{Out: sumOut, Kind: AggSum, In: expr.Ref{ID: amount, Typ: types.Int64, Scope: scope}}},
		1,
	)

	local := agg.LocalConsume(1)
	scan.RunRange(0, scan.Table.NumRows, scope, ir.Block{local})

	results := make(map[int32]int64)
	agg.Finalize(func(row *ir.Row) {
		g := row.Get(scope.Slot(groupOut)).(types.Value).Int32()
		s := row.Get(scope.Slot(sumOut)).(types.Value).Int64()
		results[g] = s
	})

	if results[0] != 17 {
		t.Errorf("group 0 sum = %d, want 17", results[0])
	}
	if results[1] != 5 {
		t.Errorf("group 1 sum = %d, want 5", results[1])
	}
}

func TestSortOrdersByKeyDescending(t *testing.T) {
	scope := ir.NewScope()
	val := iu.New("val", types.Int32)
	scan := &Scan{
		Table: NewTable("t", &Column{Name: "val", Type: types.Int32, Vals: []types.Value{
			types.Int32Value(3), types.Int32Value(1), types.Int32Value(2),
		}}),
		Cols: []*iu.IU{val},
	}

	srt := NewSort(scope, []SortKey{{Expr: expr.Ref{ID: val, Typ: types.Int32, Scope: scope}, Desc: true}}, []*iu.IU{val})
	scan.RunRange(0, scan.Table.NumRows, scope, ir.Block{srt.Consume})

	var order []int32
	srt.Finalize(func(row *ir.Row) {
		order = append(order, row.Get(scope.Slot(val)).(types.Value).Int32())
	})

	want := []int32{3, 2, 1}
	for i, w := range want {
		if order[i] != w {
			t.Errorf("order[%d] = %d, want %d", i, order[i], w)
		}
	}
}

// TestSortSingleInt32KeyStableOnTies exercises the sortutil.ArgSort32
// fast path (a single Int32/Date sort key) together with a tag IU that
// isn't part of the sort key, confirming ties keep their original row
// order the same way the general comparator path does.
func TestSortSingleInt32KeyStableOnTies(t *testing.T) {
	scope := ir.NewScope()
	val := iu.New("val", types.Int32)
	tag := iu.New("tag", types.Int32)
	scan := &Scan{
		Table: NewTable("t",
			&Column{Name: "val", Type: types.Int32, Vals: []types.Value{
				types.Int32Value(1), types.Int32Value(1), types.Int32Value(0), types.Int32Value(1),
			}},
			&Column{Name: "tag", Type: types.Int32, Vals: []types.Value{
				types.Int32Value(10), types.Int32Value(20), types.Int32Value(30), types.Int32Value(40),
			}},
		),
		Cols: []*iu.IU{val, tag},
	}

	srt := NewSort(scope, []SortKey{{Expr: expr.Ref{ID: val, Typ: types.Int32, Scope: scope}}}, []*iu.IU{val, tag})
	scan.RunRange(0, scan.Table.NumRows, scope, ir.Block{srt.Consume})

	var tags []int32
	srt.Finalize(func(row *ir.Row) {
		tags = append(tags, row.Get(scope.Slot(tag)).(types.Value).Int32())
	})

	want := []int32{30, 10, 20, 40}
	for i, w := range want {
		if tags[i] != w {
			t.Errorf("tags[%d] = %d, want %d (ties must preserve original order)", i, tags[i], w)
		}
	}
}

func TestInnerJoinBindsBuildColumnsOnMatch(t *testing.T) {
	scope := ir.NewScope()
	buildKey := iu.New("build_key", types.Int32)
	buildVal := iu.New("build_val", types.String)
	buildScan := &Scan{
		Table: NewTable("build",
			&Column{Name: "k", Type: types.Int32, Vals: []types.Value{types.Int32Value(1), types.Int32Value(2)}},
			&Column{Name: "v", Type: types.String, Vals: []types.Value{
				types.StringValue(types.NewStringView([]byte("one"))),
				types.StringValue(types.NewStringView([]byte("two"))),
			}},
		),
		Cols: []*iu.IU{buildKey, buildVal},
	}

	probeKey := iu.New("probe_key", types.Int32)
	probeScan := &Scan{
		Table: NewTable("probe", &Column{Name: "k", Type: types.Int32, Vals: []types.Value{
			types.Int32Value(2), types.Int32Value(3),
		}}),
		Cols: []*iu.IU{probeKey},
	}

	join := NewInnerJoin(scope,
		[]expr.Expr{expr.Ref{ID: buildKey, Typ: types.Int32, Scope: scope}},
		[]expr.Expr{expr.Ref{ID: probeKey, Typ: types.Int32, Scope: scope}},
		[]*iu.IU{buildKey, buildVal},
	)
	join.Build(buildScan)

	var matched []string
	b := ir.NewBuilder()
	join.Compile(b, func(b *ir.Builder) {
		b.Emit(func(row *ir.Row) ir.Signal {
			matched = append(matched, row.Get(scope.Slot(buildVal)).(types.Value).Str().String())
			return ir.SignalNext
		})
	})
	body := b.Build()
	probeScan.RunRange(0, probeScan.Table.NumRows, scope, body)

	if len(matched) != 1 || matched[0] != "two" {
		t.Errorf("matched = %v, want [two]", matched)
	}
}

// TestInnerJoinRejectsBucketCollisions exercises the common real-world
// shape where BuildCols excludes the key column entirely (the key is
// only needed to find matches, never projected downstream — e.g.
// cmd/queryjit's joins). With 10 distinct build keys and a table sized
// by HyperLogLog to a handful of buckets, the pigeonhole principle
// guarantees at least one bucket holds more than one distinct key, so a
// probe that only trusted "found something in this bucket with a
// compatible tag" (skipping the key-by-key recheck spec §4.H step c
// requires) would occasionally bind the wrong build row's value.
func TestInnerJoinRejectsBucketCollisions(t *testing.T) {
	scope := ir.NewScope()
	buildKey := iu.New("build_key", types.Int32)
	buildVal := iu.New("build_val", types.Int32)

	const n = 10
	keys := make([]types.Value, n)
	vals := make([]types.Value, n)
	for i := 0; i < n; i++ {
		keys[i] = types.Int32Value(int32(i))
		vals[i] = types.Int32Value(int32(i * 100))
	}
	buildScan := &Scan{
		Table: NewTable("build",
			&Column{Name: "k", Type: types.Int32, Vals: keys},
			&Column{Name: "v", Type: types.Int32, Vals: vals},
		),
		Cols: []*iu.IU{buildKey, buildVal},
	}

	probeKey := iu.New("probe_key", types.Int32)
	probeScan := &Scan{
		Table: NewTable("probe", &Column{Name: "k", Type: types.Int32, Vals: keys}),
		Cols:  []*iu.IU{probeKey},
	}

	join := NewInnerJoin(scope,
		[]expr.Expr{expr.Ref{ID: buildKey, Typ: types.Int32, Scope: scope}},
		[]expr.Expr{expr.Ref{ID: probeKey, Typ: types.Int32, Scope: scope}},
		[]*iu.IU{buildVal}, // buildKey deliberately excluded from BuildCols
	)
	join.Build(buildScan)

	got := map[int32]int32{}
	b := ir.NewBuilder()
	join.Compile(b, func(b *ir.Builder) {
		b.Emit(func(row *ir.Row) ir.Signal {
			k := row.Get(scope.Slot(probeKey)).(types.Value).Int32()
			v := row.Get(scope.Slot(buildVal)).(types.Value).Int32()
			got[k] = v
			return ir.SignalNext
		})
	})
	body := b.Build()
	probeScan.RunRange(0, probeScan.Table.NumRows, scope, body)

	if len(got) != n {
		t.Fatalf("matched %d rows, want %d", len(got), n)
	}
	for i := 0; i < n; i++ {
		if want := int32(i * 100); got[int32(i)] != want {
			t.Errorf("probe key %d bound build_val = %d, want %d", i, got[int32(i)], want)
		}
	}
}
