// Command queryjit is the driver binary on top of package query's
// library entrypoint (spec §6): it reads a TPC-H scale-factor-1 data
// directory, runs one of a small set of built-in queries against it (the
// region listing under the Simple scheduler variant, the others under
// MultiThreaded), and prints the result — the same
// role cmd/hwygen plays for the code generator, a thin flag-parsing
// shell around the real work.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/operators"
	"github.com/tpch-jitq/queryjit/query"
	"github.com/tpch-jitq/queryjit/scheduler"
	"github.com/tpch-jitq/queryjit/types"
)

var (
	queryName = flag.String("query", "count", "built-in query to run: count, region, q5")
	runs      = flag.Int("runs", 0, "number of times to replay the query (0: use $runs env, default 3)")
)

func main() {
	flag.Parse()

	tpchpath := os.Getenv("tpchpath")
	if tpchpath == "" {
		tpchpath = "../data-generator/output"
	}

	n := *runs
	if n == 0 {
		n = envInt("runs", 3)
	}

	run, ok := builtinQueries[*queryName]
	if !ok {
		fmt.Fprintf(os.Stderr, "queryjit: unknown query %q (want one of: count, region, q5)\n", *queryName)
		os.Exit(1)
	}

	for i := 0; i < n; i++ {
		start := time.Now()
		if err := run(tpchpath); err != nil {
			fmt.Fprintf(os.Stderr, "queryjit: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "run %d/%d: %s\n", i+1, n, time.Since(start))
	}
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

var builtinQueries = map[string]func(tpchpath string) error{
	"count":  runCount,
	"region": runRegion,
	"q5":     runQ5,
}

// runCount is spec §8's "SELECT count(*) FROM lineitem" testable
// end-to-end scenario.
func runCount(tpchpath string) error {
	table, closer, err := loadTable(tpchpath, "lineitem", col("l_orderkey", int32Col))
	if err != nil {
		return err
	}
	defer closer()

	q := query.New(0)
	defer q.Close()

	orderkey := iu.New("l_orderkey", int32Col)
	scan := &operators.Scan{Table: table, Cols: []*iu.IU{orderkey}}

	countOut := iu.New("cnt", int64Col)
	agg := operators.NewAggregation(q.Scope, nil, nil,
		[]operators.Aggregate{{Out: countOut, Kind: operators.AggCount}},
		q.Pool.NumWorkers())

	q.RunScan(scan, scheduler.MultiThreaded, func(workerID uint64) ir.Block {
		return ir.Block{agg.LocalConsume(workerID)}
	})

	sink := &operators.WriterSink{W: os.Stdout, Scope: q.Scope, Cols: []*iu.IU{countOut}}
	agg.Finalize(func(row *ir.Row) { sink.Emit(row) })
	return nil
}

// runRegion is spec §8's "SELECT r_regionkey, r_name FROM region" scenario.
func runRegion(tpchpath string) error {
	table, closer, err := loadTable(tpchpath, "region",
		col("r_regionkey", int32Col), col("r_name", stringCol))
	if err != nil {
		return err
	}
	defer closer()

	q := query.New(0)
	defer q.Close()

	regionkey := iu.New("r_regionkey", int32Col)
	name := iu.New("r_name", stringCol)
	scan := &operators.Scan{Table: table, Cols: []*iu.IU{regionkey, name}}

	sink := &operators.WriterSink{W: os.Stdout, Scope: q.Scope, Cols: []*iu.IU{regionkey, name}}
	q.RunScan(scan, scheduler.Simple, func(uint64) ir.Block {
		return ir.Block{func(row *ir.Row) ir.Signal {
			sink.Emit(row)
			return ir.SignalNext
		}}
	})
	return nil
}

// runQ5 implements spec §8 scenario 4: TPC-H Q5 restricted to r_name =
// 'ASIA' and o_orderdate in [1994-01-01, 1995-01-01), grouped by n_name,
// sorted by revenue desc.
//
// region's single-row filter (r_name = 'ASIA') is resolved up front into
// a constant region key rather than run as a fifth join — a query
// planner would fold a unique-key dimension lookup the same way — which
// keeps every remaining join a plain unfiltered build/probe over
// supplier, nation, orders, and customer, all buildable directly from
// their own Scans with package operators' existing InnerJoin.
func runQ5(tpchpath string) error {
	asiaKey, err := findAsiaRegionKey(tpchpath)
	if err != nil {
		return err
	}

	q := query.New(0)
	defer q.Close()

	lineitem, closeLineitem, err := loadTable(tpchpath, "lineitem",
		col("l_orderkey", int32Col), col("l_suppkey", int32Col),
		col("l_extendedprice", doubleCol), col("l_discount", doubleCol))
	if err != nil {
		return err
	}
	defer closeLineitem()

	supplierTable, closeSupplier, err := loadTable(tpchpath, "supplier",
		col("s_suppkey", int32Col), col("s_nationkey", int32Col))
	if err != nil {
		return err
	}
	defer closeSupplier()

	nationTable, closeNation, err := loadTable(tpchpath, "nation",
		col("n_nationkey", int32Col), col("n_regionkey", int32Col), col("n_name", stringCol))
	if err != nil {
		return err
	}
	defer closeNation()

	ordersTable, closeOrders, err := loadTable(tpchpath, "orders",
		col("o_orderkey", int32Col), col("o_custkey", int32Col), col("o_orderdate", dateCol))
	if err != nil {
		return err
	}
	defer closeOrders()

	customerTable, closeCustomer, err := loadTable(tpchpath, "customer",
		col("c_custkey", int32Col), col("c_nationkey", int32Col))
	if err != nil {
		return err
	}
	defer closeCustomer()

	lOrderkey := iu.New("l_orderkey", int32Col)
	lSuppkey := iu.New("l_suppkey", int32Col)
	lExtPrice := iu.New("l_extendedprice", doubleCol)
	lDiscount := iu.New("l_discount", doubleCol)
	lineScan := &operators.Scan{Table: lineitem, Cols: []*iu.IU{lOrderkey, lSuppkey, lExtPrice, lDiscount}}

	sSuppkey := iu.New("s_suppkey", int32Col)
	sNationkey := iu.New("s_nationkey", int32Col)
	supplierScan := &operators.Scan{Table: supplierTable, Cols: []*iu.IU{sSuppkey, sNationkey}}
	supplierJoin := operators.NewInnerJoin(q.Scope,
		[]expr.Expr{expr.Ref{ID: sSuppkey, Typ: int32Col, Scope: q.Scope}},
		[]expr.Expr{expr.Ref{ID: lSuppkey, Typ: int32Col, Scope: q.Scope}},
		[]*iu.IU{sNationkey})

	nNationkey := iu.New("n_nationkey", int32Col)
	nRegionkey := iu.New("n_regionkey", int32Col)
	nName := iu.New("n_name", stringCol)
	nationScan := &operators.Scan{Table: nationTable, Cols: []*iu.IU{nNationkey, nRegionkey, nName}}
	nationJoin := operators.NewInnerJoin(q.Scope,
		[]expr.Expr{expr.Ref{ID: nNationkey, Typ: int32Col, Scope: q.Scope}},
		[]expr.Expr{expr.Ref{ID: sNationkey, Typ: int32Col, Scope: q.Scope}},
		[]*iu.IU{nRegionkey, nName})

	oOrderkey := iu.New("o_orderkey", int32Col)
	oCustkey := iu.New("o_custkey", int32Col)
	oOrderdate := iu.New("o_orderdate", dateCol)
	ordersScan := &operators.Scan{Table: ordersTable, Cols: []*iu.IU{oOrderkey, oCustkey, oOrderdate}}
	ordersJoin := operators.NewInnerJoin(q.Scope,
		[]expr.Expr{expr.Ref{ID: oOrderkey, Typ: int32Col, Scope: q.Scope}},
		[]expr.Expr{expr.Ref{ID: lOrderkey, Typ: int32Col, Scope: q.Scope}},
		[]*iu.IU{oCustkey, oOrderdate})

	cCustkey := iu.New("c_custkey", int32Col)
	cNationkey := iu.New("c_nationkey", int32Col)
	customerScan := &operators.Scan{Table: customerTable, Cols: []*iu.IU{cCustkey, cNationkey}}
	customerJoin := operators.NewInnerJoin(q.Scope,
		[]expr.Expr{expr.Ref{ID: cCustkey, Typ: int32Col, Scope: q.Scope}},
		[]expr.Expr{expr.Ref{ID: oCustkey, Typ: int32Col, Scope: q.Scope}},
		[]*iu.IU{cNationkey})

	joins := []*operators.InnerJoin{supplierJoin, nationJoin, ordersJoin, customerJoin}
	scans := []*operators.Scan{supplierScan, nationScan, ordersScan, customerScan}
	if err := q.BuildJoins(joins, scans); err != nil {
		return fmt.Errorf("building join hash tables: %w", err)
	}

	lo, hi := int32(2449354), int32(2449719) // [1994-01-01, 1995-01-01)
	regionSel := &operators.Selection{Predicate: expr.Binary{
		Op: types.OpEq,
		L:  expr.Ref{ID: nRegionkey, Typ: int32Col, Scope: q.Scope},
		R:  expr.Const{Val: asiaKey},
	}}
	dateSel := &operators.Selection{Predicate: expr.Binary{
		Op: types.OpGe,
		L:  expr.Ref{ID: oOrderdate, Typ: dateCol, Scope: q.Scope},
		R:  expr.Const{Val: dateConst(lo)},
	}}
	dateHiSel := &operators.Selection{Predicate: expr.Binary{
		Op: types.OpLt,
		L:  expr.Ref{ID: oOrderdate, Typ: dateCol, Scope: q.Scope},
		R:  expr.Const{Val: dateConst(hi)},
	}}
	residualSel := &operators.Selection{Predicate: expr.Binary{
		Op: types.OpEq,
		L:  expr.Ref{ID: cNationkey, Typ: int32Col, Scope: q.Scope},
		R:  expr.Ref{ID: sNationkey, Typ: int32Col, Scope: q.Scope},
	}}

	revenue := iu.New("revenue", doubleCol)
	revenueMap := &operators.Map{Scope: q.Scope, Projections: []operators.Projection{{
		Out: revenue,
		Expr: expr.Binary{
			Op: types.OpMul,
			L:  expr.Ref{ID: lExtPrice, Typ: doubleCol, Scope: q.Scope},
			R: expr.Binary{
				Op: types.OpSub,
				L:  expr.Const{Val: doubleConst(1)},
				R:  expr.Ref{ID: lDiscount, Typ: doubleCol, Scope: q.Scope},
			},
		},
	}}}

	revenueOut := iu.New("total_revenue", doubleCol)
	agg := operators.NewAggregation(q.Scope,
		[]expr.Expr{expr.Ref{ID: nName, Typ: stringCol, Scope: q.Scope}},
		[]*iu.IU{nName},
		[]operators.Aggregate{{Out: revenueOut, Kind: operators.AggSum,
			In: expr.Ref{ID: revenue, Typ: doubleCol, Scope: q.Scope}}},
		q.Pool.NumWorkers())

	q.RunScan(lineScan, scheduler.MultiThreaded, func(workerID uint64) ir.Block {
		b := ir.NewBuilder()
		supplierJoin.Compile(b, func(b *ir.Builder) {
			nationJoin.Compile(b, func(b *ir.Builder) {
				regionSel.Compile(b, func(b *ir.Builder) {
					ordersJoin.Compile(b, func(b *ir.Builder) {
						dateSel.Compile(b, func(b *ir.Builder) {
							dateHiSel.Compile(b, func(b *ir.Builder) {
								customerJoin.Compile(b, func(b *ir.Builder) {
									residualSel.Compile(b, func(b *ir.Builder) {
										revenueMap.Compile(b, func(b *ir.Builder) {
											b.Emit(agg.LocalConsume(workerID))
										})
									})
								})
							})
						})
					})
				})
			})
		})
		return b.Build()
	})

	sort := operators.NewSort(q.Scope,
		[]operators.SortKey{{Expr: expr.Ref{ID: revenueOut, Typ: doubleCol, Scope: q.Scope}, Desc: true}},
		[]*iu.IU{nName, revenueOut})
	agg.Finalize(func(row *ir.Row) { sort.Consume(row) })

	sink := &operators.WriterSink{W: os.Stdout, Scope: q.Scope, Cols: []*iu.IU{nName, revenueOut}}
	sort.Finalize(func(row *ir.Row) { sink.Emit(row) })
	return nil
}
