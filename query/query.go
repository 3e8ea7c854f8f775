package query

import (
	"golang.org/x/sync/errgroup"

	"github.com/tpch-jitq/queryjit/compiler"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/operators"
	"github.com/tpch-jitq/queryjit/scheduler"
)

// Query holds the shared resources one query's pipelines run against: a
// single Scope (so every operator in the plan agrees on IU→slot
// assignment), and a persistent scheduler.Pool reused across the
// pipelines a plan splits into at each materializing operator.
type Query struct {
	Scope  *ir.Scope
	Pool   *scheduler.Pool
	Symbol *SymbolTable
}

// New creates a Query with a fresh Scope and a numWorkers-sized pool.
func New(numWorkers int) *Query {
	return &Query{
		Scope:  ir.NewScope(),
		Pool:   scheduler.New(numWorkers),
		Symbol: NewSymbolTable(),
	}
}

// Close releases the query's worker pool.
func (q *Query) Close() { q.Pool.Close() }

// Validate runs compiler.Validate against this query's symbol table,
// confirming plan only references runtime symbols this build resolves
// before any of its pipelines run.
func (q *Query) Validate(plan compiler.Plan) error {
	return compiler.Validate(plan, q.Symbol)
}

// BuildJoins materializes every InnerJoin's build side concurrently,
// using errgroup to fork one goroutine per join and join on the first
// error (none of InnerJoin.Build's steps can fail, but errgroup is the
// right fork-join primitive regardless). Independent joins' build sides share no state, so
// running them concurrently is always safe.
func (q *Query) BuildJoins(joins []*operators.InnerJoin, scans []*operators.Scan) error {
	// Pre-register every join's build-side columns (and the build scan's
	// own columns) before forking: Build touches q.Scope lazily through
	// Scope.Slot the first time it binds a BuildCols IU, and with every
	// join's Build running in its own goroutine below, two joins racing
	// to allocate a slot in the same unsynchronized Scope at once is a
	// real data race, not just a hypothetical one.
	for i := range joins {
		for _, id := range scans[i].Cols {
			q.Scope.Slot(id)
		}
		for _, id := range joins[i].BuildCols {
			q.Scope.Slot(id)
		}
	}

	g := new(errgroup.Group)
	for i := range joins {
		i := i
		g.Go(func() error {
			joins[i].Build(scans[i])
			return nil
		})
	}
	return g.Wait()
}

// RunScan drives scan's table through the per-worker Block bodyFor
// builds, using the scheduler variant. bodyFor is called once per worker
// id so operators like Aggregation.LocalConsume that need worker-keyed
// state (via tls.Storage) can close over the right id.
//
// Every bodyFor(workerID) call is made up front, sequentially, before
// any partition is dispatched — Compile (Selection/Map/InnerJoin) and
// Scan's own column binding both allocate new IU slots in q.Scope the
// first time an IU is touched, and q.Scope's slot map is not
// synchronized: calling bodyFor lazily from inside the scheduler's
// worker goroutines would race on it, and could also size a worker's Row
// before a slot it needs exists. Pre-compiling once per worker id keeps
// every Scope mutation on this single goroutine; the dispatched workers
// only ever read already-assigned slots.
func (q *Query) RunScan(scan *operators.Scan, variant scheduler.Variant, bodyFor func(workerID uint64) ir.Block) {
	for _, id := range scan.Cols {
		q.Scope.Slot(id)
	}

	n := q.Pool.NumWorkers()
	if n < 1 {
		n = 1
	}
	bodies := make([]ir.Block, n)
	for w := 0; w < n; w++ {
		bodies[w] = bodyFor(uint64(w))
	}

	sched := scheduler.NewScheduler(q.Pool, variant)
	sched.Run(scan.Table.NumRows, func(workerID uint64, lo, hi int) {
		scan.RunRange(lo, hi, q.Scope, bodies[workerID])
	})
}
