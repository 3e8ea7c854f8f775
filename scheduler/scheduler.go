// Package scheduler implements the scan-partition scheduler (spec §4.I):
// a fixed chunk size plus atomic fetch-add dispatch hands each worker a
// contiguous row range to drive through a compiled pipeline. The
// persistent-worker-pool structure is adapted directly from the
// teacher's hwy/contrib/workerpool.Pool — same bounded work channel,
// same atomic-index work-stealing dispatch in ParallelForAtomicBatched —
// repurposed here to hand out table row ranges instead of matrix row
// ranges, with a worker id threaded through so a pipeline can look up
// its own tls.Storage slot.
package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultChunkSize is the fixed partition size the Multi-threaded variant
// hands out per atomic fetch-add grab (spec §4.I).
const DefaultChunkSize = 4096

// Pool is a persistent worker pool: its goroutines are spawned once, in
// New, and reused by every dispatch made on it until Close — eliminating
// per-dispatch goroutine spawn overhead the way the teacher's workerpool.Pool eliminates it across
// per-layer matrix multiplications.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a Pool with numWorkers persistent goroutines. numWorkers<=0
// uses GOMAXPROCS, the scheduler's default sizing for the Multi-threaded
// variant.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{numWorkers: numWorkers, workC: make(chan workItem, numWorkers*2)}
	for i := 0; i < numWorkers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers reports the pool's persistent worker count.
func (p *Pool) NumWorkers() int { return p.numWorkers }

// Close shuts the pool down; safe to call more than once. Pending work
// already queued still completes.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// dispatchAtomicBatched is adapted from workerpool.Pool.ParallelForAtomicBatched:
// workers pulls of the pool each atomically grab the next [start,end)
// batch of size batchSize out of [0,n) until exhausted, blocking until
// every worker has returned.
func (p *Pool) dispatchAtomicBatched(n, batchSize int, fn func(workerID uint64, start, end int)) {
	if n <= 0 {
		return
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	numBatches := (n + batchSize - 1) / batchSize
	workers := p.numWorkers
	if workers > numBatches {
		workers = numBatches
	}
	if workers < 1 {
		workers = 1
	}

	if p.closed.Load() || workers == 1 {
		fn(0, 0, n)
		return
	}

	var nextBatch atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		workerID := uint64(w)
		p.workC <- workItem{
			barrier: &wg,
			fn: func() {
				for {
					batch := nextBatch.Add(1) - 1
					start := int(batch) * batchSize
					if start >= n {
						return
					}
					end := start + batchSize
					if end > n {
						end = n
					}
					fn(workerID, start, end)
				}
			},
		}
	}
	wg.Wait()
}

// Scan is one operator's partitioned work: Run is called with a
// worker-local id (for thread-local context lookup) and the [lo, hi) row
// range to drive through that worker's compiled pipeline.
type Scan func(workerID uint64, lo, hi int)

// Variant selects one of spec §4.I's three scheduler shapes.
type Variant int

const (
	// Simple runs the scan single-threaded — the original's baseline
	// variant, used for tiny tables where dispatch overhead would
	// dominate actual work.
	Simple Variant = iota
	// MultiThreaded is the default: fixed ChunkSize partitions dispatched
	// via atomic fetch-add across the Pool's persistent workers, joined
	// before the caller's pipeline-breaker runs its global phase.
	MultiThreaded
	// CompilationTime never invokes Scan: Run returns without running any
	// partition. Run resolves no runtime symbols for this variant; checking
	// that a plan's symbols exist is compiler.Validate's job, called
	// separately.
	CompilationTime
)

// Scheduler drives one table scan's partitions through scan according to
// Variant.
type Scheduler struct {
	Pool      *Pool
	Variant   Variant
	ChunkSize int
}

// NewScheduler creates a scheduler backed by pool, defaulting ChunkSize
// to DefaultChunkSize.
func NewScheduler(pool *Pool, variant Variant) *Scheduler {
	return &Scheduler{Pool: pool, Variant: variant, ChunkSize: DefaultChunkSize}
}

// Run dispatches [0, numRows) across scan according to s.Variant,
// blocking until every partition (if any actually ran) has completed.
func (s *Scheduler) Run(numRows int, scan Scan) {
	switch s.Variant {
	case Simple:
		scan(0, 0, numRows)
	case CompilationTime:
		// Deliberately never calls scan; see Variant's doc comment.
	default:
		chunk := s.ChunkSize
		if chunk <= 0 {
			chunk = DefaultChunkSize
		}
		s.Pool.dispatchAtomicBatched(numRows, chunk, scan)
	}
}
