// Package tls implements per-goroutine context storage (spec §4.F): a
// fixed-capacity open-addressed map from goroutine id to a *T, backed by a
// bump-allocated object pool, so a scan partition's worker can fetch its
// own join-build or aggregation-local state without a lock on the hot
// path.
package tls

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// node holds one open-addressed bucket: an atomically-published pointer
// to a pool-allocated T, plus the goroutine id that claimed it. The
// trailing cpu.CacheLinePad keeps adjacent buckets from false-sharing a
// line the way the original's OpenAddrNode padding does.
type node[T any] struct {
	ptr atomic.Pointer[T]
	id  uint64
	_   cpu.CacheLinePad
}

// pool is a fixed-size bump allocator over T, sized once at construction;
// Alloc never grows past that size (callers must size Storage generously
// enough for the expected thread count, mirroring the original's
// ObjectPool(numThreads)). cur is cache-line-padded on both sides since
// it is the one field every worker's alloc() call contends on.
type pool[T any] struct {
	_     cpu.CacheLinePad
	cur   atomic.Uint64
	_     cpu.CacheLinePad
	slots []T
}

func newPool[T any](size int) *pool[T] {
	return &pool[T]{slots: make([]T, size)}
}

// alloc claims the next free slot. Panics if the pool is exhausted, the
// same contract as the original's assert(idx < pool.size()).
func (p *pool[T]) alloc() *T {
	idx := p.cur.Add(1) - 1
	if int(idx) >= len(p.slots) {
		panic("tls: object pool exhausted")
	}
	return &p.slots[idx]
}

// Storage is a fixed-capacity, open-addressed thread-local map. Zero value
// is not usable; construct with New.
type Storage[T any] struct {
	size int
	data []node[T]
	pool *pool[T]
}

// New creates a Storage sized for numThreads concurrent goroutines,
// rounding the open-address table up to bit_ceil(numThreads*10/7) the way
// the original sizes its load factor headroom.
func New[T any](numThreads int) *Storage[T] {
	if numThreads <= 0 {
		numThreads = 1
	}
	size := bitCeil((numThreads * 10) / 7)
	if size == 0 {
		size = 1
	}
	return &Storage[T]{
		size: size,
		data: make([]node[T], size),
		pool: newPool[T](numThreads),
	}
}

func bitCeil(x int) int {
	if x <= 1 {
		return 1
	}
	n := 1
	for n < x {
		n <<= 1
	}
	return n
}

// GetOrInsert returns the slot for id, allocating and publishing a new one
// on first touch. Concurrent callers racing on the same unseen id perform
// the same CAS-then-claim dance as ThreadLocalStorage::getOrInsert: the
// loser's freshly bump-allocated node is simply abandoned (it is never
// published, so nothing observes it) and the loser re-reads the winner's
// pointer instead.
func (s *Storage[T]) GetOrInsert(id uint64) *T {
	hash := int(id) & (s.size - 1)
	if idx, ok := s.search(hash, id); ok {
		return s.data[idx].ptr.Load()
	}

	ptr := s.pool.alloc()
	idx := hash
	for {
		if s.data[idx].ptr.CompareAndSwap(nil, ptr) {
			s.data[idx].id = id
			return ptr
		}
		// Another goroutine claimed this bucket first. If it claimed it
		// for the same id we're looking for, use its slot instead of
		// probing further — this is the race the original's insert()
		// CAS guards against.
		if s.data[idx].id == id && s.data[idx].ptr.Load() != nil {
			return s.data[idx].ptr.Load()
		}
		idx = (idx + 1) & (s.size - 1)
		if idx == hash {
			panic("tls: storage full")
		}
	}
}

// search linear-probes from idx looking for id, stopping at the first
// empty bucket (meaning id has never been inserted) or a full wraparound.
func (s *Storage[T]) search(idx int, id uint64) (int, bool) {
	start := idx
	for {
		ptr := s.data[idx].ptr.Load()
		if ptr == nil {
			return 0, false
		}
		if s.data[idx].id == id {
			return idx, true
		}
		idx = (idx + 1) & (s.size - 1)
		if idx == start {
			return 0, false
		}
	}
}

// All returns every currently-allocated context in pool (arrival) order —
// the order a global reduce phase walks per-thread aggregation or join
// state in, matching ThreadLocalStorage::begin()/end().
func (s *Storage[T]) All() []*T {
	n := s.pool.cur.Load()
	if n > uint64(len(s.pool.slots)) {
		n = uint64(len(s.pool.slots))
	}
	out := make([]*T, n)
	for i := range out {
		out[i] = &s.pool.slots[i]
	}
	return out
}

// GoroutineID is a lightweight, mutex-guarded id counter: Next hands out
// 1, 2, 3, ... Unlike the original's std::thread::id, Go's goroutines
// have no built-in stable identity. The scheduler package does not use
// this type: it threads each pooled worker's index explicitly as its
// worker id.
type GoroutineID struct {
	mu   sync.Mutex
	next uint64
}

// Next allocates a fresh id for a newly spawned worker.
func (g *GoroutineID) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}
