package operators

import (
	"bytes"
	"unsafe"

	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/hashtable"
	"github.com/tpch-jitq/queryjit/hll"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/membuf"
	"github.com/tpch-jitq/queryjit/runtimesym"
	"github.com/tpch-jitq/queryjit/tls"
	"github.com/tpch-jitq/queryjit/tuple"
	"github.com/tpch-jitq/queryjit/types"
)

// AggKind is which reduction an Aggregate column computes.
type AggKind int

const (
	AggSum AggKind = iota
	AggCount
	AggAvg
	AggMin
	AggMax
)

// Aggregate is one SELECT-list aggregate: Out receives the final
// reduction of In across every row in its group.
type Aggregate struct {
	Out  *iu.IU
	Kind AggKind
	In   expr.Expr // unused (nil) for AggCount
}

// aggSlotSize is the packed width of one Aggregate's running accumulator:
// a 16-byte value slot (wide enough for any types.Tag, including String's
// {pointer,len} pair), an 8-byte count (used by AggSum/AggAvg/AggCount),
// and an 8-byte-aligned have flag marking whether the slot has seen a row.
const aggSlotSize = 32
const aggSlotCountOff = 16
const aggSlotHaveOff = 24

// localTableInitialSize is a local per-thread aggregation table's starting
// bucket count (spec §4.D mode 1). There is no HyperLogLog presizing pass
// for the local phase — unlike a join build side, the local table fills
// incrementally as rows stream in, so OverLoadFactor governs a
// flush-and-continue policy instead (see (*Aggregation).findOrInsert).
const localTableInitialSize = 1024

// groupBuffer pairs a chained hash table over group-key hashes with the
// tuple buffer its entries live in. Local buffers (spec §4.D mode 1) use
// untagged chains sized once at localTableInitialSize and flushed on
// overflow; the global buffer (mode 2) uses a tagged chain sized once
// from a HyperLogLog estimate and is never flushed.
type groupBuffer struct {
	table hashtable.Table
	buf   *membuf.Buffer
	count uint64 // entries inserted since table was last Alloc'd/Flushed
}

func newGroupBuffer(tableSize uint64) *groupBuffer {
	g := &groupBuffer{buf: membuf.New(membuf.DefaultPageSize)}
	g.table.Alloc(tableSize)
	return g
}

// Aggregation implements spec §4.H's two-phase group-by: each scan
// partition accumulates into its own thread-local hash table (lock-free
// with respect to other partitions, since each worker owns its own
// tls.Storage slot and groupBuffer), and a final global reduce phase
// merges every thread's table into one HyperLogLog-sized shared table and
// hands one row per group downstream.
type Aggregation struct {
	Scope      *ir.Scope
	GroupBy    []expr.Expr
	GroupOut   []*iu.IU // IUs the group-by keys are re-bound to downstream
	Aggregates []Aggregate

	keyLayout *tuple.Layout
	elemSize  int
	valTags   []types.Tag // agg.In's type, per Aggregate; unused for AggCount

	locals *tls.Storage[*groupBuffer]
}

// NewAggregation sizes the thread-local storage for numWorkers scan
// partitions and computes the packed record layout every local and
// global group buffer shares.
func NewAggregation(scope *ir.Scope, groupBy []expr.Expr, groupOut []*iu.IU, aggs []Aggregate, numWorkers int) *Aggregation {
	keyLayout := tuple.Of(groupOut)
	valTags := make([]types.Tag, len(aggs))
	for i, agg := range aggs {
		if agg.Kind != AggCount {
			valTags[i] = agg.In.Type()
		}
	}
	return &Aggregation{
		Scope: scope, GroupBy: groupBy, GroupOut: groupOut, Aggregates: aggs,
		keyLayout: keyLayout,
		elemSize:  hashtable.HeaderSize + keyLayout.Size() + len(aggs)*aggSlotSize,
		valTags:   valTags,
		locals:    tls.New[*groupBuffer](numWorkers),
	}
}

// LocalConsume is the per-row accumulation step a scan partition's
// pipeline ends in: it is not compiled via ir.Builder, since accumulating
// into a local hash table is a side effect with no data flowing further
// downstream in this partition's own pipeline (the next consumer is the
// global reduce phase, a separate pipeline per spec §4.H's
// pipeline-splitting rule).
func (a *Aggregation) LocalConsume(workerID uint64) func(row *ir.Row) ir.Signal {
	slot := a.locals.GetOrInsert(workerID)
	if *slot == nil {
		*slot = newGroupBuffer(localTableInitialSize)
	}
	g := *slot
	return func(row *ir.Row) ir.Signal {
		keys := make([]types.Value, len(a.GroupBy))
		for i, e := range a.GroupBy {
			keys[i] = e.Eval(row)
		}
		rec := a.findOrInsert(g, keys)
		for i, agg := range a.Aggregates {
			var v types.Value
			if agg.Kind != AggCount {
				v = agg.In.Eval(row)
			}
			updateSlot(a.aggSlot(rec, i), agg.Kind, v)
		}
		return ir.SignalNext
	}
}

// slabOf recovers the full elemSize-byte allocation backing e, the
// inverse of hashtable.Of — e's address is always the allocation's first
// byte, since that's what Of returns a pointer into.
func slabOf(e *hashtable.Entry, elemSize int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(e)), elemSize)
}

// keyBytes returns a group record's packed GroupOut key portion — the
// slice every key comparison, repack, and Finalize re-bind works from.
func (a *Aggregation) keyBytes(rec []byte) []byte {
	return hashtable.Payload(rec)[:a.keyLayout.Size()]
}

func (a *Aggregation) packKey(keys []types.Value) []byte {
	src := make(tuple.MapSource, len(a.GroupOut))
	for i, u := range a.GroupOut {
		src[u] = keys[i]
	}
	buf := make([]byte, a.keyLayout.Size())
	a.keyLayout.Pack(buf, src)
	return buf
}

func (a *Aggregation) unpackKey(keyBytes []byte) []types.Value {
	vals := a.keyLayout.Unpack(keyBytes)
	out := make([]types.Value, len(a.GroupOut))
	for i, u := range a.GroupOut {
		out[i] = vals[u]
	}
	return out
}

// findOrInsert returns the packed record for keys in g, walking the
// chain at keys' hash bucket and comparing packed key bytes directly —
// the hash table's chain alone only rules a bucket in or out; it can't
// tell two different keys sharing a chain apart — allocating a fresh,
// zeroed record on a miss.
func (a *Aggregation) findOrInsert(g *groupBuffer, keys []types.Value) []byte {
	hash := runtimesym.HashKeys(keys)
	packedKey := a.packKey(keys)

	var found []byte
	g.table.Walk(g.table.Lookup(hash), false, hash, func(e *hashtable.Entry) bool {
		slab := slabOf(e, a.elemSize)
		if bytes.Equal(a.keyBytes(slab), packedKey) {
			found = slab
			return false
		}
		return true
	})
	if found != nil {
		return found
	}

	// Flush-and-continue (spec §9's "local agg flush-and-continue bug
	// risk"): once the local table fills past its load factor, Flush
	// zeroes every bucket rather than resizing, so a group already in buf
	// becomes unreachable from its old bucket. The next row for that same
	// group misses here and gets a second, distinct record instead of
	// updating the first one. That's never a correctness bug — Finalize's
	// global merge walks every local record in buf (not the table) and
	// re-groups them all by key bytes regardless of how many local
	// records one logical group ended up split across — it only forfeits
	// local dedup once a thread's table has filled, trading a larger
	// global merge for a fixed local table footprint instead of an
	// unbounded local resize.
	if g.table.OverLoadFactor(g.count + 1) {
		g.table.Flush()
		g.count = 0
	}

	slab := g.buf.Alloc(a.elemSize)
	e := hashtable.Of(slab)
	copy(a.keyBytes(slab), packedKey)
	g.table.InsertUntagged(hash, e)
	g.count++
	return slab
}

func (a *Aggregation) aggSlot(rec []byte, i int) []byte {
	off := hashtable.HeaderSize + a.keyLayout.Size() + i*aggSlotSize
	return rec[off : off+aggSlotSize]
}

func countOf(s []byte) int64 { return *(*int64)(unsafe.Pointer(&s[aggSlotCountOff])) }

func setCount(s []byte, c int64) { *(*int64)(unsafe.Pointer(&s[aggSlotCountOff])) = c }

// updateSlot folds one row's evaluated aggregate input v into s in place.
func updateSlot(s []byte, kind AggKind, v types.Value) {
	have := s[aggSlotHaveOff] != 0
	switch kind {
	case AggCount:
		setCount(s, countOf(s)+1)
	case AggSum, AggAvg:
		setCount(s, countOf(s)+1)
		if !have {
			types.Store(v, s)
		} else {
			types.Store(types.BinOp(types.OpAdd, types.Load(v.Tag, s), v), s)
		}
	case AggMin:
		if !have || types.BinOp(types.OpLt, v, types.Load(v.Tag, s)).Bool() {
			types.Store(v, s)
		}
	case AggMax:
		if !have || types.BinOp(types.OpGt, v, types.Load(v.Tag, s)).Bool() {
			types.Store(v, s)
		}
	}
	s[aggSlotHaveOff] = 1
}

// mergeOne folds src's accumulator into dst in place, for an aggregate
// whose evaluated input has type valTag (unused, and may be the zero Tag,
// for AggCount).
func mergeOne(dst, src []byte, kind AggKind, valTag types.Tag) {
	if src[aggSlotHaveOff] == 0 {
		return
	}
	dstHave := dst[aggSlotHaveOff] != 0
	switch kind {
	case AggCount:
		setCount(dst, countOf(dst)+countOf(src))
	case AggSum, AggAvg:
		setCount(dst, countOf(dst)+countOf(src))
		if !dstHave {
			types.Store(types.Load(valTag, src), dst)
		} else {
			types.Store(types.BinOp(types.OpAdd, types.Load(valTag, dst), types.Load(valTag, src)), dst)
		}
	case AggMin:
		if !dstHave || types.BinOp(types.OpLt, types.Load(valTag, src), types.Load(valTag, dst)).Bool() {
			types.Store(types.Load(valTag, src), dst)
		}
	case AggMax:
		if !dstHave || types.BinOp(types.OpGt, types.Load(valTag, src), types.Load(valTag, dst)).Bool() {
			types.Store(types.Load(valTag, src), dst)
		}
	}
	dst[aggSlotHaveOff] = 1
}

// resultOf reads s's final value for kind, cast to out — the per-group
// output value a finished Aggregate contributes to the result row.
func resultOf(s []byte, kind AggKind, valTag, out types.Tag) types.Value {
	switch kind {
	case AggCount:
		return types.Cast(types.Int64Value(countOf(s)), out)
	case AggSum:
		return types.Cast(types.Load(valTag, s), out)
	case AggAvg:
		count := countOf(s)
		if count == 0 {
			return types.DoubleValue(0)
		}
		return types.DoubleValue(types.Load(valTag, s).Double() / float64(count))
	case AggMin, AggMax:
		return types.Load(valTag, s)
	}
	panic("operators: unknown agg kind")
}

// Finalize merges every worker's local groupBuffer into one global,
// HyperLogLog-sized table and invokes emit once per group, with GroupOut
// and every Aggregate's Out IU bound to that group's result — the global
// reduce phase.
func (a *Aggregation) Finalize(emit func(row *ir.Row)) {
	locals := a.locals.All()

	var sketch hll.Sketch
	for _, slot := range locals {
		if *slot == nil {
			continue
		}
		(*slot).buf.All(a.elemSize, func(rec []byte) {
			sketch.Add(runtimesym.HashKeys(a.unpackKey(a.keyBytes(rec))))
		})
	}

	global := newGroupBuffer(sketch.Estimate())
	for _, slot := range locals {
		if *slot == nil {
			continue
		}
		(*slot).buf.All(a.elemSize, func(rec []byte) {
			a.mergeInto(global, rec)
		})
	}

	// Resolve every output IU's slot before the first NewRow call below:
	// Scope.Slot allocates on first touch and NewRow sizes the row from
	// however many slots exist at that moment, so a group-by key or
	// aggregate touched here for the first time would size every row one
	// short of what it needs.
	groupSlots := make([]int, len(a.GroupOut))
	for i, out := range a.GroupOut {
		groupSlots[i] = a.Scope.Slot(out)
	}
	aggSlots := make([]int, len(a.Aggregates))
	for i, agg := range a.Aggregates {
		aggSlots[i] = a.Scope.Slot(agg.Out)
	}

	global.buf.All(a.elemSize, func(rec []byte) {
		keyVals := a.unpackKey(a.keyBytes(rec))
		row := a.Scope.NewRow()
		for i := range a.GroupOut {
			row.Set(groupSlots[i], keyVals[i])
		}
		for i, agg := range a.Aggregates {
			row.Set(aggSlots[i], resultOf(a.aggSlot(rec, i), agg.Kind, a.valTags[i], agg.Out.Type))
		}
		emit(row)
	})
}

// mergeInto folds one local record into global, finding or inserting its
// group by a chain walk plus a byte-exact key comparison, as findOrInsert
// does for the local phase — except that this global walk is
// tag-filtered (and inserts tagged) where findOrInsert's is not, since two
// local records from different threads — or two from the same thread
// split by a flush — can both carry the same logical group key.
func (a *Aggregation) mergeInto(global *groupBuffer, rec []byte) {
	keyBytes := a.keyBytes(rec)
	keys := a.unpackKey(keyBytes)
	hash := runtimesym.HashKeys(keys)

	var dst []byte
	global.table.Walk(global.table.Lookup(hash), true, hash, func(e *hashtable.Entry) bool {
		slab := slabOf(e, a.elemSize)
		if bytes.Equal(a.keyBytes(slab), keyBytes) {
			dst = slab
			return false
		}
		return true
	})
	if dst == nil {
		dst = global.buf.Alloc(a.elemSize)
		e := hashtable.Of(dst)
		copy(a.keyBytes(dst), keyBytes)
		global.table.InsertTagged(hash, e)
	}

	for i, agg := range a.Aggregates {
		mergeOne(a.aggSlot(dst, i), a.aggSlot(rec, i), agg.Kind, a.valTags[i])
	}
}
