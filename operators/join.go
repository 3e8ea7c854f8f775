package operators

import (
	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/hashtable"
	"github.com/tpch-jitq/queryjit/hll"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/membuf"
	"github.com/tpch-jitq/queryjit/runtimesym"
	"github.com/tpch-jitq/queryjit/tuple"
	"github.com/tpch-jitq/queryjit/types"
)

// InnerJoin implements the build/probe hash join (spec §4.H): a build
// pipeline materializes the build side's rows into a packed-tuple buffer
// and a tagged hash table sized from a HyperLogLog pass over the build
// keys, and a probe pipeline looks up each probe row's key, walks the
// matching chain, and re-binds the build side's columns for every match
// before handing the row to the rest of the pipeline.
//
// This is the one operator whose chain walk uses ir.Builder's loop-frame
// stack directly (PushLoop/PopLoop) rather than a plain Go for loop: the
// number of matches per probe row is unknown at compile time, and the
// walk must compose correctly when nested inside whatever Selection/Map
// already wrapped the probe side.
type InnerJoin struct {
	// BuildKey/ProbeKey compute the join key on each side.
	BuildKey []expr.Expr
	ProbeKey []expr.Expr

	// Condition is spec §4.H's opt_condition: an extra predicate checked
	// once a chain element's key has already matched, evaluated in the
	// scope produced by binding that element's BuildCols. Nil means no
	// extra condition (a plain equi-join).
	Condition expr.Expr

	// BuildCols are the build-side IUs materialized into the tuple
	// buffer and re-bound into Scope on every probe match.
	BuildCols []*iu.IU
	Scope     *ir.Scope

	// cursorSlot holds the chain-walk cursor's Row slot; probeKeySlot
	// holds the current probe row's evaluated key (as []types.Value),
	// so the chain walk can re-check it against each candidate's
	// unpacked key and reject hash collisions (spec §4.H step c). Both
	// reserved once when the join is constructed via NewInnerJoin, one
	// per operator instance so nested joins in the same pipeline don't
	// collide.
	cursorSlot   int
	probeKeySlot int

	layout *tuple.Layout
	buf    *membuf.Buffer
	table  hashtable.Table

	// slabs maps an inserted Entry back to its backing allocation, so the
	// probe side can recover the payload bytes a pointer alone can't
	// (package hashtable's Entry carries only its header, not a length).
	slabs map[*hashtable.Entry][]byte

	// keys maps an inserted Entry to the build key values it was hashed
	// and inserted under. BuildCols often excludes the join key itself
	// (a key column needed only to find matches, never projected
	// downstream — see cmd/queryjit's joins), so the chain walk cannot
	// recover a candidate's key by re-evaluating BuildKey against its
	// rebound BuildCols; this side table is what makes the per-candidate
	// key re-check (spec §4.H step c) possible regardless of what
	// BuildCols happens to carry.
	keys map[*hashtable.Entry][]types.Value
}

// NewInnerJoin reserves this join's chain-walk cursor slot in scope and
// returns a ready-to-Build join.
func NewInnerJoin(scope *ir.Scope, buildKey, probeKey []expr.Expr, buildCols []*iu.IU) *InnerJoin {
	return &InnerJoin{
		BuildKey:     buildKey,
		ProbeKey:     probeKey,
		BuildCols:    buildCols,
		Scope:        scope,
		cursorSlot:   scope.Reserve(),
		probeKeySlot: scope.Reserve(),
		slabs:        make(map[*hashtable.Entry][]byte),
		keys:         make(map[*hashtable.Entry][]types.Value),
	}
}

// Build runs the (single-threaded) build phase: a HyperLogLog sizing
// pass over every build row's key, then a materialization pass that
// packs each row's BuildCols into a tuple and inserts it into the table
// tagged by its key hash. Spec §4.H describes this as separate
// build/sizing/insertion-continuation pipelines (a real JIT recompiles
// once sizing is known); this port collapses them into one Go-level pass
// since there is no second compilation step to trigger.
func (j *InnerJoin) Build(scan *Scan) {
	j.layout = tuple.Of(j.BuildCols)
	j.buf = membuf.New(membuf.DefaultPageSize)

	var sketch hll.Sketch
	scan.RunRange(0, scan.Table.NumRows, j.Scope, ir.Block{func(row *ir.Row) ir.Signal {
		sketch.Add(runtimesym.HashKeys(j.evalBuildKey(row)))
		return ir.SignalNext
	}})

	j.table.Alloc(sketch.Estimate())

	elemSize := hashtable.HeaderSize + j.layout.Size()
	scan.RunRange(0, scan.Table.NumRows, j.Scope, ir.Block{func(row *ir.Row) ir.Signal {
		buildKeys := j.evalBuildKey(row)
		hash := runtimesym.HashKeys(buildKeys)
		slab := j.buf.Alloc(elemSize)
		e := hashtable.Of(slab)
		src := make(tuple.MapSource, len(j.BuildCols))
		for _, c := range j.BuildCols {
			src[c] = row.Get(j.Scope.Slot(c)).(types.Value)
		}
		j.layout.Pack(hashtable.Payload(slab), src)
		j.slabs[e] = slab
		j.keys[e] = buildKeys
		j.table.InsertTagged(hash, e)
		return ir.SignalNext
	}})
}

func (j *InnerJoin) evalBuildKey(row *ir.Row) []types.Value {
	keys := make([]types.Value, len(j.BuildKey))
	for i, e := range j.BuildKey {
		keys[i] = e.Eval(row)
	}
	return keys
}

func (j *InnerJoin) evalProbeKey(row *ir.Row) []types.Value {
	keys := make([]types.Value, len(j.ProbeKey))
	for i, e := range j.ProbeKey {
		keys[i] = e.Eval(row)
	}
	return keys
}

// keysMatch compares a chain candidate's build key against the probe
// row's key, element by element. The hash table's bucket lookup and tag
// check (spec §4.H steps a–b) only narrow the chain to candidates whose
// hash and tag are compatible with the probe key; distinct keys
// routinely share both once the table holds more than a few entries, so
// every candidate still needs this check before it's allowed to produce
// a row.
func (j *InnerJoin) keysMatch(e *hashtable.Entry, probeKeys []types.Value) bool {
	build := j.keys[e]
	for i := range build {
		if !types.BinOp(types.OpEq, build[i], probeKeys[i]).Bool() {
			return false
		}
	}
	return true
}

// bindEntry re-binds every BuildCols IU into scope from e's materialized
// tuple.
func (j *InnerJoin) bindEntry(row *ir.Row, e *hashtable.Entry) {
	buf := j.slabs[e]
	values := j.layout.Unpack(hashtable.Payload(buf))
	for _, c := range j.BuildCols {
		row.Set(j.Scope.Slot(c), values[c])
	}
}

// Compile emits the probe side: compute the probe key's hash, look up
// the bucket head, and — only if the tag is compatible — walk the chain,
// re-binding BuildCols from each matching tuple and invoking then for
// every match. A probe row with no matches in its bucket, or whose tag
// rules the whole chain out, simply produces no downstream rows, exactly
// as an inner join requires.
func (j *InnerJoin) Compile(b *ir.Builder, then func(b *ir.Builder)) {
	b.PushLoop()
	b.Emit(func(row *ir.Row) ir.Signal {
		cursor, _ := row.Get(j.cursorSlot).(*hashtable.Entry)
		if cursor == nil {
			return ir.SignalBreak
		}
		j.bindEntry(row, cursor)
		return ir.SignalNext
	})
	b.PushBlock()
	then(b)
	thenBlock := b.PopBlock()
	b.Emit(func(row *ir.Row) ir.Signal {
		cursor := row.Get(j.cursorSlot).(*hashtable.Entry)
		probeKeys := row.Get(j.probeKeySlot).([]types.Value)
		if !j.keysMatch(cursor, probeKeys) {
			return ir.SignalNext
		}
		if j.Condition != nil && !j.Condition.Eval(row).Bool() {
			return ir.SignalNext
		}
		return thenBlock.Run(row)
	})
	b.Emit(func(row *ir.Row) ir.Signal {
		cursor := row.Get(j.cursorSlot).(*hashtable.Entry)
		row.Set(j.cursorSlot, j.table.Deref(cursor.HashOrNext))
		return ir.SignalNext
	})
	loop := b.PopLoop(func(row *ir.Row) bool { return true })

	b.Emit(func(row *ir.Row) ir.Signal {
		probeKeys := j.evalProbeKey(row)
		row.Set(j.probeKeySlot, probeKeys)
		hash := runtimesym.HashKeys(probeKeys)
		head := j.table.Lookup(hash)
		if !hashtable.TagMatches(head, hash) {
			return ir.SignalNext
		}
		row.Set(j.cursorSlot, j.table.Deref(head))
		return loop(row)
	})
}
