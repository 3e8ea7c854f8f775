package operators

import (
	"sort"

	"github.com/tpch-jitq/queryjit/expr"
	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/membuf"
	"github.com/tpch-jitq/queryjit/sortutil"
	"github.com/tpch-jitq/queryjit/tuple"
	"github.com/tpch-jitq/queryjit/types"
)

// SortKey is one ORDER BY term.
type SortKey struct {
	Expr expr.Expr
	Desc bool
}

// Sort materializes every input row into a packed-tuple buffer, then
// replays them in sorted order (spec §4.H): a comparator codegen'd from
// SortKeys stands in for the original's native qsort-equivalent
// comparator, here the sortutil radix argsort for a single Int32 or Date
// key and a Go sort.SliceStable over the buffered tuples otherwise.
type Sort struct {
	Scope   *ir.Scope
	Keys    []SortKey
	OutCols []*iu.IU

	layout   *tuple.Layout
	buf      *membuf.Buffer
	count    int
	outSlots []int
}

// NewSort prepares a Sort over outCols, the full set of columns that must
// survive into the sorted output. OutCols' slots are resolved here, once,
// at construction (like NewInnerJoin reserving its cursor slot) rather
// than lazily inside Consume, so neither Consume nor Finalize ever
// mutates Scope (Scope.Slot's first-touch allocation is Scope's only
// unsynchronized mutation). Consume itself appends to one shared tuple
// buffer and row count without synchronization, so it is not safe to call
// from more than one goroutine at a time.
func NewSort(scope *ir.Scope, keys []SortKey, outCols []*iu.IU) *Sort {
	outSlots := make([]int, len(outCols))
	for i, c := range outCols {
		outSlots[i] = scope.Slot(c)
	}
	return &Sort{
		Scope: scope, Keys: keys, OutCols: outCols,
		layout:   tuple.Of(outCols),
		buf:      membuf.New(membuf.DefaultPageSize),
		outSlots: outSlots,
	}
}

// Consume is the materializing step every upstream row feeds: pack its
// OutCols into the tuple buffer. Not compiled via ir.Builder for the same
// reason Aggregation's local phase isn't — it is a pipeline-ending side
// effect, not data flowing to a sibling operator in the same pipeline.
func (s *Sort) Consume(row *ir.Row) ir.Signal {
	src := make(tuple.MapSource, len(s.OutCols))
	for i, c := range s.OutCols {
		src[c] = row.Get(s.outSlots[i]).(types.Value)
	}
	slab := s.buf.Alloc(s.layout.Size())
	s.layout.Pack(slab, src)
	s.count++
	return ir.SignalNext
}

// Finalize sorts every buffered tuple by Keys and invokes emit once per
// row in final order, with OutCols re-bound for each.
func (s *Sort) Finalize(emit func(row *ir.Row)) {
	tuples := make([][]byte, 0, s.count)
	s.buf.All(s.layout.Size(), func(elem []byte) {
		tuples = append(tuples, elem)
	})

	if order, ok := s.singleKeyArgSort(tuples); ok {
		tuples = sortutil.Reorder(tuples, order)
		for _, t := range tuples {
			values := s.layout.Unpack(t)
			row := s.Scope.NewRow()
			for i, c := range s.OutCols {
				row.Set(s.outSlots[i], values[c])
			}
			emit(row)
		}
		return
	}

	sort.SliceStable(tuples, func(i, j int) bool {
		a := s.layout.Unpack(tuples[i])
		b := s.layout.Unpack(tuples[j])
		for _, k := range s.Keys {
			av, bv := keyValue(a, k.Expr), keyValue(b, k.Expr)
			lt := types.BinOp(types.OpLt, av, bv).Bool()
			gt := types.BinOp(types.OpGt, av, bv).Bool()
			if lt {
				return !k.Desc
			}
			if gt {
				return k.Desc
			}
		}
		return false
	})

	for _, t := range tuples {
		values := s.layout.Unpack(t)
		row := s.Scope.NewRow()
		for i, c := range s.OutCols {
			row.Set(s.outSlots[i], values[c])
		}
		emit(row)
	}
}

// singleKeyArgSort is the sortutil fast path: a single Int32 or Date key,
// ascending or descending, with no tie-breaking keys. Any other shape
// (multiple keys, Int64/Double/String keys) falls through to the general
// comparator sort, since sortutil.ArgSort32 packs a 32-bit key and a
// 32-bit row index into one 64-bit lane.
func (s *Sort) singleKeyArgSort(tuples [][]byte) ([]int, bool) {
	if len(s.Keys) != 1 {
		return nil, false
	}
	k := s.Keys[0]
	ref, ok := k.Expr.(expr.Ref)
	if !ok || (ref.Typ != types.Int32 && ref.Typ != types.Date) {
		return nil, false
	}

	keys := make([]uint32, len(tuples))
	for i, t := range tuples {
		v := s.layout.Unpack(t)[ref.ID]
		var enc uint32
		if ref.Typ == types.Int32 {
			enc = sortutil.EncodeInt32(v.Int32())
		} else {
			enc = sortutil.EncodeDate(v.Date())
		}
		if k.Desc {
			// Invert the key rather than reversing the argsort output:
			// reversing would also reverse each tie group's internal
			// order, while inverting keeps ties in original row order,
			// matching the general comparator path's tie-break.
			enc = ^enc
		}
		keys[i] = enc
	}

	return sortutil.ArgSort32(keys), true
}

// keyValue evaluates a sort key expression against an already-unpacked
// tuple rather than a live *ir.Row, which a detached sorted tuple doesn't
// have. Only IU references (or casts of one) are supported; the planner
// must never hand Sort anything richer as a key expression.
func keyValue(values map[*iu.IU]types.Value, e expr.Expr) types.Value {
	switch k := e.(type) {
	case expr.Ref:
		return values[k.ID]
	case expr.Cast:
		return types.Cast(keyValue(values, k.X), k.Typ)
	default:
		panic("operators: sort key must be an IU reference (or cast of one)")
	}
}
