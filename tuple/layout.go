// Package tuple computes packed byte layouts over IUSets (spec §3, §4.B):
// the IU → byte-offset mapping used to materialize tuples into tuple
// buffers and hash-table payloads.
package tuple

import (
	"sort"

	"github.com/tpch-jitq/queryjit/iu"
)

// Layout is the immutable IU → byte-offset mapping for a packed tuple
// shape. Two pipelines that reference the same IUSet compute an identical
// Layout, which is what lets a tuple produced in one pipeline be read back
// correctly in another (spec §3's "same tuple shape is computed
// identically in any pipeline that references the same IUSet").
type Layout struct {
	offsets map[*iu.IU]int
	order   []*iu.IU
	size    int
}

// Of packs ius in decreasing-alignment order (spec §4.B): sort a copy of
// the IU list by alignment descending, assign offsets in that order, then
// round the total size up to the largest alignment present.
func Of(ius []*iu.IU) *Layout {
	cols := make([]*iu.IU, len(ius))
	copy(cols, ius)
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].Type.Align() > cols[j].Type.Align()
	})

	l := &Layout{offsets: make(map[*iu.IU]int, len(cols)), order: cols}
	offset := 0
	maxAlign := 1
	for _, c := range cols {
		l.offsets[c] = offset
		offset += c.Type.Size()
		if a := c.Type.Align(); a > maxAlign {
			maxAlign = a
		}
	}
	l.size = roundUp(offset, maxAlign)
	return l
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

// OffsetOf returns the byte offset assigned to iu within the tuple, and
// whether iu is part of this layout at all (the mapping is bijective over
// the packed set — every member has exactly one offset).
func (l *Layout) OffsetOf(u *iu.IU) (int, bool) {
	off, ok := l.offsets[u]
	return off, ok
}

// Size is the total tuple size in bytes, rounded up to the layout's
// maximum field alignment.
func (l *Layout) Size() int { return l.size }

// Order returns the IUs in the order they were packed (decreasing
// alignment), the same order Pack/Unpack iterate in.
func (l *Layout) Order() []*iu.IU {
	out := make([]*iu.IU, len(l.order))
	copy(out, l.order)
	return out
}
