// Package hashtable implements the chained hash table with tagged bucket
// heads (spec §3, §4.D): a fixed-size, power-of-two array of chain heads,
// where untagged, tagged, and tagged-lock-free insertion share the same
// chain representation.
//
// The bucket head's top 16 bits always cache a hash tag and its low 48
// bits always address a chain (spec §4.G/§9), but how those low 48 bits
// get turned back into an *Entry is architecture-dependent: hashtable_amd64.go
// uses the x86-64 canonical-address sign-extension trick spec §9
// describes, and hashtable_generic.go (every other GOARCH, where nothing
// guarantees a 48-bit virtual address space) resolves them through a
// side table of entry pointers instead, per spec §9's "separate side
// array of tags" alternative. Table.Deref and Table.Walk are each arch's
// way of hiding that difference from callers; everything in this file is
// the same on every target.
package hashtable

import "unsafe"

// tagShift puts the cached tag in the top 16 bits of a 64-bit bucket-head
// word, leaving the low 48 bits for the chain's head reference.
const tagShift = 48

// HeaderSize is the size in bytes of the Entry header prefixing every
// tuple payload placed into a hash table. 16-byte aligned per spec §3.
const HeaderSize = 16

// Entry is the header occupying the first HeaderSize bytes of every slab
// allocation inserted into a Table. Once the entry is linked into a chain,
// HashOrNext holds the low 48 bits of whatever architecture-specific
// reference names the next entry (an address on amd64, a side-table index
// everywhere else). The tuple's hash is passed to the insert calls as an
// argument and is not stored in the entry.
type Entry struct {
	HashOrNext uint64
	_reserved  uint64
}

// Of returns the Entry header occupying the first HeaderSize bytes of buf.
// buf must come from a membuf.Buffer allocation (or other storage that
// outlives the table) so the reference taken here stays valid.
func Of(buf []byte) *Entry {
	return (*Entry)(unsafe.Pointer(&buf[0]))
}

// Payload returns the bytes following an Entry's header within its
// backing allocation.
func Payload(buf []byte) []byte { return buf[HeaderSize:] }

// TagMatches reports whether a bucket head's cached tag is compatible
// with queryHash's high bits. When false, the whole chain is guaranteed
// to contain no entry with that hash and can be skipped. Pure bit
// arithmetic over the word Lookup returns — identical on every arch.
func TagMatches(head, queryHash uint64) bool {
	storedTag := head >> tagShift
	queryTag := queryHash >> tagShift
	return storedTag&queryTag == queryTag
}

func roundDownPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p*2 <= n {
		p *= 2
	}
	return p
}

// LoadFactorNum/LoadFactorDen express the 10/7 load-factor threshold used
// throughout this spec (local aggregation flush, thread-local storage
// capacity).
const LoadFactorNum = 10
const LoadFactorDen = 7

// OverLoadFactor reports whether count entries in this table exceed the
// 10*size/7 threshold spec §4.D assigns to the local-aggregation table.
func (t *Table) OverLoadFactor(count uint64) bool {
	if t.Size() == 0 {
		return true
	}
	return count*LoadFactorDen >= t.Size()*LoadFactorNum
}

// Flush zeroes every bucket, used to reuse a local aggregation table's
// capacity at a load-factor threshold without deallocating it (spec
// §4.D). The arch-specific side table backing Deref, where one exists,
// keeps its entries — they're simply never reachable from a zeroed head
// again, the same "orphaned but harmless" shape as an unreferenced
// address on the amd64 path.
func (t *Table) Flush() {
	for i := range t.buckets {
		t.buckets[i].Store(0)
	}
}

// Walk iterates the chain reachable from head, calling fn for each live
// entry until fn returns false or the chain ends. If checkTag is true,
// Walk first tests TagMatches(head, queryHash) and skips the whole chain
// on mismatch (used for the tagged join/aggregation tables; untagged
// local tables pass checkTag=false).
func (t *Table) Walk(head uint64, checkTag bool, queryHash uint64, fn func(e *Entry) bool) {
	if checkTag && !TagMatches(head, queryHash) {
		return
	}
	for e := t.Deref(head); e != nil; e = t.Deref(e.HashOrNext) {
		if !fn(e) {
			return
		}
	}
}
