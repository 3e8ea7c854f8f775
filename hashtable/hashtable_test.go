package hashtable

import (
	"testing"
	"unsafe"
)

func makeEntry(payload int64) ([]byte, *Entry) {
	buf := make([]byte, HeaderSize+8)
	e := Of(buf)
	*(*int64)(unsafe.Pointer(&Payload(buf)[0])) = payload
	return buf, e
}

func payloadOf(e *Entry) int64 {
	p := unsafe.Pointer(e)
	payloadPtr := unsafe.Pointer(uintptr(p) + HeaderSize)
	return *(*int64)(payloadPtr)
}

func TestInsertLookupChain(t *testing.T) {
	var tbl Table
	tbl.Alloc(16)

	const n = 50
	var bufs [][]byte
	for i := 0; i < n; i++ {
		buf, e := makeEntry(int64(i))
		bufs = append(bufs, buf)
		tbl.InsertTagged(uint64(i), e)
	}

	seen := make(map[int64]bool)
	for i := 0; i < n; i++ {
		head := tbl.Lookup(uint64(i))
		tbl.Walk(head, true, uint64(i), func(e *Entry) bool {
			seen[payloadOf(e)] = true
			return true
		})
	}
	for i := 0; i < n; i++ {
		if !seen[int64(i)] {
			t.Errorf("entry %d not reachable from lookup(hash).chain()", i)
		}
	}
	_ = bufs
}

func TestTagRoundTrip(t *testing.T) {
	var tbl Table
	tbl.Alloc(4)
	_, e := makeEntry(1)
	hash := uint64(0xABCD) << 48
	tbl.InsertTagged(hash, e)
	head := tbl.Lookup(hash)
	got := tbl.Deref(head)
	if got != e {
		t.Errorf("Deref(tagged head) = %p, want %p", got, e)
	}
}

func TestTagMismatchSkipsChain(t *testing.T) {
	var tbl Table
	tbl.Alloc(1) // force all hashes into bucket 0
	_, e := makeEntry(1)
	tbl.InsertTagged(uint64(1)<<48, e)

	head := tbl.Lookup(0)
	if TagMatches(head, uint64(2)<<48) {
		t.Skip("tags collided by construction, nothing to assert")
	}
	visited := false
	tbl.Walk(head, true, uint64(2)<<48, func(e *Entry) bool {
		visited = true
		return true
	})
	if visited {
		t.Errorf("Walk visited chain despite tag mismatch")
	}
}

func TestLoadFactor(t *testing.T) {
	var tbl Table
	tbl.Alloc(8) // size=8, threshold = 10*8/7 ≈ 11.43
	if tbl.OverLoadFactor(11) {
		t.Errorf("11 entries should not be over load factor for size 8")
	}
	if !tbl.OverLoadFactor(12) {
		t.Errorf("12 entries should be over load factor for size 8")
	}
}
