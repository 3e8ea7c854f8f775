// Package membuf implements the append-only, page-doubling tuple buffer
// (spec §3, §4.C). Regions are plain Go byte slices rather than anonymous
// mmap mappings: the original's use of mmap for this in-process slab is an
// allocation strategy, not file I/O (package loader uses real mmap for
// actual files).
package membuf

// DefaultInitialPages is N in spec §4.C's "initial size N · page_size".
const DefaultInitialPages = 64

// DefaultPageSize matches the common 4 KiB page used by the original's
// mmap-backed regions.
const DefaultPageSize = 4096

// Region is one exponentially-growing slab: a triple of
// (next free offset, size, memory) addressable from generated code the way
// spec §4.C requires.
type Region struct {
	Data     []byte
	NextFree int
}

func (r *Region) free() int { return len(r.Data) - r.NextFree }

// Buffer is a sequence of regions, never shrinking until the Buffer itself
// is dropped. Not safe for concurrent Alloc — each thread/worker owns its
// own Buffer (spec §4.C, §5's per-thread ownership policy).
type Buffer struct {
	baseSize int // initial_size * page_size
	regions  []*Region
}

// New creates a Buffer whose first region, once allocated, is
// DefaultInitialPages*pageSize bytes.
func New(pageSize int) *Buffer {
	return NewWithInitialPages(pageSize, DefaultInitialPages)
}

// NewWithInitialPages lets callers override N for tests.
func NewWithInitialPages(pageSize, initialPages int) *Buffer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if initialPages <= 0 {
		initialPages = DefaultInitialPages
	}
	return &Buffer{baseSize: initialPages * pageSize}
}

func newRegion(size int) *Region {
	return &Region{Data: make([]byte, size)}
}

// Alloc returns elemSize bytes from the latest region, creating a new
// region — double the previous region's size, or elemSize if that isn't
// enough — only when the current region can't satisfy the request.
func (b *Buffer) Alloc(elemSize int) []byte {
	if len(b.regions) == 0 {
		size := b.baseSize
		if size < elemSize {
			size = elemSize
		}
		b.regions = append(b.regions, newRegion(size))
	}
	cur := b.regions[len(b.regions)-1]
	if cur.free() < elemSize {
		next := len(cur.Data) * 2
		if next < elemSize {
			next = elemSize
		}
		cur = newRegion(next)
		b.regions = append(b.regions, cur)
	}
	off := cur.NextFree
	cur.NextFree += elemSize
	return cur.Data[off : off+elemSize : off+elemSize]
}

// Regions exposes the raw region list, mirroring spec §6's getBuffers.
func (b *Buffer) Regions() []*Region { return b.regions }

// NumBuffers mirrors spec §6's getNumBuffers.
func (b *Buffer) NumBuffers() int { return len(b.regions) }

// All iterates every allocated elemSize-sized element across all regions,
// in insertion order, including any trailing partially-used bytes — the
// caller must only call All with the same elemSize every Alloc in this
// Buffer used.
func (b *Buffer) All(elemSize int, fn func(elem []byte)) {
	for _, r := range b.regions {
		for off := 0; off+elemSize <= r.NextFree; off += elemSize {
			fn(r.Data[off : off+elemSize])
		}
	}
}

// Count returns how many elemSize-sized elements have been allocated
// across all regions.
func (b *Buffer) Count(elemSize int) int {
	n := 0
	for _, r := range b.regions {
		n += r.NextFree / elemSize
	}
	return n
}
