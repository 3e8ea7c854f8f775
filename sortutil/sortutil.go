// Package sortutil implements the one shape a relational sort can turn
// into a pure numeric sort: a single 32-bit-wide key (Int32 or Date)
// packed alongside its row index into one 64-bit lane, radix-sorted in
// place. Packing index into the low 32 bits and sorting unsigned means an
// ordinary (unstable, per-lane) sort over the packed lanes produces a
// stable argsort over the keys — equal keys keep the index ordering they
// started with, since index only grows within a run of equal keys.
//
// operators.Sort falls back to sort.SliceStable for every other shape
// (multiple keys, Int64/Double keys, String keys) — see its
// Sort.singleKeyArgSort: those don't fit a single 64-bit sortable lane.
package sortutil

// EncodeInt32 maps a signed int32 to the uint32 whose unsigned ordering
// matches the original's signed ordering (flip the sign bit), the
// standard signed-to-radix-sortable-key transform.
func EncodeInt32(v int32) uint32 {
	return uint32(v) ^ 0x80000000
}

// EncodeDate maps a Date value (already compared as unsigned, per
// types.Tag.IsSigned) to its sortable uint32: the identity.
func EncodeDate(v int32) uint32 {
	return uint32(v)
}

// ArgSort32 returns the permutation of 0..len(keys)-1 that stably sorts
// keys ascending by unsigned value. Each (key, index) pair is packed into
// one uint64 lane — key in the high 32 bits, index in the low 32 — and
// radixSortUint64 sorts those lanes directly: an unstable sort over the
// lanes is a stable argsort over the keys, because index breaks every tie
// in original-position order.
func ArgSort32(keys []uint32) []int {
	n := len(keys)
	if n == 0 {
		return nil
	}
	if n > 1<<32-1 {
		panic("sortutil: ArgSort32 cannot index more than 2^32-1 rows")
	}

	packed := make([]uint64, n)
	for i, k := range keys {
		packed[i] = uint64(k)<<32 | uint64(uint32(i))
	}

	radixSortUint64(packed)

	order := make([]int, n)
	for i, p := range packed {
		order[i] = int(uint32(p))
	}
	return order
}

// radixSortUint64 sorts vals ascending in place via 8 LSD passes of an
// 8-bit digit each, the architecture-neutral counting-sort-per-digit
// shape every radix sort in the corpus (the teacher's own
// hwy/contrib/sort included) builds on. Each pass is stable, and a stable
// sort on every digit from least to most significant is a stable sort on
// the whole 64-bit key — that's what lets ArgSort32 rely on index-as-tiebreak
// surviving all 8 passes.
func radixSortUint64(vals []uint64) {
	n := len(vals)
	if n < 2 {
		return
	}

	buf := make([]uint64, n)
	src, dst := vals, buf
	var count [257]int

	for shift := uint(0); shift < 64; shift += 8 {
		for i := range count {
			count[i] = 0
		}
		for _, v := range src {
			count[int(byte(v>>shift))+1]++
		}
		for i := 1; i < len(count); i++ {
			count[i] += count[i-1]
		}
		for _, v := range src {
			b := byte(v >> shift)
			dst[count[b]] = v
			count[b]++
		}
		src, dst = dst, src
	}
	// 8 passes is an even number of src/dst swaps, so src already aliases
	// vals's backing array; nothing left to copy back.
}

// Reorder applies order (as produced by ArgSort32) to data, returning a
// new slice with data[order[i]] at position i.
func Reorder[T any](data []T, order []int) []T {
	out := make([]T, len(order))
	for i, src := range order {
		out[i] = data[src]
	}
	return out
}
