package sortutil

import "testing"

func TestArgSort32OrdersAscendingByUnsignedKey(t *testing.T) {
	keys := []uint32{EncodeInt32(5), EncodeInt32(-3), EncodeInt32(0), EncodeInt32(-100), EncodeInt32(42)}
	order := ArgSort32(keys)

	want := []int{3, 1, 2, 0, 4} // -100, -3, 0, 5, 42
	if len(order) != len(want) {
		t.Fatalf("len(order) = %d, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestArgSort32StableOnTies(t *testing.T) {
	keys := []uint32{EncodeInt32(1), EncodeInt32(1), EncodeInt32(0), EncodeInt32(1)}
	order := ArgSort32(keys)

	want := []int{2, 0, 1, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v (must be stable on ties)", order, want)
		}
	}
}

func TestArgSort32Empty(t *testing.T) {
	if got := ArgSort32(nil); got != nil {
		t.Fatalf("ArgSort32(nil) = %v, want nil", got)
	}
}

func TestReorderAppliesPermutation(t *testing.T) {
	data := []string{"a", "b", "c"}
	order := []int{2, 0, 1}
	got := Reorder(data, order)
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Reorder = %v, want %v", got, want)
		}
	}
}

func TestEncodeDateIsIdentityOnBits(t *testing.T) {
	if EncodeDate(5) != 5 {
		t.Fatalf("EncodeDate(5) = %d, want 5", EncodeDate(5))
	}
}

func TestRadixSortUint64OrdersAscending(t *testing.T) {
	vals := []uint64{1 << 40, 0, 5, 1<<63 + 1, 1 << 8, 255}
	radixSortUint64(vals)
	for i := 1; i < len(vals); i++ {
		if vals[i-1] > vals[i] {
			t.Fatalf("radixSortUint64 not ascending at %d: %v", i, vals)
		}
	}
}

func TestRadixSortUint64SmallSlices(t *testing.T) {
	for _, vals := range [][]uint64{nil, {7}, {2, 1}} {
		radixSortUint64(vals)
		for i := 1; i < len(vals); i++ {
			if vals[i-1] > vals[i] {
				t.Fatalf("radixSortUint64(%v) not ascending", vals)
			}
		}
	}
}
