package tls

import (
	"sync"
	"testing"
)

type counter struct {
	n int
}

func TestGetOrInsertStableAndDistinct(t *testing.T) {
	s := New[counter](4)

	a := s.GetOrInsert(1)
	a.n = 42
	again := s.GetOrInsert(1)
	if again != a {
		t.Fatalf("GetOrInsert(1) returned a different slot on second call")
	}
	if again.n != 42 {
		t.Fatalf("slot contents lost between calls: got %d", again.n)
	}

	b := s.GetOrInsert(2)
	if b == a {
		t.Fatalf("distinct ids aliased the same slot")
	}
}

func TestGetOrInsertConcurrentSameID(t *testing.T) {
	s := New[counter](8)
	const workers = 16
	results := make([]*counter, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i] = s.GetOrInsert(7)
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Errorf("worker %d got a different slot for the same id", i)
		}
	}
}

func TestAllVisitsAllocatedInArrivalOrder(t *testing.T) {
	s := New[counter](8)
	first := s.GetOrInsert(100)
	first.n = 1
	second := s.GetOrInsert(200)
	second.n = 2

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d contexts, want 2", len(all))
	}
	if all[0].n != 1 || all[1].n != 2 {
		t.Errorf("All() order = [%d,%d], want [1,2]", all[0].n, all[1].n)
	}
}

func TestBitCeil(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 9: 16}
	for in, want := range cases {
		if got := bitCeil(in); got != want {
			t.Errorf("bitCeil(%d) = %d, want %d", in, got, want)
		}
	}
}
