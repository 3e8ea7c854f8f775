package ir

import "github.com/tpch-jitq/queryjit/iu"

// Scope assigns each IU a stable Row slot index, built incrementally as a
// pipeline's operators are compiled — the closure-based analogue of the
// original's virtual-register allocation pass over its IU set.
type Scope struct {
	slots    map[*iu.IU]int
	order    []*iu.IU
	reserved int
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{slots: make(map[*iu.IU]int)}
}

// Slot returns the slot index for id, allocating a new one the first time
// it's asked for. Operators call this while compiling, so the same IU
// always lands in the same slot across an entire pipeline.
func (s *Scope) Slot(id *iu.IU) int {
	if idx, ok := s.slots[id]; ok {
		return idx
	}
	idx := len(s.order) + s.reserved
	s.slots[id] = idx
	s.order = append(s.order, id)
	return idx
}

// Size is the number of slots a Row for this scope needs.
func (s *Scope) Size() int {
	return len(s.order) + s.reserved
}

// Reserve allocates a fresh slot not tied to any IU, for operator-private
// per-row state that still needs to live on the Row (e.g. InnerJoin's
// chain-walk cursor). Each call returns a distinct slot.
func (s *Scope) Reserve() int {
	idx := len(s.order) + s.reserved
	s.reserved++
	return idx
}

// NewRow allocates a fresh, zeroed Row sized for this scope — called once
// per input tuple a scan partition produces.
func (s *Scope) NewRow() *Row {
	return &Row{Slots: make([]any, s.Size())}
}
