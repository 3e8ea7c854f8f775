package iu

// Set is an ordered-by-identity set of IU pointers. Iteration order is
// insertion order, which is stable across equal sets as required: packed
// tuple layouts (package tuple) and comparison key orderings computed from
// the same IUSet must agree across pipeline boundaries.
type Set struct {
	order []*IU
	has   map[*IU]bool
}

// NewSet builds a Set from the given IUs, in order, de-duplicating by
// identity.
func NewSet(ius ...*IU) *Set {
	s := &Set{has: make(map[*IU]bool, len(ius))}
	for _, u := range ius {
		s.Add(u)
	}
	return s
}

// Add inserts u if not already present. Reports whether it was newly added.
func (s *Set) Add(u *IU) bool {
	if s.has == nil {
		s.has = make(map[*IU]bool)
	}
	if s.has[u] {
		return false
	}
	s.has[u] = true
	s.order = append(s.order, u)
	return true
}

// Contains reports whether u is a member, by identity.
func (s *Set) Contains(u *IU) bool {
	return s != nil && s.has[u]
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// List returns the members in stable iteration order. The caller owns the
// returned slice.
func (s *Set) List() []*IU {
	if s == nil {
		return nil
	}
	out := make([]*IU, len(s.order))
	copy(out, s.order)
	return out
}

// Union returns a new set containing every member of s and o, s's members
// first, in their respective insertion orders.
func (s *Set) Union(o *Set) *Set {
	r := NewSet(s.List()...)
	for _, u := range o.List() {
		r.Add(u)
	}
	return r
}

// Intersect returns a new set containing members present in both s and o,
// in s's order.
func (s *Set) Intersect(o *Set) *Set {
	r := NewSet()
	for _, u := range s.List() {
		if o.Contains(u) {
			r.Add(u)
		}
	}
	return r
}

// Difference returns a new set containing s's members that are not in o,
// in s's order.
func (s *Set) Difference(o *Set) *Set {
	r := NewSet()
	for _, u := range s.List() {
		if !o.Contains(u) {
			r.Add(u)
		}
	}
	return r
}
