// Package iu implements Information Units and IU sets, the named, typed
// column references that flow through a query plan (spec §3).
package iu

import "github.com/tpch-jitq/queryjit/types"

// IU is a named, typed column reference. It is owned by the operator that
// introduces it: scans own table columns, map owns its derived column,
// aggregation owns its result columns. Equality and hashing use pointer
// identity, never Name — two IUs with the same name are different columns
// unless they are the same *IU.
type IU struct {
	Name string
	Type types.Tag
}

// New allocates a fresh IU. Callers keep the returned pointer as the
// column's identity for the remainder of planning and compilation.
func New(name string, typ types.Tag) *IU {
	return &IU{Name: name, Type: typ}
}

func (i *IU) String() string {
	if i == nil {
		return "<nil>"
	}
	return i.Name
}
