// Package query ties package ir's compiled pipelines, package operators'
// operator implementations, and package scheduler's partition dispatch
// into one executable query (spec §4.J's compiler driver / query
// surface).
package query

import (
	"fmt"

	"github.com/tpch-jitq/queryjit/hashtable"
	"github.com/tpch-jitq/queryjit/runtimesym"
	"github.com/tpch-jitq/queryjit/types"
)

// SymbolTable resolves runtime symbol names to their Go implementations,
// preserving the original's "named runtime symbol surface resolved at
// JIT-link time" protocol shape even though there is no actual link step
// here — every pipeline closure calls package runtimesym directly, and
// SymbolTable exists so compiler.Validate (package compiler) can confirm
// a plan only references symbols that exist, the way the original's
// SymbolManager would fail a link against an unresolved symbol.
type SymbolTable struct {
	symbols map[string]any
}

// NewSymbolTable builds the fixed symbol table spec §6 enumerates.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: map[string]any{
		"hash":            runtimesym.Hash64,
		"combineHash":     runtimesym.CombineHash,
		"hashKeys":        runtimesym.HashKeys,
		"hashValue":       runtimesym.HashValue,
		"likePrefix":      runtimesym.LikePrefix,
		"likeSuffix":      runtimesym.LikeSuffix,
		"like":            runtimesym.Like,
		"stringEq":        runtimesym.StringEq,
		"stringLt":        runtimesym.StringLt,
		"stringGt":        runtimesym.StringGt,
		"extractYear":     types.ExtractYear,
		"signExtend":      (*hashtable.Table).Deref,
		"cmpTag":          hashtable.TagMatches,
		"printChar":       runtimesym.PrintChar,
		"printBool":       runtimesym.PrintBool,
		"printDate":       runtimesym.PrintDate,
		"printDouble":     runtimesym.PrintDouble,
		"printStringView": runtimesym.PrintStringView,
		"printBigInt":     runtimesym.PrintBigInt,
		"printInteger":    runtimesym.PrintInteger,
		"printNewline":    runtimesym.PrintNewline,
	}}
}

// Resolve returns the named symbol, or an error if the plan references a
// symbol this build doesn't provide.
func (t *SymbolTable) Resolve(name string) (any, error) {
	fn, ok := t.symbols[name]
	if !ok {
		return nil, fmt.Errorf("query: unresolved runtime symbol %q", name)
	}
	return fn, nil
}

// Names returns every symbol name this table can resolve. compiler.Validate
// does not use it; it checks a plan's referenced symbols through Resolve.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for n := range t.symbols {
		names = append(names, n)
	}
	return names
}
