// Package compiler is spec §4.J's compiler driver boundary. In the
// original this is where IR is optimized and handed to LLVM for JITing;
// here pipelines are already runnable Go closures the moment package ir's
// Builder finishes composing them; "compiling" reduces to two concrete
// steps the original also performs before running a plan: resolving
// every runtime symbol the plan references (this package's Validate),
// and the original's optional devirtualization/licm-style peephole
// passes over generated IR — out of scope here since Go closures have no
// equivalent IR to rewrite post hoc (see package ir's doc comment), so
// Validate is this package's whole surface.
package compiler

import "fmt"

// SymbolResolver matches query.SymbolTable's Resolve method, accepted as
// an interface here so this package doesn't depend on package query (it
// sits below query in the dependency order — query depends on it, not
// the reverse).
type SymbolResolver interface {
	Resolve(name string) (any, error)
}

// Plan is the minimal shape Validate needs from a compiled query plan: a
// declared list of every runtime symbol name its pipelines reference.
type Plan struct {
	Name    string
	Symbols []string
}

// Validate confirms every symbol Plan declares is resolvable in table,
// the Go analogue of a JIT link step failing on an unresolved symbol —
// run once before a plan's pipelines ever execute, so a missing symbol
// surfaces as a clear error instead of a nil-function panic mid-query.
func Validate(plan Plan, table SymbolResolver) error {
	for _, name := range plan.Symbols {
		if _, err := table.Resolve(name); err != nil {
			return fmt.Errorf("compiler: plan %q: %w", plan.Name, err)
		}
	}
	return nil
}
