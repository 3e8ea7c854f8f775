// Package ir is the closure-based substitute for the LLVM IR builder spec
// §4.G describes. The original JITs one native function per pipeline by
// emitting LLVM IR and handing it to an LLVM backend; that backend is an
// explicit external boundary (its interface, not its internals, is what
// the rest of this engine depends on — see DESIGN.md). This port keeps
// the produce/consume protocol and the pipeline-splitting semantics
// exactly, but "compiles" a pipeline by composing Go closures instead of
// emitting and JITing machine code: a Builder assembles a tree of Stmt
// values the same way the original assembles IR instructions into basic
// blocks, and "running the JIT" is simply calling the resulting closure.
package ir

// Signal is what a Stmt returns to tell its enclosing block or loop how
// to continue, standing in for LLVM basic-block terminators (br,
// condbr, ret).
type Signal int

const (
	// SignalNext says: fall through to the next statement in the block.
	SignalNext Signal = iota
	// SignalBreak unwinds to the nearest enclosing loop frame and stops
	// that loop, the way a codegen'd `br %loop.end` would.
	SignalBreak
	// SignalReturn unwinds all the way out of the pipeline function.
	SignalReturn
)

// Row is the per-tuple execution context threaded through every Stmt in a
// compiled pipeline: a flat slot array addressed by Scope, standing in
// for the virtual registers an LLVM basic block would operate on.
type Row struct {
	Slots []any
}

// Get and Set read/write a scope slot. Using `any` keeps Row allocation-
// free for the common case (operators pass types.Value, which is itself a
// stack-allocated tagged union) while letting operators stash other
// per-row state (e.g. a hash-table chain cursor) when needed.
func (r *Row) Get(slot int) any      { return r.Slots[slot] }
func (r *Row) Set(slot int, v any)   { r.Slots[slot] = v }

// Stmt is one compiled instruction: a closure over a Row. This is the
// unit the Builder accumulates into blocks, and the unit a compiled
// Pipeline ultimately reduces to — the "JITed" form.
type Stmt func(row *Row) Signal

// Block is a straight-line sequence of Stmts, stopping early on any
// non-SignalNext result and propagating that result outward.
type Block []Stmt

// Run executes every Stmt in order, short-circuiting on Break or Return.
func (b Block) Run(row *Row) Signal {
	for _, s := range b {
		if sig := s(row); sig != SignalNext {
			return sig
		}
	}
	return SignalNext
}
