package ir

// loopFrame records the state needed to translate Break/Continue
// semantics for one nesting level of loop, the closure-based stand-in
// for the original's per-loop basic-block bookkeeping (header/body/exit
// blocks) during codegen.
type loopFrame struct {
	body *[]Stmt
}

// Builder accumulates Stmts into nested blocks the way the original's IR
// builder accumulates instructions into basic blocks: Emit always
// appends to whatever block is on top of the stack, and PushLoop/PopLoop
// bracket loop bodies so nested control flow (an inner Selection's
// short-circuit, a join probe's chain walk) composes correctly without
// operators needing to know their nesting depth.
type Builder struct {
	blocks []*[]Stmt
	loops  []loopFrame
}

// NewBuilder returns a Builder with one top-level block open.
func NewBuilder() *Builder {
	b := &Builder{}
	b.blocks = append(b.blocks, &[]Stmt{})
	return b
}

// Emit appends stmt to the current block.
func (b *Builder) Emit(stmt Stmt) {
	top := b.blocks[len(b.blocks)-1]
	*top = append(*top, stmt)
}

// PushBlock opens a new nested block (e.g. the "then" side of a
// Selection's predicate, or the body of a loop) without yet knowing its
// contents.
func (b *Builder) PushBlock() {
	b.blocks = append(b.blocks, &[]Stmt{})
}

// PopBlock closes the most recently opened block and returns it compiled,
// without emitting it anywhere — the caller decides how to wire it in
// (wrap it in an `if`, a loop, or splice it directly).
func (b *Builder) PopBlock() Block {
	top := b.blocks[len(b.blocks)-1]
	b.blocks = b.blocks[:len(b.blocks)-1]
	return Block(*top)
}

// If emits a conditional: cond is evaluated against the row, and when
// true the previously-built `then` block runs. A false Selection
// predicate falls through to SignalNext — the push-based "drop this
// tuple, move on to the next one" behavior — without unwinding the whole
// pipeline.
func (b *Builder) If(cond func(row *Row) bool, then Block) {
	b.Emit(func(row *Row) Signal {
		if cond(row) {
			return then.Run(row)
		}
		return SignalNext
	})
}

// PushLoop opens a new block that will become a loop body and records a
// loop frame so a Break emitted anywhere inside it (however deeply
// nested within Ifs) stops this loop specifically rather than an outer
// one.
func (b *Builder) PushLoop() {
	b.PushBlock()
	top := b.blocks[len(b.blocks)-1]
	b.loops = append(b.loops, loopFrame{body: top})
}

// PopLoop closes the loop body opened by the matching PushLoop and
// returns a Stmt that runs it repeatedly while cond holds, translating a
// SignalBreak from the body into falling out of the loop (SignalNext to
// the enclosing block) and propagating SignalReturn straight through.
// This is the closure equivalent of the original's loop-frame-stack
// recommendation (spec §9): nested loops (e.g. a hash-join probe's chain
// walk inside a scan partition's row loop) each get their own frame, so
// an inner Break never escapes past its own loop.
func (b *Builder) PopLoop(cond func(row *Row) bool) Stmt {
	body := b.PopBlock()
	b.loops = b.loops[:len(b.loops)-1]
	return func(row *Row) Signal {
		for cond(row) {
			switch sig := body.Run(row); sig {
			case SignalBreak:
				return SignalNext
			case SignalReturn:
				return SignalReturn
			}
		}
		return SignalNext
	}
}

// Break emits a Stmt that unwinds to the nearest enclosing loop frame.
// Calling it with no loop frame open is a builder misuse (there is
// nothing to break out of at the pipeline's top level) and panics
// immediately rather than silently compiling a no-op.
func (b *Builder) Break() {
	if len(b.loops) == 0 {
		panic("ir: Break emitted outside any loop frame")
	}
	b.Emit(func(*Row) Signal { return SignalBreak })
}

// Return emits a Stmt that unwinds the whole pipeline function, used by a
// materializing consumer (e.g. Aggregation's final flush) to end
// processing early.
func (b *Builder) Return() {
	b.Emit(func(*Row) Signal { return SignalReturn })
}

// Build closes the builder's top-level block and returns it compiled.
// Called once, after every operator in a pipeline has finished emitting.
func (b *Builder) Build() Block {
	return b.PopBlock()
}
