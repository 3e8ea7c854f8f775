package ir

// Pipeline is one compiled produce/consume function: everything between a
// Scan (or a materializing operator's continuation) and the next
// pipeline-breaker, fused into a single closure over a Scope-sized Row.
// This is the unit spec §4.G calls a "pipeline" — in the original, one
// native function per Pipeline; here, one Go closure.
type Pipeline struct {
	Scope *Scope
	body  Block
}

// Compile finalizes a Builder's accumulated Stmts into a runnable
// Pipeline bound to scope.
func Compile(scope *Scope, b *Builder) *Pipeline {
	return &Pipeline{Scope: scope, body: b.Build()}
}

// Run executes the pipeline once against row, returning the terminal
// Signal (almost always SignalNext or SignalReturn — SignalBreak
// escaping to the pipeline's own top level is a builder bug, since every
// PushLoop has a matching PopLoop).
func (p *Pipeline) Run(row *Row) Signal {
	return p.body.Run(row)
}

// NewRow allocates a Row sized for this pipeline's scope.
func (p *Pipeline) NewRow() *Row {
	return p.Scope.NewRow()
}
