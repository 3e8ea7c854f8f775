// Package expr implements scalar expression trees (spec §4.K): constants,
// IU references, unary/binary/cast operators, Case, and Like, with
// bottom-up type inference and implicit cast insertion — compiled down to
// ir.Stmt-shaped value-producing closures rather than LLVM IR.
package expr

import (
	"fmt"

	"github.com/tpch-jitq/queryjit/ir"
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/runtimesym"
	"github.com/tpch-jitq/queryjit/types"
)

// Expr is a typed, row-evaluable scalar expression. Eval reads whatever
// Row slots the expression's subtree was compiled against and returns a
// single Value — the closure-based analogue of an LLVM value produced by
// an expression subtree.
type Expr interface {
	Type() types.Tag
	Eval(row *ir.Row) types.Value
}

// Const is a literal value, already typed.
type Const struct {
	Val types.Value
}

func (c Const) Type() types.Tag            { return c.Val.Tag }
func (c Const) Eval(*ir.Row) types.Value { return c.Val }

// Ref reads a previously-bound IU's value out of the row via scope.
type Ref struct {
	ID    *iu.IU
	Typ   types.Tag
	Scope *ir.Scope
}

func (r Ref) Type() types.Tag { return r.Typ }
func (r Ref) Eval(row *ir.Row) types.Value {
	return row.Get(r.Scope.Slot(r.ID)).(types.Value)
}

// Unary applies types.Not or types.Neg.
type Unary struct {
	Op   string // "not" or "neg"
	X    Expr
}

func (u Unary) Type() types.Tag { return u.X.Type() }
func (u Unary) Eval(row *ir.Row) types.Value {
	x := u.X.Eval(row)
	switch u.Op {
	case "not":
		return types.Not(x)
	case "neg":
		return types.Neg(x)
	default:
		panic(fmt.Sprintf("expr: unknown unary op %q", u.Op))
	}
}

// Binary applies a types.BinOpKind across two subexpressions, inserting
// implicit widening casts the way spec §4.K's bottom-up inference pass
// requires: the result type is the wider of the two operand types
// (types.Tag.Precedence), and whichever operand is narrower is cast up
// before the operation runs.
type Binary struct {
	Op   types.BinOpKind
	L, R Expr
}

// resultType computes the widened common type for l and r, per
// types.Tag.Precedence.
func resultType(l, r types.Tag) types.Tag {
	if l.Precedence() >= r.Precedence() {
		return l
	}
	return r
}

func (b Binary) Type() types.Tag {
	rt := resultType(b.L.Type(), b.R.Type())
	if isComparison(b.Op) {
		return types.Bool
	}
	return rt
}

func isComparison(op types.BinOpKind) bool {
	switch op {
	case types.OpEq, types.OpNe, types.OpLt, types.OpLe, types.OpGt, types.OpGe:
		return true
	}
	return false
}

func (b Binary) Eval(row *ir.Row) types.Value {
	lv := b.L.Eval(row)
	rv := b.R.Eval(row)
	wide := resultType(b.L.Type(), b.R.Type())
	if lv.Tag != wide {
		lv = types.Cast(lv, wide)
	}
	if rv.Tag != wide {
		rv = types.Cast(rv, wide)
	}
	return types.BinOp(b.Op, lv, rv)
}

// Cast explicitly converts X to Typ.
type Cast struct {
	X   Expr
	Typ types.Tag
}

func (c Cast) Type() types.Tag { return c.Typ }
func (c Cast) Eval(row *ir.Row) types.Value {
	return types.Cast(c.X.Eval(row), c.Typ)
}

// And and Or implement short-circuit boolean connectives: the right-hand
// side is never evaluated once the left-hand side already decides the
// result, matching spec §4.K's short-circuit requirement and avoiding
// side effects (or divide-by-zero style traps) in unreached subtrees.
type And struct{ L, R Expr }

func (a And) Type() types.Tag { return types.Bool }
func (a And) Eval(row *ir.Row) types.Value {
	l := a.L.Eval(row)
	if !l.Bool() {
		return types.BoolValue(false)
	}
	return types.BoolValue(a.R.Eval(row).Bool())
}

type Or struct{ L, R Expr }

func (o Or) Type() types.Tag { return types.Bool }
func (o Or) Eval(row *ir.Row) types.Value {
	l := o.L.Eval(row)
	if l.Bool() {
		return types.BoolValue(true)
	}
	return types.BoolValue(o.R.Eval(row).Bool())
}

// CaseBranch is one WHEN cond THEN then arm of a Case.
type CaseBranch struct {
	Cond Expr
	Then Expr
}

// Case evaluates branches in order, returning the first whose Cond is
// true, falling back to Else if none match.
type Case struct {
	Branches []CaseBranch
	Else     Expr
}

func (c Case) Type() types.Tag {
	if len(c.Branches) > 0 {
		return c.Branches[0].Then.Type()
	}
	return c.Else.Type()
}

func (c Case) Eval(row *ir.Row) types.Value {
	for _, br := range c.Branches {
		if br.Cond.Eval(row).Bool() {
			return br.Then.Eval(row)
		}
	}
	return c.Else.Eval(row)
}

// LikeKind is which of the three pattern shapes spec §4.K's Like supports
// a given pattern reduces to.
type LikeKind int

const (
	LikePrefixKind LikeKind = iota // "foo%"
	LikeSuffixKind                 // "%foo"
	LikeContainsKind                // "%foo%"
)

// Like matches X's string value against Pattern using Kind, dispatching
// to runtimesym's prefix/suffix/contains helpers — the original resolves
// the same three shapes at plan time so the generated code never runs a
// full regex engine per row.
type Like struct {
	X       Expr
	Pattern string
	Kind    LikeKind
}

func (l Like) Type() types.Tag { return types.Bool }
func (l Like) Eval(row *ir.Row) types.Value {
	s := l.X.Eval(row).Str().String()
	switch l.Kind {
	case LikePrefixKind:
		return types.BoolValue(runtimesym.LikePrefix(s, l.Pattern))
	case LikeSuffixKind:
		return types.BoolValue(runtimesym.LikeSuffix(s, l.Pattern))
	default:
		return types.BoolValue(runtimesym.Like(s, l.Pattern))
	}
}
