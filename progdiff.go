// Package progdiff provides symbolic differentiation for scalar expressions
// that contain discontinuous operators.
//
// Design goals:
//   - Closed expression tree with strict ownership (no shared nodes)
//   - Derivatives that stay finite across |x| and step discontinuities
//   - One-sided limits approximated by shifting sampling axes by ±Eps
//   - Pluggable emission backends (see package backend)
//
// Every combinator consumes its operands. A node passed to AddOf, MulOf and
// friends belongs to the result; Clone it first if it must be reused.
package progdiff

import (
	"fmt"
	"math"
	"strconv"
)

// ID identifies a variable. Its meaning is a contract between whoever
// builds the tree and whoever resolves it; this package never checks it.
type ID = uint32

// Eps is the smoothing epsilon used by Shift, Diff and Guard evaluation.
const Eps = 1e-4

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable expression tree node. The set of implementations is
// closed: *Const, *Var, *Binary, *Unary, *Heaviside and *Guard.
type Expr interface {
	Eval(resolve Resolver) (float64, error)
	Diff(id ID) Expr
	Shift(id ID, amt float64) Expr
	Clone() Expr
	Equal(other Expr) bool
	String() string
	Accept(v Visitor) error

	diff(id ID, eps float64) Expr
	exprType() string
	toJSON() map[string]interface{}
}

// BinOp is the operator of a Binary node.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpMul
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpMul:
		return "mul"
	}
	return "binop(" + strconv.Itoa(int(op)) + ")"
}

// UnOp is the operator of a Unary node.
type UnOp uint8

const (
	OpNeg UnOp = iota
	OpAbs
	OpRecip
)

func (op UnOp) String() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpAbs:
		return "abs"
	case OpRecip:
		return "recip"
	}
	return "unop(" + strconv.Itoa(int(op)) + ")"
}

// ============================================================
// Const - literal
// ============================================================

type Const struct{ Value float64 }

func C(v float64) *Const { return &Const{Value: v} }

func Zero() *Const { return C(0) }
func One() *Const  { return C(1) }
func Half() *Const { return C(0.5) }

func (c *Const) Clone() Expr      { return C(c.Value) }
func (c *Const) exprType() string { return "const" }
func (c *Const) String() string   { return formatFloat(c.Value) }
func (c *Const) Equal(other Expr) bool {
	o, ok := other.(*Const)
	return ok && c.Value == o.Value
}

// ============================================================
// Var - externally bound scalar
// ============================================================

// Var references a scalar bound outside the tree. SamplingAxis marks a
// continuous coordinate that Shift offsets when building one-sided limits.
type Var struct {
	ID           ID
	SamplingAxis bool
}

// X returns a plain variable.
func X(id ID) *Var { return &Var{ID: id} }

// Axis returns a sampling-axis variable.
func Axis(id ID) *Var { return &Var{ID: id, SamplingAxis: true} }

func (x *Var) Clone() Expr      { return &Var{ID: x.ID, SamplingAxis: x.SamplingAxis} }
func (x *Var) exprType() string { return "var" }
func (x *Var) String() string   { return "x" + strconv.FormatUint(uint64(x.ID), 10) }
func (x *Var) Equal(other Expr) bool {
	o, ok := other.(*Var)
	return ok && x.ID == o.ID && x.SamplingAxis == o.SamplingAxis
}

// ============================================================
// Binary - add, mul
// ============================================================

type Binary struct {
	Op          BinOp
	Left, Right Expr
}

func AddOf(l, r Expr) Expr { return &Binary{Op: OpAdd, Left: l, Right: r} }
func MulOf(l, r Expr) Expr { return &Binary{Op: OpMul, Left: l, Right: r} }

// SubOf is l + (-r). Differentiation sees the add and the negation.
func SubOf(l, r Expr) Expr { return AddOf(l, NegOf(r)) }

// DivOf is l * recip(r). Differentiation sees the mul and the reciprocal.
func DivOf(l, r Expr) Expr { return MulOf(l, RecipOf(r)) }

func (b *Binary) Clone() Expr {
	return &Binary{Op: b.Op, Left: b.Left.Clone(), Right: b.Right.Clone()}
}
func (b *Binary) exprType() string { return b.Op.String() }

func (b *Binary) String() string {
	switch b.Op {
	case OpAdd:
		return b.Left.String() + " + " + b.Right.String()
	case OpMul:
		return parenSum(b.Left) + "*" + parenSum(b.Right)
	}
	return b.Op.String() + "(" + b.Left.String() + ", " + b.Right.String() + ")"
}

func (b *Binary) Equal(other Expr) bool {
	o, ok := other.(*Binary)
	return ok && b.Op == o.Op && b.Left.Equal(o.Left) && b.Right.Equal(o.Right)
}

// ============================================================
// Unary - neg, abs, recip
// ============================================================

type Unary struct {
	Op      UnOp
	Operand Expr
}

func NegOf(v Expr) Expr   { return &Unary{Op: OpNeg, Operand: v} }
func AbsOf(v Expr) Expr   { return &Unary{Op: OpAbs, Operand: v} }
func RecipOf(v Expr) Expr { return &Unary{Op: OpRecip, Operand: v} }

// FuzzyNotOf is 1 - v.
func FuzzyNotOf(v Expr) Expr { return SubOf(One(), v) }

func (u *Unary) Clone() Expr      { return &Unary{Op: u.Op, Operand: u.Operand.Clone()} }
func (u *Unary) exprType() string { return u.Op.String() }

func (u *Unary) String() string {
	switch u.Op {
	case OpNeg:
		return "-" + parenSum(u.Operand)
	case OpAbs:
		return "|" + u.Operand.String() + "|"
	case OpRecip:
		return "1/" + parenCompound(u.Operand)
	}
	return u.Op.String() + "(" + u.Operand.String() + ")"
}

func (u *Unary) Equal(other Expr) bool {
	o, ok := other.(*Unary)
	return ok && u.Op == o.Op && u.Operand.Equal(o.Operand)
}

// ============================================================
// Heaviside - step function
// ============================================================

type Heaviside struct{ Operand Expr }

func HeavisideOf(v Expr) Expr { return &Heaviside{Operand: v} }

func (h *Heaviside) Clone() Expr      { return &Heaviside{Operand: h.Operand.Clone()} }
func (h *Heaviside) exprType() string { return "heaviside" }
func (h *Heaviside) String() string   { return "H(" + h.Operand.String() + ")" }
func (h *Heaviside) Equal(other Expr) bool {
	o, ok := other.(*Heaviside)
	return ok && h.Operand.Equal(o.Operand)
}

// ============================================================
// Guard - denominator protection
// ============================================================

// Guard nudges the value of its operand away from zero by Eps at
// evaluation time. Emission backends render it as its operand.
type Guard struct{ Operand Expr }

func GuardOf(v Expr) Expr { return &Guard{Operand: v} }

func (g *Guard) Clone() Expr      { return &Guard{Operand: g.Operand.Clone()} }
func (g *Guard) exprType() string { return "guard" }
func (g *Guard) String() string   { return "guard(" + g.Operand.String() + ")" }
func (g *Guard) Equal(other Expr) bool {
	o, ok := other.(*Guard)
	return ok && g.Operand.Equal(o.Operand)
}

// ============================================================
// Public Helpers
// ============================================================

func Eval(e Expr, resolve Resolver) (float64, error) { return e.Eval(resolve) }
func Shift(e Expr, id ID, amt float64) Expr          { return e.Shift(id, amt) }
func Clone(e Expr) Expr                              { return e.Clone() }
func String(e Expr) string                           { return e.String() }

// Depth returns the number of nodes on the longest root-to-leaf path.
func Depth(e Expr) int {
	switch n := e.(type) {
	case *Binary:
		return 1 + max(Depth(n.Left), Depth(n.Right))
	case *Unary:
		return 1 + Depth(n.Operand)
	case *Heaviside:
		return 1 + Depth(n.Operand)
	case *Guard:
		return 1 + Depth(n.Operand)
	}
	return 1
}

// NodeCount returns the total number of nodes in e.
func NodeCount(e Expr) int {
	switch n := e.(type) {
	case *Binary:
		return 1 + NodeCount(n.Left) + NodeCount(n.Right)
	case *Unary:
		return 1 + NodeCount(n.Operand)
	case *Heaviside:
		return 1 + NodeCount(n.Operand)
	case *Guard:
		return 1 + NodeCount(n.Operand)
	}
	return 1
}

func parenSum(e Expr) string {
	if b, ok := e.(*Binary); ok && b.Op == OpAdd {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func parenCompound(e Expr) string {
	switch e.(type) {
	case *Const, *Var, *Heaviside, *Guard:
		return e.String()
	}
	if u, ok := e.(*Unary); ok && u.Op == OpAbs {
		return e.String()
	}
	return "(" + e.String() + ")"
}

func formatFloat(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprint(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
