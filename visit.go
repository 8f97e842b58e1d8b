package progdiff

import "slices"

// Visitor has one method per node kind. Adding a node kind adds a method
// here, which breaks every implementation until it handles the new kind.
//
// Visitors recurse by calling Walk on the children they care about.
type Visitor interface {
	VisitConst(c *Const) error
	VisitVar(x *Var) error
	VisitBinary(b *Binary) error
	VisitUnary(u *Unary) error
	VisitHeaviside(h *Heaviside) error
	VisitGuard(g *Guard) error
}

func (c *Const) Accept(v Visitor) error     { return v.VisitConst(c) }
func (x *Var) Accept(v Visitor) error       { return v.VisitVar(x) }
func (b *Binary) Accept(v Visitor) error    { return v.VisitBinary(b) }
func (u *Unary) Accept(v Visitor) error     { return v.VisitUnary(u) }
func (h *Heaviside) Accept(v Visitor) error { return v.VisitHeaviside(h) }
func (g *Guard) Accept(v Visitor) error     { return v.VisitGuard(g) }

// Walk dispatches e to v. A nil e, including a typed nil node, yields
// ErrNilExpr instead of a panic.
func Walk(e Expr, v Visitor) error {
	if isNil(e) {
		return ErrNilExpr
	}
	return e.Accept(v)
}

func isNil(e Expr) bool {
	switch n := e.(type) {
	case nil:
		return true
	case *Const:
		return n == nil
	case *Var:
		return n == nil
	case *Binary:
		return n == nil
	case *Unary:
		return n == nil
	case *Heaviside:
		return n == nil
	case *Guard:
		return n == nil
	}
	return false
}

// FreeVars returns the distinct variable ids referenced by e, ascending.
// A tree with a nil node yields ErrNilExpr.
func FreeVars(e Expr) ([]ID, error) {
	c := &varCollector{seen: map[ID]struct{}{}}
	if err := Walk(e, c); err != nil {
		return nil, err
	}
	out := make([]ID, 0, len(c.seen))
	for id := range c.seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

type varCollector struct{ seen map[ID]struct{} }

func (c *varCollector) VisitConst(*Const) error { return nil }
func (c *varCollector) VisitVar(x *Var) error {
	c.seen[x.ID] = struct{}{}
	return nil
}
func (c *varCollector) VisitBinary(b *Binary) error {
	if err := Walk(b.Left, c); err != nil {
		return err
	}
	return Walk(b.Right, c)
}
func (c *varCollector) VisitUnary(u *Unary) error         { return Walk(u.Operand, c) }
func (c *varCollector) VisitHeaviside(h *Heaviside) error { return Walk(h.Operand, c) }
func (c *varCollector) VisitGuard(g *Guard) error         { return Walk(g.Operand, c) }
