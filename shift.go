package progdiff

// Shift methods rebuild the tree, replacing every sampling-axis variable
// with (var + amt). The id argument is carried through the recursion but
// does not select which axis moves: all sampling axes are shifted.

func (c *Const) Shift(ID, float64) Expr { return C(c.Value) }

func (x *Var) Shift(_ ID, amt float64) Expr {
	if x.SamplingAxis {
		return AddOf(Axis(x.ID), C(amt))
	}
	return X(x.ID)
}

func (b *Binary) Shift(id ID, amt float64) Expr {
	return &Binary{Op: b.Op, Left: b.Left.Shift(id, amt), Right: b.Right.Shift(id, amt)}
}

func (u *Unary) Shift(id ID, amt float64) Expr {
	return &Unary{Op: u.Op, Operand: u.Operand.Shift(id, amt)}
}

func (h *Heaviside) Shift(id ID, amt float64) Expr {
	return HeavisideOf(h.Operand.Shift(id, amt))
}

func (g *Guard) Shift(id ID, amt float64) Expr {
	return GuardOf(g.Operand.Shift(id, amt))
}
