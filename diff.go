package progdiff

// ============================================================
// Differentiation
// ============================================================
//
// Rules that touch a discontinuity never look at a factor's raw value.
// They evaluate it at the sampling axes shifted by -eps and +eps and
// combine the two one-sided limits instead.

// Diff returns d(e)/d(x_id) with the default smoothing epsilon.
func Diff(e Expr, id ID) Expr { return e.diff(id, Eps) }

// DiffEps is Diff with an explicit smoothing epsilon. Guard evaluation
// still uses Eps.
func DiffEps(e Expr, id ID, eps float64) Expr { return e.diff(id, eps) }

// DiffN differentiates e n times with respect to x_id. DiffN(e, id, 0)
// returns a clone of e.
func DiffN(e Expr, id ID, n int) Expr {
	out := e.Clone()
	for i := 0; i < n; i++ {
		out = out.Diff(id)
	}
	return out
}

func (c *Const) Diff(id ID) Expr     { return c.diff(id, Eps) }
func (x *Var) Diff(id ID) Expr       { return x.diff(id, Eps) }
func (b *Binary) Diff(id ID) Expr    { return b.diff(id, Eps) }
func (u *Unary) Diff(id ID) Expr     { return u.diff(id, Eps) }
func (h *Heaviside) Diff(id ID) Expr { return h.diff(id, Eps) }
func (g *Guard) Diff(id ID) Expr     { return g.diff(id, Eps) }

func (c *Const) diff(ID, float64) Expr { return Zero() }

func (x *Var) diff(id ID, _ float64) Expr {
	if x.ID == id {
		return One()
	}
	return Zero()
}

func (b *Binary) diff(id ID, eps float64) Expr {
	switch b.Op {
	case OpAdd:
		return AddOf(b.Left.diff(id, eps), b.Right.diff(id, eps))
	case OpMul:
		// Centered-average product rule: each factor is replaced by the mean
		// of its one-sided limits before scaling the other factor's derivative.
		return AddOf(
			MulOf(MulOf(Half(), limitSum(b.Right, id, eps)), b.Left.diff(id, eps)),
			MulOf(MulOf(Half(), limitSum(b.Left, id, eps)), b.Right.diff(id, eps)),
		)
	}
	panic("progdiff: unknown binary operator " + b.Op.String())
}

func (u *Unary) diff(id ID, eps float64) Expr {
	var outer Expr
	switch u.Op {
	case OpNeg:
		outer = NegOf(One())
	case OpRecip:
		outer = NegOf(RecipOf(MulOf(u.Operand.Clone(), u.Operand.Clone())))
	case OpAbs:
		// Centered difference estimate of sign(v); finite at v == 0 because
		// the denominator is guarded.
		right := u.Operand.Shift(id, eps)
		left := u.Operand.Shift(id, -eps)
		outer = DivOf(
			SubOf(AbsOf(right.Clone()), AbsOf(left.Clone())),
			GuardOf(SubOf(right, left)),
		)
	default:
		panic("progdiff: unknown unary operator " + u.Op.String())
	}
	return MulOf(outer, u.Operand.diff(id, eps))
}

// diff synthesizes the delta term of a step whose argument crosses zero.
// H(1 - L*R) gates the term on the one-sided limits L and R, and 1/|L - R|
// approximates the height of the spike.
func (h *Heaviside) diff(id ID, eps float64) Expr {
	left := h.Operand.Shift(id, -eps)
	right := h.Operand.Shift(id, eps)
	gate := HeavisideOf(FuzzyNotOf(MulOf(left.Clone(), right.Clone())))
	return MulOf(
		MulOf(gate, h.Operand.diff(id, eps)),
		RecipOf(AbsOf(SubOf(left, right))),
	)
}

func (g *Guard) diff(id ID, eps float64) Expr {
	return GuardOf(g.Operand.diff(id, eps))
}

// limitSum is shift(e, -eps) + shift(e, +eps).
func limitSum(e Expr, id ID, eps float64) Expr {
	return AddOf(e.Shift(id, -eps), e.Shift(id, eps))
}
