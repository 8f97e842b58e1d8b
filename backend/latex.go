package backend

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/njchilds90/progdiff"
)

// LaTeX renders math-mode LaTeX. Sums nested under a product or a
// negation are wrapped in \left( \right), as are signed operands to the
// right of a minus or a \cdot; successive expressions are
// separated by a newline.
type LaTeX struct{ sink }

func NewLaTeX() *LaTeX { return &LaTeX{sink{target: TargetLaTeX}} }

func (l *LaTeX) EmitExpr(e progdiff.Expr) error {
	return l.emit(e, "\n", func(w *strings.Builder, e progdiff.Expr) error {
		return progdiff.Walk(e, &latexWriter{w: w})
	})
}

func (l *LaTeX) Finish() string { return l.finish() }

type latexWriter struct{ w io.Writer }

func (p *latexWriter) write(parts ...string) error {
	for _, s := range parts {
		if _, err := io.WriteString(p.w, s); err != nil {
			return err
		}
	}
	return nil
}

// wrapped renders e, adding \left( \right) when e is a sum (looking
// through guards). With signed set, an operand that starts with a minus
// sign is wrapped too, so "a + -(-1)" never prints as "a + --1".
func (p *latexWriter) wrapped(e progdiff.Expr, signed bool) error {
	if !isSum(e) && !(signed && leadsWithMinus(e)) {
		return progdiff.Walk(e, p)
	}
	if err := p.write("\\left("); err != nil {
		return err
	}
	if err := progdiff.Walk(e, p); err != nil {
		return err
	}
	return p.write("\\right)")
}

func isSum(e progdiff.Expr) bool {
	switch n := unguard(e).(type) {
	case *progdiff.Binary:
		return n.Op == progdiff.OpAdd
	}
	return false
}

func leadsWithMinus(e progdiff.Expr) bool {
	switch n := unguard(e).(type) {
	case *progdiff.Const:
		return !math.IsNaN(n.Value) && math.Signbit(n.Value)
	case *progdiff.Unary:
		return n.Op == progdiff.OpNeg
	case *progdiff.Binary:
		return n.Op == progdiff.OpMul && leadsWithMinus(n.Left)
	}
	return false
}

func unguard(e progdiff.Expr) progdiff.Expr {
	for {
		g, ok := e.(*progdiff.Guard)
		if !ok {
			return e
		}
		e = g.Operand
	}
}

func (p *latexWriter) VisitConst(c *progdiff.Const) error {
	v := c.Value
	switch {
	case math.IsNaN(v):
		return p.write("\\mathrm{NaN}")
	case math.IsInf(v, 1):
		return p.write("\\infty")
	case math.IsInf(v, -1):
		return p.write("-\\infty")
	}
	return p.write(strconv.FormatFloat(v, 'f', -1, 64))
}

func (p *latexWriter) VisitVar(x *progdiff.Var) error {
	return p.write("x_{", strconv.FormatUint(uint64(x.ID), 10), "}")
}

func (p *latexWriter) VisitBinary(b *progdiff.Binary) error {
	if b.Op == progdiff.OpAdd {
		if err := progdiff.Walk(b.Left, p); err != nil {
			return err
		}
		if err := p.write(" + "); err != nil {
			return err
		}
		return progdiff.Walk(b.Right, p)
	}
	if err := p.wrapped(b.Left, false); err != nil {
		return err
	}
	if err := p.write(" \\cdot "); err != nil {
		return err
	}
	return p.wrapped(b.Right, true)
}

func (p *latexWriter) VisitUnary(u *progdiff.Unary) error {
	switch u.Op {
	case progdiff.OpNeg:
		if err := p.write("-"); err != nil {
			return err
		}
		return p.wrapped(u.Operand, true)
	case progdiff.OpAbs:
		if err := p.write("\\left|"); err != nil {
			return err
		}
		if err := progdiff.Walk(u.Operand, p); err != nil {
			return err
		}
		return p.write("\\right|")
	}
	if err := p.write("\\frac{1}{"); err != nil {
		return err
	}
	if err := progdiff.Walk(u.Operand, p); err != nil {
		return err
	}
	return p.write("}")
}

func (p *latexWriter) VisitHeaviside(h *progdiff.Heaviside) error {
	if err := p.write("H\\left("); err != nil {
		return err
	}
	if err := progdiff.Walk(h.Operand, p); err != nil {
		return err
	}
	return p.write("\\right)")
}

func (p *latexWriter) VisitGuard(g *progdiff.Guard) error { return progdiff.Walk(g.Operand, p) }
