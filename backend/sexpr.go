package backend

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/njchilds90/progdiff"
)

// SExpr renders fully parenthesized prefix form:
//
//	x0*(1 + x1)  ->  (* x0 (+ 1 x1))
//
// Successive expressions are separated by a single space.
type SExpr struct{ sink }

func NewSExpr() *SExpr { return &SExpr{sink{target: TargetSExpr}} }

func (s *SExpr) EmitExpr(e progdiff.Expr) error {
	return s.emit(e, " ", func(w *strings.Builder, e progdiff.Expr) error {
		return progdiff.Walk(e, &sexprWriter{w: w})
	})
}

func (s *SExpr) Finish() string { return s.finish() }

type sexprWriter struct{ w io.Writer }

func (p *sexprWriter) write(s string) error {
	_, err := io.WriteString(p.w, s)
	return err
}

func (p *sexprWriter) list(head string, args ...progdiff.Expr) error {
	if err := p.write("(" + head); err != nil {
		return err
	}
	for _, a := range args {
		if err := p.write(" "); err != nil {
			return err
		}
		if err := progdiff.Walk(a, p); err != nil {
			return err
		}
	}
	return p.write(")")
}

func (p *sexprWriter) VisitConst(c *progdiff.Const) error { return p.write(numeral(c.Value)) }

func (p *sexprWriter) VisitVar(x *progdiff.Var) error {
	return p.write("x" + strconv.FormatUint(uint64(x.ID), 10))
}

func (p *sexprWriter) VisitBinary(b *progdiff.Binary) error {
	switch b.Op {
	case progdiff.OpAdd:
		return p.list("+", b.Left, b.Right)
	case progdiff.OpMul:
		return p.list("*", b.Left, b.Right)
	}
	return p.list(b.Op.String(), b.Left, b.Right)
}

func (p *sexprWriter) VisitUnary(u *progdiff.Unary) error {
	switch u.Op {
	case progdiff.OpNeg:
		return p.list("-", u.Operand)
	case progdiff.OpAbs:
		return p.list("abs", u.Operand)
	case progdiff.OpRecip:
		return p.list("recip", u.Operand)
	}
	return p.list(u.Op.String(), u.Operand)
}

func (p *sexprWriter) VisitHeaviside(h *progdiff.Heaviside) error {
	return p.list("heaviside", h.Operand)
}

func (p *sexprWriter) VisitGuard(g *progdiff.Guard) error { return progdiff.Walk(g.Operand, p) }

// numeral is the shortest decimal that round-trips, without exponent.
func numeral(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
