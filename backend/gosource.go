package backend

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/njchilds90/progdiff"
)

// GoSource generates a Go source file with one function per emitted
// expression. Variable x<id> reads x[id]:
//
//	func Eval(x []float64) float64 {
//		return (x[0] * (1 + x[1]))
//	}
//
// With several expressions the functions are numbered Eval0, Eval1, ...
// The heaviside and recip helpers are appended only when used.
type GoSource struct {
	pkg, fn  string
	bodies   []string
	math     bool
	step     bool
	recip    bool
	finished bool
}

// NewGoSource returns a generator for package pkg whose functions are
// named after fn.
func NewGoSource(pkg, fn string) *GoSource { return &GoSource{pkg: pkg, fn: fn} }

func (g *GoSource) EmitExpr(e progdiff.Expr) error {
	if g.finished {
		return &EmitError{Target: TargetGo, Err: ErrFinished}
	}
	var b strings.Builder
	w := &goWriter{w: &b}
	if err := progdiff.Walk(e, w); err != nil {
		return &EmitError{Target: TargetGo, Err: err}
	}
	g.math = g.math || w.math
	g.step = g.step || w.step
	g.recip = g.recip || w.recip
	g.bodies = append(g.bodies, b.String())
	return nil
}

func (g *GoSource) Finish() string {
	if g.finished {
		return ""
	}
	g.finished = true
	var b strings.Builder
	b.WriteString("// Code generated by diffc. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n", g.pkg)
	if g.math {
		b.WriteString("\nimport \"math\"\n")
	}
	for i, body := range g.bodies {
		name := g.fn
		if len(g.bodies) > 1 {
			name += strconv.Itoa(i)
		}
		fmt.Fprintf(&b, "\nfunc %s(x []float64) float64 {\n\treturn %s\n}\n", name, body)
	}
	if g.step {
		b.WriteString("\nfunc heaviside(v float64) float64 {\n\tif v > 0 {\n\t\treturn 1\n\t}\n\treturn 0\n}\n")
	}
	if g.recip {
		b.WriteString("\nfunc recip(v float64) float64 {\n\treturn 1 / v\n}\n")
	}
	g.bodies = nil
	return b.String()
}

type goWriter struct {
	w                 io.Writer
	math, step, recip bool
}

func (p *goWriter) write(parts ...string) error {
	for _, s := range parts {
		if _, err := io.WriteString(p.w, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *goWriter) VisitConst(c *progdiff.Const) error {
	v := c.Value
	switch {
	case math.IsNaN(v):
		p.math = true
		return p.write("math.NaN()")
	case math.IsInf(v, 0):
		p.math = true
		if v > 0 {
			return p.write("math.Inf(1)")
		}
		return p.write("math.Inf(-1)")
	case v < 0 || (v == 0 && math.Signbit(v)):
		return p.write("(", strconv.FormatFloat(v, 'g', -1, 64), ")")
	}
	return p.write(strconv.FormatFloat(v, 'g', -1, 64))
}

func (p *goWriter) VisitVar(x *progdiff.Var) error {
	return p.write("x[", strconv.FormatUint(uint64(x.ID), 10), "]")
}

func (p *goWriter) VisitBinary(b *progdiff.Binary) error {
	op := " + "
	if b.Op == progdiff.OpMul {
		op = " * "
	}
	if err := p.write("("); err != nil {
		return err
	}
	if err := progdiff.Walk(b.Left, p); err != nil {
		return err
	}
	if err := p.write(op); err != nil {
		return err
	}
	if err := progdiff.Walk(b.Right, p); err != nil {
		return err
	}
	return p.write(")")
}

func (p *goWriter) VisitUnary(u *progdiff.Unary) error {
	var open string
	switch u.Op {
	case progdiff.OpNeg:
		open = "(-"
	case progdiff.OpAbs:
		p.math = true
		open = "math.Abs("
	case progdiff.OpRecip:
		// A call keeps 1/0 on constants out of the compiler's sight.
		p.recip = true
		open = "recip("
	default:
		return fmt.Errorf("unsupported unary operator %s", u.Op)
	}
	if err := p.write(open); err != nil {
		return err
	}
	if err := progdiff.Walk(u.Operand, p); err != nil {
		return err
	}
	return p.write(")")
}

func (p *goWriter) VisitHeaviside(h *progdiff.Heaviside) error {
	p.step = true
	if err := p.write("heaviside("); err != nil {
		return err
	}
	if err := progdiff.Walk(h.Operand, p); err != nil {
		return err
	}
	return p.write(")")
}

func (p *goWriter) VisitGuard(g *progdiff.Guard) error { return progdiff.Walk(g.Operand, p) }
