package frontend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/progdiff"
	"github.com/njchilds90/progdiff/frontend"
)

func TestParse_Scenario(t *testing.T) {
	p, err := frontend.Parse("x0 * (1 + x1)", frontend.Options{})
	require.NoError(t, err)
	want := progdiff.MulOf(progdiff.X(0), progdiff.AddOf(progdiff.One(), progdiff.X(1)))
	assert.True(t, want.Equal(p.Expr), "got %s", p.Expr)
	assert.Equal(t, map[string]progdiff.ID{"x0": 0, "x1": 1}, p.Symbols)
}

func TestParse_Decomposition(t *testing.T) {
	p, err := frontend.Parse("a - b / c", frontend.Options{})
	require.NoError(t, err)
	want := progdiff.SubOf(progdiff.X(0), progdiff.DivOf(progdiff.X(1), progdiff.X(2)))
	assert.True(t, want.Equal(p.Expr), "got %s", p.Expr)
}

func TestParse_NamesAvoidExplicitIDs(t *testing.T) {
	p, err := frontend.Parse("t * x0 + y + x2", frontend.Options{SamplingAxes: []string{"t"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]progdiff.ID{"x0": 0, "x2": 2, "t": 1, "y": 3}, p.Symbols)
	assert.Equal(t, []string{"x0", "t", "x2", "y"}, p.Names())

	id, ok := p.Lookup("t")
	require.True(t, ok)
	assert.Equal(t, progdiff.ID(1), id)
	assert.Contains(t, axisIDs(p.Expr), progdiff.ID(1))
	assert.NotContains(t, axisIDs(p.Expr), progdiff.ID(3))
}

func TestParse_Builtins(t *testing.T) {
	p, err := frontend.Parse("abs(t) + heaviside(t) + H(t) + recip(t) + guard(t) + not(t)", frontend.Options{SamplingAxes: []string{"t"}})
	require.NoError(t, err)

	v, err := p.Expr.Eval(progdiff.Env{0: 2}.Resolve)
	require.NoError(t, err)
	// 2 + 1 + 1 + 0.5 + 2.0001 + (1 - 2)
	assert.InDelta(t, 5.5001, v, 1e-12)
}

func TestParse_UnaryOperators(t *testing.T) {
	p, err := frontend.Parse("-x + +y", frontend.Options{})
	require.NoError(t, err)
	v, err := p.Expr.Eval(progdiff.Env{0: 3, 1: 10}.Resolve)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]error{
		"x ** 2":      frontend.ErrUnsupportedSyntax,
		"sin(x)":      frontend.ErrUnsupportedSyntax,
		`"str"`:       frontend.ErrUnsupportedSyntax,
		"x > 1":       frontend.ErrUnsupportedSyntax,
		"recip(x, y)": frontend.ErrArity,
		"heaviside()": frontend.ErrArity,
	}
	for src, want := range cases {
		_, err := frontend.Parse(src, frontend.Options{})
		assert.ErrorIs(t, err, want, src)
	}

	_, err := frontend.Parse("x +", frontend.Options{})
	assert.Error(t, err)
}

func TestParse_DiffRoundTrip(t *testing.T) {
	// d/dt of heaviside(t - 1) spikes at the crossing.
	p, err := frontend.Parse("heaviside(t - 1)", frontend.Options{SamplingAxes: []string{"t"}})
	require.NoError(t, err)
	id, _ := p.Lookup("t")
	v, err := progdiff.Diff(p.Expr, id).Eval(progdiff.Env{id: 1}.Resolve)
	require.NoError(t, err)
	assert.Greater(t, v, 1000.0)
}

func axisIDs(e progdiff.Expr) []progdiff.ID {
	var out []progdiff.ID
	var walk func(progdiff.Expr)
	walk = func(e progdiff.Expr) {
		switch n := e.(type) {
		case *progdiff.Var:
			if n.SamplingAxis {
				out = append(out, n.ID)
			}
		case *progdiff.Binary:
			walk(n.Left)
			walk(n.Right)
		case *progdiff.Unary:
			walk(n.Operand)
		case *progdiff.Heaviside:
			walk(n.Operand)
		case *progdiff.Guard:
			walk(n.Operand)
		}
	}
	walk(e)
	return out
}
