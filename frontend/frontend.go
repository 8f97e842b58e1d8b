// Package frontend turns surface syntax into expression trees.
//
// The grammar is expr-lang's, restricted to what the expression model can
// represent:
//
//	x0 * (1 + t) - abs(t - 2) / guard(y)
//	heaviside(t - 0.5) + H(-t) + recip(x) + not(x)
//
// Identifiers written x<digits> keep that id. Any other identifier gets the
// next id not already claimed, in order of first appearance. Identifiers
// listed in Options.SamplingAxes become sampling-axis variables.
package frontend

import (
	"errors"
	"fmt"
	"cmp"
	"regexp"
	"slices"
	"strconv"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/njchilds90/progdiff"
)

var (
	// ErrUnsupportedSyntax indicates valid expr-lang syntax with no
	// counterpart in the expression model.
	ErrUnsupportedSyntax = errors.New("frontend: unsupported syntax")
	// ErrArity indicates a built-in called with the wrong argument count.
	ErrArity = errors.New("frontend: wrong number of arguments")
)

// Options controls variable binding.
type Options struct {
	// SamplingAxes names the variables that Shift moves.
	SamplingAxes []string
}

// Program is a parsed expression with its symbol table.
type Program struct {
	Expr    progdiff.Expr
	Symbols map[string]progdiff.ID
}

// Lookup returns the id bound to name.
func (p *Program) Lookup(name string) (progdiff.ID, bool) {
	id, ok := p.Symbols[name]
	return id, ok
}

// Names returns the symbol names ordered by id.
func (p *Program) Names() []string {
	names := make([]string, 0, len(p.Symbols))
	for n := range p.Symbols {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(p.Symbols[a], p.Symbols[b]), cmp.Compare(a, b))
	})
	return names
}

// Parse parses src into a Program.
func Parse(src string, opts Options) (*Program, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("frontend: parse: %w", err)
	}
	b := &builder{
		axes:    map[string]bool{},
		symbols: map[string]progdiff.ID{},
		claimed: map[progdiff.ID]bool{},
	}
	for _, a := range opts.SamplingAxes {
		b.axes[a] = true
	}
	// Explicit x<digits> ids are claimed before any other name gets one.
	b.claimExplicit(tree.Node)

	e, err := b.build(tree.Node)
	if err != nil {
		return nil, err
	}
	return &Program{Expr: e, Symbols: b.symbols}, nil
}

var explicitID = regexp.MustCompile(`^x([0-9]+)$`)

type builder struct {
	axes    map[string]bool
	symbols map[string]progdiff.ID
	claimed map[progdiff.ID]bool
	next    progdiff.ID
}

func (b *builder) claimExplicit(node ast.Node) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		if id, ok := parseExplicit(n.Value); ok {
			b.symbols[n.Value] = id
			b.claimed[id] = true
		}
	case *ast.UnaryNode:
		b.claimExplicit(n.Node)
	case *ast.BinaryNode:
		b.claimExplicit(n.Left)
		b.claimExplicit(n.Right)
	case *ast.CallNode:
		for _, a := range n.Arguments {
			b.claimExplicit(a)
		}
	case *ast.BuiltinNode:
		for _, a := range n.Arguments {
			b.claimExplicit(a)
		}
	}
}

func parseExplicit(name string) (progdiff.ID, bool) {
	m := explicitID.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return progdiff.ID(v), true
}

func (b *builder) variable(name string) progdiff.Expr {
	id, ok := b.symbols[name]
	if !ok {
		for b.claimed[b.next] {
			b.next++
		}
		id = b.next
		b.claimed[id] = true
		b.symbols[name] = id
	}
	return &progdiff.Var{ID: id, SamplingAxis: b.axes[name]}
}

func (b *builder) build(node ast.Node) (progdiff.Expr, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return progdiff.C(float64(n.Value)), nil
	case *ast.FloatNode:
		return progdiff.C(n.Value), nil
	case *ast.IdentifierNode:
		return b.variable(n.Value), nil

	case *ast.UnaryNode:
		v, err := b.build(n.Node)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "-":
			return progdiff.NegOf(v), nil
		case "+":
			return v, nil
		case "!", "not":
			return progdiff.FuzzyNotOf(v), nil
		}
		return nil, fmt.Errorf("%w: unary operator %q", ErrUnsupportedSyntax, n.Operator)

	case *ast.BinaryNode:
		l, err := b.build(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := b.build(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "+":
			return progdiff.AddOf(l, r), nil
		case "-":
			return progdiff.SubOf(l, r), nil
		case "*":
			return progdiff.MulOf(l, r), nil
		case "/":
			return progdiff.DivOf(l, r), nil
		}
		return nil, fmt.Errorf("%w: binary operator %q", ErrUnsupportedSyntax, n.Operator)

	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("%w: call of non-identifier", ErrUnsupportedSyntax)
		}
		return b.call(callee.Value, n.Arguments)

	case *ast.BuiltinNode:
		return b.call(n.Name, n.Arguments)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedSyntax, node)
}

func (b *builder) call(name string, args []ast.Node) (progdiff.Expr, error) {
	var wrap func(progdiff.Expr) progdiff.Expr
	switch name {
	case "abs":
		wrap = progdiff.AbsOf
	case "heaviside", "H", "step":
		wrap = progdiff.HeavisideOf
	case "recip":
		wrap = progdiff.RecipOf
	case "guard":
		wrap = progdiff.GuardOf
	case "not":
		wrap = progdiff.FuzzyNotOf
	default:
		return nil, fmt.Errorf("%w: function %q", ErrUnsupportedSyntax, name)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s takes 1 argument, got %d", ErrArity, name, len(args))
	}
	v, err := b.build(args[0])
	if err != nil {
		return nil, err
	}
	return wrap(v), nil
}
