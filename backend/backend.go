// Package backend renders expression trees to text.
//
// A Backend accumulates the rendering of every expression passed to
// EmitExpr and hands the result over once, from Finish. Every variant
// renders a Guard node exactly as its operand: guards only matter when a
// tree is evaluated in process.
package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/njchilds90/progdiff"
)

var (
	// ErrFinished indicates EmitExpr was called after Finish.
	ErrFinished = errors.New("backend: already finished")
	// ErrUnknownTarget indicates a target tag with no backend.
	ErrUnknownTarget = errors.New("backend: unknown target")
)

// Backend is an emission sink for expression trees.
type Backend interface {
	// EmitExpr appends the rendering of e. On error the partial rendering
	// of e is discarded.
	EmitExpr(e progdiff.Expr) error
	// Finish returns the accumulated output. The backend rejects further
	// EmitExpr calls with ErrFinished, and later Finish calls return "".
	Finish() string
}

// Target tags a backend variant.
type Target string

const (
	TargetSExpr Target = "sexpr"
	TargetGo    Target = "go"
	TargetLaTeX Target = "latex"
)

// Targets lists the supported tags in a stable order.
var Targets = []Target{TargetSExpr, TargetGo, TargetLaTeX}

// ParseTarget maps a tag to a Target, accepting a few aliases.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sexpr", "sexp", "s-expr":
		return TargetSExpr, nil
	case "go", "golang":
		return TargetGo, nil
	case "latex", "tex":
		return TargetLaTeX, nil
	}
	return "", fmt.Errorf("%w: %q (want one of %v)", ErrUnknownTarget, s, Targets)
}

// New returns a fresh backend for t. Go source output uses package
// "generated" and function name "Eval"; use NewGoSource to choose.
func New(t Target) (Backend, error) {
	switch t {
	case TargetSExpr:
		return NewSExpr(), nil
	case TargetGo:
		return NewGoSource("generated", "Eval"), nil
	case TargetLaTeX:
		return NewLaTeX(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, string(t))
}

// Emit renders exprs through b and finishes it.
func Emit(b Backend, exprs ...progdiff.Expr) (string, error) {
	for i, e := range exprs {
		if err := b.EmitExpr(e); err != nil {
			return "", fmt.Errorf("emit expression %d: %w", i, err)
		}
	}
	return b.Finish(), nil
}

// EmitError reports a failed emission. It wraps the cause: ErrFinished,
// progdiff.ErrNilExpr, or the sink's write error.
type EmitError struct {
	Target Target
	Err    error
}

func (e *EmitError) Error() string { return fmt.Sprintf("backend %s: %v", e.Target, e.Err) }
func (e *EmitError) Unwrap() error { return e.Err }

// sink is the shared accumulate/finish state of the text backends.
type sink struct {
	target   Target
	buf      strings.Builder
	finished bool
}

// emit runs render against a scratch builder and commits the result only
// if render succeeds.
func (s *sink) emit(e progdiff.Expr, sep string, render func(w *strings.Builder, e progdiff.Expr) error) error {
	if s.finished {
		return &EmitError{Target: s.target, Err: ErrFinished}
	}
	var scratch strings.Builder
	if err := render(&scratch, e); err != nil {
		return &EmitError{Target: s.target, Err: err}
	}
	if s.buf.Len() > 0 {
		s.buf.WriteString(sep)
	}
	s.buf.WriteString(scratch.String())
	return nil
}

func (s *sink) finish() string {
	s.finished = true
	out := s.buf.String()
	s.buf.Reset()
	return out
}
