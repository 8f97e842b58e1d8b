package progdiff

import "math"

// Resolver supplies the value bound to a variable id. The boolean is false
// when the id is unknown.
type Resolver func(id ID) (float64, bool)

// Env is a fixed binding of ids to values.
type Env map[ID]float64

// Resolve implements Resolver over the map.
func (env Env) Resolve(id ID) (float64, bool) {
	v, ok := env[id]
	return v, ok
}

func (c *Const) Eval(Resolver) (float64, error) { return c.Value, nil }

func (x *Var) Eval(resolve Resolver) (float64, error) {
	if resolve == nil {
		return 0, &UnresolvedVariableError{ID: x.ID}
	}
	v, ok := resolve(x.ID)
	if !ok {
		return 0, &UnresolvedVariableError{ID: x.ID}
	}
	return v, nil
}

func (b *Binary) Eval(resolve Resolver) (float64, error) {
	l, err := b.Left.Eval(resolve)
	if err != nil {
		return 0, err
	}
	r, err := b.Right.Eval(resolve)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case OpAdd:
		return l + r, nil
	case OpMul:
		return l * r, nil
	}
	panic("progdiff: unknown binary operator " + b.Op.String())
}

func (u *Unary) Eval(resolve Resolver) (float64, error) {
	v, err := u.Operand.Eval(resolve)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case OpNeg:
		return -v, nil
	case OpAbs:
		return math.Abs(v), nil
	case OpRecip:
		return 1 / v, nil
	}
	panic("progdiff: unknown unary operator " + u.Op.String())
}

func (h *Heaviside) Eval(resolve Resolver) (float64, error) {
	v, err := h.Operand.Eval(resolve)
	if err != nil {
		return 0, err
	}
	return heaviside(v), nil
}

// Eval adds an epsilon carrying the operand's sign, so +0 becomes +Eps and
// -0 becomes -Eps.
func (g *Guard) Eval(resolve Resolver) (float64, error) {
	v, err := g.Operand.Eval(resolve)
	if err != nil {
		return 0, err
	}
	return v + math.Copysign(Eps, v), nil
}

// heaviside is 1 for strictly positive v and 0 otherwise, including v == 0
// and NaN.
func heaviside(v float64) float64 {
	if v > 0 {
		return 1
	}
	return 0
}
