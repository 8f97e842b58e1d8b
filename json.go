package progdiff

import (
	"encoding/json"
	"fmt"
	"math"
)

// ============================================================
// JSON Serialization
// ============================================================
//
//	{"type": "const", "value": 1.5}
//	{"type": "var", "id": 0, "axis": true}
//	{"type": "add" | "mul", "left": {...}, "right": {...}}
//	{"type": "neg" | "abs" | "recip" | "heaviside" | "guard", "arg": {...}}
//
// Unlike the emission backends, the wire format keeps Guard nodes.

func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "value": c.Value}
}

func (x *Var) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "var", "id": x.ID}
	if x.SamplingAxis {
		m["axis"] = true
	}
	return m
}

func (b *Binary) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": b.exprType(), "left": b.Left.toJSON(), "right": b.Right.toJSON()}
}

func (u *Unary) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": u.exprType(), "arg": u.Operand.toJSON()}
}

func (h *Heaviside) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "heaviside", "arg": h.Operand.toJSON()}
}

func (g *Guard) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "guard", "arg": g.Operand.toJSON()}
}

// ToJSON encodes e in the wire format. Non-finite constants cannot be
// encoded and produce an error.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ToMap returns the wire-format object for e, ready to embed in a larger
// JSON or YAML document.
func ToMap(e Expr) map[string]interface{} { return e.toJSON() }

// ParseJSON decodes a wire-format document.
func ParseJSON(data []byte) (Expr, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("progdiff: decode json: %w", err)
	}
	return FromJSON(m)
}

// FromJSON builds an expression from a decoded wire-format object. Numbers
// may be float64 (encoding/json) or any integer type (YAML decoders).
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := asObject(v)
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	switch typ {
	case "const":
		v, ok := data["value"]
		if !ok {
			return nil, fmt.Errorf("const: missing 'value'")
		}
		f, ok := asNumber(v)
		if !ok {
			return nil, fmt.Errorf("const: 'value' must be a number")
		}
		return C(f), nil

	case "var":
		v, ok := data["id"]
		if !ok {
			return nil, fmt.Errorf("var: missing 'id'")
		}
		f, ok := asNumber(v)
		if !ok || f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
			return nil, fmt.Errorf("var: 'id' must be an unsigned 32-bit integer")
		}
		axis := false
		if a, ok := data["axis"]; ok {
			if axis, ok = a.(bool); !ok {
				return nil, fmt.Errorf("var: 'axis' must be a boolean")
			}
		}
		return &Var{ID: ID(f), SamplingAxis: axis}, nil

	case "add", "mul":
		l, err := subObj("left")
		if err != nil {
			return nil, err
		}
		r, err := subObj("right")
		if err != nil {
			return nil, err
		}
		if typ == "add" {
			return AddOf(l, r), nil
		}
		return MulOf(l, r), nil

	case "neg", "abs", "recip", "heaviside", "guard":
		arg, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		switch typ {
		case "neg":
			return NegOf(arg), nil
		case "abs":
			return AbsOf(arg), nil
		case "recip":
			return RecipOf(arg), nil
		case "heaviside":
			return HeavisideOf(arg), nil
		}
		return GuardOf(arg), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	return nil, false
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
