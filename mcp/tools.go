// Package mcp exposes differentiation as JSON tool calls for agent
// frameworks, plus the HTTP server that hosts them.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/njchilds90/progdiff"
	"github.com/njchilds90/progdiff/backend"
	"github.com/njchilds90/progdiff/frontend"
)

var (
	// ErrUnknownTool indicates a request for a tool that is not registered.
	ErrUnknownTool = errors.New("mcp: unknown tool")
	// ErrBadParams indicates params that fail to decode or validate.
	ErrBadParams = errors.New("mcp: invalid params")
)

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

var validate = validator.New()

type parseParams struct {
	Source string   `json:"source" validate:"required"`
	Axes   []string `json:"axes" validate:"dive,required"`
}

type diffParams struct {
	Expr   map[string]interface{} `json:"expr" validate:"required"`
	Wrt    *uint32                `json:"wrt" validate:"required"`
	Order  int                    `json:"order" validate:"gte=0,lte=8"`
	Eps    float64                `json:"eps" validate:"gte=0"`
	Target string                 `json:"target" validate:"omitempty,oneof=sexpr go latex"`
}

type evalParams struct {
	Expr map[string]interface{} `json:"expr" validate:"required"`
	Env  map[string]float64     `json:"env"`
}

type shiftParams struct {
	Expr   map[string]interface{} `json:"expr" validate:"required"`
	ID     uint32                 `json:"id"`
	Amount float64                `json:"amount"`
}

type emitParams struct {
	Expr   map[string]interface{} `json:"expr" validate:"required"`
	Target string                 `json:"target" validate:"omitempty,oneof=sexpr go latex"`
}

// decodeParams re-encodes the loosely typed params into dst and validates
// its struct tags.
func decodeParams(params map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	return nil
}

// HandleToolCall runs one tool call. Failures are reported in
// ToolResponse.Error.
func HandleToolCall(req ToolRequest) ToolResponse {
	resp, err := dispatch(req)
	if err != nil {
		return ToolResponse{Error: err.Error()}
	}
	return resp
}

func dispatch(req ToolRequest) (ToolResponse, error) {
	switch req.Tool {
	case "parse":
		var p parseParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ToolResponse{}, err
		}
		prog, err := frontend.Parse(p.Source, frontend.Options{SamplingAxes: p.Axes})
		if err != nil {
			return ToolResponse{}, err
		}
		return render(prog.Expr, map[string]interface{}{
			"expr":    progdiff.ToMap(prog.Expr),
			"symbols": prog.Symbols,
		}, "")

	case "diff":
		var p diffParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ToolResponse{}, err
		}
		e, err := progdiff.FromJSON(p.Expr)
		if err != nil {
			return ToolResponse{}, fmt.Errorf("diff: expr: %w", err)
		}
		eps := p.Eps
		if eps == 0 {
			eps = progdiff.Eps
		}
		order := p.Order
		if order == 0 {
			order = 1
		}
		d := e
		for i := 0; i < order; i++ {
			d = progdiff.DiffEps(d, *p.Wrt, eps)
		}
		return render(d, nil, p.Target)

	case "eval":
		var p evalParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ToolResponse{}, err
		}
		e, err := progdiff.FromJSON(p.Expr)
		if err != nil {
			return ToolResponse{}, fmt.Errorf("eval: expr: %w", err)
		}
		env, err := parseEnv(p.Env)
		if err != nil {
			return ToolResponse{}, err
		}
		v, err := e.Eval(env.Resolve)
		if err != nil {
			return ToolResponse{}, err
		}
		resp := ToolResponse{String: strconv.FormatFloat(v, 'g', -1, 64)}
		// JSON has no Inf or NaN; those travel in String alone.
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			resp.Result = v
		}
		return resp, nil

	case "shift":
		var p shiftParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ToolResponse{}, err
		}
		e, err := progdiff.FromJSON(p.Expr)
		if err != nil {
			return ToolResponse{}, fmt.Errorf("shift: expr: %w", err)
		}
		return render(progdiff.Shift(e, p.ID, p.Amount), nil, "")

	case "emit":
		var p emitParams
		if err := decodeParams(req.Params, &p); err != nil {
			return ToolResponse{}, err
		}
		e, err := progdiff.FromJSON(p.Expr)
		if err != nil {
			return ToolResponse{}, fmt.Errorf("emit: expr: %w", err)
		}
		return render(e, nil, p.Target)
	}
	return ToolResponse{}, fmt.Errorf("%w: %s", ErrUnknownTool, req.Tool)
}

// render fills String with the target rendering (S-expression by default)
// and LaTeX with the LaTeX rendering. result defaults to the wire format
// of e.
func render(e progdiff.Expr, result interface{}, target string) (ToolResponse, error) {
	tgt := backend.TargetSExpr
	if target != "" {
		t, err := backend.ParseTarget(target)
		if err != nil {
			return ToolResponse{}, err
		}
		tgt = t
	}
	b, err := backend.New(tgt)
	if err != nil {
		return ToolResponse{}, err
	}
	str, err := backend.Emit(b, e)
	if err != nil {
		return ToolResponse{}, err
	}
	tex, err := backend.Emit(backend.NewLaTeX(), e)
	if err != nil {
		return ToolResponse{}, err
	}
	if result == nil {
		result = progdiff.ToMap(e)
	}
	return ToolResponse{Result: result, String: str, LaTeX: tex}, nil
}

// parseEnv converts JSON object keys ("0", "x0") into variable ids.
func parseEnv(in map[string]float64) (progdiff.Env, error) {
	env := make(progdiff.Env, len(in))
	for k, v := range in {
		key := k
		if len(key) > 1 && key[0] == 'x' {
			key = key[1:]
		}
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: env key %q is not a variable id", ErrBadParams, k)
		}
		env[progdiff.ID(id)] = v
	}
	return env, nil
}

// ToolNames lists the registered tools in a stable order.
func ToolNames() []string {
	names := make([]string, 0, len(toolSchemas))
	for n := range toolSchemas {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

var toolSchemas = map[string]struct {
	description string
	required    []string
	props       map[string]string
}{
	"parse": {"Parse surface syntax into an expression tree", []string{"source"},
		map[string]string{"source": "string", "axes": "array"}},
	"diff": {"Differentiate with discontinuity smoothing", []string{"expr", "wrt"},
		map[string]string{"expr": "object", "wrt": "integer", "order": "integer", "eps": "number", "target": "string"}},
	"eval": {"Evaluate an expression", []string{"expr"},
		map[string]string{"expr": "object", "env": "object"}},
	"shift": {"Offset every sampling axis by amount", []string{"expr"},
		map[string]string{"expr": "object", "id": "integer", "amount": "number"}},
	"emit": {"Render an expression with a backend", []string{"expr"},
		map[string]string{"expr": "object", "target": "string"}},
}

// ToolSpec returns the JSON schema of every tool, for agent registration.
func ToolSpec() string {
	tools := make([]map[string]interface{}, 0, len(toolSchemas))
	for _, name := range ToolNames() {
		s := toolSchemas[name]
		tools = append(tools, ts(name, s.description, s.required, s.props))
	}
	b, _ := json.MarshalIndent(map[string]interface{}{"tools": tools}, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := make(map[string]interface{}, len(props))
	for k, typ := range props {
		properties[k] = map[string]string{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"input_schema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
