package mcp_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/progdiff"
	"github.com/njchilds90/progdiff/mcp"
)

// scenarioJSON is x0*(1 + x1) in wire form.
func scenarioJSON(t *testing.T) map[string]interface{} {
	t.Helper()
	e := progdiff.MulOf(progdiff.X(0), progdiff.AddOf(progdiff.One(), progdiff.X(1)))
	s, err := progdiff.ToJSON(e)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func call(t *testing.T, tool string, params map[string]interface{}) mcp.ToolResponse {
	t.Helper()
	return mcp.HandleToolCall(mcp.ToolRequest{Tool: tool, Params: params})
}

func TestHandleToolCall_Diff(t *testing.T) {
	resp := call(t, "diff", map[string]interface{}{"expr": scenarioJSON(t), "wrt": 1})
	require.Empty(t, resp.Error)
	assert.NotEmpty(t, resp.String)
	assert.NotEmpty(t, resp.LaTeX)

	d, err := progdiff.FromJSON(resp.Result.(map[string]interface{}))
	require.NoError(t, err)
	v, err := d.Eval(progdiff.Env{0: 2, 1: 3}.Resolve)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-12)
}

func TestHandleToolCall_DiffTargetAndOrder(t *testing.T) {
	resp := call(t, "diff", map[string]interface{}{
		"expr":   scenarioJSON(t),
		"wrt":    0,
		"order":  2,
		"target": "go",
	})
	require.Empty(t, resp.Error)
	assert.Contains(t, resp.String, "func Eval(x []float64) float64")
}

func TestHandleToolCall_DiffValidation(t *testing.T) {
	for name, params := range map[string]map[string]interface{}{
		"missing wrt":  {"expr": scenarioJSON(t)},
		"missing expr": {"wrt": 0},
		"negative eps": {"expr": scenarioJSON(t), "wrt": 0, "eps": -1},
		"bad target":   {"expr": scenarioJSON(t), "wrt": 0, "target": "rust"},
		"wrt as text":  {"expr": scenarioJSON(t), "wrt": "x0"},
	} {
		resp := call(t, "diff", params)
		assert.Contains(t, resp.Error, "invalid params", name)
		assert.Nil(t, resp.Result, name)
	}

	resp := call(t, "diff", map[string]interface{}{"expr": map[string]interface{}{"type": "pow"}, "wrt": 0})
	assert.Contains(t, resp.Error, "diff: expr: unknown expression type: pow")
}

func TestHandleToolCall_Eval(t *testing.T) {
	resp := call(t, "eval", map[string]interface{}{
		"expr": scenarioJSON(t),
		"env":  map[string]interface{}{"x0": 2, "1": 3},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, 8.0, resp.Result)
	assert.Equal(t, "8", resp.String)

	resp = call(t, "eval", map[string]interface{}{"expr": scenarioJSON(t), "env": map[string]interface{}{"x0": 2}})
	assert.Contains(t, resp.Error, "unresolved variable x1")

	resp = call(t, "eval", map[string]interface{}{"expr": scenarioJSON(t), "env": map[string]interface{}{"y": 2}})
	assert.Contains(t, resp.Error, `env key "y"`)
}

func TestHandleToolCall_EvalNonFinite(t *testing.T) {
	// d/dx0 H(x0) without a sampling axis: 0 * 1/|x0 - x0| is NaN.
	step, err := progdiff.ToJSON(progdiff.Diff(progdiff.HeavisideOf(progdiff.X(0)), 0))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(step), &m))

	resp := call(t, "eval", map[string]interface{}{"expr": m, "env": map[string]interface{}{"0": 2}})
	require.Empty(t, resp.Error)
	assert.Equal(t, "NaN", resp.String)
	assert.Nil(t, resp.Result)
}

func TestHandleToolCall_Shift(t *testing.T) {
	axis, err := progdiff.ToJSON(progdiff.MulOf(progdiff.Axis(0), progdiff.X(1)))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(axis), &m))

	resp := call(t, "shift", map[string]interface{}{"expr": m, "id": 0, "amount": 0.5})
	require.Empty(t, resp.Error)
	assert.Equal(t, "(* (+ x0 0.5) x1)", resp.String)
}

func TestHandleToolCall_Emit(t *testing.T) {
	resp := call(t, "emit", map[string]interface{}{"expr": scenarioJSON(t), "target": "latex"})
	require.Empty(t, resp.Error)
	assert.Equal(t, `x_{0} \cdot \left(1 + x_{1}\right)`, resp.String)
	assert.Equal(t, resp.String, resp.LaTeX)

	resp = call(t, "emit", map[string]interface{}{"expr": scenarioJSON(t)})
	require.Empty(t, resp.Error)
	assert.Equal(t, "(* x0 (+ 1 x1))", resp.String)
}

func TestHandleToolCall_Parse(t *testing.T) {
	resp := call(t, "parse", map[string]interface{}{"source": "heaviside(t - 1) * y", "axes": []string{"t"}})
	require.Empty(t, resp.Error)
	assert.Equal(t, "(* (heaviside (+ x0 (- 1))) x1)", resp.String)

	out, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]progdiff.ID{"t": 0, "y": 1}, out["symbols"])

	resp = call(t, "parse", map[string]interface{}{"source": "sin(t)"})
	assert.Contains(t, resp.Error, "unsupported syntax")

	resp = call(t, "parse", map[string]interface{}{})
	assert.Contains(t, resp.Error, "invalid params")
}

func TestHandleToolCall_UnknownTool(t *testing.T) {
	resp := call(t, "integrate", nil)
	assert.Equal(t, "mcp: unknown tool: integrate", resp.Error)
}

func TestToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name        string `json:"name"`
			InputSchema struct {
				Required []string `json:"required"`
			} `json:"input_schema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(mcp.ToolSpec()), &spec))

	var names []string
	for _, tool := range spec.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.InputSchema.Required, tool.Name)
	}
	assert.Equal(t, mcp.ToolNames(), names)
	assert.Equal(t, []string{"diff", "emit", "eval", "parse", "shift"}, names)
}

// ============================================================
// HTTP
// ============================================================

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/tool", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestServer_Tool(t *testing.T) {
	s := mcp.NewServer(nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, body := post(t, srv, `{"tool":"emit","params":{"expr":{"type":"var","id":3}}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"result":{"type":"var","id":3},"string":"x3","latex":"x_{3}"}`, string(body))

	post(t, srv, `{"tool":"emit","params":{}}`)
	post(t, srv, `{"tool":"nope"}`)

	want := `
# HELP progdiff_tool_calls_total Tool calls by tool and outcome.
# TYPE progdiff_tool_calls_total counter
progdiff_tool_calls_total{status="error",tool="emit"} 1
progdiff_tool_calls_total{status="error",tool="unknown"} 1
progdiff_tool_calls_total{status="ok",tool="emit"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(s.Registry(), strings.NewReader(want), "progdiff_tool_calls_total"))
}

func TestServer_EvalNonFinite(t *testing.T) {
	s := mcp.NewServer(nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, body := post(t, srv, `{"tool":"eval","params":{"expr":{"type":"recip","arg":{"type":"var","id":0}},"env":{"0":0}}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"string":"+Inf"}`, string(body))

	want := `
# HELP progdiff_tool_calls_total Tool calls by tool and outcome.
# TYPE progdiff_tool_calls_total counter
progdiff_tool_calls_total{status="ok",tool="eval"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(s.Registry(), strings.NewReader(want), "progdiff_tool_calls_total"))
}

func TestServer_RejectsBadRequests(t *testing.T) {
	srv := httptest.NewServer(mcp.NewServer(nil).Handler())
	defer srv.Close()

	resp, body := post(t, srv, `{"tool":"emit","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "unknown field")

	resp, body = post(t, srv, `{"tool":"emit"} {"tool":"emit"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "trailing data")

	get, err := http.Get(srv.URL + "/tool")
	require.NoError(t, err)
	get.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestServer_SchemaHealthMetrics(t *testing.T) {
	srv := httptest.NewServer(mcp.NewServer(nil).Handler())
	defer srv.Close()
	post(t, srv, `{"tool":"emit","params":{"expr":{"type":"const","value":1}}}`)

	for path, want := range map[string]string{
		"/schema":  `"name": "diff"`,
		"/health":  `"status":"ok"`,
		"/metrics": "progdiff_tool_call_duration_seconds",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(b), want, path)
	}
}
