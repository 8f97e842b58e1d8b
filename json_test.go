package progdiff_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/progdiff"
)

func TestToJSON_Shape(t *testing.T) {
	e := progdiff.MulOf(progdiff.X(0), progdiff.GuardOf(progdiff.Axis(1)))
	s, err := progdiff.ToJSON(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"mul",
		"left":{"type":"var","id":0},
		"right":{"type":"guard","arg":{"type":"var","id":1,"axis":true}}}`, s)
}

func TestJSON_RoundTrip(t *testing.T) {
	e := progdiff.Diff(progdiff.HeavisideOf(progdiff.AbsOf(progdiff.SubOf(progdiff.Axis(0), progdiff.C(0.5)))), 0)
	s, err := progdiff.ToJSON(e)
	require.NoError(t, err)
	back, err := progdiff.ParseJSON([]byte(s))
	require.NoError(t, err)
	assert.True(t, e.Equal(back), "round trip changed the tree:\n%s\n%s", e, back)
}

func TestFromJSON_YAMLIntegers(t *testing.T) {
	doc := `
type: add
left: {type: var, id: 2, axis: true}
right: {type: recip, arg: {type: const, value: 4}}
`
	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))
	e, err := progdiff.FromJSON(m)
	require.NoError(t, err)
	want := progdiff.AddOf(progdiff.Axis(2), progdiff.RecipOf(progdiff.C(4)))
	assert.True(t, want.Equal(e), "got %s", e)
}

func TestFromJSON_Errors(t *testing.T) {
	cases := map[string]string{
		"missing type":  `{}`,
		"unknown type":  `{"type":"pow"}`,
		"bad const":     `{"type":"const","value":"one"}`,
		"negative id":   `{"type":"var","id":-1}`,
		"fractional id": `{"type":"var","id":1.5}`,
		"bad axis":      `{"type":"var","id":1,"axis":"yes"}`,
		"missing arg":   `{"type":"abs"}`,
		"nested":        `{"type":"add","left":{"type":"const","value":1},"right":{"type":"neg","arg":{}}}`,
	}
	for name, doc := range cases {
		_, err := progdiff.ParseJSON([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestFromJSON_NestedErrorNamesPath(t *testing.T) {
	_, err := progdiff.ParseJSON([]byte(`{"type":"mul","left":{"type":"const","value":1},"right":{"type":"heaviside","arg":{"type":"x"}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mul: right: heaviside: arg: unknown expression type: x")
}

func TestToJSON_NonFiniteFails(t *testing.T) {
	_, err := progdiff.ToJSON(progdiff.RecipOf(progdiff.C(math.Inf(1))))
	assert.Error(t, err)
}
