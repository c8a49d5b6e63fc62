package symplot_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symplot"
)

// call decodes params from JSON so numbers arrive as float64, the way
// they do over the wire.
func call(t *testing.T, tool, params string) symplot.ToolResponse {
	t.Helper()
	var p map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(params), &p))
	return symplot.HandleToolCall(symplot.ToolRequest{Tool: tool, Params: p})
}

func TestTool_Parse(t *testing.T) {
	resp := call(t, "parse", `{"expr":"x**2 + 1"}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "x^2 + 1", resp.String)
	assert.Equal(t, "x^{2} + 1", resp.LaTeX)
}

func TestTool_ParseError(t *testing.T) {
	resp := call(t, "parse", `{"expr":"sin(x) +"}`)
	assert.Contains(t, resp.Error, "at offset 8")
}

func TestTool_Derivative(t *testing.T) {
	resp := call(t, "derivative", `{"expr":"x^3"}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "3*x^2", resp.String)

	resp = call(t, "derivative", `{"expr":"x^3","n":3}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "6", resp.String)

	resp = call(t, "derivative", `{"expr":"abs(x)"}`)
	assert.Contains(t, resp.Error, "abs")
}

func TestTool_Gradient(t *testing.T) {
	resp := call(t, "gradient", `{"expr":"x^2*y","vars":["x","y"]}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "[2*x*y x^2]", resp.String)
}

func TestTool_DefiniteIntegral(t *testing.T) {
	resp := call(t, "definite_integral", `{"expr":"x^2","lower":0,"upper":1}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "1/3", resp.String)
	iv, ok := resp.Result.(*symplot.IntegralValue)
	require.True(t, ok)
	assert.InDelta(t, 1.0/3, iv.Numeric, 1e-10)

	resp = call(t, "definite_integral", `{"expr":"exp(-x^2)","lower":0,"upper":1,"tolerance":1e-10}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "unevaluated", resp.String)

	resp = call(t, "definite_integral", `{"expr":"x","lower":0,"upper":1,"tolerance":-1}`)
	assert.Contains(t, resp.Error, "tolerance")
}

func TestTool_SampleWarns(t *testing.T) {
	resp := call(t, "sample", `{"expr":"ln(x)","min":-1,"max":1,"points":100}`)
	require.Empty(t, resp.Error)
	s, ok := resp.Result.(*symplot.SampleSet)
	require.True(t, ok)
	assert.Equal(t, 100, s.Total)
	assert.Equal(t, 50, s.Len())
	assert.Contains(t, resp.Warning, "50 of 100 points excluded")
}

func TestTool_SampleClampsPoints(t *testing.T) {
	resp := call(t, "sample", `{"expr":"x","min":0,"max":1,"points":3}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, symplot.MinPoints, resp.Result.(*symplot.SampleSet).Total)

	resp = call(t, "sample", `{"expr":"x","min":1,"max":0}`)
	assert.Contains(t, resp.Error, "invalid sampling domain")
}

func TestTool_SampleGrid(t *testing.T) {
	resp := call(t, "sample_grid", `{"expr":"sqrt(1 - x^2 - y^2)","xmin":-1,"xmax":1,"xpoints":3,"ymin":-1,"ymax":1,"ypoints":3}`)
	require.Empty(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, 4, result["excluded"])
	z := result["z"].([][]*float64)
	assert.Nil(t, z[0][0])
	assert.NotEmpty(t, resp.Warning)

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"z":[[null,0,null]`)
}

func TestTool_SampleParametric(t *testing.T) {
	resp := call(t, "sample_parametric", `{"x":"cos(t)","y":"sin(t)","min":0,"max":6.283185307179586}`)
	require.Empty(t, resp.Error)
	c := resp.Result.(*symplot.CurveSample)
	assert.Len(t, c.T, symplot.DefaultPoints)
	assert.Equal(t, "(cos(t), sin(t))", resp.String)
}

func TestTool_TreeExpression(t *testing.T) {
	resp := call(t, "simplify", `{"expr":{"type":"add","terms":[{"type":"sym","name":"x"},{"type":"sym","name":"x"}]}}`)
	require.Empty(t, resp.Error)
	assert.Equal(t, "2*x", resp.String)
}

func TestTool_Errors(t *testing.T) {
	assert.Equal(t, "unknown tool: solve", call(t, "solve", `{}`).Error)
	assert.Equal(t, "missing param: expr", call(t, "parse", `{}`).Error)
	assert.Contains(t, call(t, "parse", `{"expr":3}`).Error, "must be an expression")
	assert.Contains(t, call(t, "gradient", `{"expr":"x","vars":"x"}`).Error, "must be array")
	assert.Contains(t, call(t, "derivative", `{"expr":"x","n":1.5}`).Error, "must be an integer")
	assert.Contains(t, call(t, "sample_grid", `{"expr":"x","vars":["x"]}`).Error, "2 variables")
}

func TestTool_FreeSymbolsAndPresets(t *testing.T) {
	resp := call(t, "free_symbols", `{"expr":"x*y + z","vars":["x","y","z"]}`)
	assert.Equal(t, []string{"x", "y", "z"}, resp.Result)

	resp = call(t, "presets", `{}`)
	presets := resp.Result.([]symplot.Preset)
	assert.Len(t, presets, len(symplot.Presets()))
}

func TestTool_Schema(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(symplot.ToolSpec()), &spec))
	assert.Len(t, spec.Tools, len(symplot.ToolNames()))

	resp := call(t, "schema", `{}`)
	_, ok := resp.Result.(json.RawMessage)
	assert.True(t, ok)
}

func TestTool_EveryNameDispatches(t *testing.T) {
	for _, name := range symplot.ToolNames() {
		resp := call(t, name, `{}`)
		assert.NotContains(t, resp.Error, "unknown tool", name)
	}
}
