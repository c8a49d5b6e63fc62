package symplot

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ============================================================
// Tool Interface
// ============================================================

// ToolRequest names a tool and its parameters. Expression parameters are
// either source text such as "sin(x)^2" or the tree form of ToJSON.
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result  interface{} `json:"result,omitempty"`
	LaTeX   string      `json:"latex,omitempty"`
	String  string      `json:"string,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func errorResponse(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

// HandleToolCall runs one tool. Failures are reported in
// ToolResponse.Error, never as a panic.
func HandleToolCall(req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	optString := func(key, def string) (string, error) {
		if _, ok := req.Params[key]; !ok {
			return def, nil
		}
		return getString(key)
	}
	getStrings := func(key string) ([]string, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be array", key)
		}
		result := make([]string, len(raw))
		for i, r := range raw {
			s, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("param %s[%d] must be string", key, i)
			}
			result[i] = s
		}
		return result, nil
	}
	getNumber := func(key string) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, fmt.Errorf("missing param: %s", key)
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}
	optInt := func(key string, def int) (int, error) {
		if _, ok := req.Params[key]; !ok {
			return def, nil
		}
		f, err := getNumber(key)
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("param %s must be an integer", key)
		}
		return int(f), nil
	}
	// declared returns the variables a string expression may use: "vars"
	// when given, else "var", else def.
	declared := func(def ...string) ([]string, error) {
		if _, ok := req.Params["vars"]; ok {
			return getStrings("vars")
		}
		if _, ok := req.Params["var"]; ok {
			v, err := getString("var")
			if err != nil {
				return nil, err
			}
			return []string{v}, nil
		}
		return def, nil
	}
	getExpr := func(key string, vars []string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			return Parse(val, vars...)
		case map[string]interface{}:
			return FromJSON(val)
		}
		return nil, fmt.Errorf("param %s must be an expression string or object", key)
	}
	getFunc := func(key string, vars []string) (*Func, error) {
		e, err := getExpr(key, vars)
		if err != nil {
			return nil, err
		}
		return Compile(e, vars...)
	}
	// getDomain reads <prefix>min, <prefix>max and <prefix>points, clamping
	// the point count to [minN, maxN].
	getDomain := func(prefix string, def, minN, maxN int) (Domain, error) {
		lo, err := getNumber(prefix + "min")
		if err != nil {
			return Domain{}, err
		}
		hi, err := getNumber(prefix + "max")
		if err != nil {
			return Domain{}, err
		}
		n, err := optInt(prefix+"points", def)
		if err != nil {
			return Domain{}, err
		}
		switch {
		case n < minN:
			n = minN
		case n > maxN:
			n = maxN
		}
		return Linspace(lo, hi, n)
	}
	quadOpts := func() ([]QuadOption, error) {
		var opts []QuadOption
		if _, ok := req.Params["tolerance"]; ok {
			tol, err := getNumber("tolerance")
			if err != nil {
				return nil, err
			}
			if !(tol > 0) {
				return nil, fmt.Errorf("param tolerance must be positive")
			}
			opts = append(opts, WithTolerance(tol, tol))
		}
		return opts, nil
	}
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), LaTeX: LaTeX(e), String: String(e)}
	}

	switch req.Tool {
	case "parse", "simplify", "to_latex":
		vars, err := declared("x")
		if err != nil {
			return errorResponse(err)
		}
		e, err := getExpr("expr", vars)
		if err != nil {
			return errorResponse(err)
		}
		if req.Tool == "to_latex" {
			return ToolResponse{Result: LaTeX(e), LaTeX: LaTeX(e), String: String(e)}
		}
		return respond(Simplify(e))

	case "derivative":
		v, err := optString("var", "x")
		if err != nil {
			return errorResponse(err)
		}
		vars, err := declared(v)
		if err != nil {
			return errorResponse(err)
		}
		e, err := getExpr("expr", vars)
		if err != nil {
			return errorResponse(err)
		}
		n, err := optInt("n", 1)
		if err != nil {
			return errorResponse(err)
		}
		d, err := DiffN(e, v, n)
		if err != nil {
			return errorResponse(err)
		}
		return respond(d)

	case "gradient":
		vars, err := getStrings("vars")
		if err != nil {
			return errorResponse(err)
		}
		e, err := getExpr("expr", vars)
		if err != nil {
			return errorResponse(err)
		}
		grad, err := Gradient(e, vars)
		if err != nil {
			return errorResponse(err)
		}
		strs := make([]string, len(grad))
		trees := make([]map[string]interface{}, len(grad))
		for i, g := range grad {
			strs[i] = String(g)
			trees[i] = g.toJSON()
		}
		return ToolResponse{Result: trees, String: fmt.Sprint(strs)}

	case "integrate":
		v, err := optString("var", "x")
		if err != nil {
			return errorResponse(err)
		}
		vars, err := declared(v)
		if err != nil {
			return errorResponse(err)
		}
		e, err := getExpr("expr", vars)
		if err != nil {
			return errorResponse(err)
		}
		r, err := Integrate(e, v)
		if err != nil {
			return errorResponse(err)
		}
		return respond(r)

	case "definite_integral":
		v, err := optString("var", "x")
		if err != nil {
			return errorResponse(err)
		}
		e, err := getExpr("expr", []string{v})
		if err != nil {
			return errorResponse(err)
		}
		lower, err := getNumber("lower")
		if err != nil {
			return errorResponse(err)
		}
		upper, err := getNumber("upper")
		if err != nil {
			return errorResponse(err)
		}
		opts, err := quadOpts()
		if err != nil {
			return errorResponse(err)
		}
		r, err := DefiniteIntegral(e, v, lower, upper, opts...)
		if err != nil {
			return errorResponse(err)
		}
		resp := ToolResponse{Result: newIntegralValue(r, lower, upper), String: r.SymbolicString()}
		if r.Antiderivative != nil {
			resp.LaTeX = LaTeX(r.Antiderivative)
		}
		return resp

	case "sample":
		v, err := optString("var", "x")
		if err != nil {
			return errorResponse(err)
		}
		f, err := getFunc("expr", []string{v})
		if err != nil {
			return errorResponse(err)
		}
		d, err := getDomain("", DefaultPoints, MinPoints, MaxPoints)
		if err != nil {
			return errorResponse(err)
		}
		s, err := Sample(f, d)
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: s, String: f.String(), Warning: s.Warning()}

	case "sample_grid":
		vars, err := declared("x", "y")
		if err != nil {
			return errorResponse(err)
		}
		if len(vars) != 2 {
			return errorResponse(fmt.Errorf("param vars must name 2 variables, got %d", len(vars)))
		}
		f, err := getFunc("expr", vars)
		if err != nil {
			return errorResponse(err)
		}
		dx, err := getDomain("x", DefaultGridPoints, MinGridPoints, MaxGridPoints)
		if err != nil {
			return errorResponse(err)
		}
		dy, err := getDomain("y", DefaultGridPoints, MinGridPoints, MaxGridPoints)
		if err != nil {
			return errorResponse(err)
		}
		g, err := SampleGrid(f, Grid{X: dx, Y: dy})
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{
			Result:  map[string]interface{}{"x": g.X, "y": g.Y, "z": g.ZOrNil(), "excluded": g.Excluded},
			String:  f.String(),
			Warning: g.Warning(),
		}

	case "sample_parametric":
		v, err := optString("var", "t")
		if err != nil {
			return errorResponse(err)
		}
		fx, err := getFunc("x", []string{v})
		if err != nil {
			return errorResponse(err)
		}
		fy, err := getFunc("y", []string{v})
		if err != nil {
			return errorResponse(err)
		}
		d, err := getDomain("", DefaultPoints, MinPoints, MaxPoints)
		if err != nil {
			return errorResponse(err)
		}
		c, err := SampleParametric(fx, fy, d)
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: c, String: "(" + fx.String() + ", " + fy.String() + ")", Warning: c.Warning()}

	case "free_symbols":
		vars, err := declared("x")
		if err != nil {
			return errorResponse(err)
		}
		e, err := getExpr("expr", vars)
		if err != nil {
			return errorResponse(err)
		}
		return ToolResponse{Result: SortedSymbols(e)}

	case "presets":
		return ToolResponse{Result: Presets()}

	case "schema":
		return ToolResponse{Result: json.RawMessage(ToolSpec())}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ============================================================
// Tool schema
// ============================================================

var toolSpecs = []map[string]interface{}{
	ts("parse", "Parse an expression and return its tree", []string{"expr"}, map[string]string{"expr": "string", "vars": "array"}),
	ts("simplify", "Simplify an expression", []string{"expr"}, map[string]string{"expr": "string", "vars": "array"}),
	ts("to_latex", "Render an expression as LaTeX", []string{"expr"}, map[string]string{"expr": "string", "vars": "array"}),
	ts("free_symbols", "Variable names used by an expression", []string{"expr"}, map[string]string{"expr": "string", "vars": "array"}),
	ts("derivative", "Symbolic derivative. Optional n for higher order", []string{"expr"}, map[string]string{"expr": "string", "var": "string", "n": "integer"}),
	ts("gradient", "Partial derivatives in the order of vars", []string{"expr", "vars"}, map[string]string{"expr": "string", "vars": "array"}),
	ts("integrate", "Rule-based antiderivative", []string{"expr"}, map[string]string{"expr": "string", "var": "string"}),
	ts("definite_integral", "Closed form and adaptive quadrature over [lower, upper]", []string{"expr", "lower", "upper"}, map[string]string{"expr": "string", "var": "string", "lower": "number", "upper": "number", "tolerance": "number"}),
	ts("sample", "Sample y = f(x) over [min, max]; undefined points are excluded", []string{"expr", "min", "max"}, map[string]string{"expr": "string", "var": "string", "min": "number", "max": "number", "points": "integer"}),
	ts("sample_grid", "Sample z = f(x, y) over a grid", []string{"expr", "xmin", "xmax", "ymin", "ymax"}, map[string]string{"expr": "string", "vars": "array", "xmin": "number", "xmax": "number", "xpoints": "integer", "ymin": "number", "ymax": "number", "ypoints": "integer"}),
	ts("sample_parametric", "Sample the curve (x(t), y(t)) over [min, max]", []string{"x", "y", "min", "max"}, map[string]string{"x": "string", "y": "string", "var": "string", "min": "number", "max": "number", "points": "integer"}),
	ts("presets", "List the preset functions", []string{}, map[string]string{}),
	ts("schema", "Return this tool schema", []string{}, map[string]string{}),
}

// ToolSpec returns the JSON schema of every tool.
func ToolSpec() string {
	b, _ := json.MarshalIndent(map[string]interface{}{"tools": toolSpecs}, "", "  ")
	return string(b)
}

// ToolNames lists the tools HandleToolCall accepts.
func ToolNames() []string {
	names := make([]string, len(toolSpecs))
	for i, t := range toolSpecs {
		names[i] = t["name"].(string)
	}
	sort.Strings(names)
	return names
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
