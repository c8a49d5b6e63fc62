package symplot_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symplot"
)

func TestParse_TrailingOperator(t *testing.T) {
	_, err := symplot.Parse("sin(x) +", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, symplot.ErrParse))
	var pe *symplot.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 8, pe.Pos)
}

func TestParse_UnaryMinusBindsLooserThanPower(t *testing.T) {
	e, err := symplot.Parse("-x**2", "x")
	require.NoError(t, err)
	f, err := symplot.Compile(e, "x")
	require.NoError(t, err)
	y, err := f.Eval(3)
	require.NoError(t, err)
	assert.Equal(t, -9.0, y)
}

func TestParse_PowerIsRightAssociative(t *testing.T) {
	e, err := symplot.Parse("2**3**2")
	require.NoError(t, err)
	assert.Equal(t, "512", e.String())
}

func TestParse_CaretIsPower(t *testing.T) {
	a := symplot.MustParse("x^2 + 1", "x")
	b := symplot.MustParse("x**2 + 1", "x")
	assert.True(t, a.Equal(b))
	assert.Equal(t, "x^2 + 1", a.String())
}

func TestParse_LogIsNaturalLog(t *testing.T) {
	assert.True(t, symplot.MustParse("log(x)", "x").Equal(symplot.MustParse("ln(x)", "x")))
}

func TestParse_Numbers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.5", "1/2"},
		{"1e-3", "1/1000"},
		{"2.5e2", "250"},
		{"3/4 + 1/4", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e, err := symplot.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestParse_Constants(t *testing.T) {
	e, err := symplot.Parse("2*pi + e")
	require.NoError(t, err)
	n, ok := e.Eval()
	require.True(t, ok)
	assert.InDelta(t, 2*math.Pi+math.E, n.Float64(), 1e-12)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		vars []string
		msg  string
	}{
		{"empty", "   ", nil, "empty expression"},
		{"unknown variable", "x + y", []string{"x"}, `unknown variable "y"`},
		{"unknown function", "foo(x)", []string{"x"}, `unknown function "foo"`},
		{"bare function", "sin x", []string{"x"}, `function "sin" needs an argument`},
		{"two arguments", "sin(x, 1)", []string{"x"}, "takes exactly one argument"},
		{"unclosed", "(x + 1", []string{"x"}, "expected ')'"},
		{"implicit product", "2x", []string{"x"}, `unexpected identifier "x"`},
		{"bad character", "x $ 1", []string{"x"}, "unexpected character"},
		{"constant as variable", "pi", []string{"pi"}, "is a constant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := symplot.Parse(tt.in, tt.vars...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, symplot.ErrParse))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_FunctionsEvaluate(t *testing.T) {
	tests := []struct {
		in   string
		x    float64
		want float64
	}{
		{"sqrt(x)", 4, 2},
		{"abs(x - 3)", 1, 2},
		{"exp(ln(x))", 2.5, 2.5},
		{"sinh(x) / cosh(x) - tanh(x)", 0.7, 0},
		{"asin(x) + acos(x)", 0.3, math.Pi / 2},
		{"atan(x)", 1, math.Pi / 4},
		{"tan(x)", 0.5, math.Tan(0.5)},
		{"2*x**3 - 5*x + 1", 2, 7},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := symplot.ParseFunc(tt.in, "x")
			require.NoError(t, err)
			y, err := f.Eval(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, y, 1e-12)
		})
	}
}
