package symplot_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symplot"
)

func TestDerivative_SquareIsTwoX(t *testing.T) {
	d, err := symplot.Derivative(symplot.MustParse("x**2", "x"), "x")
	require.NoError(t, err)
	f, err := symplot.Compile(d, "x")
	require.NoError(t, err)
	for _, x := range []float64{-3, -0.5, 0, 1.25, 7} {
		y, err := f.Eval(x)
		require.NoError(t, err)
		assert.InDelta(t, 2*x, y, 1e-6)
	}
}

// centralDiff approximates f'(x).
func centralDiff(t *testing.T, f *symplot.Func, x float64) float64 {
	t.Helper()
	const h = 1e-6
	hi, err := f.Eval(x + h)
	require.NoError(t, err)
	lo, err := f.Eval(x - h)
	require.NoError(t, err)
	return (hi - lo) / (2 * h)
}

func TestDerivative_MatchesFiniteDifference(t *testing.T) {
	for _, src := range []string{
		"sin(x)*exp(x)",
		"x^x",
		"ln(x^2 + 1)",
		"atan(2*x)",
		"tanh(x)^2",
		"sqrt(x)/(1 + x)",
		"asin(x) - acos(x)",
		"2^x",
		"cosh(x) * tan(x)",
	} {
		t.Run(src, func(t *testing.T) {
			e := symplot.MustParse(src, "x")
			d, err := symplot.Derivative(e, "x")
			require.NoError(t, err)
			f, err := symplot.Compile(e, "x")
			require.NoError(t, err)
			df, err := symplot.Compile(d, "x")
			require.NoError(t, err)
			for _, x := range []float64{0.2, 0.45, 0.8} {
				got, err := df.Eval(x)
				require.NoError(t, err)
				assert.InDelta(t, centralDiff(t, f, x), got, 1e-6, "x=%g d=%s", x, d)
			}
		})
	}
}

func TestDiffN(t *testing.T) {
	d, err := symplot.DiffN(symplot.MustParse("x^4", "x"), "x", 4)
	require.NoError(t, err)
	assert.Equal(t, "24", d.String())

	same, err := symplot.DiffN(symplot.S("x"), "x", 0)
	require.NoError(t, err)
	assert.Equal(t, "x", same.String())

	_, err = symplot.DiffN(symplot.S("x"), "x", -1)
	assert.True(t, errors.Is(err, symplot.ErrDerivative))
}

func TestGradient(t *testing.T) {
	g, err := symplot.Gradient(symplot.MustParse("x^2*y", "x", "y"), []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, g, 2)
	assert.Equal(t, "2*x*y", g[0].String())
	assert.Equal(t, "x^2", g[1].String())
}

func TestIntegrate_AntiderivativeDifferentiatesBack(t *testing.T) {
	for _, src := range []string{
		"x^3",
		"3*x^2 - 4*x + 7",
		"sin(2*x + 1)",
		"cos(x)",
		"exp(3*x)",
		"e^x",
		"2^x",
		"1/x",
		"1/(2*x + 1)",
		"sqrt(x)",
		"sinh(x) + cosh(x)",
		"tan(x)",
		"tanh(x)",
		"ln(x)",
		"atan(x)",
		"asin(x)",
		"5*sin(x)*y",
	} {
		t.Run(src, func(t *testing.T) {
			e := symplot.MustParse(src, "x", "y")
			anti, err := symplot.Integrate(e, "x")
			require.NoError(t, err)
			f, err := symplot.Compile(e, "x", "y")
			require.NoError(t, err)
			fa, err := symplot.Compile(anti, "x", "y")
			require.NoError(t, err)
			for _, x := range []float64{0.2, 0.45, 0.8} {
				want, err := f.Eval(x, 1.5)
				require.NoError(t, err)
				const h = 1e-6
				hi, err := fa.Eval(x+h, 1.5)
				require.NoError(t, err)
				lo, err := fa.Eval(x-h, 1.5)
				require.NoError(t, err)
				assert.InDelta(t, want, (hi-lo)/(2*h), 1e-5, "x=%g anti=%s", x, anti)
			}
		})
	}
}

func TestIntegrate_NoRule(t *testing.T) {
	for _, src := range []string{"x*sin(x)", "exp(x^2)", "abs(x)"} {
		_, err := symplot.Integrate(symplot.MustParse(src, "x"), "x")
		assert.True(t, errors.Is(err, symplot.ErrIntegration), src)
	}
}

func TestDefiniteIntegral_X(t *testing.T) {
	r, err := symplot.DefiniteIntegral(symplot.S("x"), "x", 0, 2)
	require.NoError(t, err)
	assert.True(t, r.Evaluated)
	assert.True(t, r.Exact)
	assert.Equal(t, "2", r.SymbolicString())
	assert.Equal(t, 2.0, r.SymbolicValue())
	assert.InDelta(t, 2.0, r.Numeric, 1e-6)
}

func TestDefiniteIntegral_ReversedAndEmpty(t *testing.T) {
	r, err := symplot.DefiniteIntegral(symplot.S("x"), "x", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, "-2", r.SymbolicString())
	assert.InDelta(t, -2.0, r.Numeric, 1e-9)

	r, err = symplot.DefiniteIntegral(symplot.MustParse("sin(x)", "x"), "x", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Numeric)
}

func TestDefiniteIntegral_Unevaluated(t *testing.T) {
	r, err := symplot.DefiniteIntegral(symplot.MustParse("exp(-x^2)", "x"), "x", -3, 3)
	require.NoError(t, err)
	assert.False(t, r.Evaluated)
	assert.Equal(t, "unevaluated", r.SymbolicString())
	assert.True(t, math.IsNaN(r.SymbolicValue()))
	assert.InDelta(t, math.Sqrt(math.Pi)*math.Erf(3), r.Numeric, 1e-8)
}

func TestDefiniteIntegral_SymbolicAndNumericAgree(t *testing.T) {
	r, err := symplot.DefiniteIntegral(symplot.MustParse("sin(x)", "x"), "x", 0, math.Pi)
	require.NoError(t, err)
	require.True(t, r.Evaluated)
	assert.InDelta(t, 2.0, r.SymbolicValue(), 1e-12)
	assert.InDelta(t, 2.0, r.Numeric, 1e-8)
}

func TestDefiniteIntegral_DomainErrorInside(t *testing.T) {
	_, err := symplot.DefiniteIntegral(symplot.MustParse("ln(x)", "x"), "x", -1, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, symplot.ErrIntegration))
	var ie *symplot.IntegrationError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, ie.Reason, "undefined")
}

func TestDefiniteIntegral_PoleInsideFails(t *testing.T) {
	_, err := symplot.DefiniteIntegral(symplot.MustParse("1/x", "x"), "x", -1, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, symplot.ErrIntegration))
}

func TestDefiniteIntegral_InexactClosedFormPrintsDecimal(t *testing.T) {
	r, err := symplot.DefiniteIntegral(symplot.MustParse("1/x", "x"), "x", 1, 2)
	require.NoError(t, err)
	require.True(t, r.Evaluated)
	assert.False(t, r.Exact)
	assert.Equal(t, "0.6931471806", r.SymbolicString())
	assert.InDelta(t, math.Ln2, r.Numeric, 1e-9)

	r, err = symplot.DefiniteIntegral(symplot.S("x"), "x", 0, 0.1)
	require.NoError(t, err)
	assert.False(t, r.Exact)
	assert.Equal(t, "0.005", r.SymbolicString())

	r, err = symplot.DefiniteIntegral(symplot.MustParse("x^2", "x"), "x", 0, 0.5)
	require.NoError(t, err)
	assert.True(t, r.Exact)
	assert.Equal(t, "1/24", r.SymbolicString())
}

func TestDefiniteIntegral_FreeSymbol(t *testing.T) {
	_, err := symplot.DefiniteIntegral(symplot.MustParse("x*y", "x", "y"), "x", 0, 1)
	assert.True(t, errors.Is(err, symplot.ErrIntegration))
}

func TestQuadrature_PolynomialConvergesAfterOneSplit(t *testing.T) {
	q, err := symplot.Quadrature(func(x float64) (float64, error) { return x * x, nil }, 0, 3)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, q.Value, 1e-12)
	assert.Equal(t, 2, q.Intervals)
}

func TestQuadrature_SymmetricPoleDiverges(t *testing.T) {
	for _, r := range [][2]float64{{-1, 1}, {0, 4}, {-3, 5}} {
		_, err := symplot.Quadrature(func(x float64) (float64, error) { return 1 / (x - 1), nil }, r[0]+1, r[1]+1)
		assert.True(t, errors.Is(err, symplot.ErrIntegration), "%v: got %v", r, err)
	}
}

func TestQuadrature_NonFiniteIntegrand(t *testing.T) {
	_, err := symplot.Quadrature(func(x float64) (float64, error) { return math.Inf(1), nil }, 0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, symplot.ErrIntegration))
	assert.Contains(t, err.Error(), "+Inf")
}

func TestQuadrature_Kink(t *testing.T) {
	// |x - 1/3| over [0, 1] is 5/18.
	q, err := symplot.Quadrature(func(x float64) (float64, error) { return math.Abs(x - 1.0/3), nil }, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0/18, q.Value, 1e-7)
	assert.Greater(t, q.Intervals, 1)
}

func TestQuadrature_BudgetExceeded(t *testing.T) {
	_, err := symplot.Quadrature(
		func(x float64) (float64, error) { return math.Abs(x - 1.0/3), nil }, 0, 1,
		symplot.WithTolerance(1e-14, 1e-14), symplot.WithBudget(1),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, symplot.ErrIntegration))
	assert.Contains(t, err.Error(), "no convergence within 1 subintervals")
}

func TestQuadrature_IntegrandError(t *testing.T) {
	boom := errors.New("boom")
	_, err := symplot.Quadrature(func(x float64) (float64, error) { return 0, boom }, 0, 1)
	assert.True(t, errors.Is(err, symplot.ErrIntegration))
	assert.Contains(t, err.Error(), "boom")
}

func TestQuadrature_InfiniteBounds(t *testing.T) {
	_, err := symplot.Quadrature(func(x float64) (float64, error) { return 1, nil }, 0, math.Inf(1))
	assert.True(t, errors.Is(err, symplot.ErrIntegration))
}
