package symplot

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/integrate/quad"
)

// ============================================================
// Differentiation
// ============================================================

// Derivative returns d(e)/d(varName), simplified.
func Derivative(e Expr, varName string) (Expr, error) {
	d, err := e.Diff(varName)
	if err != nil {
		return nil, err
	}
	return d.Simplify(), nil
}

// DiffN returns the nth derivative. DiffN(e, v, 0) is e.
func DiffN(e Expr, varName string, n int) (Expr, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative derivative order %d", ErrDerivative, n)
	}
	result := e
	for i := 0; i < n; i++ {
		d, err := Derivative(result, varName)
		if err != nil {
			return nil, err
		}
		result = d
	}
	return result, nil
}

// Gradient returns the partial derivatives of e in the order of vars.
func Gradient(e Expr, vars []string) ([]Expr, error) {
	result := make([]Expr, len(vars))
	for i, v := range vars {
		d, err := Derivative(e, v)
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

// ============================================================
// Integration (rule-based symbolic)
// ============================================================

// Integrate returns an antiderivative of e in varName. It covers sums,
// constant factors, powers of linear arguments and the elementary
// functions of a linear argument; anything else is an IntegrationError.
func Integrate(e Expr, varName string) (Expr, error) {
	r, ok := integrate(e.Simplify(), varName)
	if !ok {
		return nil, &IntegrationError{Reason: fmt.Sprintf("no closed form for %s in %s", e, varName)}
	}
	return r.Simplify(), nil
}

func integrate(e Expr, varName string) (Expr, bool) {
	x := S(varName)
	if !dependsOn(e, varName) {
		return MulOf(e, x), true
	}
	switch v := e.(type) {
	case *Sym:
		return MulOf(F(1, 2), PowOf(x, N(2))), true
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			it, ok := integrate(t, varName)
			if !ok {
				return nil, false
			}
			terms[i] = it
		}
		return AddOf(terms...), true
	case *Mul:
		var consts []Expr
		var dependent Expr
		for _, f := range v.factors {
			if !dependsOn(f, varName) {
				consts = append(consts, f)
				continue
			}
			if dependent != nil {
				return nil, false
			}
			dependent = f
		}
		inner, ok := integrate(dependent, varName)
		if !ok {
			return nil, false
		}
		return MulOf(append(consts, inner)...), true
	case *Pow:
		if en, ok := v.exp.(*Num); ok {
			a, ok := linearSlope(v.base, varName)
			if !ok {
				return nil, false
			}
			if en.IsNegOne() {
				return DivOf(LnOf(AbsOf(v.base)), a), true
			}
			k := numAdd(en, N(1))
			return DivOf(PowOf(v.base, k), MulOf(k, a)), true
		}
		if !dependsOn(v.base, varName) {
			a, ok := linearSlope(v.exp, varName)
			if !ok {
				return nil, false
			}
			return DivOf(v, MulOf(a, LnOf(v.base))), true
		}
	case *Call:
		a, ok := linearSlope(v.arg, varName)
		if !ok {
			return nil, false
		}
		u := v.arg
		var r Expr
		switch v.name {
		case "sin":
			r = MulOf(N(-1), CosOf(u))
		case "cos":
			r = SinOf(u)
		case "exp":
			r = ExpOf(u)
		case "sinh":
			r = CoshOf(u)
		case "cosh":
			r = SinhOf(u)
		case "tan":
			r = MulOf(N(-1), LnOf(AbsOf(CosOf(u))))
		case "tanh":
			r = LnOf(CoshOf(u))
		case "ln":
			r = SubOf(MulOf(u, LnOf(u)), u)
		case "asin":
			r = AddOf(MulOf(u, AsinOf(u)), SqrtOf(SubOf(N(1), PowOf(u, N(2)))))
		case "atan":
			r = SubOf(MulOf(u, AtanOf(u)), MulOf(F(1, 2), LnOf(AddOf(N(1), PowOf(u, N(2))))))
		default:
			return nil, false
		}
		return DivOf(r, a), true
	}
	return nil, false
}

// linearSlope reports the constant slope a when e = a*varName + b.
func linearSlope(e Expr, varName string) (Expr, bool) {
	d, err := Derivative(e, varName)
	if err != nil || dependsOn(d, varName) {
		return nil, false
	}
	if n, ok := d.(*Num); ok && n.IsZero() {
		return nil, false
	}
	return d, true
}

// ============================================================
// Definite integrals
// ============================================================

// IntegralResult carries both evaluations of a definite integral.
type IntegralResult struct {
	// Antiderivative is nil when no symbolic rule applies.
	Antiderivative Expr
	// Symbolic is F(upper) - F(lower); it is set only when Evaluated.
	Symbolic  Expr
	Evaluated bool
	// Exact is false when Symbolic went through floating point, as for
	// transcendental antiderivatives or bounds like 0.1.
	Exact     bool
	Numeric   float64
	AbsErr    float64
	Intervals int
}

// SymbolicString returns the closed-form value or "unevaluated". Inexact
// values print as decimals.
func (r *IntegralResult) SymbolicString() string {
	if !r.Evaluated {
		return "unevaluated"
	}
	if !r.Exact {
		return strconv.FormatFloat(r.SymbolicValue(), 'g', 10, 64)
	}
	return r.Symbolic.String()
}

// maxExactDenomBits bounds the denominator of a closed form still shown
// as a fraction.
const maxExactDenomBits = 32

// isRational reports whether e is built from numbers and symbols with
// sums, products and integer powers only, so evaluating it is exact.
func isRational(e Expr) bool {
	switch v := e.(type) {
	case *Num, *Sym:
		return true
	case *Add:
		for _, t := range v.terms {
			if !isRational(t) {
				return false
			}
		}
		return true
	case *Mul:
		for _, f := range v.factors {
			if !isRational(f) {
				return false
			}
		}
		return true
	case *Pow:
		n, ok := v.exp.(*Num)
		return ok && n.IsInteger() && isRational(v.base)
	}
	return false
}

// SymbolicValue returns the closed-form value as a float, or NaN.
func (r *IntegralResult) SymbolicValue() float64 {
	if !r.Evaluated {
		return math.NaN()
	}
	n, _ := r.Symbolic.Eval()
	return n.Float64()
}

// DefiniteIntegral integrates e over [lower, upper] in varName. The
// closed form is attempted first; the quadrature estimate is always
// computed and its failure is the only error.
func DefiniteIntegral(e Expr, varName string, lower, upper float64, opts ...QuadOption) (*IntegralResult, error) {
	if !finite(lower) || !finite(upper) {
		return nil, &IntegrationError{Reason: fmt.Sprintf("bounds must be finite, got [%g, %g]", lower, upper)}
	}
	f, err := Compile(e, varName)
	if err != nil {
		return nil, &IntegrationError{Reason: err.Error()}
	}
	res := &IntegralResult{}
	if anti, err := Integrate(e, varName); err == nil {
		res.Antiderivative = anti
		val := SubOf(Sub(anti, varName, NFloat(upper)), Sub(anti, varName, NFloat(lower)))
		if n, ok := val.Eval(); ok && finite(n.Float64()) {
			res.Symbolic = val
			res.Evaluated = true
			res.Exact = isRational(anti) && n.val.Denom().BitLen() <= maxExactDenomBits
		}
	}
	q, err := Quadrature(func(x float64) (float64, error) { return f.Eval(x) }, lower, upper, opts...)
	if err != nil {
		return nil, err
	}
	res.Numeric, res.AbsErr, res.Intervals = q.Value, q.AbsErr, q.Intervals
	return res, nil
}

// ============================================================
// Adaptive quadrature
// ============================================================

// Quadrature defaults.
const (
	DefaultQuadTolerance = 1e-8
	DefaultQuadBudget    = 2000
	quadRuleOrder        = 10
)

type quadOptions struct {
	absTol, relTol float64
	budget         int
}

// QuadOption configures Quadrature.
type QuadOption func(*quadOptions)

// WithTolerance sets the absolute and relative tolerance. Non-positive
// values panic.
func WithTolerance(abs, rel float64) QuadOption {
	if abs <= 0 || rel <= 0 {
		panic("symplot: WithTolerance needs positive tolerances")
	}
	return func(o *quadOptions) { o.absTol, o.relTol = abs, rel }
}

// WithBudget sets the maximum number of subintervals. Values below 1
// panic.
func WithBudget(intervals int) QuadOption {
	if intervals < 1 {
		panic("symplot: WithBudget needs a positive budget")
	}
	return func(o *quadOptions) { o.budget = intervals }
}

// QuadResult is the outcome of Quadrature.
type QuadResult struct {
	Value     float64
	AbsErr    float64
	Intervals int
}

// Quadrature integrates f over [a, b] by adaptive bisection. Each
// subinterval is estimated with a 10-point Gauss-Legendre rule and
// accepted once its two halves agree with it within tolerance. The
// whole interval is always split at least once, and f must be finite at
// every split point. An error from f, a non-finite value, an interval
// that can no longer be split, or exhausting the budget is an
// IntegrationError.
func Quadrature(f func(float64) (float64, error), a, b float64, opts ...QuadOption) (QuadResult, error) {
	o := quadOptions{absTol: DefaultQuadTolerance, relTol: DefaultQuadTolerance, budget: DefaultQuadBudget}
	for _, opt := range opts {
		opt(&o)
	}
	if !finite(a) || !finite(b) {
		return QuadResult{}, &IntegrationError{Reason: fmt.Sprintf("bounds must be finite, got [%g, %g]", a, b)}
	}
	if a == b {
		return QuadResult{}, nil
	}
	sign := 1.0
	if a > b {
		a, b, sign = b, a, -1
	}

	var evalErr error
	g := func(x float64) float64 {
		if evalErr != nil {
			return 0
		}
		y, err := f(x)
		if err == nil && !finite(y) {
			err = fmt.Errorf("f(%g) = %g", x, y)
		}
		if err != nil {
			evalErr = err
			return 0
		}
		return y
	}
	rule := func(lo, hi float64) float64 {
		return quad.Fixed(g, lo, hi, quadRuleOrder, quad.Legendre{}, 0)
	}

	type segment struct {
		lo, hi, est float64
		depth       int
	}
	stack := []segment{{a, b, rule(a, b), 0}}
	width := b - a
	res := QuadResult{Intervals: 1}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		mid := s.lo + (s.hi-s.lo)/2
		// A pole at the midpoint of a symmetric segment cancels in every
		// Gauss estimate, so the split point itself is checked.
		g(mid)
		left, right := rule(s.lo, mid), rule(mid, s.hi)
		if evalErr != nil {
			return QuadResult{}, &IntegrationError{Reason: fmt.Sprintf("integrand undefined in [%g, %g]: %v", a, b, evalErr)}
		}
		refined := left + right
		diff := math.Abs(refined - s.est)
		tol := math.Max(o.absTol*(s.hi-s.lo)/width, o.relTol*math.Abs(refined))
		if diff <= tol && s.depth > 0 {
			res.Value += refined
			res.AbsErr += diff
			continue
		}
		if mid <= s.lo || mid >= s.hi {
			return QuadResult{}, &IntegrationError{Reason: fmt.Sprintf("interval near %g cannot be refined further", s.lo)}
		}
		res.Intervals++
		if res.Intervals > o.budget {
			return QuadResult{}, &IntegrationError{Reason: fmt.Sprintf("no convergence within %d subintervals", o.budget)}
		}
		stack = append(stack, segment{s.lo, mid, left, s.depth + 1}, segment{mid, s.hi, right, s.depth + 1})
	}
	res.Value *= sign
	return res, nil
}
