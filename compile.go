package symplot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Func is the numeric form of an expression over an ordered list of
// variables. It is immutable and safe for concurrent use.
type Func struct {
	expr Expr
	vars []string
	eval vecFn
}

// vecFn evaluates a subtree over n points. cols[i] holds the values of
// the i-th variable. The returned slice is always freshly allocated, so
// a parent may reuse it as its own destination.
type vecFn func(cols [][]float64, n int) []float64

// Compile builds the numeric function of e. Every free symbol of e must
// appear in vars; the order of vars is the argument order of Eval.
func Compile(e Expr, vars ...string) (*Func, error) {
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		if _, dup := index[v]; dup {
			return nil, fmt.Errorf("compile %s: duplicate variable %q", e, v)
		}
		index[v] = i
	}
	for _, name := range SortedSymbols(e) {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("compile %s: %w: %q", e, ErrUnboundSymbol, name)
		}
	}
	fn, err := compileNode(e, index)
	if err != nil {
		return nil, err
	}
	return &Func{expr: e, vars: append([]string(nil), vars...), eval: fn}, nil
}

// ParseFunc parses input over vars and compiles it in one step.
func ParseFunc(input string, vars ...string) (*Func, error) {
	e, err := Parse(input, vars...)
	if err != nil {
		return nil, err
	}
	return Compile(e, vars...)
}

func (f *Func) Expr() Expr     { return f.expr }
func (f *Func) Vars() []string { return append([]string(nil), f.vars...) }
func (f *Func) Arity() int     { return len(f.vars) }
func (f *Func) String() string { return f.expr.String() }

// Eval evaluates f at a single point. A result that is not a finite real
// number is reported as a *DomainError.
func (f *Func) Eval(args ...float64) (float64, error) {
	if len(args) != len(f.vars) {
		return 0, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, f.expr, len(f.vars), len(args))
	}
	cols := make([][]float64, len(args))
	for i, a := range args {
		cols[i] = []float64{a}
	}
	v := f.eval(cols, 1)[0]
	if !finite(v) {
		return 0, &DomainError{Point: append([]float64(nil), args...)}
	}
	return v, nil
}

// EvalVec evaluates f elementwise over equal-length argument columns.
// valid[i] is false where the result is undefined; out[i] is NaN there.
func (f *Func) EvalVec(args ...[]float64) (out []float64, valid []bool, err error) {
	if len(args) != len(f.vars) {
		return nil, nil, fmt.Errorf("%w: %s takes %d columns, got %d", ErrArity, f.expr, len(f.vars), len(args))
	}
	n := 1
	if len(args) > 0 {
		n = len(args[0])
	}
	for i, col := range args {
		if len(col) != n {
			return nil, nil, fmt.Errorf("%w: column %d has %d values, want %d", ErrArity, i, len(col), n)
		}
	}
	out = f.eval(args, n)
	valid = make([]bool, n)
	for i, v := range out {
		if finite(v) {
			valid[i] = true
		} else {
			out[i] = math.NaN()
		}
	}
	return out, valid, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func compileNode(e Expr, index map[string]int) (vecFn, error) {
	switch v := e.(type) {
	case *Num:
		c := v.Float64()
		return func(_ [][]float64, n int) []float64 { return fill(n, c) }, nil
	case *Const:
		c := v.val
		return func(_ [][]float64, n int) []float64 { return fill(n, c) }, nil
	case *Sym:
		i := index[v.name]
		return func(cols [][]float64, n int) []float64 {
			return append(make([]float64, 0, n), cols[i]...)
		}, nil
	case *Add:
		terms, err := compileAll(v.terms, index)
		if err != nil {
			return nil, err
		}
		return func(cols [][]float64, n int) []float64 {
			acc := terms[0](cols, n)
			for _, t := range terms[1:] {
				floats.Add(acc, t(cols, n))
			}
			return acc
		}, nil
	case *Mul:
		factors, err := compileAll(v.factors, index)
		if err != nil {
			return nil, err
		}
		return func(cols [][]float64, n int) []float64 {
			acc := factors[0](cols, n)
			for _, f := range factors[1:] {
				floats.Mul(acc, f(cols, n))
			}
			return acc
		}, nil
	case *Pow:
		return compilePow(v, index)
	case *Call:
		kernel, ok := funcTable[v.name]
		if !ok {
			return nil, fmt.Errorf("compile: unsupported function %q", v.name)
		}
		arg, err := compileNode(v.arg, index)
		if err != nil {
			return nil, err
		}
		return func(cols [][]float64, n int) []float64 {
			out := arg(cols, n)
			for i, x := range out {
				out[i] = kernel(x)
			}
			return out
		}, nil
	}
	return nil, fmt.Errorf("compile: unsupported node %s", e.exprType())
}

func compileAll(es []Expr, index map[string]int) ([]vecFn, error) {
	out := make([]vecFn, len(es))
	for i, e := range es {
		fn, err := compileNode(e, index)
		if err != nil {
			return nil, err
		}
		out[i] = fn
	}
	return out, nil
}

func compilePow(p *Pow, index map[string]int) (vecFn, error) {
	base, err := compileNode(p.base, index)
	if err != nil {
		return nil, err
	}
	// Common constant exponents get exact kernels; x^-1 must give +Inf at
	// zero, which math.Pow already does, so only speed is at stake here.
	if en, ok := p.exp.(*Num); ok {
		switch k := en.Float64(); k {
		case -1:
			return func(cols [][]float64, n int) []float64 {
				b := base(cols, n)
				out := fill(n, 1)
				floats.Div(out, b)
				return out
			}, nil
		case 0.5:
			return func(cols [][]float64, n int) []float64 {
				out := base(cols, n)
				for i, x := range out {
					out[i] = math.Sqrt(x)
				}
				return out
			}, nil
		case 2:
			return func(cols [][]float64, n int) []float64 {
				out := base(cols, n)
				floats.Mul(out, out)
				return out
			}, nil
		default:
			return func(cols [][]float64, n int) []float64 {
				out := base(cols, n)
				for i, x := range out {
					out[i] = math.Pow(x, k)
				}
				return out
			}, nil
		}
	}
	exp, err := compileNode(p.exp, index)
	if err != nil {
		return nil, err
	}
	return func(cols [][]float64, n int) []float64 {
		out := base(cols, n)
		ex := exp(cols, n)
		for i := range out {
			out[i] = math.Pow(out[i], ex[i])
		}
		return out
	}, nil
}
