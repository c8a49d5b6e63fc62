// Package symplot parses, differentiates, integrates and samples
// mathematical expressions for function plotting.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat) in the symbolic tree
//   - Deterministic simplification and stable output
//   - Vectorized numeric evaluation that excludes domain failures
//     instead of inventing values for them
//   - Stateless evaluator; plot state lives in an explicit Session
package symplot

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is a node of the parsed form. Every method returns a new tree.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) (Expr, error)
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num — exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symplot: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts f exactly. f must be finite.
func NFloat(f float64) *Num { return &Num{val: new(big.Rat).SetFloat64(f)} }

func (n *Num) Simplify() Expr            { return n }
func (n *Num) Sub(string, Expr) Expr     { return n }
func (n *Num) Diff(string) (Expr, error) { return N(0), nil }
func (n *Num) Eval() (*Num, bool)        { return n, true }
func (n *Num) Equal(other Expr) bool     { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string          { return "num" }
func (n *Num) Float64() float64          { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool              { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool               { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool            { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool           { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat             { return new(big.Rat).Set(n.val) }
func (n *Num) IsNegative() bool          { return n.val.Sign() < 0 }
func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symplot: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// floatNum converts a float result back into the tree, or reports false
// when it has no exact rational form.
func floatNum(f float64) (*Num, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return NFloat(f), true
}

// ============================================================
// Const — named mathematical constant
// ============================================================

type Const struct {
	name string
	val  float64
}

var (
	Pi = &Const{name: "pi", val: math.Pi}
	E  = &Const{name: "e", val: math.E}
)

var constants = map[string]*Const{"pi": Pi, "e": E}

func (c *Const) Simplify() Expr            { return c }
func (c *Const) String() string            { return c.name }
func (c *Const) Sub(string, Expr) Expr     { return c }
func (c *Const) Diff(string) (Expr, error) { return N(0), nil }
func (c *Const) Eval() (*Num, bool)        { return NFloat(c.val), true }
func (c *Const) Equal(other Expr) bool     { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string          { return "const" }
func (c *Const) Value() float64            { return c.val }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}

func (c *Const) LaTeX() string {
	if c.name == "pi" {
		return "\\pi"
	}
	return c.name
}

// ============================================================
// Sym — symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym             { return &Sym{name: name} }
func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) LaTeX() string         { return s.name }
func (s *Sym) Eval() (*Num, bool)    { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) (Expr, error) {
	if s.name == varName {
		return N(1), nil
	}
	return N(0), nil
}

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// SubOf returns a - b.
func SubOf(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	numAccum := N(0)
	// Like terms: c*rest grouped by the printed form of rest.
	coeffs := map[string]*Num{}
	bodies := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			numAccum = numAdd(numAccum, v)
			continue
		}
		c, body := extractCoefficient(t)
		key := body.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			bodies[key] = body
		}
		coeffs[key] = numAdd(coeffs[key], c)
	}
	result := []Expr{}
	for _, key := range order {
		c := coeffs[key]
		switch {
		case c.IsZero() && !undefined(bodies[key]):
		case c.IsOne():
			result = append(result, bodies[key])
		default:
			result = append(result, MulOf(c, bodies[key]))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return termRank(result[i]) < termRank(result[j]) })
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

// termRank orders sums so that plain symbols print first, as "x + 3"
// rather than "3 + x".
func termRank(e Expr) int {
	_, body := extractCoefficient(e)
	if _, ok := body.(*Sym); ok {
		return 0
	}
	return 1
}

func (a *Add) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.String()
		if i > 0 {
			if strings.HasPrefix(s, "-") {
				sb.WriteString(" - ")
				s = s[1:]
			} else {
				sb.WriteString(" + ")
			}
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.LaTeX()
		if i > 0 {
			if strings.HasPrefix(s, "-") {
				sb.WriteString(" - ")
				s = s[1:]
			} else {
				sb.WriteString(" + ")
			}
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) (Expr, error) {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		d, err := t.Diff(varName)
		if err != nil {
			return nil, err
		}
		dTerms[i] = d
	}
	return AddOf(dTerms...), nil
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// DivOf returns a / b.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}
	coeff := N(1)
	// Equal bases are merged by adding exponents: x*x -> x^2.
	exps := map[string]Expr{}
	bases := map[string]Expr{}
	order := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := Expr(f), Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		key := base.String()
		if old, seen := exps[key]; seen {
			exps[key] = AddOf(old, exp)
			continue
		}
		order = append(order, key)
		exps[key] = exp
		bases[key] = base
	}
	if coeff.IsZero() {
		// 0 * 0^-n is undefined, not zero.
		for _, f := range flat {
			if divByZero(f) {
				return &Mul{factors: flat}
			}
		}
		return N(0)
	}
	others := []Expr{}
	for _, key := range order {
		p := PowOf(bases[key], exps[key])
		if n, ok := p.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		others = append(others, p)
	}
	if coeff.IsZero() {
		for _, f := range others {
			if divByZero(f) {
				return &Mul{factors: append([]Expr{coeff}, others...)}
			}
		}
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	sorted := make([]Expr, len(ks))
	for i := range ks {
		sorted[i] = ks[i].e
	}

	if coeff.IsOne() {
		if len(sorted) == 1 {
			return sorted[0]
		}
		return &Mul{factors: sorted}
	}
	return &Mul{factors: append([]Expr{coeff}, sorted...)}
}

// divByZero reports whether e is 0 raised to a negative power.
func divByZero(e Expr) bool {
	p, ok := e.(*Pow)
	if !ok {
		return false
	}
	b, ok1 := p.base.(*Num)
	n, ok2 := p.exp.(*Num)
	return ok1 && ok2 && b.IsZero() && n.IsNegative()
}

// undefined reports whether e is a division by zero or a product
// containing one. Such terms never cancel to 0.
func undefined(e Expr) bool {
	if m, ok := e.(*Mul); ok {
		for _, f := range m.factors {
			if divByZero(f) {
				return true
			}
		}
		return false
	}
	return divByZero(e)
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, 0, len(m.factors))
	for i, f := range m.factors {
		if n, ok := f.(*Num); ok && i == 0 && n.IsNegOne() && len(m.factors) > 1 {
			parts = append(parts, "-"+wrapFactor(m.factors[1]))
			return strings.Join(append(parts, wrapAll(m.factors[2:])...), "*")
		}
		parts = append(parts, wrapFactor(f))
	}
	return strings.Join(parts, "*")
}

func wrapFactor(f Expr) string {
	if _, isAdd := f.(*Add); isAdd {
		return "(" + f.String() + ")"
	}
	return f.String()
}

func wrapAll(fs []Expr) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = wrapFactor(f)
	}
	return out
}

func (m *Mul) LaTeX() string {
	sign := ""
	factors := m.factors
	if len(factors) > 1 {
		if n, ok := factors[0].(*Num); ok && n.IsNegOne() {
			sign, factors = "-", factors[1:]
		}
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "\\left(" + f.LaTeX() + "\\right)"
		} else {
			parts[i] = f.LaTeX()
		}
	}
	return sign + strings.Join(parts, " ")
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

// Diff applies the product rule.
func (m *Mul) Diff(varName string) (Expr, error) {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi, err := fi.Diff(varName)
		if err != nil {
			return nil, err
		}
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...), nil
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 && !coeff.IsZero() {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok && en.IsZero() {
		return N(1)
	}
	if en, ok := exp.(*Num); ok && en.IsOne() {
		return base
	}

	// 0^0 is indeterminate and 0^negative is a division by zero; both stay
	// unevaluated so numeric evaluation reports them as domain errors.
	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if en, ok2 := exp.(*Num); ok2 && en.IsNegative() {
			return &Pow{base: base, exp: exp}
		}
		if _, ok2 := exp.(*Num); ok2 {
			return N(0)
		}
		return &Pow{base: base, exp: exp}
	}

	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	if bn, ok := base.(*Num); ok {
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() && en.val.Num().IsInt64() {
			e := en.val.Num().Int64()
			if e >= -20 && e <= 20 {
				result := N(1)
				for i := int64(0); i < absInt(e); i++ {
					result = numMul(result, bn)
				}
				if e < 0 {
					return numRecip(result)
				}
				return result
			}
		}
	}
	// (b^m)^n = b^(m*n) for integer m and n, where the domain is unchanged.
	if inner, ok := base.(*Pow); ok {
		im, ok1 := inner.exp.(*Num)
		en, ok2 := exp.(*Num)
		if ok1 && ok2 && im.IsInteger() && en.IsInteger() {
			return PowOf(inner.base, numMul(im, en))
		}
	}
	return &Pow{base: base, exp: exp}
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "(" + baseStr + ")"
		}
	}
	switch e := p.exp.(type) {
	case *Add, *Mul, *Pow:
		expStr = "(" + expStr + ")"
	case *Num:
		if !e.IsInteger() || e.IsNegative() {
			expStr = "(" + expStr + ")"
		}
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if en, ok := p.exp.(*Num); ok && en.val.Cmp(big.NewRat(1, 2)) == 0 {
		return "\\sqrt{" + p.base.LaTeX() + "}"
	}
	baseStr := p.base.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) (Expr, error) {
	du, err := p.base.Diff(varName)
	if err != nil {
		return nil, err
	}
	dv, err := p.exp.Diff(varName)
	if err != nil {
		return nil, err
	}
	// Power rule: exponent constant in varName.
	if !dependsOn(p.exp, varName) {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du), nil
	}
	// Exponential rule: base constant in varName.
	if !dependsOn(p.base, varName) {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv), nil
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm)), nil
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	return floatNum(math.Pow(b.Float64(), e.Float64()))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// ============================================================
// Call — named function application
// ============================================================

type Call struct {
	name string
	arg  Expr
}

// funcTable lists the supported functions with their float kernels.
// log is accepted by the parser as an alias of ln.
var funcTable = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"sinh": math.Sinh,
	"cosh": math.Cosh,
	"tanh": math.Tanh,
	"exp":  math.Exp,
	"ln":   safeLog,
	"abs":  math.Abs,
	"asin": math.Asin,
	"acos": math.Acos,
	"atan": math.Atan,
}

// safeLog maps log(0) to NaN so that it is excluded like log(-1).
func safeLog(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return math.Log(v)
}

func callOf(name string, arg Expr) *Call { return &Call{name: name, arg: arg} }

func SinOf(arg Expr) Expr  { return callOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr  { return callOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr  { return callOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr  { return callOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr   { return callOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr  { return callOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr { return callOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr { return callOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr { return callOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr { return callOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr { return callOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr { return callOf("tanh", arg).Simplify() }

func (f *Call) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		switch {
		case f.name == "abs":
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		case n.IsZero() && (f.name == "sin" || f.name == "tan" || f.name == "sinh" ||
			f.name == "tanh" || f.name == "asin" || f.name == "atan"):
			return N(0)
		case n.IsZero() && (f.name == "cos" || f.name == "cosh" || f.name == "exp"):
			return N(1)
		case f.name == "ln" && n.IsOne():
			return N(0)
		}
		if kernel, ok := funcTable[f.name]; ok {
			if v, ok := floatNum(kernel(n.Float64())); ok {
				return v
			}
		}
	}
	switch f.name {
	case "ln":
		if c, ok := arg.(*Const); ok && c == E {
			return N(1)
		}
		if inner, ok := arg.(*Call); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Call); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if m, ok := arg.(*Mul); ok {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegOne() {
				return AbsOf(MulOf(m.factors[1:]...))
			}
		}
	}
	return &Call{name: f.name, arg: arg}
}

func (f *Call) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Call) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "exp", "ln", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Call) Sub(varName string, value Expr) Expr {
	return callOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

// Diff applies the chain rule. Functions without a closed-form rule are
// reported as a DerivativeError rather than approximated.
func (f *Call) Diff(varName string) (Expr, error) {
	if !dependsOn(f.arg, varName) {
		return N(0), nil
	}
	du, err := f.arg.Diff(varName)
	if err != nil {
		return nil, err
	}
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(f.arg), N(2))))
	default:
		return nil, &DerivativeError{Func: f.name, Arg: f.arg.String()}
	}
	return MulOf(outer, du), nil
}

func (f *Call) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	kernel, ok := funcTable[f.name]
	if !ok {
		return nil, false
	}
	return floatNum(kernel(n.Float64()))
}

func (f *Call) Equal(other Expr) bool {
	o, ok := other.(*Call)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Call) exprType() string { return "call" }
func (f *Call) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "call", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Call) FuncName() string { return f.name }
func (f *Call) Arg() Expr        { return f.arg }

// ============================================================
// Tree utilities
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

// Sub substitutes value for varName and simplifies.
func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

// FreeSymbols returns the variable names used by e. Constants are not
// symbols.
func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols returns FreeSymbols in lexical order.
func SortedSymbols(e Expr) []string {
	syms := FreeSymbols(e)
	names := make([]string, 0, len(syms))
	for n := range syms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Call:
		collectSymbols(v.arg, out)
	}
}

func dependsOn(e Expr, varName string) bool {
	_, ok := FreeSymbols(e)[varName]
	return ok
}
