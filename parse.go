package symplot

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ============================================================
// Lexer
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow // ** or ^
	tokLParen
	tokRParen
	tokComma
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of input",
	tokNumber: "number",
	tokIdent:  "identifier",
	tokPlus:   "'+'",
	tokMinus:  "'-'",
	tokStar:   "'*'",
	tokSlash:  "'/'",
	tokPow:    "'**'",
	tokLParen: "'('",
	tokRParen: "')'",
	tokComma:  "','",
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case isDigit(input[i]) || (input[i] == '.' && i+1 < len(input) && isDigit(input[i+1])):
			start := i
			i = scanNumber(input, i)
			toks = append(toks, token{kind: tokNumber, text: input[start:i], pos: start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(input) {
				r2, s2 := utf8.DecodeRuneInString(input[i:])
				if r2 != '_' && !unicode.IsLetter(r2) && !unicode.IsDigit(r2) {
					break
				}
				i += s2
			}
			toks = append(toks, token{kind: tokIdent, text: input[start:i], pos: start})
		default:
			kind := tokEOF
			width := 1
			switch r {
			case '+':
				kind = tokPlus
			case '-':
				kind = tokMinus
			case '*':
				kind = tokStar
				if strings.HasPrefix(input[i:], "**") {
					kind, width = tokPow, 2
				}
			case '^':
				kind = tokPow
			case '/':
				kind = tokSlash
			case '(':
				kind = tokLParen
			case ')':
				kind = tokRParen
			case ',':
				kind = tokComma
			default:
				return nil, &ParseError{Input: input, Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
			toks = append(toks, token{kind: kind, text: input[i : i+width], pos: i})
			i += width
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// scanNumber consumes digits, an optional fraction and an optional
// exponent. "2e" stops before the e, which then lexes as an identifier.
func scanNumber(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

// ============================================================
// Parser
// ============================================================

// Parse turns input into an Expr. Every identifier must be one of vars,
// a constant (pi, e) or a supported function applied to one argument.
//
//	sum     = product { ("+" | "-") product }
//	product = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | power
//	power   = atom [ ("**" | "^") unary ]
//	atom    = number | name | name "(" sum ")" | "(" sum ")"
//
// "**" is right-associative and binds tighter than unary minus, so
// -x**2 is -(x**2).
func Parse(input string, vars ...string) (Expr, error) {
	declared := make(map[string]bool, len(vars))
	for _, v := range vars {
		if err := checkVarName(v); err != nil {
			return nil, &ParseError{Input: input, Pos: -1, Msg: err.Error()}
		}
		declared[v] = true
	}
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks, vars: declared}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(p.peek(), "empty expression")
	}
	e, err := p.sum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", describe(t))
	}
	return e, nil
}

// MustParse is like Parse but panics on error. It is meant for literals
// known to be valid.
func MustParse(input string, vars ...string) Expr {
	e, err := Parse(input, vars...)
	if err != nil {
		panic(err)
	}
	return e
}

func checkVarName(v string) error {
	if v == "" {
		return fmt.Errorf("empty variable name")
	}
	for i, r := range v {
		if !(r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r))) {
			return fmt.Errorf("invalid variable name %q", v)
		}
	}
	if _, ok := lookupConst(v); ok {
		return fmt.Errorf("variable name %q is a constant", v)
	}
	if _, ok := lookupFunc(v); ok {
		return fmt.Errorf("variable name %q is a function", v)
	}
	return nil
}

func lookupConst(name string) (*Const, bool) {
	if name == "E" {
		return E, true
	}
	c, ok := constants[name]
	return c, ok
}

// lookupFunc maps a source-level function name to its builder.
func lookupFunc(name string) (func(Expr) Expr, bool) {
	switch name {
	case "sqrt":
		return SqrtOf, true
	case "log":
		return LnOf, true
	}
	if _, ok := funcTable[name]; ok {
		return func(arg Expr) Expr { return callOf(name, arg).Simplify() }, true
	}
	return nil, false
}

type parser struct {
	input string
	toks  []token
	pos   int
	vars  map[string]bool
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return &ParseError{Input: p.input, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func describe(t token) string {
	if t.kind == tokNumber || t.kind == tokIdent {
		return fmt.Sprintf("%s %q", tokenNames[t.kind], t.text)
	}
	return tokenNames[t.kind]
}

func (p *parser) sum() (Expr, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		if op == tokPlus {
			left = AddOf(left, right)
		} else {
			left = SubOf(left, right)
		}
	}
}

func (p *parser) product() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == tokStar {
			left = MulOf(left, right)
		} else {
			left = DivOf(left, right)
		}
	}
}

func (p *parser) unary() (Expr, error) {
	switch p.peek().kind {
	case tokPlus:
		p.next()
		return p.unary()
	case tokMinus:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), operand), nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.atom()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

func (p *parser) atom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, p.errorf(t, "malformed number %q", t.text)
		}
		return &Num{val: r}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		if p.vars[t.text] {
			return S(t.text), nil
		}
		if c, ok := lookupConst(t.text); ok {
			return c, nil
		}
		if _, ok := lookupFunc(t.text); ok {
			return nil, p.errorf(t, "function %q needs an argument", t.text)
		}
		return nil, p.errorf(t, "unknown variable %q", t.text)
	case tokLParen:
		e, err := p.sum()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')', found %s", describe(closing))
		}
		return e, nil
	}
	return nil, p.errorf(t, "unexpected %s", describe(t))
}

func (p *parser) call(name token) (Expr, error) {
	build, ok := lookupFunc(name.text)
	if !ok {
		return nil, p.errorf(name, "unknown function %q", name.text)
	}
	p.next() // (
	arg, err := p.sum()
	if err != nil {
		return nil, err
	}
	switch closing := p.next(); closing.kind {
	case tokRParen:
	case tokComma:
		return nil, p.errorf(closing, "%s takes exactly one argument", name.text)
	default:
		return nil, p.errorf(closing, "expected ')', found %s", describe(closing))
	}
	return build(arg), nil
}
