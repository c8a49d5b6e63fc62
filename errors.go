package symplot

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrParse          = errors.New("symplot: parse error")
	ErrDomain         = errors.New("symplot: value outside the function domain")
	ErrDerivative     = errors.New("symplot: no closed-form derivative")
	ErrIntegration    = errors.New("symplot: integration failed")
	ErrInvalidDomain  = errors.New("symplot: invalid sampling domain")
	ErrUnboundSymbol  = errors.New("symplot: expression references an unbound symbol")
	ErrArity          = errors.New("symplot: wrong number of arguments")
	ErrNoFunctions    = errors.New("symplot: select at least one function")
	ErrUnknownPreset  = errors.New("symplot: unknown preset")
	ErrAnimationSetup = errors.New("symplot: invalid animation")
)

// ParseError reports a malformed expression or a reference to a variable
// that was not declared.
type ParseError struct {
	Input string
	Pos   int // byte offset into Input, -1 when unknown
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("parse %q: %s", e.Input, e.Msg)
	}
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// DomainError is returned by scalar evaluation when the result at Point
// is not a finite real number.
type DomainError struct {
	Point []float64
}

func (e *DomainError) Error() string {
	parts := make([]string, len(e.Point))
	for i, p := range e.Point {
		parts[i] = fmt.Sprintf("%g", p)
	}
	return "undefined at (" + strings.Join(parts, ", ") + ")"
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// DerivativeError names the function that has no differentiation rule.
type DerivativeError struct {
	Func string
	Arg  string
}

func (e *DerivativeError) Error() string {
	return fmt.Sprintf("cannot differentiate %s(%s) in closed form", e.Func, e.Arg)
}

func (e *DerivativeError) Is(target error) bool { return target == ErrDerivative }

// IntegrationError is returned when neither the symbolic rules nor the
// quadrature produce a result.
type IntegrationError struct {
	Reason string
}

func (e *IntegrationError) Error() string { return "integration failed: " + e.Reason }

func (e *IntegrationError) Is(target error) bool { return target == ErrIntegration }
