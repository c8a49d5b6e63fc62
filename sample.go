package symplot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Point counts accepted from callers are clamped to this range.
const (
	MinPoints     = 100
	MaxPoints     = 5000
	DefaultPoints = 500
)

// Per-axis point counts for surfaces.
const (
	MinGridPoints     = 2
	MaxGridPoints     = 200
	DefaultGridPoints = 50
)

// ClampPoints bounds a requested point count to [MinPoints, MaxPoints].
func ClampPoints(n int) int {
	switch {
	case n < MinPoints:
		return MinPoints
	case n > MaxPoints:
		return MaxPoints
	}
	return n
}

// Domain is an evenly spaced sequence of N points from Min to Max
// inclusive.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	N   int     `json:"points"`
}

// Linspace returns a validated Domain.
func Linspace(min, max float64, n int) (Domain, error) {
	d := Domain{Min: min, Max: max, N: n}
	return d, d.Validate()
}

func (d Domain) Validate() error {
	if !finite(d.Min) || !finite(d.Max) {
		return fmt.Errorf("%w: bounds must be finite, got [%g, %g]", ErrInvalidDomain, d.Min, d.Max)
	}
	if d.Min >= d.Max {
		return fmt.Errorf("%w: min %g must be less than max %g", ErrInvalidDomain, d.Min, d.Max)
	}
	if d.N < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidDomain, d.N)
	}
	return nil
}

// Points materializes the domain. The last point is exactly Max.
func (d Domain) Points() []float64 {
	pts := floats.Span(make([]float64, d.N), d.Min, d.Max)
	pts[d.N-1] = d.Max
	return pts
}

// Grid is the rectangular product of two domains.
type Grid struct {
	X Domain `json:"x"`
	Y Domain `json:"y"`
}

func (g Grid) Validate() error {
	if err := g.X.Validate(); err != nil {
		return fmt.Errorf("x axis: %w", err)
	}
	if err := g.Y.Validate(); err != nil {
		return fmt.Errorf("y axis: %w", err)
	}
	return nil
}

// SampleSet holds the retained (x, y) pairs of a 1-variable sampling.
// Index[i] is the position of X[i] in the original domain; positions with
// a domain failure are absent.
type SampleSet struct {
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Index []int     `json:"index"`
	Total int       `json:"total"`
}

func (s *SampleSet) Len() int      { return len(s.X) }
func (s *SampleSet) Excluded() int { return s.Total - len(s.X) }

// Warning describes excluded points, or returns "" when none were.
func (s *SampleSet) Warning() string {
	return exclusionWarning(s.Excluded(), s.Total)
}

func exclusionWarning(excluded, total int) string {
	if excluded == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d points excluded: function undefined there", excluded, total)
}

// Sample evaluates the 1-variable function f at every point of d.
func Sample(f *Func, d Domain) (*SampleSet, error) {
	if f.Arity() != 1 {
		return nil, fmt.Errorf("%w: Sample needs a 1-variable function, %s has %d", ErrArity, f, f.Arity())
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	xs := d.Points()
	ys, valid, err := f.EvalVec(xs)
	if err != nil {
		return nil, err
	}
	return retained(xs, ys, valid), nil
}

// SampleSlice samples a function of several variables along its first
// variable over d, holding the others at fixed. The animator uses it to
// draw f(x, t) at one t.
func SampleSlice(f *Func, d Domain, fixed ...float64) (*SampleSet, error) {
	if f.Arity() != len(fixed)+1 {
		return nil, fmt.Errorf("%w: %s takes %d variables, got 1 + %d fixed", ErrArity, f, f.Arity(), len(fixed))
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	xs := d.Points()
	cols := make([][]float64, 0, f.Arity())
	cols = append(cols, xs)
	for _, v := range fixed {
		cols = append(cols, fill(len(xs), v))
	}
	ys, valid, err := f.EvalVec(cols...)
	if err != nil {
		return nil, err
	}
	return retained(xs, ys, valid), nil
}

func retained(xs, ys []float64, valid []bool) *SampleSet {
	s := &SampleSet{Total: len(xs)}
	for i, ok := range valid {
		if !ok {
			continue
		}
		s.X = append(s.X, xs[i])
		s.Y = append(s.Y, ys[i])
		s.Index = append(s.Index, i)
	}
	return s
}

// Align restricts every set to the indices retained by all of them, so
// that for example a function and its derivative can be drawn over the
// same inputs. All sets must come from the same domain.
func Align(sets ...*SampleSet) ([]*SampleSet, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	count := map[int]int{}
	for _, s := range sets {
		if s.Total != sets[0].Total {
			return nil, fmt.Errorf("%w: cannot align sets of %d and %d points", ErrInvalidDomain, sets[0].Total, s.Total)
		}
		for _, idx := range s.Index {
			count[idx]++
		}
	}
	out := make([]*SampleSet, len(sets))
	for k, s := range sets {
		a := &SampleSet{Total: s.Total}
		for i, idx := range s.Index {
			if count[idx] != len(sets) {
				continue
			}
			a.X = append(a.X, s.X[i])
			a.Y = append(a.Y, s.Y[i])
			a.Index = append(a.Index, idx)
		}
		out[k] = a
	}
	return out, nil
}

// GridSample is a sampled surface z = f(x, y). Z[j][i] is the value at
// (X[i], Y[j]). Cells where f is undefined hold NaN and Valid[j][i] is
// false; the grid keeps its shape so it can be drawn as a mesh.
type GridSample struct {
	X        []float64   `json:"x"`
	Y        []float64   `json:"y"`
	Z        [][]float64 `json:"-"`
	Valid    [][]bool    `json:"valid"`
	Excluded int         `json:"excluded"`
}

func (g *GridSample) Total() int { return len(g.X) * len(g.Y) }

func (g *GridSample) Warning() string { return exclusionWarning(g.Excluded, g.Total()) }

// ZOrNil returns Z with undefined cells as nil, which encodes to JSON
// null.
func (g *GridSample) ZOrNil() [][]*float64 {
	out := make([][]*float64, len(g.Z))
	for j, row := range g.Z {
		out[j] = make([]*float64, len(row))
		for i := range row {
			if g.Valid[j][i] {
				v := row[i]
				out[j][i] = &v
			}
		}
	}
	return out
}

// SampleGrid evaluates the 2-variable function f over g.
func SampleGrid(f *Func, g Grid) (*GridSample, error) {
	if f.Arity() != 2 {
		return nil, fmt.Errorf("%w: SampleGrid needs a 2-variable function, %s has %d", ErrArity, f, f.Arity())
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	xs, ys := g.X.Points(), g.Y.Points()
	n := len(xs) * len(ys)
	colX := make([]float64, 0, n)
	colY := make([]float64, 0, n)
	for _, y := range ys {
		colX = append(colX, xs...)
		for range xs {
			colY = append(colY, y)
		}
	}
	zs, valid, err := f.EvalVec(colX, colY)
	if err != nil {
		return nil, err
	}
	out := &GridSample{X: xs, Y: ys, Z: make([][]float64, len(ys)), Valid: make([][]bool, len(ys))}
	for j := range ys {
		lo, hi := j*len(xs), (j+1)*len(xs)
		out.Z[j] = zs[lo:hi:hi]
		out.Valid[j] = valid[lo:hi:hi]
		for _, ok := range out.Valid[j] {
			if !ok {
				out.Excluded++
			}
		}
	}
	return out, nil
}

// CurveSample is a sampled parametric curve (x(t), y(t)).
type CurveSample struct {
	T     []float64 `json:"t"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Index []int     `json:"index"`
	Total int       `json:"total"`
}

func (c *CurveSample) Excluded() int   { return c.Total - len(c.T) }
func (c *CurveSample) Warning() string { return exclusionWarning(c.Excluded(), c.Total) }

// SampleParametric evaluates both coordinate functions of t over d. A
// parameter value is kept only when both coordinates are defined.
func SampleParametric(fx, fy *Func, d Domain) (*CurveSample, error) {
	if fx.Arity() != 1 || fy.Arity() != 1 {
		return nil, fmt.Errorf("%w: parametric coordinates must be 1-variable functions", ErrArity)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	ts := d.Points()
	xs, okX, err := fx.EvalVec(ts)
	if err != nil {
		return nil, err
	}
	ys, okY, err := fy.EvalVec(ts)
	if err != nil {
		return nil, err
	}
	c := &CurveSample{Total: d.N}
	for i := range ts {
		if !okX[i] || !okY[i] {
			continue
		}
		c.T = append(c.T, ts[i])
		c.X = append(c.X, xs[i])
		c.Y = append(c.Y, ys[i])
		c.Index = append(c.Index, i)
	}
	return c, nil
}

// Bounds returns the minimum and maximum of the retained outputs, or
// NaNs for an empty set.
func (s *SampleSet) Bounds() (lo, hi float64) {
	if len(s.Y) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(s.Y), floats.Max(s.Y)
}
