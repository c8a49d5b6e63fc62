package symplot_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symplot"
)

func newSession(t *testing.T) *symplot.Session {
	t.Helper()
	cfg := symplot.Default()
	require.NoError(t, cfg.Normalize())
	return symplot.NewSession(cfg)
}

func TestSession_DefaultPlot(t *testing.T) {
	s := newSession(t)
	_, err := uuid.Parse(s.ID())
	require.NoError(t, err)
	assert.Nil(t, s.Last())

	p, err := s.Replot()
	require.NoError(t, err)
	assert.Equal(t, symplot.PlotTitle, p.Title)
	assert.Equal(t, symplot.StyleLine, p.Style)
	assert.True(t, p.Grid)
	assert.True(t, p.Legend)
	require.Len(t, p.Series, 2)
	assert.Equal(t, "square", p.Series[0].Name)
	assert.Equal(t, "sin", p.Series[1].Name)
	assert.NotEqual(t, p.Series[0].Color, p.Series[1].Color)
	for _, sr := range p.Series {
		assert.Equal(t, symplot.DefaultPoints, sr.Samples.Len())
		assert.Empty(t, sr.Warning)
	}
	assert.Empty(t, p.Warnings)
	assert.Same(t, p, s.Last())
}

func TestSession_InvalidRangeKeepsPreviousPlot(t *testing.T) {
	s := newSession(t)
	prev, err := s.Replot()
	require.NoError(t, err)

	req := s.Request()
	req.XMin, req.XMax = 5, 5
	_, err = s.Plot(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, symplot.ErrInvalidDomain))
	assert.Contains(t, err.Error(), "X min must be less than X max")

	assert.Same(t, prev, s.Last())
	assert.Equal(t, 0.1, s.Request().XMin, "controls are not committed on error")
}

func TestSession_NoFunctions(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.Functions = nil
	_, err := s.Plot(req)
	assert.True(t, errors.Is(err, symplot.ErrNoFunctions))
}

func TestSession_BadCustomExpression(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.Functions = []string{symplot.CustomPreset}
	req.Custom = "2*x +"
	_, err := s.Plot(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, symplot.ErrParse))
	assert.Contains(t, err.Error(), "Custom polynomial")
}

func TestSession_CustomExpression(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.Functions = []string{"custom"}
	req.Custom = "x^3 - x"
	p, err := s.Plot(req)
	require.NoError(t, err)
	require.Len(t, p.Series, 1)
	assert.Equal(t, "x^3 - x", p.Series[0].Expr)
	assert.Equal(t, "x^3 - x", s.Request().Custom)
}

func TestSession_LogWarnsAboutExcludedPoints(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.XMin, req.XMax = -1, 1
	req.Functions = []string{"ln"}
	p, err := s.Plot(req)
	require.NoError(t, err)
	require.Len(t, p.Series, 1)
	assert.Greater(t, p.Series[0].Samples.Excluded(), 0)
	assert.NotEmpty(t, p.Series[0].Warning)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "y = ln(x)")
}

func TestSession_DerivativeOverlay(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.XMin, req.XMax = -2, 2
	req.Functions = []string{"square", "ln"}
	req.Derivative = true
	p, err := s.Plot(req)
	require.NoError(t, err)
	require.Len(t, p.Series, 2)

	sq := p.Series[0]
	require.NotNil(t, sq.Derivative)
	assert.Equal(t, "2*x", sq.DerivativeExpr)
	assert.NotEmpty(t, sq.DerivativeColor)
	assert.Equal(t, sq.Samples.X, sq.Derivative.X)
	for i, x := range sq.Derivative.X {
		assert.InDelta(t, 2*x, sq.Derivative.Y[i], 1e-12)
	}

	ln := p.Series[1]
	assert.Equal(t, ln.Samples.Index, ln.Derivative.Index)
	for _, x := range ln.Samples.X {
		assert.Greater(t, x, 0.0)
	}
}

func TestSession_DerivativeWithoutClosedForm(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.Functions = []string{"custom"}
	req.Custom = "abs(x)"
	req.Derivative = true
	_, err := s.Plot(req)
	assert.True(t, errors.Is(err, symplot.ErrDerivative))
}

func TestSession_Integral(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.XMin, req.XMax = 0, 3
	req.Functions = []string{"square"}
	req.Integral = true
	p, err := s.Plot(req)
	require.NoError(t, err)
	iv := p.Series[0].Integral
	require.NotNil(t, iv)
	assert.Equal(t, "9", iv.Symbolic)
	assert.InDelta(t, 9.0, iv.Numeric, 1e-8)
	assert.Equal(t, 0.0, iv.Lower)
	assert.Equal(t, 3.0, iv.Upper)
}

func TestSession_ResetAndClear(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.XMin, req.XMax = -4, 4
	req.Style = symplot.StyleScatter
	req.Functions = []string{"cos"}
	p, err := s.Plot(req)
	require.NoError(t, err)

	s.Reset()
	got := s.Request()
	assert.Equal(t, 0.1, got.XMin)
	assert.Equal(t, 10.0, got.XMax)
	assert.Equal(t, symplot.StyleLine, got.Style)
	assert.Equal(t, symplot.DefaultSelection(), got.Functions)
	assert.Same(t, p, s.Last())

	s.Clear()
	assert.Nil(t, s.Last())
	assert.Equal(t, got, s.Request())
}

func TestSession_PointsAreClamped(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.Points = 10
	p, err := s.Plot(req)
	require.NoError(t, err)
	assert.Equal(t, symplot.MinPoints, p.Domain.N)
	assert.Equal(t, symplot.MinPoints, p.Series[0].Samples.Total)
}

func TestSession_UnknownPresetAndStyle(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.Functions = []string{"nope"}
	_, err := s.Plot(req)
	assert.True(t, errors.Is(err, symplot.ErrUnknownPreset))

	req = s.Request()
	req.Style = "bars"
	_, err = s.Plot(req)
	assert.Error(t, err)
}

func TestSession_RequestIsACopy(t *testing.T) {
	s := newSession(t)
	req := s.Request()
	req.Functions[0] = "cos"
	assert.Equal(t, "square", s.Request().Functions[0])
}
