package symplot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Style is how a series is drawn.
type Style string

const (
	StyleLine    Style = "line"
	StyleScatter Style = "scatter"
)

func (s Style) Valid() bool { return s == StyleLine || s == StyleScatter }

// Plot labels.
const (
	PlotTitle = "Enhanced Math Visualization"
	XLabel    = "x"
	YLabel    = "y"
)

// PlotRequest is everything a plot depends on. Session.Request returns
// the current state so callers can change a few fields and plot again.
type PlotRequest struct {
	XMin      float64  `json:"xmin"`
	XMax      float64  `json:"xmax"`
	Points    int      `json:"points"`
	Style     Style    `json:"style"`
	Grid      bool     `json:"grid"`
	Legend    bool     `json:"legend"`
	Functions []string `json:"functions"`
	// Custom is the expression in x plotted for the custom preset.
	Custom string `json:"custom"`
	// Derivative overlays f' on every series, sampled at the same inputs.
	Derivative bool `json:"derivative"`
	// Integral attaches the definite integral over [XMin, XMax].
	Integral bool `json:"integral"`
}

// Series is one drawn function.
type Series struct {
	Name    string     `json:"name"`
	Label   string     `json:"label"`
	Expr    string     `json:"expr"`
	Color   string     `json:"color"`
	Samples *SampleSet `json:"samples"`

	DerivativeExpr  string         `json:"derivative_expr,omitempty"`
	DerivativeColor string         `json:"derivative_color,omitempty"`
	Derivative      *SampleSet     `json:"derivative,omitempty"`
	Integral        *IntegralValue `json:"integral,omitempty"`

	Warning string `json:"warning,omitempty"`
}

// IntegralValue is the JSON form of an IntegralResult.
type IntegralValue struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Symbolic  string  `json:"symbolic"`
	Numeric   float64 `json:"numeric"`
	AbsErr    float64 `json:"abs_err"`
	Intervals int     `json:"intervals"`
}

func newIntegralValue(r *IntegralResult, lower, upper float64) *IntegralValue {
	return &IntegralValue{
		Lower:     lower,
		Upper:     upper,
		Symbolic:  r.SymbolicString(),
		Numeric:   r.Numeric,
		AbsErr:    r.AbsErr,
		Intervals: r.Intervals,
	}
}

// Plot is a finished set of series ready for a renderer.
type Plot struct {
	Title    string   `json:"title"`
	XLabel   string   `json:"xlabel"`
	YLabel   string   `json:"ylabel"`
	Domain   Domain   `json:"domain"`
	Style    Style    `json:"style"`
	Grid     bool     `json:"grid"`
	Legend   bool     `json:"legend"`
	Series   []Series `json:"series"`
	Warnings []string `json:"warnings,omitempty"`
}

// Session is the state of one plotting window: its controls and the last
// plot drawn. It is safe for concurrent use.
type Session struct {
	id      string
	quad    []QuadOption
	palette []string
	initial PlotRequest

	mu   sync.Mutex
	req  PlotRequest
	last *Plot
}

// NewSession starts a session with the plot settings of cfg, which must
// already be normalized.
func NewSession(cfg Config) *Session {
	p := cfg.Plot
	initial := PlotRequest{
		XMin:      p.XMin,
		XMax:      p.XMax,
		Points:    p.Points,
		Style:     p.Style,
		Grid:      p.Grid,
		Legend:    p.Legend,
		Functions: append([]string(nil), p.Functions...),
		Custom:    p.Custom,
	}
	return &Session{
		id:      uuid.New().String(),
		quad:    cfg.Quadrature.QuadOptions(),
		palette: append([]string(nil), p.Palette...),
		initial: initial,
		req:     initial.clone(),
	}
}

func (s *Session) ID() string { return s.id }

// Request returns a copy of the current controls.
func (s *Session) Request() PlotRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req.clone()
}

// Last returns the last successful plot, or nil.
func (s *Session) Last() *Plot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Plot builds every selected series. On error nothing changes: the
// controls and the previous plot stay as they were.
func (s *Session) Plot(req PlotRequest) (*Plot, error) {
	plot, err := s.build(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = req.clone()
	s.last = plot
	return plot, nil
}

// Replot plots the current controls again.
func (s *Session) Replot() (*Plot, error) { return s.Plot(s.Request()) }

// Clear drops the last plot and keeps the controls.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}

// Reset restores the controls the session started with. The last plot is
// kept until the next Plot or Clear.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = s.initial.clone()
}

func (r PlotRequest) clone() PlotRequest {
	r.Functions = append([]string(nil), r.Functions...)
	return r
}

var errRange = errors.New("X min must be less than X max")

func (s *Session) build(req PlotRequest) (*Plot, error) {
	if !(req.XMin < req.XMax) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDomain, errRange)
	}
	if len(req.Functions) == 0 {
		return nil, ErrNoFunctions
	}
	if req.Style == "" {
		req.Style = StyleLine
	}
	if !req.Style.Valid() {
		return nil, fmt.Errorf("unknown plot style %q", req.Style)
	}
	d, err := Linspace(req.XMin, req.XMax, ClampPoints(req.Points))
	if err != nil {
		return nil, err
	}
	plot := &Plot{
		Title:  PlotTitle,
		XLabel: XLabel,
		YLabel: YLabel,
		Domain: d,
		Style:  req.Style,
		Grid:   req.Grid,
		Legend: req.Legend,
	}
	for i, name := range req.Functions {
		p, err := LookupPreset(name)
		if err != nil {
			return nil, err
		}
		if p.Name == CustomPreset && req.Custom != "" {
			p.Expr = req.Custom
		}
		p.Color = PaletteColor(s.palette, presetIndex(p.Name))
		series, err := s.series(p, d, req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Label, err)
		}
		if series.Derivative != nil {
			series.DerivativeColor = PaletteColor(s.palette, len(presets)+i)
		}
		if series.Warning != "" {
			plot.Warnings = append(plot.Warnings, p.Label+": "+series.Warning)
		}
		plot.Series = append(plot.Series, *series)
	}
	return plot, nil
}

func presetIndex(name string) int {
	for i, p := range presets {
		if p.Name == name {
			return i
		}
	}
	return 0
}

func (s *Session) series(p Preset, d Domain, req PlotRequest) (*Series, error) {
	e, err := Parse(p.Expr, "x")
	if err != nil {
		return nil, err
	}
	f, err := Compile(e, "x")
	if err != nil {
		return nil, err
	}
	samples, err := Sample(f, d)
	if err != nil {
		return nil, err
	}
	out := &Series{Name: p.Name, Label: p.Label, Expr: e.String(), Color: p.Color, Samples: samples}
	if req.Derivative {
		de, err := Derivative(e, "x")
		if err != nil {
			return nil, err
		}
		df, err := Compile(de, "x")
		if err != nil {
			return nil, err
		}
		ds, err := Sample(df, d)
		if err != nil {
			return nil, err
		}
		aligned, err := Align(samples, ds)
		if err != nil {
			return nil, err
		}
		out.Samples, out.Derivative = aligned[0], aligned[1]
		out.DerivativeExpr = de.String()
	}
	if req.Integral {
		r, err := DefiniteIntegral(e, "x", d.Min, d.Max, s.quad...)
		if err != nil {
			return nil, err
		}
		out.Integral = newIntegralValue(r, d.Min, d.Max)
	}
	out.Warning = out.Samples.Warning()
	return out, nil
}
