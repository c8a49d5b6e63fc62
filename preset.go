package symplot

import (
	"fmt"
	"strings"
)

// Preset is one of the named functions offered for plotting.
type Preset struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Expr  string `json:"expr"`
	Color string `json:"color"`
}

// CustomPreset is the name of the user-editable polynomial entry. Its
// Expr is only the initial text.
const (
	CustomPreset      = "custom"
	DefaultCustomExpr = "2*x**3 - 5*x + 1"
)

// DefaultPalette is the color cycle used for series without a preset
// color, such as derivative overlays.
var DefaultPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var presets = []Preset{
	{Name: "square", Label: "y = x^2", Expr: "x^2"},
	{Name: "sin", Label: "y = sin(x)", Expr: "sin(x)"},
	{Name: "cos", Label: "y = cos(x)", Expr: "cos(x)"},
	{Name: "ln", Label: "y = ln(x)", Expr: "ln(x)"},
	{Name: "exp", Label: "y = e^x", Expr: "e^x"},
	{Name: "sinh", Label: "y = sinh(x)", Expr: "sinh(x)"},
	{Name: "cosh", Label: "y = cosh(x)", Expr: "cosh(x)"},
	{Name: "tanh", Label: "y = tanh(x)", Expr: "tanh(x)"},
	{Name: CustomPreset, Label: "Custom polynomial", Expr: DefaultCustomExpr},
}

func init() {
	for i := range presets {
		presets[i].Color = PaletteColor(DefaultPalette, i)
	}
}

// Presets returns the preset list in display order.
func Presets() []Preset { return append([]Preset(nil), presets...) }

// DefaultSelection is what a fresh or reset session plots.
func DefaultSelection() []string { return []string{presets[0].Name, presets[1].Name} }

// LookupPreset finds a preset by name or by label, ignoring case.
func LookupPreset(name string) (Preset, error) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.Label, name) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// PaletteColor cycles through palette; an empty palette falls back to
// DefaultPalette.
func PaletteColor(palette []string, i int) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[i%len(palette)]
}
