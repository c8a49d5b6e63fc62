package symplot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Animation interval bounds, in milliseconds.
const (
	MinIntervalMS     = 10
	MaxIntervalMS     = 10000
	DefaultIntervalMS = 50
)

// Config is the file form of the plot, animation, quadrature and server
// settings. Fields absent from a file keep their Default value.
type Config struct {
	Plot       PlotConfig       `toml:"plot" yaml:"plot"`
	Animation  AnimationConfig  `toml:"animation" yaml:"animation"`
	Quadrature QuadratureConfig `toml:"quadrature" yaml:"quadrature"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
}

type PlotConfig struct {
	XMin      float64  `toml:"xmin" yaml:"xmin"`
	XMax      float64  `toml:"xmax" yaml:"xmax"`
	Points    int      `toml:"points" yaml:"points"`
	Style     Style    `toml:"style" yaml:"style"`
	Grid      bool     `toml:"grid" yaml:"grid"`
	Legend    bool     `toml:"legend" yaml:"legend"`
	Palette   []string `toml:"palette" yaml:"palette"`
	Functions []string `toml:"functions" yaml:"functions"`
	Custom    string   `toml:"custom" yaml:"custom"`
}

type AnimationConfig struct {
	IntervalMS int     `toml:"interval_ms" yaml:"interval_ms"`
	Frames     int     `toml:"frames" yaml:"frames"` // 0 means until stopped
	TimeStep   float64 `toml:"time_step" yaml:"time_step"`
}

type QuadratureConfig struct {
	Tolerance float64 `toml:"tolerance" yaml:"tolerance"`
	Budget    int     `toml:"budget" yaml:"budget"`
}

type ServerConfig struct {
	Addr         string `toml:"addr" yaml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes" yaml:"max_body_bytes"`
	MaxSessions  int    `toml:"max_sessions" yaml:"max_sessions"`
	// AllowedOrigins lists the origins that may open /animate. When empty
	// only same-origin requests are accepted.
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns the settings of a freshly started application.
func Default() Config {
	return Config{
		Plot: PlotConfig{
			XMin:      0.1,
			XMax:      10,
			Points:    DefaultPoints,
			Style:     StyleLine,
			Grid:      true,
			Legend:    true,
			Palette:   append([]string(nil), DefaultPalette...),
			Functions: DefaultSelection(),
			Custom:    DefaultCustomExpr,
		},
		Animation: AnimationConfig{
			IntervalMS: DefaultIntervalMS,
			TimeStep:   0.1,
		},
		Quadrature: QuadratureConfig{
			Tolerance: DefaultQuadTolerance,
			Budget:    DefaultQuadBudget,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
			MaxSessions:  1024,
		},
	}
}

// LoadConfig reads a TOML file, or a YAML file when the extension is
// .yaml or .yml, over Default and normalizes the result.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
		}
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize clamps counts and intervals into range and rejects settings
// that cannot be plotted.
func (c *Config) Normalize() error {
	c.Plot.Points = ClampPoints(c.Plot.Points)
	switch {
	case c.Animation.IntervalMS < MinIntervalMS:
		c.Animation.IntervalMS = MinIntervalMS
	case c.Animation.IntervalMS > MaxIntervalMS:
		c.Animation.IntervalMS = MaxIntervalMS
	}
	if c.Animation.Frames < 0 {
		c.Animation.Frames = 0
	}
	if c.Animation.TimeStep <= 0 {
		c.Animation.TimeStep = 0.1
	}
	if c.Quadrature.Tolerance <= 0 {
		c.Quadrature.Tolerance = DefaultQuadTolerance
	}
	if c.Quadrature.Budget < 1 {
		c.Quadrature.Budget = DefaultQuadBudget
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Server.MaxSessions < 1 {
		c.Server.MaxSessions = 1
	}
	if c.Plot.Style == "" {
		c.Plot.Style = StyleLine
	}
	if !c.Plot.Style.Valid() {
		return fmt.Errorf("unknown plot style %q", c.Plot.Style)
	}
	if _, err := Linspace(c.Plot.XMin, c.Plot.XMax, c.Plot.Points); err != nil {
		return err
	}
	for _, name := range c.Plot.Functions {
		if _, err := LookupPreset(name); err != nil {
			return err
		}
	}
	return nil
}

// Interval is the animation tick period.
func (c AnimationConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// QuadOptions turns the quadrature settings into options for Quadrature
// and DefiniteIntegral.
func (c QuadratureConfig) QuadOptions() []QuadOption {
	var opts []QuadOption
	if c.Tolerance > 0 {
		opts = append(opts, WithTolerance(c.Tolerance, c.Tolerance))
	}
	if c.Budget > 0 {
		opts = append(opts, WithBudget(c.Budget))
	}
	return opts
}
