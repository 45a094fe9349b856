// Package config reads the viewer's configuration document: the global
// parameter catalogue, the per-plot schemas and the UI defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// DefaultPrecision is the number of decimals used to present a parameter
// value when the parameter does not declare its own.
const DefaultPrecision = 3

//go:embed default.yaml
var defaultDocument []byte

type App struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Parameter describes one independent column of the datasets.
type Parameter struct {
	Name        string `yaml:"-" json:"name"`
	Label       string `yaml:"label" json:"label,omitempty"`
	Unit        string `yaml:"unit" json:"unit,omitempty"`
	Precision   *int   `yaml:"precision" json:"-"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// DisplayLabel is the label if set, else the column name.
func (p Parameter) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Digits is the declared precision or DefaultPrecision.
func (p Parameter) Digits() int {
	if p.Precision != nil && *p.Precision >= 0 {
		return *p.Precision
	}
	return DefaultPrecision
}

// Style holds the optional visual attributes of a plot's series. Zero
// values mean "use the assembler default".
type Style struct {
	Name          string  `yaml:"name"`
	Mode          string  `yaml:"mode"`
	LineColor     string  `yaml:"line_color"`
	LineWidth     float64 `yaml:"line_width"`
	MarkerColor   string  `yaml:"marker_color"`
	MarkerSize    float64 `yaml:"marker_size"`
	MarkerOpacity float64 `yaml:"marker_opacity"`
}

// PlotSpec is the static configuration of one named plot.
type PlotSpec struct {
	Key         string `yaml:"-"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	XColumn     string `yaml:"x_column"`
	YColumn     string `yaml:"y_column"`
	XLabel      string `yaml:"x_label"`
	YLabel      string `yaml:"y_label"`
	Style       Style  `yaml:"style"`
	Enabled     *bool  `yaml:"enabled"`
	DataSource  string `yaml:"data_source"`

	// Parameters overrides the global parameter list when non-nil.
	Parameters []Parameter `yaml:"-"`
}

// IsEnabled treats an absent enabled flag as true.
func (p PlotSpec) IsEnabled() bool { return p.Enabled == nil || *p.Enabled }

type Data struct {
	Source     string
	Dir        string
	Parameters []Parameter
}

type Config struct {
	App              App
	Data             Data
	Plots            []PlotSpec
	DefaultPlot      string
	DefaultSelection map[string]float64
}

// Load reads and parses the document at path. Relative data paths are
// resolved against data.dir, or the document's directory when unset.
func Load(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b, filepath.Dir(path))
}

// Default returns the built-in configuration used when no document is
// given. Its data directory is the working directory.
func Default() *Config {
	cfg, err := Parse(defaultDocument, ".")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Plot returns the spec of the named plot.
func (c *Config) Plot(key string) (PlotSpec, bool) {
	for _, p := range c.Plots {
		if p.Key == key {
			return p, true
		}
	}
	return PlotSpec{}, false
}

// PlotKeys lists every configured plot in declaration order.
func (c *Config) PlotKeys() []string {
	keys := make([]string, len(c.Plots))
	for i, p := range c.Plots {
		keys[i] = p.Key
	}
	return keys
}

// EnabledPlots lists the enabled plots in declaration order.
func (c *Config) EnabledPlots() []PlotSpec {
	var out []PlotSpec
	for _, p := range c.Plots {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

// Parameter looks up a globally declared parameter.
func (c *Config) Parameter(name string) (Parameter, bool) {
	for _, p := range c.Data.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParametersFor returns the parameters relevant to a plot: its own subset
// when declared, otherwise the full global list. Fields left empty in a
// plot-level override are filled from the global declaration.
func (c *Config) ParametersFor(key string) []Parameter {
	spec, ok := c.Plot(key)
	if !ok || spec.Parameters == nil {
		return c.Data.Parameters
	}
	out := make([]Parameter, len(spec.Parameters))
	for i, p := range spec.Parameters {
		g, _ := c.Parameter(p.Name)
		if p.Label == "" {
			p.Label = g.Label
		}
		if p.Unit == "" {
			p.Unit = g.Unit
		}
		if p.Precision == nil {
			p.Precision = g.Precision
		}
		if p.Description == "" {
			p.Description = g.Description
		}
		out[i] = p
	}
	return out
}

// ParameterNames is ParametersFor reduced to column names.
func (c *Config) ParameterNames(key string) []string {
	params := c.ParametersFor(key)
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// SourcePath resolves the tabular data file of a plot.
func (c *Config) SourcePath(key string) (string, error) {
	spec, ok := c.Plot(key)
	if !ok {
		return "", fmt.Errorf("plot %q is not configured", key)
	}
	src := spec.DataSource
	if src == "" {
		src = c.Data.Source
	}
	if src == "" {
		return "", errors.New("no data source configured")
	}
	src, err := homedir.Expand(src)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(src) {
		return src, nil
	}
	return filepath.Join(c.Data.Dir, src), nil
}
