package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `
data:
  source: {file_path: grid.csv}
  parameters:
    p: {label: Pressure, unit: bar, precision: 1}
    q: {label: Flow}
    r: {}
plots:
  zeta:
    title: Zeta
    x_column: q
    y_column: y
    parameters:
      p: {unit: kPa}
      r: ~
  alpha:
    title: Alpha
    x_column: p
    y_column: y
    enabled: false
    data_source: alpha.csv
  mid:
    title: Mid
    x_column: r
    y_column: y
    parameters: [q]
ui:
  components:
    plots:
      default_plot: alpha
    parameters:
      default_selection: {p: 2}
`

func TestParseKeepsDeclarationOrder(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), "/data")
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, cfg.PlotKeys())
	names := []string{}
	for _, p := range cfg.Data.Parameters {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"p", "q", "r"}, names)
	assert.Equal(t, "alpha", cfg.DefaultPlot)
	assert.Equal(t, 2.0, cfg.DefaultSelection["p"])
	assert.Equal(t, "grid.csv", cfg.Data.Source)
}

func TestParametersFor(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), "/data")
	require.NoError(t, err)

	zeta := cfg.ParametersFor("zeta")
	require.Len(t, zeta, 2)
	assert.Equal(t, "p", zeta[0].Name)
	assert.Equal(t, "Pressure", zeta[0].Label, "label filled from the global declaration")
	assert.Equal(t, "kPa", zeta[0].Unit, "plot override wins")
	assert.Equal(t, 1, zeta[0].Digits())
	assert.Equal(t, "r", zeta[1].DisplayLabel())
	assert.Equal(t, DefaultPrecision, zeta[1].Digits())

	assert.Equal(t, []string{"q"}, cfg.ParameterNames("mid"))

	// Unknown plots and plots without a subset get the global list.
	assert.Equal(t, []string{"p", "q", "r"}, cfg.ParameterNames("alpha"))
	assert.Equal(t, []string{"p", "q", "r"}, cfg.ParameterNames("nope"))
}

func TestEnabledPlots(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), "/data")
	require.NoError(t, err)

	var keys []string
	for _, p := range cfg.EnabledPlots() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"zeta", "mid"}, keys)
}

func TestSourcePath(t *testing.T) {
	cfg, err := Parse([]byte(sampleDocument), "/data")
	require.NoError(t, err)

	p, err := cfg.SourcePath("zeta")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "grid.csv"), p)

	p, err = cfg.SourcePath("alpha")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "alpha.csv"), p)

	_, err = cfg.SourcePath("missing")
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"missing y_column": "plots:\n  a: {x_column: p}\n",
		"duplicate plot":   "plots:\n  a: {x_column: p, y_column: y}\n  a: {x_column: p, y_column: y}\n",
		"duplicate param":  "data:\n  parameters: [p, p]\n",
		"bad source":       "data:\n  source: [a, b]\n",
		"not yaml":         "plots: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), ".")
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	src, err := cfg.SourcePath("mid")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "grid.csv"), src)

	_, err = Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"temperature_plot", "resistance_plot"}, cfg.PlotKeys())
	assert.Len(t, cfg.Data.Parameters, 6)
	spec, ok := cfg.Plot("temperature_plot")
	require.True(t, ok)
	assert.Equal(t, "#2E86AB", spec.Style.LineColor)
	assert.True(t, spec.IsEnabled())
}

func TestParseDataDir(t *testing.T) {
	cfg, err := Parse([]byte("data:\n  source: grid.csv\n  dir: data\nplots:\n  a: {x_column: p, y_column: y}\n"), "/srv/app")
	require.NoError(t, err)
	src, err := cfg.SourcePath("a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/app", "data", "grid.csv"), src)

	cfg, err = Parse([]byte("data:\n  source: grid.csv\n  dir: /abs\nplots:\n  a: {x_column: p, y_column: y}\n"), "/srv/app")
	require.NoError(t, err)
	src, err = cfg.SourcePath("a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/abs", "grid.csv"), src)
}
