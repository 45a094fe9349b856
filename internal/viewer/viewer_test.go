package viewer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paramview/internal/config"
	"paramview/internal/engine"
	"paramview/internal/models"
)

const viewerDocument = `
data:
  source: grid.csv
  parameters:
    p: {label: Pressure, unit: bar, precision: 1}
    q: {label: Flow}
    r: {label: Ratio}
plots:
  flow:
    title: Output vs Flow
    x_column: q
    y_column: y
  hidden:
    x_column: p
    y_column: y
    enabled: false
  pressure:
    title: Output vs Pressure
    x_column: p
    y_column: y
    parameters: [q]
ui:
  components:
    plots:
      default_plot: hidden
    parameters:
      default_selection: {p: 2, q: 99}
`

const viewerCSV = "p,q,y\n1,10,100\n1,20,110\n2,10,200\n2,20,210\n"

func newService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grid.csv"), []byte(viewerCSV), 0o644))
	cfg, err := config.Parse([]byte(viewerDocument), dir)
	require.NoError(t, err)
	store := engine.NewStore(cfg)
	require.NoError(t, store.LoadAll(context.Background()))
	return New(store)
}

func TestPlotsAndActive(t *testing.T) {
	svc := newService(t)

	plots := svc.Plots()
	require.Len(t, plots, 2)
	assert.Equal(t, "flow", plots[0].Key)
	assert.Equal(t, "Output vs Flow", plots[0].Title)
	assert.True(t, plots[0].Loaded)
	assert.Equal(t, "pressure", plots[1].Key)

	key, ok := svc.ActivePlot()
	require.True(t, ok)
	assert.Equal(t, "flow", key, "disabled default falls back to the first enabled plot")
}

func TestDefaultSelection(t *testing.T) {
	svc := newService(t)

	sel, degraded, err := svc.DefaultSelection("flow")
	require.NoError(t, err)
	// p uses the configured default, q's configured 99 is absent so the
	// smallest value wins, r has no column in the data.
	assert.Equal(t, models.Selection{{Param: "p", Value: 2}, {Param: "q", Value: 10}}, sel)
	assert.Equal(t, []string{"r"}, degraded)

	_, _, err = svc.DefaultSelection("nope")
	assert.ErrorIs(t, err, engine.ErrSchemaMissing)
}

func TestParameters(t *testing.T) {
	svc := newService(t)

	set, err := svc.Parameters("pressure")
	require.NoError(t, err)
	require.Len(t, set.Parameters, 1)
	assert.Equal(t, "q", set.Parameters[0].Name)
	assert.Equal(t, "Flow", set.Parameters[0].Label)
	assert.Equal(t, config.DefaultPrecision, set.Parameters[0].Precision)
	assert.Equal(t, []float64{10, 20}, set.Parameters[0].Entry.Values)
	assert.Equal(t, models.Selection{{Param: "q", Value: 10}}, set.Default)
	assert.Empty(t, set.Degraded)
}

func TestView(t *testing.T) {
	svc := newService(t)

	v, err := svc.View("flow", models.Selection{{Param: "p", Value: 1}, {Param: "q", Value: 10}})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Slice.DataPoints)
	assert.Equal(t, []models.Cell{models.NumberCell(10), models.NumberCell(20)}, v.Slice.X)
	assert.Equal(t, []models.Cell{models.NumberCell(100), models.NumberCell(110)}, v.Slice.Y)
	assert.Equal(t, "Pressure: 1.0bar, Flow: 10.000", v.Plot.Selection)
	assert.Equal(t, "Output vs Flow", v.Plot.Layout.Title.Text)
	assert.Equal(t, 2, v.Summary.Parameters)
	assert.Equal(t, []string{"r"}, v.Degraded)

	empty, err := svc.View("flow", models.Selection{{Param: "p", Value: 3}})
	require.NoError(t, err)
	assert.True(t, empty.Slice.Empty())
	require.Len(t, empty.Plot.Data, 1)
	assert.Empty(t, empty.Plot.Data[0].X)

	_, err = svc.View("nope", nil)
	assert.ErrorIs(t, err, engine.ErrSchemaMissing)
}

func TestViewDisabledPlotStillLoadable(t *testing.T) {
	svc := newService(t)

	v, err := svc.Switch("hidden")
	require.NoError(t, err)
	assert.Equal(t, "hidden", v.PlotKey)
	assert.Equal(t, []models.Cell{models.NumberCell(1), models.NumberCell(2)}, v.Slice.X)
}

func TestSwitch(t *testing.T) {
	svc := newService(t)

	v, err := svc.Switch("pressure")
	require.NoError(t, err)
	assert.Equal(t, models.Selection{{Param: "q", Value: 10}}, v.Selection)
	assert.Equal(t, []models.Cell{models.NumberCell(100), models.NumberCell(200)}, v.Slice.Y)
}

func TestResolve(t *testing.T) {
	svc := newService(t)

	sel, err := svc.Resolve("flow", map[string]float64{"q": 20, "zeta": 1, "alpha": 2, "r": 5})
	require.NoError(t, err)
	assert.Equal(t, models.Selection{
		{Param: "p", Value: 2},
		{Param: "q", Value: 20},
		{Param: "r", Value: 5},
		{Param: "alpha", Value: 2},
		{Param: "zeta", Value: 1},
	}, sel)

	sel, err = svc.Resolve("flow", nil)
	require.NoError(t, err)
	assert.Equal(t, models.Selection{{Param: "p", Value: 2}, {Param: "q", Value: 10}}, sel)
}
