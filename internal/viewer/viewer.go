// Package viewer runs the request pipeline of the dashboard:
// (plot key, selection) -> slice -> plot config. It keeps no state of its
// own besides the dataset store.
package viewer

import (
	"fmt"
	"slices"

	"paramview/internal/config"
	"paramview/internal/engine"
	"paramview/internal/models"
	"paramview/internal/plot"
)

type Service struct {
	store *engine.Store
}

func New(store *engine.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Store() *engine.Store { return s.store }

// PlotInfo is what a tab bar needs to show one plot.
type PlotInfo struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Loaded      bool   `json:"loaded"`
}

// Plots lists the enabled plots in configuration order.
func (s *Service) Plots() []PlotInfo {
	loaded := make(map[string]bool)
	for _, k := range s.store.Loaded() {
		loaded[k] = true
	}
	var out []PlotInfo
	for _, p := range s.store.Config().EnabledPlots() {
		out = append(out, PlotInfo{
			Key:         p.Key,
			Title:       p.Title,
			Description: p.Description,
			Loaded:      loaded[p.Key],
		})
	}
	return out
}

// ActivePlot is the plot to show when none is requested.
func (s *Service) ActivePlot() (string, bool) {
	return s.store.DefaultPlotKey()
}

// ParameterState is one selectable parameter with its available values.
type ParameterState struct {
	config.Parameter
	Precision int               `json:"precision"`
	Entry     models.IndexEntry `json:"index"`
}

// ParameterSet describes the selection controls of a plot.
type ParameterSet struct {
	PlotKey    string           `json:"plot_key"`
	Parameters []ParameterState `json:"parameters"`
	Default    models.Selection `json:"default_selection"`
	Degraded   []string         `json:"degraded,omitempty"`
}

// Parameters returns the parameters of a plot in declaration order along
// with their indexed values and the default selection.
func (s *Service) Parameters(key string) (*ParameterSet, error) {
	ix, err := s.store.Index(key)
	if err != nil {
		return nil, err
	}
	params := s.store.Config().ParametersFor(key)
	set := &ParameterSet{
		PlotKey:    key,
		Parameters: make([]ParameterState, 0, len(params)),
		Default:    defaultSelection(params, ix, s.store.Config().DefaultSelection),
		Degraded:   ix.Unselectable(),
	}
	for _, p := range params {
		e, _ := ix.Get(p.Name)
		set.Parameters = append(set.Parameters, ParameterState{Parameter: p, Precision: p.Digits(), Entry: e})
	}
	return set, nil
}

// DefaultSelection picks a starting value for every parameter of a plot:
// the configured default when the dataset contains it, else the smallest
// indexed value. Parameters without values are left out and returned as
// degraded.
func (s *Service) DefaultSelection(key string) (models.Selection, []string, error) {
	ix, err := s.store.Index(key)
	if err != nil {
		return nil, nil, err
	}
	cfg := s.store.Config()
	return defaultSelection(cfg.ParametersFor(key), ix, cfg.DefaultSelection), ix.Unselectable(), nil
}

func defaultSelection(params []config.Parameter, ix models.Index, preferred map[string]float64) models.Selection {
	sel := make(models.Selection, 0, len(params))
	for _, p := range params {
		e, ok := ix.Get(p.Name)
		if !ok || e.Empty() {
			continue
		}
		v := e.Values[0]
		if want, ok := preferred[p.Name]; ok && e.Contains(want) {
			v = want
		}
		sel = append(sel, models.Choice{Param: p.Name, Value: v})
	}
	return sel
}

// Resolve starts from the default selection of a plot and applies the
// given values. Declared parameters keep declaration order; others are
// appended by name.
func (s *Service) Resolve(key string, set map[string]float64) (models.Selection, error) {
	sel, _, err := s.DefaultSelection(key)
	if err != nil {
		return nil, err
	}
	declared := make(map[string]bool)
	for _, p := range s.store.Config().ParametersFor(key) {
		declared[p.Name] = true
		if v, ok := set[p.Name]; ok {
			sel = sel.With(p.Name, v)
		}
	}
	// With appends; restore declaration order for parameters that had no
	// default because their index is empty.
	sel = orderBy(sel, s.store.Config().ParameterNames(key))

	var extra []string
	for name := range set {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		sel = sel.With(name, set[name])
	}
	return sel, nil
}

func orderBy(sel models.Selection, names []string) models.Selection {
	pos := make(map[string]int, len(names))
	for i, n := range names {
		pos[n] = i
	}
	out := slices.Clone(sel)
	slices.SortStableFunc(out, func(a, b models.Choice) int {
		return pos[a.Param] - pos[b.Param]
	})
	return out
}

// View is everything a client needs to draw one plot state.
type View struct {
	PlotKey   string           `json:"plot_key"`
	Selection models.Selection `json:"selection"`
	Slice     *models.Slice    `json:"slice"`
	Plot      *plot.Config     `json:"plot"`
	Summary   models.Summary   `json:"summary"`
	Degraded  []string         `json:"degraded,omitempty"`
}

// View slices the plot's dataset for sel and assembles its description.
func (s *Service) View(key string, sel models.Selection) (*View, error) {
	spec, ok := s.store.Config().Plot(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrSchemaMissing, key)
	}
	ds, ix, err := s.store.Snapshot(key)
	if err != nil {
		return nil, err
	}
	sl := engine.Slice(ds, spec.XColumn, spec.YColumn, sel)
	params := s.store.Config().ParametersFor(key)
	return &View{
		PlotKey:   key,
		Selection: sel,
		Slice:     sl,
		Plot:      plot.Assemble(sl, sel, spec, params),
		Summary:   engine.Summarize(sl, len(sel)),
		Degraded:  ix.Unselectable(),
	}, nil
}

// Switch activates a plot with its default selection.
func (s *Service) Switch(key string) (*View, error) {
	sel, _, err := s.DefaultSelection(key)
	if err != nil {
		return nil, err
	}
	return s.View(key, sel)
}
