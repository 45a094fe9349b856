package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"paramview/internal/config"
	"paramview/internal/models"
)

// entry pairs a dataset with the index built from it. Entries are never
// mutated; a reload installs a new one.
type entry struct {
	dataset  *Dataset
	index    models.Index
	loadedAt time.Time
}

// Store owns the dataset and parameter index of every registered plot.
// Readers always observe a matching dataset/index pair.
type Store struct {
	cfg *config.Config

	mu      sync.RWMutex
	entries map[string]*entry

	sources singleflight.Group
}

func NewStore(cfg *config.Config) *Store {
	return &Store{cfg: cfg, entries: make(map[string]*entry)}
}

func (s *Store) Config() *config.Config { return s.cfg }

// Register installs ds as the dataset of a configured plot and builds its
// parameter index, replacing any previous pair in one step.
func (s *Store) Register(key string, ds *Dataset) error {
	if _, ok := s.cfg.Plot(key); !ok {
		return fmt.Errorf("%w: %q", ErrSchemaMissing, key)
	}
	if ds.Key != key {
		ds = ds.WithKey(key)
	}
	e := &entry{
		dataset:  ds,
		index:    BuildIndex(ds, s.cfg.ParameterNames(key)),
		loadedAt: time.Now(),
	}
	if empty := e.index.Unselectable(); len(empty) > 0 {
		log.Warnf("engine: %s: %v: %v", key, ErrEmptyIndex, empty)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) lookup(key string) (*entry, error) {
	if _, ok := s.cfg.Plot(key); !ok {
		return nil, fmt.Errorf("%w: %q", ErrSchemaMissing, key)
	}
	s.mu.RLock()
	e := s.entries[key]
	s.mu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotLoaded, key)
	}
	return e, nil
}

// Get returns the dataset registered for key.
func (s *Store) Get(key string) (*Dataset, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.dataset, nil
}

// Index returns the parameter index of key's dataset.
func (s *Store) Index(key string) (models.Index, error) {
	e, err := s.lookup(key)
	if err != nil {
		return models.Index{}, err
	}
	return e.index, nil
}

// Snapshot returns the dataset and index of key as one consistent pair.
func (s *Store) Snapshot(key string) (*Dataset, models.Index, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, models.Index{}, err
	}
	return e.dataset, e.index, nil
}

// LoadedAt reports when key was last registered.
func (s *Store) LoadedAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.entries[key]; e != nil {
		return e.loadedAt, true
	}
	return time.Time{}, false
}

// DefaultPlotKey resolves the plot that should be active: the configured
// default when it exists and is enabled, else the first enabled plot in
// configuration order. It returns false when no plot is enabled.
func (s *Store) DefaultPlotKey() (string, bool) {
	if spec, ok := s.cfg.Plot(s.cfg.DefaultPlot); ok && spec.IsEnabled() {
		return spec.Key, true
	}
	if enabled := s.cfg.EnabledPlots(); len(enabled) > 0 {
		return enabled[0].Key, true
	}
	return "", false
}

// readSource parses a source file once even when several callers ask for
// it at the same time.
func (s *Store) readSource(path string) (*Dataset, error) {
	v, err, _ := s.sources.Do(path, func() (interface{}, error) {
		return LoadDataset("", path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Load (re)loads one plot from its configured source. On failure the
// previously registered dataset of that plot, if any, stays in place.
func (s *Store) Load(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.cfg.Plot(key); !ok {
		return fmt.Errorf("%w: %q", ErrSchemaMissing, key)
	}
	path, err := s.cfg.SourcePath(key)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, key, err)
	}
	ds, err := s.readSource(path)
	if err != nil {
		return fmt.Errorf("plot %s: %w", key, err)
	}
	return s.Register(key, ds)
}

// LoadAll loads every configured plot, enabled or not. Plots sharing a
// source file share one parse. Failures are collected per plot and joined;
// plots that loaded are registered regardless.
func (s *Store) LoadAll(ctx context.Context) error {
	start := time.Now()

	bySource := make(map[string][]string)
	var order []string
	var errs []error
	for _, key := range s.cfg.PlotKeys() {
		path, err := s.cfg.SourcePath(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("plot %s: %w: %v", key, ErrSourceUnavailable, err))
			continue
		}
		if _, seen := bySource[path]; !seen {
			order = append(order, path)
		}
		bySource[path] = append(bySource[path], key)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range order {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys := bySource[path]
			ds, err := s.readSource(path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				for _, key := range keys {
					errs = append(errs, fmt.Errorf("plot %s: %w", key, err))
				}
				return nil
			}
			for _, key := range keys {
				if err := s.Register(key, ds); err != nil {
					errs = append(errs, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	log.Infof("engine: loaded %d/%d plots in %v", len(s.Loaded()), len(s.cfg.Plots), time.Since(start))
	return errors.Join(errs...)
}

// Loaded lists the registered plot keys in configuration order.
func (s *Store) Loaded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for _, key := range s.cfg.PlotKeys() {
		if s.entries[key] != nil {
			keys = append(keys, key)
		}
	}
	return keys
}
