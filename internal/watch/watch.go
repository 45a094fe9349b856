// Package watch reloads plot datasets when their source files change.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/gommon/log"

	"paramview/internal/config"
	"paramview/internal/engine"
)

// DefaultDelay is how long a file must stay quiet before it is reloaded.
// Writers often touch a file several times in a row.
const DefaultDelay = 500 * time.Millisecond

type Reloader struct {
	store   *engine.Store
	watcher *fsnotify.Watcher
	Delay   time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	fire    chan string
	done    chan struct{}
}

// New watches the directories holding every configured source file.
// Directories rather than files are watched so that editors replacing a
// file by rename are noticed.
func New(store *engine.Store) (*Reloader, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]bool)
	for _, key := range store.Config().PlotKeys() {
		path, err := store.Config().SourcePath(key)
		if err != nil {
			continue
		}
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
		dirs[dir] = true
	}
	return &Reloader{
		store:   store,
		watcher: w,
		Delay:   DefaultDelay,
		pending: make(map[string]*time.Timer),
		fire:    make(chan string, 16),
		done:    make(chan struct{}),
	}, nil
}

// PlotsForPath lists the plots whose source is path.
func PlotsForPath(cfg *config.Config, path string) []string {
	path = filepath.Clean(path)
	var keys []string
	for _, key := range cfg.PlotKeys() {
		src, err := cfg.SourcePath(key)
		if err == nil && filepath.Clean(src) == path {
			keys = append(keys, key)
		}
	}
	return keys
}

// Run processes file events until ctx is done. It must be called at most
// once.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()
	defer close(r.done)
	defer r.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				r.schedule(ev.Name)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("watch: %v", err)
		case path := <-r.fire:
			r.reload(ctx, path)
		}
	}
}

func (r *Reloader) schedule(path string) {
	if len(PlotsForPath(r.store.Config(), path)) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.pending[path]; ok {
		t.Reset(r.Delay)
		return
	}
	r.pending[path] = time.AfterFunc(r.Delay, func() {
		r.mu.Lock()
		delete(r.pending, path)
		r.mu.Unlock()
		r.emit(path)
	})
}

// emit hands a quiet path to Run, dropping it once Run has returned.
func (r *Reloader) emit(path string) {
	select {
	case r.fire <- path:
	case <-r.done:
	}
}

func (r *Reloader) stopTimers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path, t := range r.pending {
		t.Stop()
		delete(r.pending, path)
	}
}

func (r *Reloader) reload(ctx context.Context, path string) {
	for _, key := range PlotsForPath(r.store.Config(), path) {
		if err := r.store.Load(ctx, key); err != nil {
			log.Errorf("watch: reload %s: %v", key, err)
			continue
		}
		log.Infof("watch: reloaded %s from %s", key, path)
	}
}
