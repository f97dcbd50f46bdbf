package reference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/palette"
)

// Registry serves the current comparisons. When built with an override
// path it reads sets from that file, falling back to the embedded sets
// when the file is absent.
type Registry struct {
	engine *palette.Engine
	path   string

	mu          sync.RWMutex
	comparisons map[int]*Comparison
	loadedFrom  string
}

// NewRegistry scores the sets once. path may be empty.
func NewRegistry(e *palette.Engine, path string) (*Registry, error) {
	r := &Registry{engine: e, path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rescans the set file and replaces the comparisons. On error the
// previous comparisons stay in place.
func (r *Registry) Reload() error {
	defer applog.Log.Timed("reference.Reload")()

	f, from, err := r.read()
	if err != nil {
		return err
	}
	cmps, err := Compare(r.engine, f)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.comparisons = cmps
	r.loadedFrom = from
	r.mu.Unlock()

	applog.Log.Info("Reference palettes scored", "source", from, "sets", len(f.Sets), "sizes", f.Sizes)
	return nil
}

func (r *Registry) read() (File, string, error) {
	if r.path == "" || !fileExists(r.path) {
		return Builtin(), "builtin", nil
	}
	f, err := Load(r.path)
	if err != nil {
		return File{}, "", err
	}
	return f, r.path, nil
}

// Source reports where the current sets came from: a path or "builtin".
func (r *Registry) Source() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedFrom
}

// Sizes returns the scored sizes in ascending order.
func (r *Registry) Sizes() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sizes := make([]int, 0, len(r.comparisons))
	for n := range r.comparisons {
		sizes = append(sizes, n)
	}
	slices.Sort(sizes)
	return sizes
}

// Comparison returns the comparison at size n.
func (r *Registry) Comparison(n int) (*Comparison, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comparisons[n]
	return c, ok
}

// Watch reloads the registry whenever the override file changes, until ctx
// is canceled. Rapid writes are coalesced over debounce. The parent
// directory is watched so the file may be created or replaced atomically.
func (r *Registry) Watch(ctx context.Context, debounce time.Duration) error {
	if r.path == "" {
		return fmt.Errorf("watch reference palettes: no override path")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch reference palettes: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	applog.Log.Info("Watching reference palettes", "path", r.path)

	go r.watchLoop(ctx, w, debounce)
	return nil
}

func (r *Registry) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration) {
	defer w.Close()

	target := filepath.Clean(r.path)
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := r.Reload(); err != nil {
					applog.Log.Warn("Reference palette reload failed", "path", r.path, "error", err)
				}
			})
			mu.Unlock()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			applog.Log.Error("Reference watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
