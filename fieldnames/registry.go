package fieldnames

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giygas/smpc-comparator/logging"
)

// Registry resolves labels from the built-in table merged with an optional
// override file. Lookups are lock free; reloads swap the whole table.
type Registry struct {
	table      atomic.Pointer[map[string]string]
	generation atomic.Uint64
}

// NewRegistry returns a registry holding the built-in table
func NewRegistry() *Registry {
	r := &Registry{}
	table := Defaults()
	r.table.Store(&table)
	return r
}

// DisplayName returns the label for key
func (r *Registry) DisplayName(key string) string {
	if label, ok := (*r.table.Load())[key]; ok {
		return label
	}
	return Humanize(key)
}

// Table returns a copy of the current table
func (r *Registry) Table() map[string]string {
	return maps.Clone(*r.table.Load())
}

// Generation increases every time the table is replaced
func (r *Registry) Generation() uint64 {
	return r.generation.Load()
}

// LoadOverrides merges the YAML file at path over the built-in table.
// An empty path resets to the defaults.
func (r *Registry) LoadOverrides(path string) error {
	table := Defaults()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("failed to read field name overrides %s: %w", path, err)
		}
		overrides, err := parseTable(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		maps.Copy(table, overrides)
	}

	r.table.Store(&table)
	r.generation.Add(1)
	return nil
}

// Watch reloads the override file whenever it changes, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(100 * time.Millisecond)
			}

		case <-debounce:
			debounce = nil
			if err := r.LoadOverrides(target); err != nil {
				logging.Warn("Failed to reload field name overrides", "path", target, "error", err)
				continue
			}
			logging.Info("Field name overrides reloaded", "path", target, "generation", r.Generation())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Field name watcher error", "error", err)
		}
	}
}
