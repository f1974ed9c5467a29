package artifact

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called when a watched artifact file changes on disk.
type ChangeFunc func(path string, op fsnotify.Op)

// Watch reports writes, renames and removals of the artifact files until ctx
// is done. Loaded artifacts are never reloaded; a change means the process
// must be restarted to pick it up. Watch returns once the watcher is set up.
func Watch(ctx context.Context, paths Paths, onChange ChangeFunc, onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create artifact watcher: %w", err)
	}

	// Watch parent directories so atomic rename-over replacements are seen.
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{paths.Model, paths.FeatureNames, paths.Metrics} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return fmt.Errorf("resolve %q: %w", p, err)
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %q: %w", dir, err)
		}
	}

	const interesting = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				abs, err := filepath.Abs(event.Name)
				if err != nil || !files[abs] || event.Op&interesting == 0 {
					continue
				}
				if onChange != nil {
					onChange(abs, event.Op)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			}
		}
	}()
	return nil
}
