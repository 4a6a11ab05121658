package server

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/source"
)

const watchDebounce = 500 * time.Millisecond

// Watcher reports changes to export files under the input paths.
type Watcher struct {
	fw    *fsnotify.Watcher
	files map[string]bool // explicit input files
	dirs  map[string]bool // input directories and their subdirectories
	log   *logger.Logger
}

// NewWatcher watches each input directory tree, and the parent directory
// of each input file.
func NewWatcher(inputs []string, log *logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fw: fw, log: logger.OrNop(log)}
	w.files, w.dirs = watchTargets(inputs)

	added := make(map[string]bool)
	add := func(dir string) {
		if added[dir] {
			return
		}
		added[dir] = true
		if err := fw.Add(dir); err != nil {
			w.log.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}
	for dir := range w.dirs {
		add(dir)
	}
	for file := range w.files {
		add(filepath.Dir(file))
	}
	return w, nil
}

// watchTargets splits inputs into explicit files and the directories
// whose export files count. Missing paths are treated as files.
func watchTargets(inputs []string) (files, dirs map[string]bool) {
	files = make(map[string]bool)
	dirs = make(map[string]bool)
	for _, in := range inputs {
		in = filepath.Clean(in)
		info, err := os.Stat(in)
		if err != nil || !info.IsDir() {
			files[in] = true
			continue
		}
		_ = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				dirs[path] = true
			}
			return nil
		})
	}
	return files, dirs
}

// relevant reports whether an event path should trigger a reload.
func (w *Watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if w.files[path] {
		return true
	}
	return w.dirs[filepath.Dir(path)] && source.IsDataFile(filepath.Base(path))
}

// Changes emits once per burst of relevant events, until ctx is done.
func (w *Watcher) Changes(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if ev.Op == fsnotify.Chmod || !w.relevant(ev.Name) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", "error", err)
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
