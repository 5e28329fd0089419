package catalog

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileWatcher triggers a callback when one of the watched files changes.
// Directories are watched instead of the files so that editors replacing a
// file by rename are still seen.
type FileWatcher struct {
	Paths    []string
	onChange func(string) // called with path that changed

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	logger  *zap.Logger
}

// NewFileWatcher creates a watcher for the given paths.
func NewFileWatcher(paths []string, onChange func(string), logger *zap.Logger) *FileWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWatcher{
		Paths:    paths,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger.Named("catalog.watch"),
	}
}

// Start begins watching in a goroutine.
func (w *FileWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	wanted := make(map[string]struct{}, len(w.Paths))
	dirs := make(map[string]struct{})
	for _, p := range w.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return errors.Wrapf(err, "resolve %s", p)
		}
		wanted[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return errors.Wrapf(err, "watch %s", d)
		}
	}
	w.watcher = fw

	go func() {
		defer close(w.doneCh)
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				abs, _ := filepath.Abs(ev.Name)
				if _, ok := wanted[abs]; !ok {
					continue
				}
				w.logger.Debug("file changed", zap.String("path", abs), zap.String("op", ev.Op.String()))
				if w.onChange != nil {
					w.onChange(abs)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", zap.Error(err))
			case <-w.stopCh:
				return
			}
		}
	}()
	return nil
}

// Stop terminates the watcher and waits for its goroutine.
func (w *FileWatcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.stopCh)
	_ = w.watcher.Close()
	<-w.doneCh
}
