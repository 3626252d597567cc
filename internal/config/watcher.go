package config

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes and hands the result to a
// callback. Editors typically replace files rather than write in place, so
// the watch is on the parent directory and events are filtered by name.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	logger   *log.Logger
	onUpdate func(Update)
	done     chan struct{}
}

// Watch starts watching path. onUpdate is called from the watcher goroutine
// with the freshly loaded file contents; load failures are logged and
// swallowed so a half-saved file never kills the daemon.
func Watch(path string, logger *log.Logger, onUpdate func(Update)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		fw:       fw,
		logger:   logger,
		onUpdate: onUpdate,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			u, err := LoadFileFrom(w.path)
			if err != nil {
				w.logger.Warn("config reload failed", "path", w.path, "err", err)
				continue
			}
			w.logger.Debug("config file reloaded", "path", w.path)
			w.onUpdate(u)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "err", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to drain.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
