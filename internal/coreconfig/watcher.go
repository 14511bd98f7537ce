package coreconfig

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings.json file whenever it changes on disk and
// publishes each successfully reloaded Config on Updates. Modeled on
// the teacher's internal/watcher directory-scan producer: a single
// fsnotify.Watcher feeding one consumer channel, with malformed writes
// logged and skipped rather than torn down.
type Watcher struct {
	Updates chan Config

	fsw  *fsnotify.Watcher
	path string
	done chan struct{}
}

// WatchFile starts watching path's containing directory (fsnotify
// watches directories more reliably than individual files across
// editors that write-then-rename) and reloads path whenever it
// changes.
func WatchFile(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		Updates: make(chan Config, 1),
		fsw:     fsw,
		path:    path,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.Updates)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c, err := Load(w.path)
			if err != nil {
				log.Printf("coreconfig: reload of %s failed, keeping previous config: %v", w.path, err)
				continue
			}
			select {
			case w.Updates <- c:
			default:
				// Drop a stale pending update in favor of the fresh one.
				select {
				case <-w.Updates:
				default:
				}
				w.Updates <- c
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("coreconfig: watcher error for %s: %v", w.path, err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
