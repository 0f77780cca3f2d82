// Package watch implements a filesystem watcher
package watch

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rjeczalik/notify"
)

// Settle is how long the watcher waits for changes to stop before notifying
const Settle = 25 * time.Millisecond

// A Watcher receives notifications of changes
type Watcher interface {
	Changed(evs Events)
}

// WatcherFunc adapts a func to a Watcher
type WatcherFunc func(evs Events)

// Changed implements Watcher
func (f WatcherFunc) Changed(evs Events) { f(evs) }

// Watch wraps file system watchers and provides a nice interface to receive
// change notifications
type Watch struct {
	evs      chan notify.EventInfo
	watchers chan Watcher
}

// New creates a new Watch that monitors the given dirs
func New(dirs ...string) (*Watch, error) {
	w := &Watch{
		evs:      make(chan notify.EventInfo, 16),
		watchers: make(chan Watcher, 1),
	}

	err := w.Watch(dirs...)
	if err != nil {
		notify.Stop(w.evs)
		return nil, err
	}

	go w.run()
	return w, nil
}

// Watch adds additional dirs to the watch
func (w *Watch) Watch(dirs ...string) error {
	for _, dir := range dirs {
		err := notify.Watch(dir, w.evs, notify.All)
		if err != nil {
			return errors.Wrapf(err, "failed to watch %q", dir)
		}
	}

	return nil
}

// Notify notifies the given Watcher of changes as they happen
func (w *Watch) Notify(wr Watcher) {
	if wr != nil {
		w.watchers <- wr
	}
}

// Stop terminates this instance
func (w *Watch) Stop() {
	notify.Stop(w.evs)
	close(w.evs)
}

func (w *Watch) run() {
	delay := time.NewTimer(time.Hour)
	delay.Stop()

	var evs Events
	var watchers []Watcher

	for {
		select {
		case wr := <-w.watchers:
			watchers = append(watchers, wr)

		case ev := <-w.evs:
			if ev == nil {
				return
			}

			evs = append(evs, ev)
			delay.Reset(Settle)

		case <-delay.C:
			for _, wr := range watchers {
				wr.Changed(evs)
			}

			evs = nil
		}
	}
}

// Events is a collection of change events
type Events []notify.EventInfo

// HasExt checks if any event path has the given extension
func (evs Events) HasExt(ext string) bool {
	for _, ev := range evs {
		if filepath.Ext(ev.Path()) == ext {
			return true
		}
	}

	return false
}

// Has checks if any event is for the given path
func (evs Events) Has(path string) bool {
	path = filepath.Clean(path)

	for _, ev := range evs {
		if filepath.Clean(ev.Path()) == path {
			return true
		}
	}

	return false
}
