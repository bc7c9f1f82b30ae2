package watch

import (
	"path/filepath"
	"sync"
	"time"

	"csvsync/internal/errors"
	"csvsync/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Event is a change to the watched manifest
type Event struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher reports changes to a single manifest file. It watches the parent
// directory so editors that save by renaming a temp file are still seen.
type Watcher struct {
	// Cleaned absolute manifest path
	path string

	// Channel to receive manifest changes
	events chan Event

	// Channel to signal stop
	stopChan chan struct{}

	// Closed once the forwarding goroutine has returned
	done chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	stopped bool
}

// New creates a watcher for the manifest at path
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", path)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	dir := filepath.Dir(abs)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, errors.Wrapf(err, "failed to add directory %s to watcher", dir)
	}

	return &Watcher{
		path:      abs,
		events:    make(chan Event, 10),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// Path returns the absolute manifest path being watched
func (w *Watcher) Path() string {
	return w.path
}

// Events returns the channel that delivers manifest changes
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins forwarding manifest events
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.Newf("watcher already running: %s", w.path)
	}
	if w.stopped {
		w.mutex.Unlock()
		return errors.Newf("watcher was stopped: %s", w.path)
	}
	w.running = true
	w.mutex.Unlock()

	go func() {
		defer close(w.done)
		defer close(w.events)
		log.Debugf("Watching %s", w.path)

		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
					continue
				}

				// Never block the fsnotify loop; a dropped event is covered by
				// the debounce of the one already queued.
				select {
				case w.events <- Event{Path: w.path, Op: event.Op, Timestamp: time.Now()}:
				default:
					log.LogWithFields(log.F("file", event.Name)).Debug("Event channel is full, dropped event")
				}

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

			case <-w.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop releases the fsnotify watcher, whether or not Start was called. The
// event channel is closed once it returns. A stopped watcher cannot restart.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stopChan)

	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}

	if !w.running {
		// No forwarding goroutine owns the channel
		close(w.events)
		return
	}
	w.running = false
	<-w.done
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}
