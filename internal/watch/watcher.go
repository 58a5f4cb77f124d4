// Package watch reports edits made to the configuration file by other
// processes or by hand.
package watch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/schedprefs/internal/storage"
	"github.com/standardbeagle/schedprefs/pkg/events"
)

// DefaultDelay is how long the file must be quiet before a change is
// reported.
const DefaultDelay = 100 * time.Millisecond

// Source is the store whose file is watched.
type Source interface {
	Path() string
	MatchesLastWrite(data []byte) bool
}

// Change is one debounced modification of the watched file.
type Change struct {
	Path    string
	Removed bool
	Data    []byte
	At      time.Time
}

// Watcher watches the directory holding the config file and reports
// changes to that file only. Writes the store made itself are not
// reported.
type Watcher struct {
	source Source
	path   string
	delay  time.Duration
	bus    *events.EventBus
	logger *log.Logger
	files  *storage.FileStore

	fs *fsnotify.Watcher

	// fireMu keeps reports in order; a timer reset after firing runs
	// fire on a new goroutine
	fireMu sync.Mutex

	mu        sync.Mutex
	timer     *time.Timer
	callbacks []func(Change)
	closed    bool
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

type Option func(*Watcher)

// WithDelay sets the debounce delay. Non-positive values use DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithEventBus publishes a ConfigFileChanged event for each change.
func WithEventBus(bus *events.EventBus) Option {
	return func(w *Watcher) { w.bus = bus }
}

func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher for source's file. The containing directory is
// created if needed, since editors replace files by rename and only a
// directory watch survives that.
func New(source Source, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		source:  source,
		path:    filepath.Clean(source.Path()),
		delay:   DefaultDelay,
		logger:  log.Default(),
		files:   storage.NewFileStore(),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, storage.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	w.fs = fsw
	return w, nil
}

// OnChange registers a callback. Callbacks run on a timer goroutine, one
// change at a time, so they never overlap each other.
func (w *Watcher) OnChange(callback func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins processing file system events.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop cancels any pending report and closes the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.schedule()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Printf("Warning: config watcher error: %v", err)
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.delay)
		return
	}
	w.timer = time.AfterFunc(w.delay, w.fire)
}

func (w *Watcher) fire() {
	w.fireMu.Lock()
	defer w.fireMu.Unlock()

	data, exists, err := w.files.ReadFile(w.path)
	if err != nil {
		w.logger.Printf("Warning: %v", err)
		return
	}
	if exists && w.source.MatchesLastWrite(data) {
		return
	}

	change := Change{
		Path:    w.path,
		Removed: !exists,
		Data:    data,
		At:      time.Now(),
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	callbacks := make([]func(Change), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	if w.bus != nil {
		w.bus.Publish(events.Event{
			Type:   events.ConfigFileChanged,
			Source: w.path,
			Data: map[string]interface{}{
				"removed": change.Removed,
				"bytes":   len(data),
			},
		})
	}
	for _, callback := range callbacks {
		callback(change)
	}
}
