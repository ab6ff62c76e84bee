// Package watch monitors the addon directory and reports script file
// changes, debounced per path, so the bridge can reload scripts that are
// edited on disk.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/hookstorm/internal/logging"
)

// DefaultDebounce is how long a path must stay quiet before it is reported.
// Editors often produce several write events per save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports debounced change notifications for script files in one
// directory. The callback runs on the watcher's goroutine; callers that need
// the event loop must post there themselves.
type Watcher struct {
	fsw      *fsnotify.Watcher
	log      *logging.Logger
	ext      string
	debounce time.Duration
	onChange func(path string)

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New watches dir for writes and creations of files with ext (".lua") and
// invokes onChange with the changed path once the path has been quiet for
// the debounce interval.
func New(dir, ext string, onChange func(path string), log *logging.Logger, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		log:      log.Sub("watch"),
		ext:      ext,
		debounce: DefaultDebounce,
		onChange: onChange,
		pending:  make(map[string]*time.Timer),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Close stops the watcher and cancels pending notifications.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.closeCh)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}
	if filepath.Ext(event.Name) != w.ext {
		return
	}
	w.schedule(event.Name)
}

// schedule starts or restarts the debounce timer for a path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		w.log.Debug().Str("path", path).Msg("script changed")
		w.onChange(path)
	})
}
