// Package watcher reports MED-PC data files that appear or change in a
// directory. Writes are debounced per file so a session file that MED-PC is
// still appending to produces one event once it goes quiet.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/harrison/mpcdata/internal/fileutil"
)

// Op is the kind of change reported for a file
type Op int

const (
	// Changed means the file was created or written and has been quiet for
	// the debounce delay
	Changed Op = iota
	// Removed means the file was deleted or moved away
	Removed
)

// String returns a human-readable representation of the operation
func (op Op) String() string {
	switch op {
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a change to a data file
type Event struct {
	Path      string    // Absolute path to the file
	Op        Op        // Type of change
	Timestamp time.Time // When the event was emitted
}

// DefaultDebounceDelay is the quiet period used when none is configured
const DefaultDebounceDelay = 500 * time.Millisecond

// Watcher watches a directory tree for data file changes
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	rootDir string
	matcher *fileutil.Matcher
	opts    fileutil.ScanOptions

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	closed        bool
}

// New starts watching rootDir. Files are filtered with the same rules as a
// directory scan; subdirectories are watched when opts.Recursive is set.
// A debounce of zero means DefaultDebounceDelay.
func New(rootDir string, opts fileutil.ScanOptions, debounce time.Duration) (*Watcher, error) {
	if strings.HasPrefix(rootDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		rootDir = filepath.Join(home, rootDir[1:])
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}

	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", rootDir)
	}

	matcher, err := fileutil.NewMatcher(opts)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounceDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:       fsw,
		events:        make(chan Event, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		rootDir:       rootDir,
		matcher:       matcher,
		opts:          opts,
		debounceDelay: debounce,
		debounceMap:   make(map[string]*time.Timer),
	}

	if err := w.addDir(rootDir); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.processEvents()

	return w, nil
}

// addDir adds dir, and its subdirectories when recursive, to the watcher
func (w *Watcher) addDir(dir string) error {
	if !w.opts.Recursive {
		return w.watcher.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootDir && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

func (w *Watcher) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ex := range w.opts.ExcludeDirs {
		if name == ex {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) && w.opts.Recursive {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.skipDir(info.Name()) {
				if err := w.addDir(path); err != nil {
					w.sendError(err)
				}
			}
			return
		}
	}

	if !w.matcher.Match(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.debounce(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(path)
		w.sendEvent(path, Removed)
	}
}

// debounce restarts the quiet timer of path
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()

		w.sendEvent(path, Changed)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
		delete(w.debounceMap, path)
	}
}

func (w *Watcher) sendEvent(path string, op Op) {
	event := Event{
		Path:      path,
		Op:        op,
		Timestamp: time.Now(),
	}

	select {
	case w.events <- event:
	case <-w.done:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// Error channel full, drop the error
	}
}

// Events returns the channel of file events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// RootDir returns the absolute directory being watched
func (w *Watcher) RootDir() string {
	return w.rootDir
}

// Close stops the watcher and cancels pending events
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, timer := range w.debounceMap {
		timer.Stop()
	}
	w.debounceMap = nil
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}

// ErrUnstable is returned by WaitStable while a file keeps changing
var ErrUnstable = errors.New("file is still being written")

// WaitStable blocks until two consecutive stats of path, interval apart,
// report the same size and modification time, giving up after maxWait.
// A missing file is a permanent error.
func WaitStable(ctx context.Context, path string, interval, maxWait time.Duration) error {
	last, err := os.Stat(path)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(interval):
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = interval
	policy.MaxInterval = 4 * interval
	policy.MaxElapsedTime = maxWait

	return backoff.Retry(func() error {
		info, err := os.Stat(path)
		if err != nil {
			return backoff.Permanent(err)
		}
		if info.Size() != last.Size() || !info.ModTime().Equal(last.ModTime()) {
			last = info
			return ErrUnstable
		}
		return nil
	}, backoff.WithContext(policy, ctx))
}
