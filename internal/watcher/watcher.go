package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a file must stay quiet before it is handed on.
const DefaultDebounce = 500 * time.Millisecond

// Inbox watches a directory for evaluation documents. Each new or rewritten
// file with a matching extension is handed to onFile once writes to it have
// settled. Subdirectories are not watched.
type Inbox struct {
	dir        string
	onFile     func(path string)
	debounce   time.Duration
	extensions []string
	log        zerolog.Logger
}

// New creates an inbox watcher for dir that accepts .json files
func New(dir string, onFile func(path string), log zerolog.Logger) *Inbox {
	dir = filepath.Clean(dir)
	return &Inbox{
		dir:        dir,
		onFile:     onFile,
		debounce:   DefaultDebounce,
		extensions: []string{".json"},
		log:        log.With().Str("component", "inbox").Str("dir", dir).Logger(),
	}
}

// WithDebounce sets the debounce duration
func (w *Inbox) WithDebounce(d time.Duration) *Inbox {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithExtensions replaces the accepted file extensions (with leading dot)
func (w *Inbox) WithExtensions(exts ...string) *Inbox {
	w.extensions = exts
	return w
}

// Dir returns the watched directory in cleaned form
func (w *Inbox) Dir() string {
	return w.dir
}

func (w *Inbox) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Pending returns the matching files already in the directory, sorted by
// name.
func (w *Inbox) Pending() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !w.accepts(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch hands files already waiting in the inbox to onFile, then watches
// for new ones. onFile always runs on the Watch goroutine. It blocks until
// the context is cancelled or the watcher fails.
func (w *Inbox) Watch(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	pending, err := w.Pending()
	if err != nil {
		return err
	}
	for _, path := range pending {
		w.onFile(path)
	}

	w.log.Info().Dur("debounce", w.debounce).Msg("watching inbox")

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	ready := make(chan string)

	stopAll := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, timer := range timers {
			timer.Stop()
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.accepts(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			path := event.Name
			mu.Lock()
			if timer, exists := timers[path]; exists {
				timer.Stop()
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})
			mu.Unlock()

		case path := <-ready:
			mu.Lock()
			delete(timers, path)
			mu.Unlock()

			if _, err := os.Stat(path); err != nil {
				w.log.Debug().Str("file", path).Msg("file vanished before processing")
				continue
			}
			w.log.Debug().Str("file", path).Msg("file settled")
			w.onFile(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-ctx.Done():
			stopAll()
			return ctx.Err()
		}
	}
}
