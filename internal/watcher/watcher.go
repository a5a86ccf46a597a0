// Package watcher reports OFX files that change inside a directory.
//
// Events are debounced: a burst of writes to one or more files yields a
// single batch naming each changed file once.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/ofxkit/internal/log"
)

// DefaultExtensions are the file suffixes watched when none are configured.
var DefaultExtensions = []string{".ofx", ".qfx"}

// Watcher monitors one directory.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	dir        string
	debounce   time.Duration
	extensions []string
	onChange   chan []string
	done       chan struct{}
	stopOnce   sync.Once
}

// Config holds watcher options.
type Config struct {
	Dir         string
	DebounceDur time.Duration
	// Extensions are matched case-insensitively against file names.
	Extensions []string
}

// DefaultConfig returns a one second debounce over DefaultExtensions.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		DebounceDur: time.Second,
		Extensions:  DefaultExtensions,
	}
}

// New creates a watcher. Start must be called to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	lower := make([]string, len(exts))
	for i, e := range exts {
		lower[i] = strings.ToLower(e)
	}
	return &Watcher{
		fsWatcher:  fsw,
		dir:        cfg.Dir,
		debounce:   cfg.DebounceDur,
		extensions: lower,
		onChange:   make(chan []string, 1),
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching and returns the channel of changed-file batches.
// Paths in a batch are sorted.
func (w *Watcher) Start() (<-chan []string, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	log.Info(log.CatWatcher, "watching", "dir", w.dir, "extensions", strings.Join(w.extensions, ","))
	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher. Calls after the first return nil.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = map[string]struct{}{}
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)
			select {
			case w.onChange <- batch:
				pending = map[string]struct{}{}
			default:
				// consumer busy; keep the files for the next batch
				timer.Reset(w.debounce)
				timerC = timer.C
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "fsnotify error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return slices.Contains(w.extensions, ext)
}
