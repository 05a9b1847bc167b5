// Package watcher provides debounced filesystem watching for module file
// trees. It monitors a directory recursively, filters events through glob
// patterns, and coalesces bursts of events for the same file (an editor
// writing then renaming a temp file) into a single Event delivered on a
// channel, so a single consumer can process file changes one at a time.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period after the last event for a file before
// it is delivered. Long enough to swallow editor write bursts, short enough
// to feel immediate.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores are always excluded, regardless of configured patterns.
// They cover VCS metadata, editor swap files, our own temp/sidecar noise and
// OS metadata.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/*.tmp",
	"**/.DS_Store",
}

// Op classifies a coalesced file event.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one debounced change to a watched file. Path is relative to the
// watched base directory.
type Event struct {
	Path string
	Op   Op
}

// Config holds the parameters for a Watcher.
type Config struct {
	// BaseDir is the root directory to watch recursively.
	BaseDir string

	// Patterns are doublestar globs selecting which files produce events,
	// e.g. "**/*.bas". Empty means all non-ignored files.
	Patterns []string

	// Ignore are additional globs for paths that never produce events,
	// merged with the built-in defaults.
	Ignore []string

	// Debounce is the per-file quiet period. Zero or negative falls back to
	// the default.
	Debounce time.Duration
}

// Watcher monitors a directory tree and delivers debounced Events. Run must
// be called exactly once; Events is closed when Run returns.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	baseDir  string
	ignores  []string
	debounce time.Duration
	out      chan Event
	started  bool
	mu       sync.Mutex
}

// New creates a Watcher rooted at cfg.BaseDir and registers every
// non-ignored directory under it.
func New(cfg Config) (*Watcher, error) {
	absBase, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		baseDir:  absBase,
		ignores:  ignores,
		debounce: debounce,
		out:      make(chan Event, 64),
	}

	if err := w.addDirectories(); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Events returns the channel on which debounced events are delivered.
func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Run blocks until ctx is cancelled, translating raw fsnotify events into
// debounced Events. It returns nil on clean cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("watcher Run called more than once")
	}
	w.started = true
	w.mu.Unlock()

	var (
		mu      sync.Mutex
		pending = make(map[string]Op)
		timer   *time.Timer
	)

	// flush drains the pending set in the event goroutine's timer context
	// and delivers one Event per coalesced path.
	flush := func() {
		mu.Lock()
		batch := pending
		pending = make(map[string]Op)
		mu.Unlock()

		for path, op := range batch {
			select {
			case w.out <- Event{Path: path, Op: op}:
			case <-ctx.Done():
				return
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil {
			localTimer.Stop()
		}
		w.fsw.Close()
		close(w.out)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("fsnotify event channel closed unexpectedly")
			}

			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}

			// Newly created directories extend the recursive watch even
			// when they match no file pattern.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			if w.isIgnored(rel) || !w.matchesPatterns(rel) {
				continue
			}

			op, ok := coalesce(evt)
			if !ok {
				continue
			}

			mu.Lock()
			prev, had := pending[rel]
			pending[rel] = merge(prev, op, had)
			if timer == nil {
				timer = time.AfterFunc(w.debounce, flush)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("fsnotify error channel closed unexpectedly")
			}
			return fmt.Errorf("fsnotify watcher error: %w", err)
		}
	}
}

// coalesce maps a raw fsnotify event to an Op. Chmod-only events are noise.
func coalesce(evt fsnotify.Event) (Op, bool) {
	switch {
	case evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename):
		return OpRemove, true
	case evt.Has(fsnotify.Create):
		return OpCreate, true
	case evt.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// merge combines a pending op with a new one for the same path. A remove
// always wins over earlier writes; a create followed by writes stays a
// create; a remove followed by a create is a write (the file was replaced).
func merge(prev Op, next Op, hadPrev bool) Op {
	if !hadPrev {
		return next
	}
	switch {
	case prev == OpRemove && next == OpCreate:
		return OpWrite
	case next == OpRemove:
		return OpRemove
	case prev == OpCreate:
		return OpCreate
	default:
		return next
	}
}

// addDirectories walks BaseDir and registers every non-ignored directory.
// Inaccessible paths are skipped rather than aborting the walk.
func (w *Watcher) addDirectories() error {
	return filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(w.baseDir, path)
		if err != nil {
			return nil
		}
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

// maybeAddDir registers a newly created directory.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	w.fsw.Add(path)
}

func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.cfg.Patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}
