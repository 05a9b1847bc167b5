package sync_engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/officeforge/vbasync/header_codec"
	"github.com/officeforge/vbasync/utils"
	"github.com/officeforge/vbasync/vba_project"
	"github.com/officeforge/vbasync/vba_project/models"
	"github.com/officeforge/vbasync/watcher"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxReconnect = 5
)

// EditOptions configures a live edit session.
type EditOptions struct {
	// Debounce is the quiet period applied to file events before they are
	// imported. Zero uses the watcher default.
	Debounce time.Duration

	// PollInterval is how often the host is probed for reachability and new
	// saves. Zero uses the default.
	PollInterval time.Duration

	// MaxReconnectAttempts is the number of consecutive failed reachability
	// probes tolerated before the session ends. Zero uses the default.
	MaxReconnectAttempts int
}

type sessionEventKind int

const (
	evFile sessionEventKind = iota
	evHostSaved
	evHostGone
)

// sessionEvent is one item on the session's single ordered queue. File
// events and host-save notifications are merged here so a single consumer
// applies all changes strictly one at a time; when both sides changed the
// same component, whichever event lands on the queue last wins.
type sessionEvent struct {
	kind sessionEventKind
	file watcher.Event
	err  error
}

// EditSession keeps a host project and its module directory continuously in
// sync: file changes are imported into the host, host saves are exported
// back out. It owns the host connection for its whole lifetime.
type EditSession struct {
	engine *Engine
	opts   EditOptions

	mu           sync.Mutex
	lastSeenSave time.Time
}

// NewEditSession creates an edit session around an engine.
func NewEditSession(engine *Engine, opts EditOptions) *EditSession {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = defaultMaxReconnect
	}
	return &EditSession{engine: engine, opts: opts}
}

// Run performs the initial sync and then blocks, processing file and host
// events until ctx is cancelled or the host becomes unreachable for good.
// Cancellation is a clean stop; both sides are consistent after every
// processed event, so there is no teardown work.
func (s *EditSession) Run(ctx context.Context) error {
	e := s.engine

	// Initial sync. An empty directory gets a full export; a populated one
	// keeps its files (they may carry edits made while no session ran) and
	// only components with no file at all are exported.
	if empty, err := e.targetEmpty(); err != nil {
		return err
	} else if empty {
		if _, err := e.Export(ctx, true); err != nil {
			return err
		}
	} else if err := s.seedFromDisk(ctx); err != nil {
		return err
	}

	if saved, err := e.host.LastSaved(); err == nil {
		s.setLastSeenSave(saved)
	}

	w, err := watcher.New(watcher.Config{
		BaseDir:  e.opts.VBADir,
		Patterns: modulePatterns(),
		Debounce: s.opts.Debounce,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan sessionEvent, 64)
	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Run(ctx) }()
	go forwardFileEvents(ctx, w, queue)
	go s.pollHost(ctx, queue)

	e.logger.Info("edit session started", "dir", e.opts.VBADir, "project", e.host.Name())

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-watchErr:
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				return fmt.Errorf("file watcher failed: %w", err)
			}
			return fmt.Errorf("file watcher stopped unexpectedly")

		case ev := <-queue:
			switch ev.kind {
			case evFile:
				if err := s.handleFileEvent(ctx, ev.file); err != nil {
					e.logger.Warn("failed to apply file change", "path", ev.file.Path, "err", err)
				}
			case evHostSaved:
				if err := s.handleHostSaved(ctx); err != nil {
					e.logger.Warn("failed to export host changes", "err", err)
				}
			case evHostGone:
				return ev.err
			}
		}
	}
}

// seedFromDisk records the current on-disk state of every file that maps to
// a host component, so the first real change is measured against it, then
// exports the components that have no file yet.
func (s *EditSession) seedFromDisk(ctx context.Context) error {
	e := s.engine

	files, err := e.moduleFiles()
	if err != nil {
		return err
	}
	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		text, _, err := e.enc.ReadFile(f.abs, f.name)
		if err != nil {
			e.logger.Warn("failed to read existing file", "path", f.rel, "err", err)
			continue
		}
		e.recordFile(f.name, f.rel, utils.ContentHash(text))
		onDisk[f.name] = true
	}

	snap, err := e.snapshot()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(snap.Components))
	for name := range snap.Components {
		if !onDisk[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, _, err := e.exportComponent(snap.Components[name]); err != nil {
			e.logger.Warn("skipping component", "component", name, "err", err)
		}
	}
	return nil
}

// handleFileEvent imports one changed file into the host, or removes the
// matching component when the file was deleted. A file whose content hash
// matches its record is one of our own exports echoing back and is ignored.
func (s *EditSession) handleFileEvent(ctx context.Context, ev watcher.Event) error {
	e := s.engine

	if ev.Op == watcher.OpRemove {
		return s.removeComponentForPath(ctx, ev.Path)
	}

	name := componentName(ev.Path)
	abs := filepath.Join(e.opts.VBADir, ev.Path)

	text, _, err := e.enc.ReadFile(abs, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // deleted before the debounce fired
		}
		return err
	}
	if rec, ok := e.records.Get(name); ok && rec.Hash == utils.ContentHash(text) {
		return nil
	}

	infos, err := e.host.Components()
	if err != nil {
		return fmt.Errorf("failed to enumerate components: %w", err)
	}
	hostComponents := make(map[string]models.ComponentInfo, len(infos))
	for _, info := range infos {
		hostComponents[info.Name] = info
	}

	f := moduleFile{rel: ev.Path, abs: abs, name: name, ext: strings.ToLower(filepath.Ext(ev.Path))}
	added, synthesized, err := e.importFile(f, hostComponents)
	if err != nil {
		return err
	}
	if synthesized {
		e.logger.Warn("no header found, synthesized a minimal one", "component", name)
	}

	if err := e.host.Save(); err != nil {
		return fmt.Errorf("failed to save host project: %w", err)
	}
	s.refreshLastSeenSave()

	verb := "updated"
	if added {
		verb = "added"
	}
	e.logger.Info("imported file change", "component", name, "path", ev.Path, "action", verb)
	return nil
}

// removeComponentForPath mirrors a file deletion into the host. Document
// modules cannot be removed from a project, so their file is restored
// instead.
func (s *EditSession) removeComponentForPath(ctx context.Context, rel string) error {
	e := s.engine

	name, ok := e.records.ComponentForPath(rel)
	if !ok {
		return nil // never synced, nothing to mirror
	}

	infos, err := e.host.Components()
	if err != nil {
		return fmt.Errorf("failed to enumerate components: %w", err)
	}
	for _, info := range infos {
		if info.Name != name {
			continue
		}
		if info.Kind == models.KindDocument {
			e.logger.Warn("document modules cannot be removed, restoring file", "component", name)
			_, err := e.Export(ctx, false)
			return err
		}
		if err := e.host.Remove(name); err != nil {
			return err
		}
		if err := e.host.Save(); err != nil {
			return fmt.Errorf("failed to save host project: %w", err)
		}
		s.refreshLastSeenSave()
		e.records.Delete(name)
		e.enc.Invalidate(name)
		e.logger.Info("removed component", "component", name, "path", rel)
		return nil
	}

	// Already gone on the host side.
	e.records.Delete(name)
	e.enc.Invalidate(name)
	return nil
}

// handleHostSaved exports components that changed inside the host and
// deletes the files of recorded components the host no longer has. It is
// deliberately not a full mirror: files that never synced (a module the
// user just dropped in, not yet imported) are left alone.
func (s *EditSession) handleHostSaved(ctx context.Context) error {
	e := s.engine

	snap, err := e.snapshot()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(snap.Components))
	for name := range snap.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, wrote, err := e.exportComponent(snap.Components[name])
		if err != nil {
			e.logger.Warn("skipping component", "component", name, "err", err)
			continue
		}
		if wrote {
			e.logger.Info("exported host change", "component", name, "path", rel)
		}
	}

	for _, name := range e.records.Components() {
		if _, ok := snap.Components[name]; ok {
			continue
		}
		if _, skipped := snap.Skipped[name]; skipped {
			continue
		}
		rec, ok := e.records.Get(name)
		if !ok {
			continue
		}
		abs := filepath.Join(e.opts.VBADir, rec.Path)
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to delete file of removed component", "component", name, "err", err)
			continue
		}
		if err := os.Remove(header_codec.SidecarPath(abs)); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to delete sidecar of removed component", "component", name, "err", err)
		}
		e.records.Delete(name)
		e.enc.Invalidate(name)
		e.logger.Info("deleted file of removed component", "component", name, "path", rec.Path)
	}

	if e.opts.SaveMetadata {
		return writeMetadata(e.opts.VBADir, e.host.Name(), e.encodingMode(), e.enc.Recorded(), e.records.All())
	}
	return nil
}

// pollHost probes the host for reachability and new saves. Consecutive
// probe failures beyond the configured limit end the session; a single
// success resets the counter.
func (s *EditSession) pollHost(ctx context.Context, queue chan<- sessionEvent) {
	e := s.engine

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := e.host.Reachable(); err != nil {
			failures++
			e.logger.Warn("host project unreachable", "attempt", failures, "max", s.opts.MaxReconnectAttempts, "err", err)
			if failures >= s.opts.MaxReconnectAttempts {
				send(ctx, queue, sessionEvent{
					kind: evHostGone,
					err:  fmt.Errorf("host project unreachable after %d attempts: %w", failures, err),
				})
				return
			}
			continue
		}
		failures = 0

		saved, err := e.host.LastSaved()
		if err != nil {
			continue
		}
		if saved.After(s.getLastSeenSave()) {
			s.setLastSeenSave(saved)
			send(ctx, queue, sessionEvent{kind: evHostSaved})
		}
	}
}

// forwardFileEvents moves watcher events onto the session queue.
func forwardFileEvents(ctx context.Context, w *watcher.Watcher, queue chan<- sessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.Events():
			if !ok {
				return
			}
			send(ctx, queue, sessionEvent{kind: evFile, file: evt})
		}
	}
}

func send(ctx context.Context, queue chan<- sessionEvent, ev sessionEvent) {
	select {
	case queue <- ev:
	case <-ctx.Done():
	}
}

// refreshLastSeenSave records the host's save time after one of our own
// saves, so the poller does not re-export what we just imported.
func (s *EditSession) refreshLastSeenSave() {
	if saved, err := s.engine.host.LastSaved(); err == nil {
		s.setLastSeenSave(saved)
	}
}

func (s *EditSession) setLastSeenSave(t time.Time) {
	s.mu.Lock()
	s.lastSeenSave = t
	s.mu.Unlock()
}

func (s *EditSession) getLastSeenSave() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeenSave
}

// modulePatterns returns the watcher globs for recognized module files.
func modulePatterns() []string {
	exts := vba_project.Extensions()
	patterns := make([]string, 0, len(exts))
	for _, ext := range exts {
		patterns = append(patterns, "**/*"+ext)
	}
	return patterns
}

// componentName derives the component name from a module file path.
func componentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
