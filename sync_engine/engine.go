package sync_engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/officeforge/vbasync/annotation"
	"github.com/officeforge/vbasync/header_codec"
	"github.com/officeforge/vbasync/text_encoding"
	"github.com/officeforge/vbasync/utils"
	"github.com/officeforge/vbasync/vba_project"
	"github.com/officeforge/vbasync/vba_project/contracts"
	"github.com/officeforge/vbasync/vba_project/models"
)

// Options configures a sync engine.
type Options struct {
	// VBADir is the root directory the module files live under.
	VBADir string

	// SaveHeaders stores headers in sibling <name>.header files instead of
	// embedding them at the top of each module file.
	SaveHeaders bool

	// SaveMetadata writes vba_metadata.json after each export, recording
	// the per-component encodings.
	SaveMetadata bool

	// FolderAnnotations enables '@Folder annotation handling.
	FolderAnnotations bool

	// Encoding is the fixed byte encoding for module files; empty means
	// cp1252. DetectEncoding switches unrecorded components to chardet
	// auto-detection.
	Encoding       string
	DetectEncoding bool

	// Logger receives engine-level diagnostics. nil means the default
	// logger.
	Logger *log.Logger
}

// Engine reconciles a host VBA project with a directory of module files. It
// owns the host connection for the duration of a session: no other writer
// may touch the project while a sync run or edit session is active.
type Engine struct {
	host    contracts.HostProject
	opts    Options
	codec   *header_codec.Codec
	ann     *annotation.Resolver
	enc     *text_encoding.Resolver
	records *RecordStore
	logger  *log.Logger
}

// ExportResult summarizes one export run.
type ExportResult struct {
	Written   []string
	Unchanged []string
	Deleted   []string
	Skipped   map[string]string
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported    []string
	Added       []string
	Removed     []string
	Synthesized []string
	Skipped     map[string]string
}

// New creates an engine for the given host project. Configuration problems
// (unreachable host, unusable target directory) fail here, before any sync
// is attempted.
func New(host contracts.HostProject, opts Options) (*Engine, error) {
	if opts.VBADir == "" {
		return nil, fmt.Errorf("target directory is not set")
	}
	if err := os.MkdirAll(opts.VBADir, 0755); err != nil {
		return nil, fmt.Errorf("target directory %s is unusable: %w", opts.VBADir, err)
	}
	if err := host.Reachable(); err != nil {
		return nil, fmt.Errorf("host project is unreachable: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	enc := text_encoding.NewResolver(opts.Encoding, opts.DetectEncoding)
	records := NewRecordStore()

	// Seed recorded encodings and file records from a previous run, so
	// re-resolving stays encoding-stable and a re-export in a fresh process
	// still skips unchanged components. A record is only trusted when its
	// file is untouched since it was written; a stale record would make
	// export skip a file someone edited in the meantime.
	if meta, err := readMetadata(opts.VBADir); err != nil {
		logger.Warn("ignoring unreadable metadata file", "err", err)
	} else if meta != nil {
		enc.Restore(meta.Encodings)
		for name, rec := range meta.Files {
			info, err := os.Stat(filepath.Join(opts.VBADir, rec.Path))
			if err != nil || !info.ModTime().Equal(rec.ModTime) {
				continue
			}
			records.Set(name, rec.Path, rec.Hash, rec.ModTime)
		}
	}

	return &Engine{
		host:    host,
		opts:    opts,
		codec:   header_codec.NewCodec(),
		ann:     annotation.NewResolver(),
		enc:     enc,
		records: records,
		logger:  logger,
	}, nil
}

// Export writes every component of the host project to the target
// directory. Unchanged components (same content hash as their file record)
// are skipped, so a no-op export produces zero file writes. With mirror set,
// module files that no longer correspond to any component are deleted;
// export into an empty target directory is always a full mirror.
func (e *Engine) Export(ctx context.Context, mirror bool) (*ExportResult, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	if empty, err := e.targetEmpty(); err != nil {
		return nil, err
	} else if empty {
		mirror = true
	}

	result := &ExportResult{Skipped: make(map[string]string)}
	for name, reason := range snap.Skipped {
		e.logger.Warn("skipping component of unsupported type", "component", name, "reason", reason)
		result.Skipped[name] = reason
	}

	names := make([]string, 0, len(snap.Components))
	for name := range snap.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	expected := make(map[string]bool, len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		comp := snap.Components[name]
		rel, wrote, err := e.exportComponent(comp)
		if err != nil {
			e.logger.Warn("skipping component", "component", name, "err", err)
			result.Skipped[name] = err.Error()
			continue
		}
		expected[rel] = true
		if wrote {
			result.Written = append(result.Written, rel)
		} else {
			result.Unchanged = append(result.Unchanged, rel)
		}
	}

	if mirror {
		deleted, err := e.deleteOrphans(expected)
		if err != nil {
			return result, err
		}
		result.Deleted = deleted
	}

	if e.opts.SaveMetadata {
		if err := writeMetadata(e.opts.VBADir, e.host.Name(), e.encodingMode(), e.enc.Recorded(), e.records.All()); err != nil {
			return result, err
		}
	}

	return result, nil
}

// exportComponent renders one component to its file (and sidecar, when
// headers are stored separately). It returns the relative file path and
// whether anything was written; an unchanged component is a no-op.
func (e *Engine) exportComponent(comp *models.Component) (string, bool, error) {
	cls, err := vba_project.Classify(comp.Kind)
	if err != nil {
		return "", false, err
	}

	header := comp.Header
	if header == "" {
		header, err = e.codec.Synthesize(comp.Name, comp.Kind)
		if err != nil {
			// Forms cannot leave the host without their layout stanza.
			return "", false, err
		}
	}

	content := e.codec.Join(header, comp.Body)
	if e.opts.SaveHeaders {
		content = comp.Body
	}

	rel := filepath.Join(comp.Folder, comp.Name+cls.Extension)
	abs := filepath.Join(e.opts.VBADir, rel)
	hash := utils.ContentHash(content)

	if rec, ok := e.records.Get(comp.Name); ok && rec.Hash == hash && fileExists(abs) {
		return rel, false, nil
	}

	if dir := filepath.Dir(abs); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", false, fmt.Errorf("failed to create folder for %s: %w", comp.Name, err)
		}
	}

	encName, err := e.enc.WriteFile(abs, comp.Name, content)
	if err != nil {
		return "", false, err
	}
	if e.opts.SaveHeaders {
		if err := e.codec.WriteSidecar(abs, header); err != nil {
			return "", false, err
		}
	}

	e.recordFile(comp.Name, rel, hash)
	e.logger.Debug("exported component", "component", comp.Name, "path", rel, "encoding", encName)
	return rel, true, nil
}

// Import reads every recognized module file under the target directory into
// the host project, then removes host components whose files are gone, and
// saves the project. A form file with no header available from any source
// aborts the run before any host mutation.
func (e *Engine) Import(ctx context.Context) (*ImportResult, error) {
	files, err := e.moduleFiles()
	if err != nil {
		return nil, err
	}

	// Validate form headers up front: an incomplete form header corrupts
	// the form irrecoverably, and finding that out halfway through a run
	// would leave the project half-updated for no good reason.
	if err := e.validateFormHeaders(files); err != nil {
		return nil, err
	}

	infos, err := e.host.Components()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate components: %w", err)
	}
	hostComponents := make(map[string]models.ComponentInfo, len(infos))
	for _, info := range infos {
		hostComponents[info.Name] = info
	}

	result := &ImportResult{Skipped: make(map[string]string)}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		added, synthesized, err := e.importFile(f, hostComponents)
		if err != nil {
			if isFormHeaderMissing(err) {
				return result, err
			}
			e.logger.Warn("skipping file", "path", f.rel, "err", err)
			result.Skipped[f.rel] = err.Error()
			continue
		}
		if added {
			result.Added = append(result.Added, f.name)
		} else {
			result.Imported = append(result.Imported, f.name)
		}
		if synthesized {
			result.Synthesized = append(result.Synthesized, f.name)
			e.logger.Warn("no header found, synthesized a minimal one", "component", f.name)
		}
	}

	// Mirror deletions: a component whose file is gone is removed from the
	// host. Document modules stay; they cannot be removed from a project.
	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		onDisk[f.name] = true
	}
	for _, info := range infos {
		if onDisk[info.Name] || info.Kind == models.KindDocument {
			continue
		}
		if _, err := vba_project.Classify(info.Kind); err != nil {
			continue
		}
		if err := e.host.Remove(info.Name); err != nil {
			e.logger.Warn("failed to remove component", "component", info.Name, "err", err)
			result.Skipped[info.Name] = err.Error()
			continue
		}
		e.records.Delete(info.Name)
		e.enc.Invalidate(info.Name)
		result.Removed = append(result.Removed, info.Name)
	}

	if err := e.host.Save(); err != nil {
		return result, fmt.Errorf("failed to save host project: %w", err)
	}
	return result, nil
}

// moduleFile is one recognized file under the target directory.
type moduleFile struct {
	rel  string
	abs  string
	name string
	ext  string
}

// moduleFiles walks the target directory for files with recognized module
// extensions, skipping sidecars and metadata.
func (e *Engine) moduleFiles() ([]moduleFile, error) {
	var files []moduleFile
	err := filepath.WalkDir(e.opts.VBADir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := vba_project.KindForFile(path); !ok {
			return nil
		}
		rel, err := filepath.Rel(e.opts.VBADir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		files = append(files, moduleFile{rel: rel, abs: path, name: name, ext: ext})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", e.opts.VBADir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	return files, nil
}

// validateFormHeaders checks that every form file has a header available,
// embedded or sidecar, before any host mutation happens.
func (e *Engine) validateFormHeaders(files []moduleFile) error {
	for _, f := range files {
		if f.ext != ".frm" {
			continue
		}
		text, _, err := e.enc.ReadFile(f.abs, f.name)
		if err != nil {
			continue // reported per-component during the apply phase
		}
		if header, _ := e.codec.Split(text); header != "" {
			continue
		}
		if _, ok, err := e.codec.ReadSidecar(f.abs); err == nil && ok {
			continue
		}
		return &header_codec.FormHeaderMissingError{Name: f.name}
	}
	return nil
}

// importFile applies one file to the host project: update in place when the
// component exists, create it otherwise. Document modules only ever get
// their body updated.
func (e *Engine) importFile(f moduleFile, hostComponents map[string]models.ComponentInfo) (added bool, synthesized bool, err error) {
	text, _, err := e.enc.ReadFile(f.abs, f.name)
	if err != nil {
		return false, false, err
	}

	info, exists := hostComponents[f.name]
	switch {
	case exists && info.Kind == models.KindDocument:
		_, body := e.codec.Split(text)
		if err := e.host.SetText(f.name, body); err != nil {
			return false, false, err
		}
	case exists:
		full, synth, err := e.codec.ResolveForImport(f.name, info.Kind, f.abs, text)
		if err != nil {
			return false, false, err
		}
		synthesized = synth
		if err := e.host.SetText(f.name, full); err != nil {
			return false, false, err
		}
	default:
		kind, _ := vba_project.KindForFile(f.rel)
		full, synth, err := e.codec.ResolveForImport(f.name, kind, f.abs, text)
		if err != nil {
			return false, false, err
		}
		synthesized = synth
		if err := e.host.Add(f.name, kind, full); err != nil {
			return false, false, err
		}
		added = true
	}

	e.recordFile(f.name, f.rel, utils.ContentHash(text))
	return added, synthesized, nil
}

// deleteOrphans removes recognized module files (and their sidecars) that no
// exported component accounts for.
func (e *Engine) deleteOrphans(expected map[string]bool) ([]string, error) {
	files, err := e.moduleFiles()
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, f := range files {
		if expected[f.rel] {
			continue
		}
		if err := os.Remove(f.abs); err != nil {
			return deleted, fmt.Errorf("failed to delete orphan file %s: %w", f.rel, err)
		}
		if err := os.Remove(header_codec.SidecarPath(f.abs)); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("failed to delete orphan sidecar for %s: %w", f.rel, err)
		}
		if name, ok := e.records.ComponentForPath(f.rel); ok {
			e.records.Delete(name)
		}
		deleted = append(deleted, f.rel)
		e.logger.Debug("deleted orphan file", "path", f.rel)
	}
	return deleted, nil
}

// snapshot builds a fresh project snapshot with the engine's codec and
// annotation settings.
func (e *Engine) snapshot() (*vba_project.ProjectSnapshot, error) {
	return vba_project.BuildSnapshot(e.host, e.codec, e.ann, vba_project.SnapshotOptions{
		FolderAnnotations: e.opts.FolderAnnotations,
	})
}

// targetEmpty reports whether the target directory contains no recognized
// module files yet.
func (e *Engine) targetEmpty() (bool, error) {
	files, err := e.moduleFiles()
	if err != nil {
		return false, err
	}
	return len(files) == 0, nil
}

// recordFile updates the component's file record from the file on disk.
func (e *Engine) recordFile(component string, rel string, hash string) {
	modTime := time.Now()
	if info, err := os.Stat(filepath.Join(e.opts.VBADir, rel)); err == nil {
		modTime = info.ModTime()
	}
	e.records.Set(component, rel, hash, modTime)
}

func (e *Engine) encodingMode() string {
	if e.opts.DetectEncoding {
		return "auto"
	}
	return "fixed"
}

func isFormHeaderMissing(err error) bool {
	var missing *header_codec.FormHeaderMissingError
	return errors.As(err, &missing)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
