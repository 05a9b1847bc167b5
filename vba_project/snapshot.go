package vba_project

import (
	"fmt"

	"github.com/officeforge/vbasync/annotation"
	"github.com/officeforge/vbasync/header_codec"
	"github.com/officeforge/vbasync/utils"
	"github.com/officeforge/vbasync/vba_project/contracts"
	"github.com/officeforge/vbasync/vba_project/models"
)

// ProjectSnapshot is a one-pass read of the host project: every supported
// component with its text split into header and body, its folder resolved
// from the leading annotation, and a content hash of the raw text. It is
// owned by a single sync operation; the host stays the source of truth for
// identity and kind.
type ProjectSnapshot struct {
	Document   string
	Components map[string]*models.Component

	// Skipped lists components that could not be classified, with the
	// reason. They are reported, never silently dropped.
	Skipped map[string]string
}

// SnapshotOptions controls how a snapshot is built.
type SnapshotOptions struct {
	// FolderAnnotations enables resolving '@Folder annotations into
	// subdirectories. When off, every component maps to the root.
	FolderAnnotations bool
}

// BuildSnapshot reads the host project once and materializes it. Components
// with an unrecognized kind are recorded in Skipped; any host I/O failure
// aborts the build.
func BuildSnapshot(host contracts.HostProject, codec *header_codec.Codec, resolver *annotation.Resolver, opts SnapshotOptions) (*ProjectSnapshot, error) {
	infos, err := host.Components()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate components: %w", err)
	}

	snap := &ProjectSnapshot{
		Document:   host.Name(),
		Components: make(map[string]*models.Component, len(infos)),
		Skipped:    make(map[string]string),
	}

	for _, info := range infos {
		if _, err := Classify(info.Kind); err != nil {
			snap.Skipped[info.Name] = err.Error()
			continue
		}

		text, err := host.TextOf(info.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read component %s: %w", info.Name, err)
		}

		header, body := codec.Split(text)

		folder := ""
		if opts.FolderAnnotations {
			folder = resolver.FolderOf(body)
		}

		snap.Components[info.Name] = &models.Component{
			Name:   info.Name,
			Kind:   info.Kind,
			Text:   text,
			Header: header,
			Body:   body,
			Folder: folder,
			Hash:   utils.ContentHash(text),
		}
	}

	return snap, nil
}
