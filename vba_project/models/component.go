package models

import "time"

// ComponentKind identifies the kind of a VBA component. The numeric values
// match the component type constants exposed by the Office object model, so a
// host binding can pass them through unchanged.
type ComponentKind int

const (
	KindStandard ComponentKind = 1   // standard module (.bas)
	KindClass    ComponentKind = 2   // class module (.cls)
	KindForm     ComponentKind = 3   // UserForm (.frm), carries a binary layout stanza
	KindDocument ComponentKind = 100 // document module (ThisDocument, ThisWorkbook, Sheet1, ...)
)

// String returns a human-readable name for the kind.
func (k ComponentKind) String() string {
	switch k {
	case KindStandard:
		return "standard module"
	case KindClass:
		return "class module"
	case KindForm:
		return "form"
	case KindDocument:
		return "document module"
	default:
		return "unknown"
	}
}

// ComponentInfo holds the identity details of a component as enumerated from
// the host project.
type ComponentInfo struct {
	Name      string
	Kind      ComponentKind
	CodeLines int
}

// Component is the in-memory representation of one VBA component for the
// duration of a sync operation. The host project remains the source of truth
// for identity and kind; everything else is derived when a snapshot is built.
type Component struct {
	Name     string
	Kind     ComponentKind
	Text     string // full raw text, header included
	Header   string // declarative preamble, possibly synthesized
	Body     string // executable code
	Folder   string // relative directory from the folder annotation, "" = root
	Encoding string // resolved byte encoding for this component's file
	Hash     string // content hash of the exported file representation
}

// FileRecord is the on-disk counterpart of a component: what we last wrote or
// read at a path. It is how the sync engine decides which side changed
// between watch cycles.
type FileRecord struct {
	Path    string    `json:"path"`
	Hash    string    `json:"hash"`
	ModTime time.Time `json:"mod_time"`
}

// ProjectMetadata is persisted to vba_metadata.json next to the exported
// files when metadata saving is enabled. It records the per-component
// encodings so that a later import or re-export stays encoding-stable even
// when auto-detection would be ambiguous, and the file records so that a
// re-export in a fresh process still skips unchanged components.
type ProjectMetadata struct {
	SourceDocument string                `json:"source_document"`
	ExportDate     time.Time             `json:"export_date"`
	EncodingMode   string                `json:"encoding_mode"`
	Encodings      map[string]string     `json:"encodings"`
	Files          map[string]FileRecord `json:"files,omitempty"`
}
