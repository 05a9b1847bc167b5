package vba_project

import (
	"fmt"
	"strings"

	"github.com/officeforge/vbasync/vba_project/models"
)

// Classification describes how a component kind is represented on disk and
// how strictly its header must be preserved.
type Classification struct {
	Kind models.ComponentKind

	// Extension is the file extension used for the component, dot included.
	Extension string

	// HeaderRequired is true when the component cannot be round-tripped
	// without its original header. Forms carry a binary layout stanza that
	// cannot be synthesized; document modules must match the host's built-in
	// instance and are not user-creatable.
	HeaderRequired bool
}

// kindTable maps component kinds to their on-disk representation.
var kindTable = map[models.ComponentKind]Classification{
	models.KindStandard: {Kind: models.KindStandard, Extension: ".bas", HeaderRequired: false},
	models.KindClass:    {Kind: models.KindClass, Extension: ".cls", HeaderRequired: false},
	models.KindForm:     {Kind: models.KindForm, Extension: ".frm", HeaderRequired: true},
	models.KindDocument: {Kind: models.KindDocument, Extension: ".cls", HeaderRequired: true},
}

// Classify resolves a component kind to its file extension and header
// obligations. Unrecognized kinds return an error; the caller skips the
// component with a warning and continues.
func Classify(kind models.ComponentKind) (Classification, error) {
	c, ok := kindTable[kind]
	if !ok {
		return Classification{}, fmt.Errorf("unsupported component type %d", int(kind))
	}
	return c, nil
}

// KindForFile infers the component kind from a file name. Files with a .cls
// extension are classified as class modules; whether they are actually
// document modules is decided against the live project, which owns identity
// and kind.
func KindForFile(fileName string) (models.ComponentKind, bool) {
	switch strings.ToLower(fileExt(fileName)) {
	case ".bas":
		return models.KindStandard, true
	case ".cls":
		return models.KindClass, true
	case ".frm":
		return models.KindForm, true
	default:
		return 0, false
	}
}

// Extensions returns the set of file extensions recognized on import.
func Extensions() []string {
	return []string{".bas", ".cls", ".frm"}
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
