package contracts

import (
	"errors"
	"fmt"
	"time"

	"github.com/officeforge/vbasync/vba_project/models"
)

// HostProject is the capability surface the sync engine consumes from a live
// Office VBA project. A platform binding (COM automation on Windows)
// implements it against the real object model; tests use the in-memory
// implementation in the vba_project package. All operations are synchronous
// and return a typed error when the project is unreachable.
type HostProject interface {
	// Name returns the name of the underlying document.
	Name() string

	// Components enumerates the components currently in the project.
	Components() ([]models.ComponentInfo, error)

	// TextOf returns the full text of a component, header included.
	TextOf(name string) (string, error)

	// SetText replaces the code of an existing component in place. Document
	// modules must always go through SetText since they cannot be removed.
	SetText(name string, text string) error

	// Add creates a new component with the given kind and full text.
	Add(name string, kind models.ComponentKind, text string) error

	// Remove deletes a component from the project.
	Remove(name string) error

	// Save persists the document. This is a blocking call into the host.
	Save() error

	// LastSaved reports when the document was last saved, from any side.
	// The edit session polls this to detect saves made inside the host
	// editor, which has no push notification for project changes.
	LastSaved() (time.Time, error)

	// Reachable reports whether the project can still be reached. It returns
	// ErrAccessDenied when the trust setting blocks object-model access and
	// ErrDocumentClosed when the document or application has gone away.
	Reachable() error
}

var (
	// ErrAccessDenied means the host's "Trust access to the VBA project
	// object model" setting is disabled.
	ErrAccessDenied = errors.New("access to the VBA project object model is denied")

	// ErrDocumentClosed means the document or the host application is no
	// longer available.
	ErrDocumentClosed = errors.New("document is not open")

	// ErrComponentNotFound is returned by TextOf, SetText and Remove when no
	// component with the given name exists.
	ErrComponentNotFound = errors.New("component not found")
)

// AccessError wraps ErrAccessDenied with the application name so the CLI can
// point the user at the right Trust Center setting.
type AccessError struct {
	App string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot access VBA project: enable 'Trust access to the VBA project object model' in %s Trust Center settings", e.App)
}

func (e *AccessError) Unwrap() error { return ErrAccessDenied }
