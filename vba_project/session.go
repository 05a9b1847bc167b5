package vba_project

import (
	"fmt"
	"sync"

	"github.com/officeforge/vbasync/vba_project/contracts"
)

// Binding opens a live host project for a document. The COM automation
// binding registers itself here on platforms that have one; everywhere else
// Connect reports that no binding is available. Keeping the binding behind
// this seam keeps the sync engine testable against the in-memory project.
type Binding interface {
	// Open connects to the host application and opens (or attaches to) the
	// document at path. An empty path attaches to the active document.
	Open(app string, path string) (contracts.HostProject, error)

	// ActiveDocument returns the full path of the active document in the
	// given application, when one is open.
	ActiveDocument(app string) (string, error)
}

var (
	bindingMu sync.RWMutex
	binding   Binding
)

// RegisterBinding installs the platform host binding. Called from an init
// function in the binding's package.
func RegisterBinding(b Binding) {
	bindingMu.Lock()
	defer bindingMu.Unlock()
	binding = b
}

// Connect opens the document at path in the named application through the
// registered binding. app is one of "word", "excel", "access", "powerpoint".
func Connect(app string, path string) (contracts.HostProject, error) {
	bindingMu.RLock()
	b := binding
	bindingMu.RUnlock()
	if b == nil {
		return nil, fmt.Errorf("no host binding available on this platform: %w", contracts.ErrDocumentClosed)
	}
	return b.Open(app, path)
}

// ActiveDocument asks the registered binding for the active document path.
func ActiveDocument(app string) (string, error) {
	bindingMu.RLock()
	b := binding
	bindingMu.RUnlock()
	if b == nil {
		return "", fmt.Errorf("no host binding available on this platform: %w", contracts.ErrDocumentClosed)
	}
	return b.ActiveDocument(app)
}
