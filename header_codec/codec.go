package header_codec

import (
	"fmt"
	"os"
	"strings"

	"github.com/officeforge/vbasync/vba_project/models"
)

// Codec splits a component's raw text into its declarative header block and
// its executable body, and recombines them. The header grammar is fixed: an
// optional VERSION line, optional Object reference lines, an optional
// BEGIN...END stanza (the binary layout section for forms), and any number
// of Attribute lines. Everything after the first line that matches none of
// these is body.
type Codec struct{}

// NewCodec creates a header codec.
func NewCodec() *Codec {
	return &Codec{}
}

// FormHeaderMissingError is returned when a form file has neither an
// embedded header nor a sidecar header at import time. Importing a form
// without its layout stanza corrupts the form irrecoverably, so this error
// aborts the import run.
type FormHeaderMissingError struct {
	Name string
}

func (e *FormHeaderMissingError) Error() string {
	return fmt.Sprintf("form %q has no embedded or sidecar header; import would corrupt its layout", e.Name)
}

// Split separates raw text into header and body. The split is lossless:
// Join(Split(x)) == x for any input, because the header is taken as a byte
// prefix of raw and the body is the remainder, line endings included.
func (c *Codec) Split(raw string) (header string, body string) {
	lines := splitKeepEnds(raw)
	depth := 0
	cut := 0

	for _, line := range lines {
		t := strings.TrimSpace(line)

		if depth > 0 {
			cut += len(line)
			switch {
			case t == "End" || t == "END":
				depth--
			case t == "BEGIN" || strings.HasPrefix(t, "Begin "):
				depth++
			}
			continue
		}

		switch {
		case strings.HasPrefix(t, "VERSION "),
			strings.HasPrefix(t, "Attribute "),
			strings.HasPrefix(t, "Object ") && strings.Contains(t, "="),
			strings.HasPrefix(t, "Object="):
			cut += len(line)
		case t == "BEGIN" || strings.HasPrefix(t, "Begin "):
			cut += len(line)
			depth++
		default:
			return raw[:cut], raw[cut:]
		}
	}
	return raw[:cut], raw[cut:]
}

// Join recombines a header and body into the full component text.
func (c *Codec) Join(header string, body string) string {
	return header + body
}

// Synthesize builds a minimal header for a component that has none. Standard
// modules only need their VB_Name attribute; class and document modules get
// the class stanza with kind-appropriate instancing attributes. Forms cannot
// be synthesized because their BEGIN...END stanza encodes binary layout.
func (c *Codec) Synthesize(name string, kind models.ComponentKind) (string, error) {
	switch kind {
	case models.KindStandard:
		return fmt.Sprintf("Attribute VB_Name = %q\n", name), nil
	case models.KindClass:
		return classHeader(name, false), nil
	case models.KindDocument:
		return classHeader(name, true), nil
	case models.KindForm:
		return "", &FormHeaderMissingError{Name: name}
	default:
		return "", fmt.Errorf("cannot synthesize header for %s %q", kind, name)
	}
}

// classHeader renders the class-module header stanza. Document modules are
// predeclared and exposed because they shadow the host's built-in instance.
func classHeader(name string, document bool) string {
	predeclared := "False"
	exposed := "False"
	if document {
		predeclared = "True"
		exposed = "True"
	}
	var b strings.Builder
	b.WriteString("VERSION 1.0 CLASS\n")
	b.WriteString("BEGIN\n")
	b.WriteString("  MultiUse = -1  'True\n")
	b.WriteString("END\n")
	fmt.Fprintf(&b, "Attribute VB_Name = %q\n", name)
	b.WriteString("Attribute VB_GlobalNameSpace = False\n")
	b.WriteString("Attribute VB_Creatable = False\n")
	fmt.Fprintf(&b, "Attribute VB_PredeclaredId = %s\n", predeclared)
	fmt.Fprintf(&b, "Attribute VB_Exposed = %s\n", exposed)
	return b.String()
}

// SidecarPath returns the sibling header file path for a module file, e.g.
// App/Utils/Foo.cls -> App/Utils/Foo.header.
func SidecarPath(modulePath string) string {
	if i := strings.LastIndex(modulePath, "."); i > strings.LastIndexAny(modulePath, `/\`) {
		return modulePath[:i] + ".header"
	}
	return modulePath + ".header"
}

// WriteSidecar persists a header to the module's sidecar file. An empty
// header removes a stale sidecar instead of writing an empty file.
func (c *Codec) WriteSidecar(modulePath string, header string) error {
	path := SidecarPath(modulePath)
	if header == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale sidecar %s: %w", path, err)
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(header), 0644); err != nil {
		return fmt.Errorf("failed to write sidecar %s: %w", path, err)
	}
	return nil
}

// ReadSidecar loads the sidecar header for a module file if one exists.
func (c *Codec) ReadSidecar(modulePath string) (string, bool, error) {
	data, err := os.ReadFile(SidecarPath(modulePath))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read sidecar for %s: %w", modulePath, err)
	}
	return string(data), true, nil
}

// ResolveForImport produces the full text to hand to the host for a file
// read from disk. The embedded header wins; a sidecar header is the
// fallback; synthesis is the last resort and is reported through the
// synthesized flag so the caller can warn. For forms with no header from
// either source the returned error is a *FormHeaderMissingError.
func (c *Codec) ResolveForImport(name string, kind models.ComponentKind, modulePath string, raw string) (full string, synthesized bool, err error) {
	header, body := c.Split(raw)
	if header != "" {
		return raw, false, nil
	}

	sidecar, ok, err := c.ReadSidecar(modulePath)
	if err != nil {
		return "", false, err
	}
	if ok && sidecar != "" {
		return c.Join(sidecar, body), false, nil
	}

	header, err = c.Synthesize(name, kind)
	if err != nil {
		return "", false, err
	}
	return c.Join(header, body), true, nil
}

// splitKeepEnds splits s into lines with their terminators preserved, so the
// concatenation of the result equals s exactly.
func splitKeepEnds(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
