package annotation

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Resolver scans the leading comment block of a module body for tooling
// directives. The only directive currently recognized is the Rubberduck
// folder annotation:
//
//	'@Folder("App.Utils")
//
// The quoted value is split on "." and mapped to a nested directory path.
// The resolver never mutates the body; the annotation stays part of the
// source text and is owned by the annotation tooling, not by us.
type Resolver struct{}

// folderPattern matches a well-formed folder annotation line. The directive
// keyword is case-fixed; the quoted value may not contain quotes.
var folderPattern = regexp.MustCompile(`^'@Folder\("([^"]+)"\)\s*$`)

// NewResolver creates an annotation resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// FolderOf walks the body from the top and returns the directory path for
// the first folder annotation found in the leading comment block, or "" when
// there is none. Scanning stops at the first line that is neither blank nor
// a comment, and also as soon as a folder annotation matches: a second
// annotation further down is ignored. A line with the right prefix but the
// wrong syntax counts as an ordinary comment, not an error.
func (r *Resolver) FolderOf(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))

		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "'") {
			// First executable line ends the leading comment block.
			return ""
		}
		if m := folderPattern.FindStringSubmatch(trimmed); m != nil {
			return folderToPath(m[1])
		}
	}
	return ""
}

// folderToPath converts a dot-separated annotation value to a relative
// directory path with OS separators, preserving segment order. Empty
// segments are dropped so "A..B" degrades to "A/B" rather than producing a
// broken path.
func folderToPath(value string) string {
	parts := strings.Split(value, ".")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			segments = append(segments, p)
		}
	}
	return filepath.Join(segments...)
}
