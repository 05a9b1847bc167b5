package annotation

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderOf_BasicAnnotation(t *testing.T) {
	resolver := NewResolver()

	body := "'@Folder(\"App.Utils\")\nPublic Sub Bar()\nEnd Sub\n"
	folder := resolver.FolderOf(body)

	assert.Equal(t, filepath.Join("App", "Utils"), folder)
}

func TestFolderOf_NoAnnotation(t *testing.T) {
	resolver := NewResolver()

	body := "Sub Foo()\nEnd Sub\n"
	assert.Equal(t, "", resolver.FolderOf(body))
}

func TestFolderOf_SingleSegment(t *testing.T) {
	resolver := NewResolver()

	assert.Equal(t, "Services", resolver.FolderOf("'@Folder(\"Services\")\nSub A()\nEnd Sub\n"))
}

func TestFolderOf_ScanStopsAtFirstCodeLine(t *testing.T) {
	resolver := NewResolver()

	// Ten leading comment/blank lines, code on line 11, annotation on line 12.
	// The annotation must never be found.
	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, "' comment")
		lines = append(lines, "")
	}
	lines = append(lines, "Sub Foo()")
	lines = append(lines, "'@Folder(\"Hidden.Folder\")")
	lines = append(lines, "End Sub")

	assert.Equal(t, "", resolver.FolderOf(strings.Join(lines, "\n")))
}

func TestFolderOf_FirstAnnotationWins(t *testing.T) {
	resolver := NewResolver()

	body := "'@Folder(\"First.One\")\n'@Folder(\"Second.One\")\nSub Foo()\nEnd Sub\n"
	assert.Equal(t, filepath.Join("First", "One"), resolver.FolderOf(body))
}

func TestFolderOf_MalformedAnnotationIsNoMatch(t *testing.T) {
	resolver := NewResolver()

	// Right prefix, wrong syntax: treated as a plain comment. Scanning
	// continues, so a well-formed annotation further down still matches.
	body := "'@Folder(App.Utils)\n'@Folder(\"App.Utils\")\nSub Foo()\nEnd Sub\n"
	assert.Equal(t, filepath.Join("App", "Utils"), resolver.FolderOf(body))

	// No well-formed annotation at all resolves to the root.
	assert.Equal(t, "", resolver.FolderOf("'@Folder(App.Utils)\nSub Foo()\nEnd Sub\n"))
}

func TestFolderOf_LeadingBlanksAndIndentedComments(t *testing.T) {
	resolver := NewResolver()

	body := "\n\n   '@Folder(\"A.B.C\")\nSub Foo()\nEnd Sub\n"
	assert.Equal(t, filepath.Join("A", "B", "C"), resolver.FolderOf(body))
}

func TestFolderOf_CRLFBody(t *testing.T) {
	resolver := NewResolver()

	body := "'@Folder(\"App.Data\")\r\nSub Foo()\r\nEnd Sub\r\n"
	assert.Equal(t, filepath.Join("App", "Data"), resolver.FolderOf(body))
}

func TestFolderOf_EmptySegmentsDropped(t *testing.T) {
	resolver := NewResolver()

	body := "'@Folder(\"App..Utils\")\nSub Foo()\nEnd Sub\n"
	assert.Equal(t, filepath.Join("App", "Utils"), resolver.FolderOf(body))
}

func TestFolderOf_DoesNotMutateBody(t *testing.T) {
	resolver := NewResolver()

	body := "'@Folder(\"App\")\nSub Foo()\nEnd Sub\n"
	before := body
	_ = resolver.FolderOf(body)
	assert.Equal(t, before, body)
}
