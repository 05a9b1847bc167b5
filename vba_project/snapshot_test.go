package vba_project

import (
	"path/filepath"
	"testing"

	"github.com/officeforge/vbasync/annotation"
	"github.com/officeforge/vbasync/header_codec"
	"github.com/officeforge/vbasync/vba_project/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_KnownKinds(t *testing.T) {
	cases := []struct {
		kind           models.ComponentKind
		ext            string
		headerRequired bool
	}{
		{models.KindStandard, ".bas", false},
		{models.KindClass, ".cls", false},
		{models.KindForm, ".frm", true},
		{models.KindDocument, ".cls", true},
	}

	for _, tc := range cases {
		c, err := Classify(tc.kind)
		require.NoError(t, err)
		assert.Equal(t, tc.ext, c.Extension)
		assert.Equal(t, tc.headerRequired, c.HeaderRequired)
	}
}

func TestClassify_UnknownKind(t *testing.T) {
	_, err := Classify(models.ComponentKind(42))
	assert.Error(t, err)
}

func TestKindForFile(t *testing.T) {
	kind, ok := KindForFile("Module1.bas")
	assert.True(t, ok)
	assert.Equal(t, models.KindStandard, kind)

	kind, ok = KindForFile("Logger.CLS")
	assert.True(t, ok)
	assert.Equal(t, models.KindClass, kind)

	kind, ok = KindForFile("LoginForm.frm")
	assert.True(t, ok)
	assert.Equal(t, models.KindForm, kind)

	_, ok = KindForFile("README.md")
	assert.False(t, ok)
}

func TestBuildSnapshot(t *testing.T) {
	host := NewMemoryProject("report.docm")
	require.NoError(t, host.Add("Module1", models.KindStandard,
		"Attribute VB_Name = \"Module1\"\nSub Foo()\nEnd Sub\n"))
	require.NoError(t, host.Add("Helpers", models.KindClass,
		"Attribute VB_Name = \"Helpers\"\n'@Folder(\"App.Utils\")\nPublic Sub Bar()\nEnd Sub\n"))
	require.NoError(t, host.Add("Odd", models.ComponentKind(11), "???\n"))

	snap, err := BuildSnapshot(host, header_codec.NewCodec(), annotation.NewResolver(),
		SnapshotOptions{FolderAnnotations: true})
	require.NoError(t, err)

	assert.Equal(t, "report.docm", snap.Document)
	assert.Len(t, snap.Components, 2)
	assert.Contains(t, snap.Skipped, "Odd")

	mod := snap.Components["Module1"]
	require.NotNil(t, mod)
	assert.Equal(t, "Attribute VB_Name = \"Module1\"\n", mod.Header)
	assert.Equal(t, "Sub Foo()\nEnd Sub\n", mod.Body)
	assert.Equal(t, "", mod.Folder)
	assert.NotEmpty(t, mod.Hash)

	helpers := snap.Components["Helpers"]
	require.NotNil(t, helpers)
	assert.Equal(t, filepath.Join("App", "Utils"), helpers.Folder)
	// The annotation stays in the body; resolving must not strip it.
	assert.Contains(t, helpers.Body, "'@Folder(\"App.Utils\")")
}

func TestBuildSnapshot_FolderAnnotationsOff(t *testing.T) {
	host := NewMemoryProject("book.xlsm")
	require.NoError(t, host.Add("Helpers", models.KindClass,
		"'@Folder(\"App.Utils\")\nPublic Sub Bar()\nEnd Sub\n"))

	snap, err := BuildSnapshot(host, header_codec.NewCodec(), annotation.NewResolver(),
		SnapshotOptions{FolderAnnotations: false})
	require.NoError(t, err)
	assert.Equal(t, "", snap.Components["Helpers"].Folder)
}

func TestMemoryProject_DocumentModuleCannotBeRemoved(t *testing.T) {
	host := NewMemoryProject("report.docm")
	require.NoError(t, host.Add("ThisDocument", models.KindDocument, "Option Explicit\n"))

	assert.Error(t, host.Remove("ThisDocument"))
	require.NoError(t, host.SetText("ThisDocument", "Sub DocOpen()\nEnd Sub\n"))

	text, err := host.TextOf("ThisDocument")
	require.NoError(t, err)
	assert.Equal(t, "Sub DocOpen()\nEnd Sub\n", text)
}
