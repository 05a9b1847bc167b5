package header_codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/officeforge/vbasync/vba_project/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classRaw = "VERSION 1.0 CLASS\r\n" +
	"BEGIN\r\n" +
	"  MultiUse = -1  'True\r\n" +
	"END\r\n" +
	"Attribute VB_Name = \"Logger\"\r\n" +
	"Attribute VB_GlobalNameSpace = False\r\n" +
	"Attribute VB_Creatable = False\r\n" +
	"Attribute VB_PredeclaredId = False\r\n" +
	"Attribute VB_Exposed = False\r\n" +
	"Option Explicit\r\n" +
	"\r\n" +
	"Public Sub Log(msg As String)\r\n" +
	"End Sub\r\n"

const formRaw = "VERSION 5.00\r\n" +
	"Begin {C62A69F0-16DC-11CE-9E98-00AA00574A4F} LoginForm \r\n" +
	"   Caption         =   \"Login\"\r\n" +
	"   ClientHeight    =   3015\r\n" +
	"   ClientWidth     =   4560\r\n" +
	"End\r\n" +
	"Attribute VB_Name = \"LoginForm\"\r\n" +
	"Attribute VB_Exposed = False\r\n" +
	"Option Explicit\r\n" +
	"\r\n" +
	"Private Sub UserForm_Click()\r\nEnd Sub\r\n"

func TestSplit_RoundTrip(t *testing.T) {
	codec := NewCodec()

	inputs := []string{
		classRaw,
		formRaw,
		"Attribute VB_Name = \"Module1\"\nSub Foo()\nEnd Sub\n",
		"Sub NoHeader()\nEnd Sub\n",
		"",
		"Attribute VB_Name = \"M\"\n", // header only, no body
		"'@Folder(\"App\")\nSub Foo()\nEnd Sub",
	}

	for _, raw := range inputs {
		header, body := codec.Split(raw)
		assert.Equal(t, raw, codec.Join(header, body))
	}
}

func TestSplit_ClassHeaderBoundary(t *testing.T) {
	codec := NewCodec()

	header, body := codec.Split(classRaw)
	assert.Contains(t, header, "VERSION 1.0 CLASS")
	assert.Contains(t, header, "Attribute VB_Exposed = False")
	assert.NotContains(t, header, "Option Explicit")
	assert.True(t, len(body) > 0)
	assert.Contains(t, body, "Option Explicit")
	assert.NotContains(t, body, "Attribute VB_Name")
}

func TestSplit_FormLayoutStanzaStaysInHeader(t *testing.T) {
	codec := NewCodec()

	header, body := codec.Split(formRaw)
	assert.Contains(t, header, "ClientHeight")
	assert.Contains(t, header, "Begin {C62A69F0-16DC-11CE-9E98-00AA00574A4F}")
	assert.NotContains(t, body, "ClientHeight")
	assert.Contains(t, body, "UserForm_Click")
}

func TestSplit_NoHeader(t *testing.T) {
	codec := NewCodec()

	raw := "Sub Foo()\nEnd Sub\n"
	header, body := codec.Split(raw)
	assert.Equal(t, "", header)
	assert.Equal(t, raw, body)
}

func TestSplit_AttributeInsideBodyIsNotHeader(t *testing.T) {
	codec := NewCodec()

	raw := "Sub Foo()\nAttribute Foo.VB_Description = \"x\"\nEnd Sub\n"
	header, body := codec.Split(raw)
	assert.Equal(t, "", header)
	assert.Equal(t, raw, body)
}

func TestSynthesize_StandardModule(t *testing.T) {
	codec := NewCodec()

	header, err := codec.Synthesize("Module1", models.KindStandard)
	require.NoError(t, err)
	assert.Equal(t, "Attribute VB_Name = \"Module1\"\n", header)
}

func TestSynthesize_ClassAndDocument(t *testing.T) {
	codec := NewCodec()

	classHdr, err := codec.Synthesize("Logger", models.KindClass)
	require.NoError(t, err)
	assert.Contains(t, classHdr, "VERSION 1.0 CLASS")
	assert.Contains(t, classHdr, "Attribute VB_PredeclaredId = False")
	assert.Contains(t, classHdr, "Attribute VB_Exposed = False")

	docHdr, err := codec.Synthesize("ThisDocument", models.KindDocument)
	require.NoError(t, err)
	assert.Contains(t, docHdr, "Attribute VB_PredeclaredId = True")
	assert.Contains(t, docHdr, "Attribute VB_Exposed = True")

	// Synthesized headers must themselves split cleanly.
	header, body := codec.Split(docHdr + "Sub X()\nEnd Sub\n")
	assert.Equal(t, docHdr, header)
	assert.Equal(t, "Sub X()\nEnd Sub\n", body)
}

func TestSynthesize_FormFails(t *testing.T) {
	codec := NewCodec()

	_, err := codec.Synthesize("LoginForm", models.KindForm)
	require.Error(t, err)
	var missing *FormHeaderMissingError
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "LoginForm", missing.Name)
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, filepath.Join("App", "Foo.header"), SidecarPath(filepath.Join("App", "Foo.cls")))
	assert.Equal(t, "Module1.header", SidecarPath("Module1.bas"))
}

func TestSidecar_WriteAndRead(t *testing.T) {
	codec := NewCodec()
	dir := t.TempDir()
	modulePath := filepath.Join(dir, "Logger.cls")

	header, _ := codec.Split(classRaw)
	require.NoError(t, codec.WriteSidecar(modulePath, header))

	got, found, err := codec.ReadSidecar(modulePath)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, header, got)

	// Empty header removes the sidecar.
	require.NoError(t, codec.WriteSidecar(modulePath, ""))
	_, found, err = codec.ReadSidecar(modulePath)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveForImport_EmbeddedHeaderWins(t *testing.T) {
	codec := NewCodec()
	dir := t.TempDir()
	modulePath := filepath.Join(dir, "Logger.cls")

	full, synthesized, err := codec.ResolveForImport("Logger", models.KindClass, modulePath, classRaw)
	require.NoError(t, err)
	assert.False(t, synthesized)
	assert.Equal(t, classRaw, full)
}

func TestResolveForImport_SidecarFallback(t *testing.T) {
	codec := NewCodec()
	dir := t.TempDir()
	modulePath := filepath.Join(dir, "LoginForm.frm")

	header, body := codec.Split(formRaw)
	require.NoError(t, os.WriteFile(SidecarPath(modulePath), []byte(header), 0644))

	full, synthesized, err := codec.ResolveForImport("LoginForm", models.KindForm, modulePath, body)
	require.NoError(t, err)
	assert.False(t, synthesized)
	assert.Equal(t, formRaw, full)
}

func TestResolveForImport_SynthesizesForBareModule(t *testing.T) {
	codec := NewCodec()
	dir := t.TempDir()
	modulePath := filepath.Join(dir, "Module1.bas")

	full, synthesized, err := codec.ResolveForImport("Module1", models.KindStandard, modulePath, "Sub Foo()\nEnd Sub\n")
	require.NoError(t, err)
	assert.True(t, synthesized)
	assert.Equal(t, "Attribute VB_Name = \"Module1\"\nSub Foo()\nEnd Sub\n", full)
}

func TestResolveForImport_FormWithoutAnyHeaderFails(t *testing.T) {
	codec := NewCodec()
	dir := t.TempDir()
	modulePath := filepath.Join(dir, "LoginForm.frm")

	_, _, err := codec.ResolveForImport("LoginForm", models.KindForm, modulePath, "Private Sub UserForm_Click()\nEnd Sub\n")
	var missing *FormHeaderMissingError
	assert.ErrorAs(t, err, &missing)
}
