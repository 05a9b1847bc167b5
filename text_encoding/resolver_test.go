package text_encoding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_CP1252RoundTrip(t *testing.T) {
	text := "Sub Grüße()\n ' café — naïve\nEnd Sub\n"

	data, err := Encode(text, "cp1252")
	require.NoError(t, err)

	back, err := Decode(data, "cp1252")
	require.NoError(t, err)
	assert.Equal(t, text, back)
}

func TestDecode_UTF8Invalid(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xfe, 0x41, 0xc0}, "utf-8")
	assert.Error(t, err)
}

func TestLookup_UnknownEncoding(t *testing.T) {
	_, err := Decode([]byte("x"), "klingon-8")
	assert.Error(t, err)
}

func TestResolver_FixedEncoding(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolver("cp1252", false)

	path := filepath.Join(dir, "Module1.bas")
	enc, err := resolver.WriteFile(path, "Module1", "Sub Grüße()\nEnd Sub\n")
	require.NoError(t, err)
	assert.Equal(t, "cp1252", enc)

	text, enc, err := resolver.ReadFile(path, "Module1")
	require.NoError(t, err)
	assert.Equal(t, "cp1252", enc)
	assert.Equal(t, "Sub Grüße()\nEnd Sub\n", text)
}

func TestResolver_RecordedEncodingIsStable(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolver("cp1252", true)

	// Pure ASCII content is ambiguous for any detector; record once, then
	// verify a second resolve does not flip.
	path := filepath.Join(dir, "Module1.bas")
	_, err := resolver.WriteFile(path, "Module1", "Sub Foo()\nEnd Sub\n")
	require.NoError(t, err)

	first := resolver.Recorded()["Module1"]
	require.NotEmpty(t, first)

	_, enc, err := resolver.ReadFile(path, "Module1")
	require.NoError(t, err)
	assert.Equal(t, first, enc)

	_, enc2, err := resolver.ReadFile(path, "Module1")
	require.NoError(t, err)
	assert.Equal(t, first, enc2)
}

func TestResolver_RestoreDoesNotOverwrite(t *testing.T) {
	resolver := NewResolver("", false)
	resolver.record("A", "cp1252")

	resolver.Restore(map[string]string{"A": "utf-8", "B": "cp850"})

	recorded := resolver.Recorded()
	assert.Equal(t, "cp1252", recorded["A"])
	assert.Equal(t, "cp850", recorded["B"])
}

func TestResolver_InvalidateAllowsReResolve(t *testing.T) {
	resolver := NewResolver("cp1252", false)
	resolver.record("A", "utf-8")
	resolver.Invalidate("A")
	assert.Empty(t, resolver.Recorded()["A"])
}

func TestResolver_DetectsUTF8WithMultibyteContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Notes.bas")

	text := "' コメント ユニコード テキスト for detection purposes\n' более длинный текст\nSub Foo()\nEnd Sub\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	resolver := NewResolver("cp1252", true)
	got, enc, err := resolver.ReadFile(path, "Notes")
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", enc)
	assert.Equal(t, text, got)
}
