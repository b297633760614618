package extractor

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfind/internal/domain"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestExtract_PlainText(t *testing.T) {
	path := writeTemp(t, "a.txt", []byte("hello   world\n\nsecond\tline"))

	e := New(100000)
	text, err := e.Extract(context.Background(), path, ".txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world second line", text)
}

func TestExtract_StripsControlCharacters(t *testing.T) {
	path := writeTemp(t, "a.txt", []byte("a\x00b\x07c"))

	e := New(100000)
	text, err := e.Extract(context.Background(), path, ".txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", text)
	for _, r := range text {
		assert.GreaterOrEqual(t, r, rune(0x20))
	}
}

func TestExtract_CapsLength(t *testing.T) {
	long := strings.Repeat("x", 500)
	path := writeTemp(t, "a.txt", []byte(long))

	e := New(100)
	text, err := e.Extract(context.Background(), path, ".txt")
	require.NoError(t, err)
	assert.Len(t, text, 100)
}

func TestExtract_UTF16(t *testing.T) {
	// "hi" in UTF-16 LE with BOM.
	data := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	path := writeTemp(t, "a.txt", data)

	e := New(100000)
	text, err := e.Extract(context.Background(), path, ".txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestExtract_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in latin-1 and invalid as standalone UTF-8.
	path := writeTemp(t, "a.txt", []byte{'c', 'a', 'f', 0xE9})

	e := New(100000)
	text, err := e.Extract(context.Background(), path, ".txt")
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestExtract_EmptyFile(t *testing.T) {
	path := writeTemp(t, "a.txt", nil)

	e := New(100000)
	_, err := e.Extract(context.Background(), path, ".txt")
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	e := New(100000)
	_, err := e.Extract(context.Background(), "whatever.xyz", ".xyz")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestSupported(t *testing.T) {
	e := New(0)
	assert.True(t, e.Supported(".txt"))
	assert.True(t, e.Supported(".PDF"))
	assert.True(t, e.Supported(".docx"))
	assert.False(t, e.Supported(".md"))
}

const docxBody = `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
    <tbl>
      <tr>
        <tc><p><r><t>cell one</t></r></p></tc>
        <tc><p><r><t>cell two</t></r></p></tc>
      </tr>
    </tbl>
  </body>
</document>`

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtract_Docx(t *testing.T) {
	path := writeDocx(t, docxBody)

	e := New(100000)
	text, err := e.Extract(context.Background(), path, ".docx")
	require.NoError(t, err)

	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second paragraph.")
	assert.Contains(t, text, "cell one")
	assert.Contains(t, text, "cell two")
	// Paragraphs come before table cells.
	assert.Less(t, strings.Index(text, "Second paragraph."), strings.Index(text, "cell one"))
}

func TestExtract_DocxCorrupt(t *testing.T) {
	path := writeTemp(t, "bad.docx", []byte("this is not a zip"))

	e := New(100000)
	_, err := e.Extract(context.Background(), path, ".docx")
	assert.Error(t, err)
}

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return m.output, m.err
}

func TestExtract_PDFWithMockRunner(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not in PATH, skipping mock runner test")
	}

	e := New(100000, WithCommandRunner(&mockRunner{output: []byte("pdf body text")}))
	text, err := e.Extract(context.Background(), "fake.pdf", ".pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf body text", text)
}

func TestExtract_PDFRunnerError(t *testing.T) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not in PATH, skipping runner error test")
	}

	e := New(100000, WithCommandRunner(&mockRunner{err: errors.New("boom")}))
	_, err := e.Extract(context.Background(), "fake.pdf", ".pdf")
	assert.Error(t, err)
}
