package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeDOCX(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.bin")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create(docxBody)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtract_PlainText(t *testing.T) {
	path := writeFile(t, "tmp123", []byte("hello\nworld"))

	text, err := New().Extract(context.Background(), path, "notes.TXT")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)
}

func TestExtract_UnknownExtensionFallsBackToText(t *testing.T) {
	path := writeFile(t, "tmp", []byte("a,b\n1,2"))

	text, err := New().Extract(context.Background(), path, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", text)
}

func TestExtract_InvalidUTF8Dropped(t *testing.T) {
	path := writeFile(t, "tmp", []byte("ok\xff\xfeok"))

	text, err := New().Extract(context.Background(), path, "broken.md")
	require.NoError(t, err)
	assert.Equal(t, "okok", text)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "gone"), "gone.txt")
	assert.Error(t, err)
}

func TestExtract_InvalidPDF(t *testing.T) {
	path := writeFile(t, "tmp", []byte("this is not a pdf"))

	_, err := New().Extract(context.Background(), path, "report.pdf")
	assert.ErrorIs(t, err, ErrInvalidPDF)
}

func TestExtract_DOCX(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Second</w:t><w:tab/><w:t>tabbed</w:t></w:r></w:p>
  </w:body>
</w:document>`
	path := writeDOCX(t, body)

	text, err := New().Extract(context.Background(), path, "Policy.DOCX")
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond\ttabbed", text)
}

func TestExtract_InvalidDOCX(t *testing.T) {
	path := writeFile(t, "tmp", []byte("not a zip"))

	_, err := New().Extract(context.Background(), path, "doc.docx")
	assert.ErrorIs(t, err, ErrInvalidDOCX)
}

func TestExtract_DOCXWithoutBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = New().Extract(context.Background(), path, "x.docx")
	assert.ErrorIs(t, err, ErrInvalidDOCX)
}

func TestExtract_CanceledContext(t *testing.T) {
	path := writeFile(t, "tmp", []byte("x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, path, "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
}
