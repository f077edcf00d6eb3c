package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, fs afero.Fs, path string, members map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func TestExtractPlainText(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/notes.md", []byte("# Groceries\n- milk"), 0o644))

	d := NewDefault(fs)
	text, ok, err := d.Extract("/in/notes.md")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, text, "milk")

	size, err := d.Size("/in/notes.md")
	require.NoError(t, err)
	assert.Equal(t, int64(18), size)
}

func TestExtractDocx(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArchive(t, fs, "/in/letter.docx", map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml": `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Invoice </w:t></w:r><w:r><w:t>Number 42</w:t></w:r></w:p>
    <w:p><w:r><w:t>Total due</w:t></w:r></w:p>
  </w:body>
</w:document>`,
	})

	text, ok, err := NewDefault(fs).Extract("/in/letter.docx")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, text, "Invoice Number 42\n")
	assert.Contains(t, text, "Total due")
}

func TestExtractXlsx(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArchive(t, fs, "/in/budget.xlsx", map[string]string{
		"xl/sharedStrings.xml": `<sst><si><t>Rent</t></si><si><t>Coffee</t></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
  <row><c r="A1" t="s"><v>0</v></c><c r="B1"><v>1200</v></c></row>
</sheetData></worksheet>`,
	})

	text, ok, err := NewDefault(fs).Extract("/in/budget.xlsx")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, text, "Rent")
	assert.Contains(t, text, "Coffee")
	assert.Contains(t, text, "1200")
}

// buildPDF renders a single page document showing text in Helvetica.
func buildPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func TestExtractPDF(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/statement.pdf", buildPDF("Invoice 42 confidential"), 0o644))

	text, ok, err := NewDefault(fs).Extract("/in/statement.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, text, "Invoice 42 confidential")
}

func TestExtractBrokenPDF(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/broken.pdf", []byte("%PDF"), 0o644))

	_, _, err := NewDefault(fs).Extract("/in/broken.pdf")
	assert.Error(t, err)
}

func TestExtractBrokenOfficeDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/broken.docx", []byte("not a zip"), 0o644))

	_, _, err := NewDefault(fs).Extract("/in/broken.docx")
	assert.Error(t, err)
}

func TestExtractSniffsUnknownExtensions(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/README", []byte("plain words without extension"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/image.bin", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0}, 0o644))

	d := NewDefault(fs)

	text, ok, err := d.Extract("/in/README")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "plain words without extension", text)

	_, ok, err = d.Extract("/in/image.bin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtractorFunc(t *testing.T) {
	var e Extractor = ExtractorFunc(func(path string) (string, bool, error) {
		return path, true, nil
	})

	text, ok, err := e.Extract("/in/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/in/a", text)
}
