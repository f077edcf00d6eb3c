package extract

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Extractor pulls plain text out of a file. ok is false when the format is
// not supported.
type Extractor interface {
	Extract(path string) (text string, ok bool, err error)
}

// Sizer is implemented by extractors that can report a file size through the
// same filesystem they read from.
type Sizer interface {
	Size(path string) (int64, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(path string) (string, bool, error)

func (f ExtractorFunc) Extract(path string) (string, bool, error) {
	return f(path)
}

var plainTextExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".log":  true,
	".json": true,
	".xml":  true,
	".html": true,
	".htm":  true,
	".yaml": true,
	".yml":  true,
	".ini":  true,
}

const sniffLength = 512

// Default reads plain text directly, extracts PDF and Office Open XML
// documents and sniffs anything else for textual content.
type Default struct {
	fs afero.Fs
}

func NewDefault(fs afero.Fs) *Default {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Default{fs: fs}
}

func (d *Default) Size(path string) (int64, error) {
	info, err := d.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (d *Default) Extract(path string) (string, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if plainTextExtensions[ext] {
		data, err := afero.ReadFile(d.fs, path)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	}

	if ext == ".pdf" {
		text, err := d.extractPDF(path)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	}

	if parts, ok := officeParts[ext]; ok {
		text, err := d.extractOffice(path, parts)
		if err != nil {
			return "", false, err
		}
		return text, true, nil
	}

	return d.extractSniffed(path)
}

func (d *Default) extractSniffed(path string) (string, bool, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", false, err
	}
	head = head[:n]

	if !strings.HasPrefix(http.DetectContentType(head), "text/") {
		return "", false, nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return "", false, err
	}
	return string(bytes.Join([][]byte{head, rest}, nil)), true, nil
}
