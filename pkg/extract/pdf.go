package extract

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

func (d *Default) extractPDF(path string) (text string, err error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	// The reader panics on some malformed documents
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to read pdf '%s': %v", path, rec)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to open pdf '%s': %w", path, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from '%s': %w", path, err)
	}

	data, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
