package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// officeParts selects which archive members carry text for each Office Open
// XML format.
var officeParts = map[string]func(name string) bool{
	".docx": func(name string) bool {
		return name == "word/document.xml" ||
			strings.HasPrefix(name, "word/header") ||
			strings.HasPrefix(name, "word/footer")
	},
	".xlsx": func(name string) bool {
		return name == "xl/sharedStrings.xml" ||
			(strings.HasPrefix(name, "xl/worksheets/") && path.Ext(name) == ".xml")
	},
	".pptx": func(name string) bool {
		return strings.HasPrefix(name, "ppt/slides/slide") && path.Ext(name) == ".xml"
	},
}

func (d *Default) extractOffice(name string, selectPart func(string) bool) (string, error) {
	f, err := d.fs.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	archive, err := zip.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}

	members := make([]*zip.File, 0, len(archive.File))
	for _, member := range archive.File {
		if selectPart(member.Name) {
			members = append(members, member)
		}
	}
	slices.SortFunc(members, func(a, b *zip.File) int {
		return strings.Compare(a.Name, b.Name)
	})

	var sb strings.Builder
	for _, member := range members {
		if err := appendPartText(&sb, member); err != nil {
			return "", fmt.Errorf("failed to read '%s': %w", member.Name, err)
		}
	}
	return sb.String(), nil
}

func appendPartText(sb *strings.Builder, member *zip.File) error {
	rc, err := member.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(io.LimitReader(rc, int64(member.UncompressedSize64))); err != nil {
		return err
	}
	if root := doc.Root(); root != nil {
		walkText(sb, root)
	}
	return nil
}

// walkText collects text runs. Runs inside one paragraph are concatenated so
// words split across runs stay searchable.
func walkText(sb *strings.Builder, el *etree.Element) {
	switch el.Tag {
	case "t":
		sb.WriteString(el.Text())
		return
	case "c":
		// Numeric spreadsheet cells keep their value inline.
		if t := el.SelectAttrValue("t", "n"); t == "n" {
			if v := el.SelectElement("v"); v != nil {
				sb.WriteString(v.Text())
				sb.WriteByte(' ')
			}
			return
		}
	}

	for _, child := range el.ChildElements() {
		walkText(sb, child)
	}

	switch el.Tag {
	case "p", "si", "row":
		sb.WriteByte('\n')
	}
}
