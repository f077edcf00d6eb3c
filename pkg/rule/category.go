package rule

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a named set of file extensions.
type Category string

const (
	CategoryImage    Category = "Image"
	CategoryDocument Category = "Document"
	CategoryAudio    Category = "Audio"
	CategoryVideo    Category = "Video"
)

// categories must stay identical across implementations sharing a group
// document.
var categories = map[Category][]string{
	CategoryImage:    {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".heic"},
	CategoryDocument: {".txt", ".docx", ".pdf", ".md", ".doc", ".xlsx", ".html", ".pptx", ".ppt"},
	CategoryAudio:    {".mp3", ".wav", ".m4a", ".aac", ".aiff", ".flac", ".pcm"},
	CategoryVideo:    {".mp4", ".mov", ".wmv", ".avi", ".mkv", ".flv"},
}

// Categories returns every known category in a stable order.
func Categories() []Category {
	return []Category{CategoryImage, CategoryDocument, CategoryAudio, CategoryVideo}
}

// Extensions returns the extensions belonging to c.
func (c Category) Extensions() []string {
	return slices.Clone(categories[c])
}

// ParseCategory accepts any casing of a known category name.
func ParseCategory(name string) (Category, error) {
	title := cases.Title(language.Und).String(strings.ToLower(strings.TrimSpace(name)))
	category := Category(title)
	if _, ok := categories[category]; !ok {
		return "", fmt.Errorf("%w: unknown category '%s'", ErrInvalidRule, name)
	}
	return category, nil
}

// CategoryRule matches files whose extension belongs to a category.
type CategoryRule struct {
	category Category
}

type categoryRecord struct {
	Type     Type     `json:"type"`
	Category Category `json:"category"`
}

func NewCategoryRule(name string) (CategoryRule, error) {
	category, err := ParseCategory(name)
	if err != nil {
		return CategoryRule{}, err
	}
	return CategoryRule{category: category}, nil
}

func (r CategoryRule) Category() Category {
	return r.category
}

func (r CategoryRule) Type() Type {
	return TypeCategory
}

func (r CategoryRule) Key() string {
	return fmt.Sprintf("%s%q", TypeCategory, string(r.category))
}

func (r CategoryRule) Match(_ *Env, path string) (bool, error) {
	return hasAnySuffix(filepath.Base(path), categories[r.category]), nil
}

func (r CategoryRule) String() string {
	return "Category: " + string(r.category)
}

func (r CategoryRule) record() any {
	return categoryRecord{Type: TypeCategory, Category: r.category}
}
