package rule

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ExtensionRule matches files whose name ends with one of its extensions.
type ExtensionRule struct {
	extensions []string
}

type extensionRecord struct {
	Type       Type     `json:"type"`
	Extensions []string `json:"extensions"`
}

// NewExtensionRule normalizes every extension to a lower-case value with a
// leading dot. Blank entries are dropped.
func NewExtensionRule(extensions ...string) (ExtensionRule, error) {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}

	if len(normalized) == 0 {
		return ExtensionRule{}, fmt.Errorf("%w: at least one extension is required", ErrInvalidRule)
	}

	slices.Sort(normalized)
	return ExtensionRule{extensions: slices.Compact(normalized)}, nil
}

// Extensions returns a copy of the normalized extensions.
func (r ExtensionRule) Extensions() []string {
	return slices.Clone(r.extensions)
}

func (r ExtensionRule) Type() Type {
	return TypeExtension
}

func (r ExtensionRule) Key() string {
	return fmt.Sprintf("%s%q", TypeExtension, r.extensions)
}

func (r ExtensionRule) Match(_ *Env, path string) (bool, error) {
	return hasAnySuffix(filepath.Base(path), r.extensions), nil
}

func (r ExtensionRule) String() string {
	return "Has Extensions: " + strings.Join(r.extensions, ", ")
}

func (r ExtensionRule) record() any {
	return extensionRecord{Type: TypeExtension, Extensions: r.Extensions()}
}

func hasAnySuffix(name string, suffixes []string) bool {
	name = strings.ToLower(name)
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
