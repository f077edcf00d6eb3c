package rule

import "path/filepath"

// NameContainsRule matches the base name of a file against a substring or a
// regular expression. Regular expressions are searched, not anchored.
type NameContainsRule struct {
	textMatcher
}

func NewNameContainsRule(pattern string, caseSensitive, useRegex bool) (NameContainsRule, error) {
	m, err := newTextMatcher(pattern, caseSensitive, useRegex)
	if err != nil {
		return NameContainsRule{}, err
	}
	return NameContainsRule{textMatcher: m}, nil
}

func (r NameContainsRule) Type() Type {
	return TypeNameContains
}

func (r NameContainsRule) Key() string {
	return r.key(TypeNameContains)
}

func (r NameContainsRule) Match(_ *Env, path string) (bool, error) {
	return r.find(filepath.Base(path)), nil
}

func (r NameContainsRule) String() string {
	return "File Name: " + r.describe()
}

func (r NameContainsRule) record() any {
	return r.textMatcher.record(TypeNameContains)
}
