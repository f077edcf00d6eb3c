package rule

import (
	"errors"
	"fmt"
)

// ContentContainsRule matches the extracted text of a file. Files above the
// size ceiling and unsupported formats never match.
type ContentContainsRule struct {
	textMatcher
}

func NewContentContainsRule(pattern string, caseSensitive, useRegex bool) (ContentContainsRule, error) {
	m, err := newTextMatcher(pattern, caseSensitive, useRegex)
	if err != nil {
		return ContentContainsRule{}, err
	}
	return ContentContainsRule{textMatcher: m}, nil
}

func (r ContentContainsRule) Type() Type {
	return TypeContent
}

func (r ContentContainsRule) Key() string {
	return r.key(TypeContent)
}

func (r ContentContainsRule) Match(env *Env, path string) (bool, error) {
	if env == nil || env.Extractor == nil {
		return false, errors.New("no text extractor configured")
	}

	size, err := env.fileSize(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat '%s': %w", path, err)
	}
	if size > env.maxContentSize() {
		return false, nil
	}

	text, ok, err := env.Extractor.Extract(path)
	if err != nil {
		return false, fmt.Errorf("failed to extract text from '%s': %w", path, err)
	}
	if !ok {
		return false, nil
	}

	return r.find(text), nil
}

func (r ContentContainsRule) String() string {
	return "Text in file: " + r.describe()
}

func (r ContentContainsRule) record() any {
	return r.textMatcher.record(TypeContent)
}
