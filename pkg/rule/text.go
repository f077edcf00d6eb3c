package rule

import (
	"fmt"
	"regexp"
	"strings"
)

// textMatcher holds the substring/regex semantics shared by the name and
// content rules.
type textMatcher struct {
	pattern       string
	caseSensitive bool
	useRegex      bool
	re            *regexp.Regexp
}

type textRecord struct {
	Type          Type   `json:"type"`
	Substring     string `json:"substring"`
	CaseSensitive bool   `json:"caseSensitive"`
	UseRegex      bool   `json:"useRegex"`
}

// newTextMatcher accepts an empty pattern, which matches any text.
func newTextMatcher(pattern string, caseSensitive, useRegex bool) (textMatcher, error) {
	m := textMatcher{
		pattern:       pattern,
		caseSensitive: caseSensitive,
		useRegex:      useRegex,
	}

	if useRegex {
		expr := pattern
		if !caseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return textMatcher{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		m.re = re
	}

	return m, nil
}

func (m textMatcher) find(text string) bool {
	if m.useRegex {
		return m.re.MatchString(text)
	}
	if m.caseSensitive {
		return strings.Contains(text, m.pattern)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(m.pattern))
}

func (m textMatcher) key(t Type) string {
	return fmt.Sprintf("%s%q/%t/%t", t, m.pattern, m.caseSensitive, m.useRegex)
}

func (m textMatcher) record(t Type) textRecord {
	return textRecord{
		Type:          t,
		Substring:     m.pattern,
		CaseSensitive: m.caseSensitive,
		UseRegex:      m.useRegex,
	}
}

func (m textMatcher) describe() string {
	return fmt.Sprintf("%s (Case Sensitive: %t, Regex: %t)", m.pattern, m.caseSensitive, m.useRegex)
}

func (m textMatcher) Pattern() string {
	return m.pattern
}

func (m textMatcher) CaseSensitive() bool {
	return m.caseSensitive
}

func (m textMatcher) UseRegex() bool {
	return m.useRegex
}
