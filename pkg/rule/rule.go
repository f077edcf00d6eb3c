package rule

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mwantia/gosort/pkg/extract"
)

// DefaultMaxContentSize is the largest file ContentContainsRule will read.
const DefaultMaxContentSize int64 = 100_000_000

var (
	ErrUnknownRuleType = errors.New("unknown rule type")
	ErrInvalidRule     = errors.New("invalid rule")
)

// Type is the serialization tag of a rule variant.
type Type string

const (
	TypeExtension    Type = "FileExtensionRule"
	TypeCategory     Type = "FileCategoryRule"
	TypeNameContains Type = "NameHasRule"
	TypeContent      Type = "StringContainedRule"
	TypeLastAccessed Type = "LastAccessedRule"
)

// Rule is a predicate over a file path. The set of implementations is closed,
// every variant lives in this package.
type Rule interface {
	// Type returns the serialization tag.
	Type() Type
	// Key returns a canonical representation over all attributes. Two rules
	// are equal iff their keys are equal.
	Key() string
	// Match evaluates the rule. Errors are recovered by Env.Matches.
	Match(env *Env, path string) (bool, error)

	String() string

	record() any
}

// Equal reports whether two rules carry the same attributes.
func Equal(a, b Rule) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// Env carries the collaborators used while evaluating rules.
type Env struct {
	Extractor      extract.Extractor
	MaxContentSize int64
	Now            func() time.Time
	AccessTime     func(path string) (time.Time, error)
	// Report receives every evaluation failure before it is turned into a
	// non-match.
	Report func(path string, rule Rule, err error)
}

// NewEnv returns an Env reading from the local filesystem.
func NewEnv(extractor extract.Extractor) *Env {
	return &Env{
		Extractor:      extractor,
		MaxContentSize: DefaultMaxContentSize,
		Now:            time.Now,
		AccessTime:     AccessTime,
	}
}

// Matches evaluates r against path. Any error or panic raised while
// evaluating is reported and treated as a non-match.
func (env *Env) Matches(r Rule, path string) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			env.report(path, r, fmt.Errorf("rule panicked: %v", rec))
			matched = false
		}
	}()

	ok, err := r.Match(env, path)
	if err != nil {
		env.report(path, r, err)
		return false
	}
	return ok
}

func (env *Env) report(path string, r Rule, err error) {
	if env.Report != nil {
		env.Report(path, r, err)
	}
}

func (env *Env) now() time.Time {
	if env.Now != nil {
		return env.Now()
	}
	return time.Now()
}

func (env *Env) accessTime(path string) (time.Time, error) {
	if env.AccessTime != nil {
		return env.AccessTime(path)
	}
	return AccessTime(path)
}

func (env *Env) maxContentSize() int64 {
	if env.MaxContentSize > 0 {
		return env.MaxContentSize
	}
	return DefaultMaxContentSize
}

func (env *Env) fileSize(path string) (int64, error) {
	if sized, ok := env.Extractor.(extract.Sizer); ok {
		return sized.Size(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
