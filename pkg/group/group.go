package group

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mwantia/gosort/pkg/rule"
)

var (
	ErrEmptyGroup = errors.New("group has no rules")
	ErrNoTarget   = errors.New("group has no target directory")
)

// Group routes files found in its watch directories into its target
// directory when every rule matches.
//
// A Group is not safe for concurrent mutation. The Registry only ever
// hands out clones.
type Group struct {
	rules            map[string]rule.Rule
	watchDirectories map[string]struct{}
	targetDirectory  string
}

// New creates a group without rules. target may be empty while the group is
// still being configured.
func New(watchDirectories []string, target string) *Group {
	g := &Group{
		rules:            make(map[string]rule.Rule),
		watchDirectories: make(map[string]struct{}),
	}
	g.SetWatchDirectories(watchDirectories)
	g.SetTargetDirectory(target)
	return g
}

// AddRule inserts r unless an equal rule is already present.
func (g *Group) AddRule(r rule.Rule) {
	if r == nil {
		return
	}
	g.rules[r.Key()] = r
}

func (g *Group) RemoveRule(r rule.Rule) {
	if r == nil {
		return
	}
	delete(g.rules, r.Key())
}

func (g *Group) AddWatchDirectory(dir string) {
	if dir = cleanPath(dir); dir != "" {
		g.watchDirectories[dir] = struct{}{}
	}
}

func (g *Group) RemoveWatchDirectory(dir string) {
	delete(g.watchDirectories, cleanPath(dir))
}

// SetWatchDirectories replaces the watch directories.
func (g *Group) SetWatchDirectories(dirs []string) {
	g.watchDirectories = make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		g.AddWatchDirectory(dir)
	}
}

func (g *Group) SetTargetDirectory(dir string) {
	g.targetDirectory = cleanPath(dir)
}

// Rules returns the rules ordered by key.
func (g *Group) Rules() []rule.Rule {
	keys := slices.Sorted(maps.Keys(g.rules))
	out := make([]rule.Rule, 0, len(keys))
	for _, key := range keys {
		out = append(out, g.rules[key])
	}
	return out
}

// WatchDirectories returns the watch directories in lexical order.
func (g *Group) WatchDirectories() []string {
	return slices.Sorted(maps.Keys(g.watchDirectories))
}

func (g *Group) TargetDirectory() string {
	return g.targetDirectory
}

// Contains reports whether path lies within one of the watch directories.
// The test is done on whole path components.
func (g *Group) Contains(path string) bool {
	path = cleanPath(path)
	for dir := range g.watchDirectories {
		if withinDirectory(path, dir) {
			return true
		}
	}
	return false
}

// Matches reports whether every rule matches path. A group without rules
// matches vacuously; callers must not activate such a group.
func (g *Group) Matches(env *rule.Env, path string) bool {
	for _, r := range g.rules {
		if !env.Matches(r, path) {
			return false
		}
	}
	return true
}

// Validate checks whether the group can be activated.
func (g *Group) Validate() error {
	if len(g.rules) == 0 {
		return ErrEmptyGroup
	}
	if g.targetDirectory == "" {
		return ErrNoTarget
	}
	return nil
}

// Key returns a canonical identity over rules, watch directories and
// target. Equal groups have equal keys.
func (g *Group) Key() string {
	return fmt.Sprintf("%s|%s|%q", g.RulesKey(), g.WatchKey(), g.targetDirectory)
}

// RulesKey identifies the rule set regardless of insertion order.
func (g *Group) RulesKey() string {
	return strings.Join(slices.Sorted(maps.Keys(g.rules)), ";")
}

// WatchKey identifies the watch directory set regardless of order.
func (g *Group) WatchKey() string {
	return fmt.Sprintf("%q", g.WatchDirectories())
}

func (g *Group) Equal(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.Key() == other.Key()
}

func (g *Group) Clone() *Group {
	return &Group{
		rules:            maps.Clone(g.rules),
		watchDirectories: maps.Clone(g.watchDirectories),
		targetDirectory:  g.targetDirectory,
	}
}

func (g *Group) String() string {
	return fmt.Sprintf("group[%s -> %s, %d rules]", strings.Join(g.WatchDirectories(), ","), g.targetDirectory, len(g.rules))
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

func withinDirectory(path, dir string) bool {
	if path == dir {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
