package group

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var ErrDuplicateGroup = errors.New("a group with the same rules, watch directories and target already exists")

// AmbiguousTargetError rejects a group sharing rules and watch directories
// with an existing group but routing to a different target.
type AmbiguousTargetError struct {
	Existing  string
	Candidate string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("a group with the same rules and watch directories but different target (%s vs. %s) already exists", e.Existing, e.Candidate)
}

// Registry holds the active groups. It is safe for concurrent use.
type Registry struct {
	mutex  sync.RWMutex
	groups []*Group
	keys   map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		keys: make(map[string]struct{}),
	}
}

// Add activates a copy of g. It fails if g cannot be activated, would make
// routing ambiguous or duplicates an existing group.
func (r *Registry) Add(g *Group) error {
	if g == nil {
		return ErrEmptyGroup
	}
	if err := g.Validate(); err != nil {
		return err
	}

	candidate := g.Clone()
	rulesKey, watchKey := candidate.RulesKey(), candidate.WatchKey()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.groups {
		if existing.RulesKey() == rulesKey &&
			existing.WatchKey() == watchKey &&
			existing.TargetDirectory() != candidate.TargetDirectory() {
			return &AmbiguousTargetError{
				Existing:  existing.TargetDirectory(),
				Candidate: candidate.TargetDirectory(),
			}
		}
	}

	key := candidate.Key()
	if _, ok := r.keys[key]; ok {
		return ErrDuplicateGroup
	}

	r.keys[key] = struct{}{}
	r.groups = append(r.groups, candidate)
	return nil
}

// Clear removes every group.
func (r *Registry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.groups = nil
	r.keys = make(map[string]struct{})
}

// Groups returns copies of the active groups in insertion order.
func (r *Registry) Groups() []*Group {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g.Clone())
	}
	return out
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.groups)
}

// WatchDirectories returns the sorted union of all watch directories.
func (r *Registry) WatchDirectories() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	dirs := make(map[string]struct{})
	for _, g := range r.groups {
		for dir := range g.watchDirectories {
			dirs[dir] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(dirs))
}
