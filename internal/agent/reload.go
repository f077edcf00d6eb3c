package agent

import (
	"fmt"

	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/group"
)

// Reload re-reads the group document, replaces the active groups and
// re-registers the watches. A document that cannot be read keeps the
// current groups.
func (gsa *GoSortAgent) Reload() error {
	gsa.mutex.Lock()
	defer gsa.mutex.Unlock()

	groups, err := gsa.groups.Load()
	if err != nil {
		return fmt.Errorf("failed to load '%s': %w", gsa.groups.Path(), err)
	}

	gsa.registry.Clear()
	gsa.apply(groups)
	gsa.coordinator.Refresh()

	gsa.log.Info("Reloaded %d groups", gsa.registry.Len())
	return nil
}

// apply activates groups, reporting every group the registry refuses.
func (gsa *GoSortAgent) apply(groups []*group.Group) {
	for i, g := range groups {
		if err := gsa.registry.Add(g); err != nil {
			gsa.sink.Emit(event.New(event.GroupRejected, gsa.groups.Path(), fmt.Sprintf("group %d (%s): %v", i, g, err)))
		}
	}
}
