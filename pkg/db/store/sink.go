package store

import (
	"context"
	"strings"
	"time"

	"github.com/mwantia/gosort/pkg/db/models"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/log"
)

const defaultWriteTimeout = 5 * time.Second

// HistorySink persists every event, and a move record for every successful
// relocation. Write failures are logged and never reach the emitter.
type HistorySink struct {
	store   MetadataStore
	log     log.LoggerService
	timeout time.Duration
}

func NewHistorySink(store MetadataStore, logger log.LoggerService) *HistorySink {
	return &HistorySink{
		store:   store,
		log:     logger,
		timeout: defaultWriteTimeout,
	}
}

func (s *HistorySink) Emit(e event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	record := &models.Event{
		EventID:     e.ID,
		Kind:        string(e.Kind),
		Path:        e.Path,
		Detail:      e.Detail,
		Targets:     strings.Join(e.Targets, "\n"),
		Destination: e.Destination,
		OccurredAt:  e.Time,
	}
	if err := s.store.CreateEvent(ctx, record); err != nil {
		s.log.Warn("Failed to record event '%s' for '%s': %v", e.Kind, e.Path, err)
		return
	}

	if e.Kind != event.Moved {
		return
	}

	move := &models.Move{
		EventID:     e.ID,
		Source:      e.Path,
		Destination: e.Destination,
		MovedAt:     e.Time,
	}
	if len(e.Targets) > 0 {
		move.TargetDirectory = e.Targets[0]
	}
	if err := s.store.CreateMove(ctx, move); err != nil {
		s.log.Warn("Failed to record move of '%s': %v", e.Path, err)
	}
}

// SplitTargets reverses the encoding used for models.Event.Targets.
func SplitTargets(targets string) []string {
	if targets == "" {
		return nil
	}
	return strings.Split(targets, "\n")
}
