package store

import (
	"context"
	"time"

	"github.com/mwantia/gosort/pkg/db/migrations"
	"github.com/mwantia/gosort/pkg/db/models"
)

// EventFilter narrows ListEvents. Zero values match everything.
type EventFilter struct {
	Kind   string
	Path   string
	Since  time.Time
	Limit  int
	Offset int
}

// MetadataStore defines the interface for history operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Rollback(ctx context.Context) error
	MigrationStatus(ctx context.Context) ([]migrations.MigrationStatus, error)
	Health(ctx context.Context) error

	// Event operations
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, error)
	CountEvents(ctx context.Context, kind string) (int64, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)

	// Move operations
	CreateMove(ctx context.Context, move *models.Move) error
	ListMoves(ctx context.Context, limit, offset int) ([]models.Move, error)
	FindMovesBySource(ctx context.Context, source string) ([]models.Move, error)
}
