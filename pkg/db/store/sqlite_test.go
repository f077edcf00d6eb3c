package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/mwantia/gosort/pkg/db/migrations"
	"github.com/mwantia/gosort/pkg/db/models"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(SQLiteConfig{})
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Health(ctx))

	statuses, err := migrations.NewMigrator(s.DB()).Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, status := range statuses {
		assert.True(t, status.Applied, "migration %d", status.Version)
	}
}

func TestEventsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateEvent(ctx, &models.Event{EventID: "a", Kind: "no_match", Path: "/in/a.txt", OccurredAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, s.CreateEvent(ctx, &models.Event{EventID: "b", Kind: "conflict", Path: "/in/b.jpg", Targets: "/x\n/y", OccurredAt: now.Add(-time.Hour)}))
	require.NoError(t, s.CreateEvent(ctx, &models.Event{EventID: "c", Kind: "no_match", Path: "/other/c.txt", OccurredAt: now}))

	all, err := s.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].EventID)

	noMatch, err := s.ListEvents(ctx, EventFilter{Kind: "no_match"})
	require.NoError(t, err)
	assert.Len(t, noMatch, 2)

	inDir, err := s.ListEvents(ctx, EventFilter{Path: "/in/"})
	require.NoError(t, err)
	assert.Len(t, inDir, 2)

	limited, err := s.ListEvents(ctx, EventFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "b", limited[0].EventID)

	conflict, err := s.GetEvent(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"/x", "/y"}, SplitTargets(conflict.Targets))

	count, err := s.CountEvents(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	pruned, err := s.PruneEvents(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	count, err = s.CountEvents(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHistorySinkRecordsMoves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	logger := log.NewWriterLogger("test", config.LogServerConfig{}, io.Discard)
	sink := NewHistorySink(s, logger)

	moved := event.New(event.Moved, "/in/cat.png", "", "/out/images")
	moved.Destination = "/out/images/cat.png"
	sink.Emit(moved)
	sink.Emit(event.New(event.NoMatch, "/in/notes.md", ""))

	count, err := s.CountEvents(ctx, string(event.Moved))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	moves, err := s.ListMoves(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, moved.ID, moves[0].EventID)
	assert.Equal(t, "/out/images", moves[0].TargetDirectory)
	assert.Equal(t, "/out/images/cat.png", moves[0].Destination)

	bySource, err := s.FindMovesBySource(ctx, "/in/cat.png")
	require.NoError(t, err)
	assert.Len(t, bySource, 1)
}

func TestRollbackRevertsMigrationsInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	migrator := s.DB().Migrator()

	require.True(t, migrator.HasIndex(&models.Move{}, "idx_move_target"))

	require.NoError(t, s.Rollback(ctx))
	assert.False(t, migrator.HasIndex(&models.Move{}, "idx_move_target"))
	assert.True(t, migrator.HasTable(&models.Event{}))

	statuses, err := s.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)

	require.NoError(t, s.Rollback(ctx))
	assert.False(t, migrator.HasTable(&models.Event{}))
	assert.False(t, migrator.HasTable(&models.Move{}))

	assert.Error(t, s.Rollback(ctx))

	// Everything comes back on the next migrate
	require.NoError(t, s.Migrate(ctx))
	assert.True(t, migrator.HasIndex(&models.Move{}, "idx_move_target"))
	require.NoError(t, s.CreateMove(ctx, &models.Move{EventID: "m", Source: "/in/a", Destination: "/out/a", TargetDirectory: "/out", MovedAt: time.Now()}))
}
