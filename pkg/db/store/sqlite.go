package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/gosort/pkg/db/migrations"
	"github.com/mwantia/gosort/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements MetadataStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path         string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed history store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs all pending versioned migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Rollback reverts the most recently applied migration
func (s *SQLiteStore) Rollback(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Rollback(ctx)
}

// MigrationStatus lists every known migration and whether it is applied
func (s *SQLiteStore) MigrationStatus(ctx context.Context) ([]migrations.MigrationStatus, error) {
	return migrations.NewMigrator(s.db).Status(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Event operations

func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	var events []models.Event
	query := s.db.WithContext(ctx).Order("occurred_at DESC").Order("id DESC")

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Path != "" {
		query = query.Where("path LIKE ?", filter.Path+"%")
	}
	if !filter.Since.IsZero() {
		query = query.Where("occurred_at >= ?", filter.Since.UTC())
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	err := query.Find(&events).Error
	return events, err
}

func (s *SQLiteStore) CountEvents(ctx context.Context, kind string) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.Event{})

	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	err := query.Count(&count).Error
	return count, err
}

// PruneEvents deletes all events and moves recorded before the given time
func (s *SQLiteStore) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	var pruned int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("moved_at < ?", before.UTC()).Delete(&models.Move{}).Error; err != nil {
			return err
		}

		result := tx.Where("occurred_at < ?", before.UTC()).Delete(&models.Event{})
		pruned = result.RowsAffected
		return result.Error
	})

	return pruned, err
}

// Move operations

func (s *SQLiteStore) CreateMove(ctx context.Context, move *models.Move) error {
	return s.db.WithContext(ctx).Create(move).Error
}

func (s *SQLiteStore) ListMoves(ctx context.Context, limit, offset int) ([]models.Move, error) {
	var moves []models.Move
	query := s.db.WithContext(ctx).Order("moved_at DESC").Order("id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&moves).Error
	return moves, err
}

func (s *SQLiteStore) FindMovesBySource(ctx context.Context, source string) ([]models.Move, error) {
	var moves []models.Move
	err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Order("moved_at DESC").
		Find(&moves).Error
	return moves, err
}
