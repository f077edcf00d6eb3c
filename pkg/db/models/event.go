package models

import (
	"time"

	"gorm.io/gorm"
)

// Event represents a single outcome reported by the processing pipeline
type Event struct {
	ID      uint   `gorm:"primaryKey"`
	EventID string `gorm:"type:text;not null;uniqueIndex"`
	Kind    string `gorm:"type:text;not null;index:idx_event_kind"`
	Path    string `gorm:"type:text;not null;index:idx_event_path"`

	Detail      string `gorm:"type:text"`
	Targets     string `gorm:"type:text"` // Newline separated target directories
	Destination string `gorm:"type:text"`

	// Timestamps
	OccurredAt time.Time `gorm:"not null;index:idx_event_occurred"`
	CreatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}
