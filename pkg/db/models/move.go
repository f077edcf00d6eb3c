package models

import (
	"time"

	"gorm.io/gorm"
)

// Move records a file relocated into the target directory of a group
type Move struct {
	ID      uint   `gorm:"primaryKey"`
	EventID string `gorm:"type:text;not null;uniqueIndex"`

	Source          string `gorm:"type:text;not null;index:idx_move_source"`
	Destination     string `gorm:"type:text;not null;index:idx_move_destination"`
	TargetDirectory string `gorm:"type:text;not null;index:idx_move_target"`

	MovedAt   time.Time `gorm:"not null;index:idx_move_moved"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
