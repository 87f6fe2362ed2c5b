package models

import "time"

// ThresholdEntry is owned exclusively by the confidence gate. All mutation
// paths (manual, optimizer, default population) funnel through the gate's
// validated setter; nothing writes these rows directly.
type ThresholdEntry struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Module   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_threshold_key"`
	Strategy string `gorm:"type:varchar(50);not null;uniqueIndex:idx_threshold_key"`

	Value       float64   `gorm:"not null"`
	UpdatedBy   string    `gorm:"type:varchar(20);not null"`
	LastUpdated time.Time `gorm:"type:timestamptz;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (ThresholdEntry) TableName() string {
	return "threshold_entries"
}

// ThresholdChange is the append-only audit row written for every successful
// threshold mutation, optimizer-originated or not.
type ThresholdChange struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Module   string `gorm:"type:varchar(20);not null;index:idx_threshold_changes_key"`
	Strategy string `gorm:"type:varchar(50);not null;index:idx_threshold_changes_key"`

	OldValue *float64 `gorm:"type:numeric(10,6)"`
	NewValue float64  `gorm:"not null"`
	Source   string   `gorm:"type:varchar(20);not null;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ThresholdChange) TableName() string {
	return "threshold_changes"
}
