package models

import (
	"time"

	"gorm.io/datatypes"
)

// CycleRecord is one append-only row per orchestrator invocation.
// CycleNumber is strictly increasing and gap-free within a process lifetime.
type CycleRecord struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	CycleNumber uint64 `gorm:"not null;uniqueIndex"`

	StartedAt  time.Time `gorm:"type:timestamptz;not null;index"`
	DurationMs int64     `gorm:"not null;default:0"`

	SignalsSeen     int `gorm:"not null;default:0"`
	SignalsAdmitted int `gorm:"not null;default:0"`
	TradesOpened    int `gorm:"not null;default:0"`

	// Per-module partial failures, e.g. {"crypto":"collect timeout"}.
	// Partial failures do not flip Success.
	ModuleFailures datatypes.JSON `gorm:"type:jsonb"`
	SignalFailures datatypes.JSON `gorm:"type:jsonb"`

	Success bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (CycleRecord) TableName() string {
	return "cycle_records"
}
