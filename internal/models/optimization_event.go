package models

import "time"

// OptimizationEvent is the append-only log of optimizer proposals, immutable
// once recorded. Applied is false when the gate rejected the raw proposal;
// NewValue then carries the clamped value.
type OptimizationEvent struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Module   string `gorm:"type:varchar(20);not null;index:idx_opt_events_key"`
	Strategy string `gorm:"type:varchar(50);not null;index:idx_opt_events_key"`

	ParameterType string `gorm:"type:varchar(30);not null;default:'confidence_threshold'"`

	OldValue            float64 `gorm:"not null"`
	NewValue            float64 `gorm:"not null"`
	ExpectedImprovement float64 `gorm:"not null;default:0"`
	Applied             bool    `gorm:"not null;index"`

	// Observed stats at proposal time; consumed by later extrapolations.
	WinRate    float64 `gorm:"not null;default:0"`
	SampleSize int     `gorm:"not null;default:0"`
	Reason     string  `gorm:"type:varchar(40)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (OptimizationEvent) TableName() string {
	return "optimization_events"
}

const ParameterTypeConfidenceThreshold = "confidence_threshold"
