package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is created when an admitted signal executes and becomes immutable
// once closed. ConfidenceAtEntry and ThresholdAtEntry capture the gate state
// at admission time so the optimizer can attribute outcomes to the threshold
// that was in force.
type Trade struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	TradeID string `gorm:"type:varchar(40);not null;uniqueIndex"`

	Module   string `gorm:"type:varchar(20);not null;index:idx_trades_key"`
	Strategy string `gorm:"type:varchar(50);not null;index:idx_trades_key"`
	Symbol   string `gorm:"type:varchar(30);not null;index"`
	Side     string `gorm:"type:varchar(4);not null"`

	Quantity   decimal.Decimal  `gorm:"type:numeric(30,10);not null;default:0"`
	EntryPrice decimal.Decimal  `gorm:"type:numeric(20,10);not null;default:0"`
	ExitPrice  *decimal.Decimal `gorm:"type:numeric(20,10)"`

	ConfidenceAtEntry float64 `gorm:"not null"`
	ThresholdAtEntry  float64 `gorm:"not null"`

	// Explicit column name because default GORM naming turns "PnL" into "pn_l".
	PnL *decimal.Decimal `gorm:"column:pnl;type:numeric(30,10)"`

	Status      string `gorm:"type:varchar(10);not null;default:'open';index"`
	CycleNumber uint64 `gorm:"not null;index"`

	OpenedAt time.Time  `gorm:"type:timestamptz;not null;index"`
	ClosedAt *time.Time `gorm:"type:timestamptz;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Trade) TableName() string {
	return "trades"
}

const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)
