package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position lifecycle: created on trade open, current price refreshed on a
// cadence, removed on close.
type Position struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	Symbol string `gorm:"type:varchar(30);not null;uniqueIndex"`

	Module   string `gorm:"type:varchar(20);not null;index"`
	Strategy string `gorm:"type:varchar(50);not null;index"`
	Side     string `gorm:"type:varchar(4);not null"`

	Quantity      decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	EntryPrice    decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	CurrentPrice  decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	UnrealizedPnL decimal.Decimal `gorm:"column:unrealized_pnl;type:numeric(30,10);not null;default:0"`

	TradeID  string    `gorm:"type:varchar(40);not null;index"`
	OpenedAt time.Time `gorm:"type:timestamptz;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Position) TableName() string {
	return "positions"
}
