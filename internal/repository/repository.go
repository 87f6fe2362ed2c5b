package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/models"
)

type ListTradesParams struct {
	Limit  int
	Offset int

	Module   *string
	Strategy *string
	Symbol   *string
	Status   *string
	Since    *time.Time

	OrderBy string
	Asc     *bool
}

type ListOptimizationEventsParams struct {
	Limit  int
	Offset int

	Module   *string
	Strategy *string
	Applied  *bool
	Since    *time.Time
}

// Repository is the storage surface of the orchestration core. Components
// depend on narrow subsets of it; the gorm implementation satisfies all.
type Repository interface {
	// Thresholds (gate-owned).
	UpsertThresholdEntry(ctx context.Context, item *models.ThresholdEntry) error
	ListThresholdEntries(ctx context.Context) ([]models.ThresholdEntry, error)
	InsertThresholdChange(ctx context.Context, item *models.ThresholdChange) error
	ListThresholdChanges(ctx context.Context, limit int) ([]models.ThresholdChange, error)

	// Trades.
	InsertTrade(ctx context.Context, item *models.Trade) error
	GetTradeByTradeID(ctx context.Context, tradeID string) (*models.Trade, error)
	CloseTrade(ctx context.Context, tradeID string, exitPrice, pnl decimal.Decimal, closedAt time.Time) error
	ListTrades(ctx context.Context, params ListTradesParams) ([]models.Trade, error)
	ListClosedTrades(ctx context.Context, since *time.Time) ([]models.Trade, error)
	SumRealizedPnL(ctx context.Context) (decimal.Decimal, error)

	// Positions.
	UpsertPosition(ctx context.Context, item *models.Position) error
	GetPositionBySymbol(ctx context.Context, symbol string) (*models.Position, error)
	ListOpenPositions(ctx context.Context) ([]models.Position, error)
	DeletePositionBySymbol(ctx context.Context, symbol string) error

	// Cycle bookkeeping.
	InsertCycleRecord(ctx context.Context, item *models.CycleRecord) error
	ListCycleRecords(ctx context.Context, limit int) ([]models.CycleRecord, error)
	MaxCycleNumber(ctx context.Context) (uint64, error)

	// Optimization events (append-only).
	InsertOptimizationEvent(ctx context.Context, item *models.OptimizationEvent) error
	ListOptimizationEvents(ctx context.Context, params ListOptimizationEventsParams) ([]models.OptimizationEvent, error)
	CountOptimizationEventsSince(ctx context.Context, since time.Time) (int64, error)
	LastOptimizationEventAt(ctx context.Context, module, strategy string) (*time.Time, error)

	// Portfolio.
	InsertPortfolioSnapshot(ctx context.Context, item *models.PortfolioSnapshot) error
	LatestPortfolioSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)

	// System settings.
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
}
