package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"autotrader/internal/models"
	"autotrader/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Thresholds -------------------------------------------------------------

func (s *Store) UpsertThresholdEntry(ctx context.Context, item *models.ThresholdEntry) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "module"}, {Name: "strategy"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"updated_by",
			"last_updated",
		}),
	}).Create(item).Error
}

func (s *Store) ListThresholdEntries(ctx context.Context) ([]models.ThresholdEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ThresholdEntry
	if err := s.db.WithContext(ctx).
		Model(&models.ThresholdEntry{}).
		Order("module asc, strategy asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertThresholdChange(ctx context.Context, item *models.ThresholdChange) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListThresholdChanges(ctx context.Context, limit int) ([]models.ThresholdChange, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ThresholdChange
	if err := s.db.WithContext(ctx).
		Model(&models.ThresholdChange{}).
		Order("created_at desc").
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Trades -----------------------------------------------------------------

func (s *Store) InsertTrade(ctx context.Context, item *models.Trade) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetTradeByTradeID(ctx context.Context, tradeID string) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Trade
	err := s.db.WithContext(ctx).
		Where("trade_id = ?", strings.TrimSpace(tradeID)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CloseTrade(ctx context.Context, tradeID string, exitPrice, pnl decimal.Decimal, closedAt time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("trade_id = ? AND status = ?", strings.TrimSpace(tradeID), models.TradeStatusOpen).
		Updates(map[string]any{
			"exit_price": exitPrice,
			"pnl":        pnl,
			"status":     models.TradeStatusClosed,
			"closed_at":  closedAt,
		}).Error
}

func (s *Store) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Trade{})
	if params.Module != nil && strings.TrimSpace(*params.Module) != "" {
		query = query.Where("module = ?", strings.TrimSpace(*params.Module))
	}
	if params.Strategy != nil && strings.TrimSpace(*params.Strategy) != "" {
		query = query.Where("strategy = ?", strings.TrimSpace(*params.Strategy))
	}
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		query = query.Where("symbol = ?", strings.TrimSpace(*params.Symbol))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("opened_at >= ?", *params.Since)
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "opened_at")
	var items []models.Trade
	if err := query.
		Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListClosedTrades(ctx context.Context, since *time.Time) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("status = ?", models.TradeStatusClosed)
	if since != nil && !since.IsZero() {
		query = query.Where("closed_at >= ?", *since)
	}
	var items []models.Trade
	if err := query.Order("closed_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SumRealizedPnL(ctx context.Context) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var out struct {
		Total decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Select("COALESCE(SUM(pnl), 0) AS total").
		Where("status = ?", models.TradeStatusClosed).
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, err
	}
	return out.Total, nil
}

// --- Positions --------------------------------------------------------------

func (s *Store) UpsertPosition(ctx context.Context, item *models.Position) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Symbol) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"module",
			"strategy",
			"side",
			"quantity",
			"entry_price",
			"current_price",
			"unrealized_pnl",
			"trade_id",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetPositionBySymbol(ctx context.Context, symbol string) (*models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Position
	err := s.db.WithContext(ctx).
		Where("symbol = ?", strings.TrimSpace(symbol)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListOpenPositions(ctx context.Context) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Position
	if err := s.db.WithContext(ctx).
		Model(&models.Position{}).
		Order("opened_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeletePositionBySymbol(ctx context.Context, symbol string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("symbol = ?", strings.TrimSpace(symbol)).
		Delete(&models.Position{}).Error
}

// --- Cycle bookkeeping ------------------------------------------------------

func (s *Store) InsertCycleRecord(ctx context.Context, item *models.CycleRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListCycleRecords(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.CycleRecord
	if err := s.db.WithContext(ctx).
		Model(&models.CycleRecord{}).
		Order("cycle_number desc").
		Limit(normalizeLimit(limit, 50)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MaxCycleNumber(ctx context.Context) (uint64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var out struct {
		Max uint64
	}
	err := s.db.WithContext(ctx).
		Model(&models.CycleRecord{}).
		Select("COALESCE(MAX(cycle_number), 0) AS max").
		Scan(&out).Error
	if err != nil {
		return 0, err
	}
	return out.Max, nil
}

// --- Optimization events ----------------------------------------------------

func (s *Store) InsertOptimizationEvent(ctx context.Context, item *models.OptimizationEvent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListOptimizationEvents(ctx context.Context, params repository.ListOptimizationEventsParams) ([]models.OptimizationEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.OptimizationEvent{})
	if params.Module != nil && strings.TrimSpace(*params.Module) != "" {
		query = query.Where("module = ?", strings.TrimSpace(*params.Module))
	}
	if params.Strategy != nil && strings.TrimSpace(*params.Strategy) != "" {
		query = query.Where("strategy = ?", strings.TrimSpace(*params.Strategy))
	}
	if params.Applied != nil {
		query = query.Where("applied = ?", *params.Applied)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	var items []models.OptimizationEvent
	if err := query.
		Order("created_at desc").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOptimizationEventsSince(ctx context.Context, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	query := s.db.WithContext(ctx).Model(&models.OptimizationEvent{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) LastOptimizationEventAt(ctx context.Context, module, strategy string) (*time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.OptimizationEvent
	err := s.db.WithContext(ctx).
		Where("module = ? AND strategy = ?", strings.TrimSpace(module), strings.TrimSpace(strategy)).
		Order("created_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := item.CreatedAt
	return &t, nil
}

// --- Portfolio --------------------------------------------------------------

func (s *Store) InsertPortfolioSnapshot(ctx context.Context, item *models.PortfolioSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "snapshot_at"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_positions",
			"cash",
			"equity",
			"buying_power",
			"unrealized_pnl",
			"realized_pnl",
			"net_liquidation",
		}),
	}).Create(item).Error
}

func (s *Store) LatestPortfolioSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PortfolioSnapshot
	err := s.db.WithContext(ctx).
		Order("snapshot_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- System settings --------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	col := strings.TrimSpace(orderBy)
	if col == "" {
		col = fallback
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(col + " " + dir)
}
