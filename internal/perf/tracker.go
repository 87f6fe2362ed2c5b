package perf

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
	"autotrader/internal/models"
)

// Record aggregates closed-trade outcomes for one key. Wins and losses only
// count trades with non-zero pnl, so wins+losses <= total at all times.
// Derived metrics are computed on read, never stored.
type Record struct {
	TotalTrades int
	Wins        int
	Losses      int
	TotalPnL    decimal.Decimal
	TotalHold   time.Duration
}

func (r Record) WinRate() float64 {
	if r.TotalTrades == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.TotalTrades)
}

func (r Record) AvgPnLPerTrade() decimal.Decimal {
	if r.TotalTrades == 0 {
		return decimal.Zero
	}
	return r.TotalPnL.Div(decimal.NewFromInt(int64(r.TotalTrades)))
}

func (r Record) AvgHold() time.Duration {
	if r.TotalTrades == 0 {
		return 0
	}
	return r.TotalHold / time.Duration(r.TotalTrades)
}

type ClosedTradeSource interface {
	ListClosedTrades(ctx context.Context, since *time.Time) ([]models.Trade, error)
}

// Tracker accumulates trade outcomes keyed by strategy key, and additionally
// by the threshold in force at admission so parameter effectiveness can be
// read back per threshold value.
type Tracker struct {
	mu          sync.RWMutex
	byKey       map[core.StrategyKey]*Record
	byThreshold map[core.StrategyKey]map[float64]*Record
}

func NewTracker() *Tracker {
	return &Tracker{
		byKey:       map[core.StrategyKey]*Record{},
		byThreshold: map[core.StrategyKey]map[float64]*Record{},
	}
}

// RecordClose folds one closed trade into the aggregates. Open trades are
// ignored; each trade must be recorded exactly once.
func (t *Tracker) RecordClose(trade models.Trade) {
	if t == nil || trade.Status != models.TradeStatusClosed || trade.PnL == nil {
		return
	}
	mod, err := core.ParseModule(trade.Module)
	if err != nil {
		return
	}
	key := core.StrategyKey{Module: mod, Strategy: trade.Strategy}

	var hold time.Duration
	if trade.ClosedAt != nil {
		hold = trade.ClosedAt.Sub(trade.OpenedAt)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(t.record(key), *trade.PnL, hold)
	t.apply(t.thresholdRecord(key, trade.ThresholdAtEntry), *trade.PnL, hold)
}

func (t *Tracker) apply(r *Record, pnl decimal.Decimal, hold time.Duration) {
	r.TotalTrades++
	switch pnl.Sign() {
	case 1:
		r.Wins++
	case -1:
		r.Losses++
	}
	r.TotalPnL = r.TotalPnL.Add(pnl)
	r.TotalHold += hold
}

// Snapshot returns a copy of the aggregate for one key.
func (t *Tracker) Snapshot(key core.StrategyKey) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byKey[key]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

func (t *Tracker) SnapshotAll() map[core.StrategyKey]Record {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[core.StrategyKey]Record, len(t.byKey))
	for key, r := range t.byKey {
		out[key] = *r
	}
	return out
}

// ThresholdEffects returns per-threshold aggregates for one key, bucketed to
// two decimals.
func (t *Tracker) ThresholdEffects(key core.StrategyKey) map[float64]Record {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	buckets, ok := t.byThreshold[key]
	if !ok {
		return nil
	}
	out := make(map[float64]Record, len(buckets))
	for v, r := range buckets {
		out[v] = *r
	}
	return out
}

func (t *Tracker) AllThresholdEffects() map[core.StrategyKey]map[float64]Record {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[core.StrategyKey]map[float64]Record, len(t.byThreshold))
	for key, buckets := range t.byThreshold {
		inner := make(map[float64]Record, len(buckets))
		for v, r := range buckets {
			inner[v] = *r
		}
		out[key] = inner
	}
	return out
}

// Reset drops all aggregates. The only path that ever decrements.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byKey = map[core.StrategyKey]*Record{}
	t.byThreshold = map[core.StrategyKey]map[float64]*Record{}
}

// Rebuild replays closed trades from storage into a fresh tracker state.
// Called at startup so aggregates survive restarts.
func (t *Tracker) Rebuild(ctx context.Context, src ClosedTradeSource) error {
	if t == nil || src == nil {
		return nil
	}
	trades, err := src.ListClosedTrades(ctx, nil)
	if err != nil {
		return err
	}
	t.Reset()
	for _, trade := range trades {
		t.RecordClose(trade)
	}
	return nil
}

// callers hold t.mu
func (t *Tracker) record(key core.StrategyKey) *Record {
	r, ok := t.byKey[key]
	if !ok {
		r = &Record{TotalPnL: decimal.Zero}
		t.byKey[key] = r
	}
	return r
}

// callers hold t.mu
func (t *Tracker) thresholdRecord(key core.StrategyKey, threshold float64) *Record {
	buckets, ok := t.byThreshold[key]
	if !ok {
		buckets = map[float64]*Record{}
		t.byThreshold[key] = buckets
	}
	bucket := Bucket(threshold)
	r, ok := buckets[bucket]
	if !ok {
		r = &Record{TotalPnL: decimal.Zero}
		buckets[bucket] = r
	}
	return r
}

// Bucket rounds a threshold to two decimals so near-identical values
// aggregate together.
func Bucket(threshold float64) float64 {
	return math.Round(threshold*100) / 100
}
