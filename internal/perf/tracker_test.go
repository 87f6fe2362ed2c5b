package perf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
	"autotrader/internal/models"
)

func closedTrade(module, strategy string, pnl float64, threshold float64) models.Trade {
	opened := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	closed := opened.Add(2 * time.Hour)
	p := decimal.NewFromFloat(pnl)
	return models.Trade{
		TradeID:          "t-" + strategy,
		Module:           module,
		Strategy:         strategy,
		Symbol:           "AAPL",
		Status:           models.TradeStatusClosed,
		PnL:              &p,
		ThresholdAtEntry: threshold,
		OpenedAt:         opened,
		ClosedAt:         &closed,
	}
}

func TestRecordCloseAggregates(t *testing.T) {
	tr := NewTracker()
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}

	tr.RecordClose(closedTrade("stocks", "momentum", 25.5, 0.50))
	tr.RecordClose(closedTrade("stocks", "momentum", -10, 0.50))
	tr.RecordClose(closedTrade("stocks", "momentum", 0, 0.50))

	record, ok := tr.Snapshot(key)
	if !ok {
		t.Fatalf("no record for %v", key)
	}
	if record.TotalTrades != 3 {
		t.Fatalf("total=%d want=3", record.TotalTrades)
	}
	if record.Wins != 1 || record.Losses != 1 {
		t.Fatalf("wins=%d losses=%d want=1 1", record.Wins, record.Losses)
	}
	if record.Wins+record.Losses > record.TotalTrades {
		t.Fatalf("wins+losses=%d exceeds total=%d", record.Wins+record.Losses, record.TotalTrades)
	}
	if !record.TotalPnL.Equal(decimal.NewFromFloat(15.5)) {
		t.Fatalf("total_pnl=%v want=15.5", record.TotalPnL)
	}
	if record.AvgHold() != 2*time.Hour {
		t.Fatalf("avg_hold=%v want=2h", record.AvgHold())
	}
}

func TestRecordCloseIgnoresOpenTrades(t *testing.T) {
	tr := NewTracker()
	trade := closedTrade("stocks", "momentum", 5, 0.50)
	trade.Status = models.TradeStatusOpen
	tr.RecordClose(trade)
	trade2 := closedTrade("stocks", "momentum", 5, 0.50)
	trade2.PnL = nil
	tr.RecordClose(trade2)

	if _, ok := tr.Snapshot(core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}); ok {
		t.Fatalf("open and pnl-less trades must not be recorded")
	}
}

func TestThresholdBuckets(t *testing.T) {
	tr := NewTracker()
	key := core.StrategyKey{Module: core.ModuleCrypto, Strategy: "breakout"}

	tr.RecordClose(closedTrade("crypto", "breakout", 10, 0.504))
	tr.RecordClose(closedTrade("crypto", "breakout", -5, 0.498))
	tr.RecordClose(closedTrade("crypto", "breakout", 3, 0.60))

	effects := tr.ThresholdEffects(key)
	if len(effects) != 2 {
		t.Fatalf("buckets=%d want=2", len(effects))
	}
	bucket, ok := effects[0.50]
	if !ok {
		t.Fatalf("missing 0.50 bucket: %v", effects)
	}
	if bucket.TotalTrades != 2 || bucket.Wins != 1 || bucket.Losses != 1 {
		t.Fatalf("bucket=%+v want total=2 wins=1 losses=1", bucket)
	}
}

func TestWinRateAndAverages(t *testing.T) {
	var r Record
	if r.WinRate() != 0 || !r.AvgPnLPerTrade().IsZero() || r.AvgHold() != 0 {
		t.Fatalf("empty record must derive zeros")
	}
	r = Record{TotalTrades: 4, Wins: 3, TotalPnL: decimal.NewFromInt(20)}
	if r.WinRate() != 0.75 {
		t.Fatalf("win_rate=%v want=0.75", r.WinRate())
	}
	if !r.AvgPnLPerTrade().Equal(decimal.NewFromInt(5)) {
		t.Fatalf("avg_pnl=%v want=5", r.AvgPnLPerTrade())
	}
}

type stubTradeSource struct {
	trades []models.Trade
}

func (s *stubTradeSource) ListClosedTrades(ctx context.Context, since *time.Time) ([]models.Trade, error) {
	return s.trades, nil
}

func TestRebuild(t *testing.T) {
	tr := NewTracker()
	tr.RecordClose(closedTrade("stocks", "stale", 100, 0.50))

	src := &stubTradeSource{trades: []models.Trade{
		closedTrade("options", "iron_condor", 12, 0.55),
		closedTrade("options", "iron_condor", -4, 0.55),
	}}
	if err := tr.Rebuild(context.Background(), src); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if _, ok := tr.Snapshot(core.StrategyKey{Module: core.ModuleStocks, Strategy: "stale"}); ok {
		t.Fatalf("rebuild must reset prior aggregates")
	}
	record, ok := tr.Snapshot(core.StrategyKey{Module: core.ModuleOptions, Strategy: "iron_condor"})
	if !ok || record.TotalTrades != 2 {
		t.Fatalf("rebuilt record=%+v ok=%v", record, ok)
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.504, 0.50},
		{0.507, 0.51},
		{0.6, 0.60},
	}
	for _, tt := range tests {
		if got := Bucket(tt.in); got != tt.want {
			t.Fatalf("Bucket(%v)=%v want=%v", tt.in, got, tt.want)
		}
	}
}
