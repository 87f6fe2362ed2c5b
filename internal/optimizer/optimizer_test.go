package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
	"autotrader/internal/gate"
	"autotrader/internal/models"
	"autotrader/internal/perf"
	"autotrader/internal/repository"
)

type stubStore struct {
	recent      []models.Trade
	lastEventAt *time.Time
	history     []models.OptimizationEvent
	inserted    []models.OptimizationEvent
}

func (s *stubStore) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	return s.recent, nil
}

func (s *stubStore) LastOptimizationEventAt(ctx context.Context, module, strategy string) (*time.Time, error) {
	return s.lastEventAt, nil
}

func (s *stubStore) InsertOptimizationEvent(ctx context.Context, item *models.OptimizationEvent) error {
	s.inserted = append(s.inserted, *item)
	return nil
}

func (s *stubStore) ListOptimizationEvents(ctx context.Context, params repository.ListOptimizationEventsParams) ([]models.OptimizationEvent, error) {
	return s.history, nil
}

func closedTrades(key core.StrategyKey, wins, losses int, threshold float64) []models.Trade {
	var out []models.Trade
	for i := 0; i < wins; i++ {
		out = append(out, closedTrade(key, 10, threshold))
	}
	for i := 0; i < losses; i++ {
		out = append(out, closedTrade(key, -10, threshold))
	}
	return out
}

func trackerWith(trades ...[]models.Trade) *perf.Tracker {
	tr := perf.NewTracker()
	for _, batch := range trades {
		for _, t := range batch {
			tr.RecordClose(t)
		}
	}
	return tr
}

func closedTrade(key core.StrategyKey, pnl float64, threshold float64) models.Trade {
	opened := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	closed := opened.Add(time.Hour)
	p := decimal.NewFromFloat(pnl)
	return models.Trade{
		Module:           string(key.Module),
		Strategy:         key.Strategy,
		Symbol:           "AAPL",
		Status:           models.TradeStatusClosed,
		PnL:              &p,
		ThresholdAtEntry: threshold,
		OpenedAt:         opened,
		ClosedAt:         &closed,
	}
}

func newTestOptimizer(store *stubStore, g *gate.Gate, tr *perf.Tracker) *Optimizer {
	return &Optimizer{
		Store:   store,
		Gate:    g,
		Tracker: tr,
		Config: Config{
			MinSamples:      10,
			StepFraction:    0.10,
			Margin:          0.05,
			BaselineWindow:  168 * time.Hour,
			BaselineWinRate: 0.5,
			HistoryDepth:    10,
		},
	}
}

func newLoadedGate(key core.StrategyKey, threshold float64) *gate.Gate {
	g := &gate.Gate{Config: gate.Config{DefaultThreshold: 0.60, MinBound: 0.05, MaxBound: 0.95}}
	g.Load(context.Background())
	g.SetThreshold(context.Background(), key, threshold, gate.SourceManual)
	return g
}

func TestProposesDecreaseOnHighWinRate(t *testing.T) {
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}
	// 17 wins / 25 trades = 68% recent win rate. No prior history, so the
	// comparison falls back to the configured 50% baseline.
	recent := closedTrades(key, 17, 8, 0.50)
	store := &stubStore{recent: recent}
	g := newLoadedGate(key, 0.50)
	o := newTestOptimizer(store, g, trackerWith(recent))

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("events=%d want=1", len(store.inserted))
	}
	event := store.inserted[0]
	if !event.Applied {
		t.Fatalf("applied=false want=true")
	}
	if event.NewValue >= event.OldValue {
		t.Fatalf("new=%v old=%v want new < old", event.NewValue, event.OldValue)
	}
	if event.NewValue < 0.05 || event.NewValue > 0.95 {
		t.Fatalf("new value %v left safety band", event.NewValue)
	}
	if event.Reason != ReasonLoosen {
		t.Fatalf("reason=%q want=%q", event.Reason, ReasonLoosen)
	}
	if event.SampleSize != 25 {
		t.Fatalf("sample_size=%d want=25", event.SampleSize)
	}
	value, _ := g.Threshold(key)
	if value != event.NewValue {
		t.Fatalf("gate threshold=%v want=%v", value, event.NewValue)
	}
}

func TestProposesIncreaseOnLowWinRate(t *testing.T) {
	key := core.StrategyKey{Module: core.ModuleCrypto, Strategy: "breakout"}
	recent := closedTrades(key, 5, 15, 0.50)
	store := &stubStore{recent: recent}
	g := newLoadedGate(key, 0.50)
	o := newTestOptimizer(store, g, trackerWith(recent))

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("events=%d want=1", len(store.inserted))
	}
	event := store.inserted[0]
	if !event.Applied || event.NewValue <= event.OldValue {
		t.Fatalf("event=%+v want applied increase", event)
	}
	if event.Reason != ReasonTighten {
		t.Fatalf("reason=%q want=%q", event.Reason, ReasonTighten)
	}
}

func TestBaselineDerivedFromHistory(t *testing.T) {
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}
	// Prior history runs at 90% (45/50); the recent window dipped to 80%
	// (16/20). 80% clears the static 50% default, but against the key's own
	// baseline it is a decline past the margin, so the threshold tightens.
	prior := closedTrades(key, 45, 5, 0.50)
	recent := closedTrades(key, 16, 4, 0.50)
	store := &stubStore{recent: recent}
	g := newLoadedGate(key, 0.50)
	o := newTestOptimizer(store, g, trackerWith(prior, recent))

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("events=%d want=1", len(store.inserted))
	}
	event := store.inserted[0]
	if event.Reason != ReasonTighten {
		t.Fatalf("reason=%q want=%q against historical baseline", event.Reason, ReasonTighten)
	}
	if event.NewValue <= event.OldValue {
		t.Fatalf("new=%v old=%v want tightened threshold", event.NewValue, event.OldValue)
	}
	if event.WinRate != 0.8 {
		t.Fatalf("win_rate=%v want recent-window 0.8", event.WinRate)
	}
}

func TestInsufficientSamplesNoProposal(t *testing.T) {
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}
	recent := closedTrades(key, 4, 1, 0.50)
	store := &stubStore{recent: recent}
	g := newLoadedGate(key, 0.50)
	o := newTestOptimizer(store, g, trackerWith(recent))

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("events=%d want=0 below min samples", len(store.inserted))
	}
}

func TestWithinMarginNoProposal(t *testing.T) {
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}
	// 52% recent win rate, within the 5% margin around the 50% baseline.
	recent := closedTrades(key, 13, 12, 0.50)
	store := &stubStore{recent: recent}
	g := newLoadedGate(key, 0.50)
	o := newTestOptimizer(store, g, trackerWith(recent))

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("events=%d want=0 within margin", len(store.inserted))
	}
}

func TestOutOfBoundsRecordedUnapplied(t *testing.T) {
	key := core.StrategyKey{Module: core.ModuleOptions, Strategy: "iron_condor"}
	// Threshold at the floor; a high win rate proposes stepping below it.
	recent := closedTrades(key, 27, 3, 0.05)
	store := &stubStore{recent: recent}
	g := newLoadedGate(key, 0.05)
	o := newTestOptimizer(store, g, trackerWith(recent))

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("events=%d want=1", len(store.inserted))
	}
	event := store.inserted[0]
	if event.Applied {
		t.Fatalf("applied=true want=false for out-of-bounds proposal")
	}
	if event.NewValue != 0.05 {
		t.Fatalf("new value=%v want clamped 0.05", event.NewValue)
	}
	value, _ := g.Threshold(key)
	if value != 0.05 {
		t.Fatalf("gate threshold moved to %v on rejected proposal", value)
	}
}

func TestExpectedImprovementFromHistory(t *testing.T) {
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}
	recent := closedTrades(key, 14, 6, 0.50)
	store := &stubStore{
		recent: recent,
		history: []models.OptimizationEvent{
			{NewValue: 0.50, WinRate: 0.60, Applied: true},
			{NewValue: 0.60, WinRate: 0.50, Applied: true},
		},
	}
	g := newLoadedGate(key, 0.50)
	o := newTestOptimizer(store, g, trackerWith(recent))

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("events=%d want=1", len(store.inserted))
	}
	event := store.inserted[0]
	// Slope is (0.60-0.50)/(0.50-0.60) = -1; a 0.05 decrease extrapolates
	// to a +0.05 win-rate delta.
	if event.ExpectedImprovement <= 0 {
		t.Fatalf("expected_improvement=%v want > 0", event.ExpectedImprovement)
	}
}
