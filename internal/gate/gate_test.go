package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
	"autotrader/internal/models"
)

type stubStore struct {
	entries []models.ThresholdEntry
	changes []models.ThresholdChange
	listErr error
}

func (s *stubStore) UpsertThresholdEntry(ctx context.Context, item *models.ThresholdEntry) error {
	s.entries = append(s.entries, *item)
	return nil
}

func (s *stubStore) ListThresholdEntries(ctx context.Context) ([]models.ThresholdEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.entries, nil
}

func (s *stubStore) InsertThresholdChange(ctx context.Context, item *models.ThresholdChange) error {
	s.changes = append(s.changes, *item)
	return nil
}

func newTestGate(store Store) *Gate {
	return &Gate{
		Store: store,
		Config: Config{
			DefaultThreshold: 0.60,
			MinBound:         0.05,
			MaxBound:         0.95,
		},
	}
}

func signal(mod core.Module, strategy string, confidence float64) core.Signal {
	return core.Signal{
		Key:        core.StrategyKey{Module: mod, Strategy: strategy},
		Symbol:     "AAPL",
		Confidence: confidence,
		Side:       core.SideBuy,
		Size:       decimal.NewFromInt(1),
		Timestamp:  time.Now().UTC(),
	}
}

func TestAdmitPopulatesDefault(t *testing.T) {
	store := &stubStore{}
	g := newTestGate(store)
	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	ok, threshold := g.Admit(context.Background(), signal(core.ModuleStocks, "momentum", 0.70))
	if !ok {
		t.Fatalf("admit=%v want=true", ok)
	}
	if threshold != 0.60 {
		t.Fatalf("threshold=%v want=0.60", threshold)
	}
	if len(store.entries) != 1 {
		t.Fatalf("persisted entries=%d want=1", len(store.entries))
	}
	if store.entries[0].UpdatedBy != SourceDefault {
		t.Fatalf("updated_by=%q want=%q", store.entries[0].UpdatedBy, SourceDefault)
	}
}

func TestAdmitBoundary(t *testing.T) {
	g := newTestGate(&stubStore{})
	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	key := core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"}
	if err := g.SetThreshold(context.Background(), key, 0.50, SourceManual); err != nil {
		t.Fatalf("set threshold: %v", err)
	}

	if ok, _ := g.Admit(context.Background(), signal(core.ModuleStocks, "momentum", 0.49)); ok {
		t.Fatalf("confidence 0.49 admitted against threshold 0.50")
	}
	if ok, _ := g.Admit(context.Background(), signal(core.ModuleStocks, "momentum", 0.50)); !ok {
		t.Fatalf("confidence 0.50 rejected against threshold 0.50")
	}
	if ok, _ := g.Admit(context.Background(), signal(core.ModuleStocks, "momentum", 0.51)); !ok {
		t.Fatalf("confidence 0.51 rejected against threshold 0.50")
	}
}

func TestSetThresholdOutOfBounds(t *testing.T) {
	g := newTestGate(&stubStore{})
	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	key := core.StrategyKey{Module: core.ModuleCrypto, Strategy: "breakout"}
	if err := g.SetThreshold(context.Background(), key, 0.40, SourceManual); err != nil {
		t.Fatalf("set threshold: %v", err)
	}

	for _, bad := range []float64{0.96, 0.04, -1, 2} {
		err := g.SetThreshold(context.Background(), key, bad, SourceOptimizer)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("SetThreshold(%v) err=%v want ErrOutOfBounds", bad, err)
		}
	}
	value, ok := g.Threshold(key)
	if !ok || value != 0.40 {
		t.Fatalf("threshold after rejections=%v want=0.40", value)
	}
}

func TestSetThresholdAudit(t *testing.T) {
	store := &stubStore{}
	g := newTestGate(store)
	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	key := core.StrategyKey{Module: core.ModuleOptions, Strategy: "iron_condor"}
	if err := g.SetThreshold(context.Background(), key, 0.55, SourceManual); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	if err := g.SetThreshold(context.Background(), key, 0.65, SourceOptimizer); err != nil {
		t.Fatalf("set threshold: %v", err)
	}

	if len(store.changes) != 2 {
		t.Fatalf("changes=%d want=2", len(store.changes))
	}
	first, second := store.changes[0], store.changes[1]
	if first.OldValue != nil {
		t.Fatalf("first change old_value=%v want=nil", *first.OldValue)
	}
	if second.OldValue == nil || *second.OldValue != 0.55 {
		t.Fatalf("second change old_value=%v want=0.55", second.OldValue)
	}
	if second.NewValue != 0.65 || second.Source != SourceOptimizer {
		t.Fatalf("second change=%+v", second)
	}
}

func TestLoadHydratesEntries(t *testing.T) {
	store := &stubStore{entries: []models.ThresholdEntry{
		{Module: "stocks", Strategy: "momentum", Value: 0.72, UpdatedBy: SourceOptimizer},
	}}
	g := newTestGate(store)
	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	value, ok := g.Threshold(core.StrategyKey{Module: core.ModuleStocks, Strategy: "momentum"})
	if !ok || value != 0.72 {
		t.Fatalf("threshold=%v ok=%v want=0.72 true", value, ok)
	}
}

func TestClamp(t *testing.T) {
	g := newTestGate(nil)
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0.01, 0.05},
		{1.2, 0.95},
	}
	for _, tt := range tests {
		if got := g.Clamp(tt.in); got != tt.want {
			t.Fatalf("Clamp(%v)=%v want=%v", tt.in, got, tt.want)
		}
	}
}
