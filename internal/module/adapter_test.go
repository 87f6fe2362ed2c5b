package module

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
)

type stubSource struct {
	candidates map[core.Module][]Candidate
	quote      decimal.Decimal
}

func (s *stubSource) Candidates(ctx context.Context, mod core.Module) ([]Candidate, error) {
	return s.candidates[mod], nil
}

func (s *stubSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return s.quote, nil
}

func candidate(strategy, symbol string, confidence float64) Candidate {
	return Candidate{
		Strategy:   strategy,
		Symbol:     symbol,
		Confidence: confidence,
		Side:       "buy",
		Size:       decimal.NewFromInt(5),
		Price:      decimal.NewFromInt(100),
	}
}

func TestSignalFromCandidateValidation(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name string
		in   Candidate
		ok   bool
	}{
		{"valid", candidate("momentum", "aapl", 0.7), true},
		{"empty strategy", candidate("", "AAPL", 0.7), false},
		{"empty symbol", candidate("momentum", " ", 0.7), false},
		{"confidence above one", candidate("momentum", "AAPL", 1.2), false},
		{"negative confidence", candidate("momentum", "AAPL", -0.1), false},
	}
	for _, tt := range tests {
		if _, ok := signalFromCandidate(core.ModuleStocks, tt.in, now); ok != tt.ok {
			t.Fatalf("%s: ok=%v want=%v", tt.name, ok, tt.ok)
		}
	}

	bad := candidate("momentum", "AAPL", 0.7)
	bad.Size = decimal.Zero
	if _, ok := signalFromCandidate(core.ModuleStocks, bad, now); ok {
		t.Fatalf("zero size must be dropped")
	}
	bad = candidate("momentum", "AAPL", 0.7)
	bad.Side = "hold"
	if _, ok := signalFromCandidate(core.ModuleStocks, bad, now); ok {
		t.Fatalf("unknown side must be dropped")
	}

	sig, ok := signalFromCandidate(core.ModuleStocks, candidate("momentum", " aapl ", 0.7), now)
	if !ok || sig.Symbol != "AAPL" {
		t.Fatalf("symbol=%q want normalized AAPL", sig.Symbol)
	}
}

func TestStocksAdapterDropsUnpricedCandidates(t *testing.T) {
	unpriced := candidate("momentum", "MSFT", 0.8)
	unpriced.Price = decimal.Zero
	source := &stubSource{candidates: map[core.Module][]Candidate{
		core.ModuleStocks: {candidate("momentum", "AAPL", 0.7), unpriced},
	}}
	a := &StocksAdapter{Source: source}

	signals, err := a.CollectSignals(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(signals) != 1 || signals[0].Symbol != "AAPL" {
		t.Fatalf("signals=%+v want only AAPL", signals)
	}
	if signals[0].Key.Module != core.ModuleStocks {
		t.Fatalf("module=%v want=stocks", signals[0].Key.Module)
	}
}

func TestCryptoAdapterNormalizesSymbols(t *testing.T) {
	source := &stubSource{candidates: map[core.Module][]Candidate{
		core.ModuleCrypto: {
			candidate("breakout", "BTC", 0.7),
			candidate("breakout", "ETHUSD", 0.7),
			candidate("breakout", "SOL/USD", 0.7),
		},
	}}
	a := &CryptoAdapter{Source: source}

	signals, err := a.CollectSignals(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []string{"BTC/USD", "ETH/USD", "SOL/USD"}
	if len(signals) != len(want) {
		t.Fatalf("signals=%d want=%d", len(signals), len(want))
	}
	for i, symbol := range want {
		if signals[i].Symbol != symbol {
			t.Fatalf("symbol[%d]=%q want=%q", i, signals[i].Symbol, symbol)
		}
	}
}

func TestOptionsAdapterRejectsFractionalSize(t *testing.T) {
	fractional := candidate("iron_condor", "SPY", 0.8)
	fractional.Size = decimal.NewFromFloat(1.5)
	source := &stubSource{candidates: map[core.Module][]Candidate{
		core.ModuleOptions: {candidate("iron_condor", "SPY", 0.7), fractional},
	}}
	a := &OptionsAdapter{Source: source}

	signals, err := a.CollectSignals(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("signals=%d want=1, fractional contract sizes are whole-lot only", len(signals))
	}
}
