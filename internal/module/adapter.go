package module

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
)

// Adapter is the uniform interface over strategy modules. Each variant
// produces zero or more candidate signals per cycle; the strategy logic
// behind a Source is an external collaborator.
type Adapter interface {
	Module() core.Module
	CollectSignals(ctx context.Context) ([]core.Signal, error)
}

// Candidate is the raw shape a Source returns before module tagging and
// validation.
type Candidate struct {
	Strategy   string          `json:"strategy"`
	Symbol     string          `json:"symbol"`
	Confidence float64         `json:"confidence"`
	Side       string          `json:"side"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
}

// Source produces candidates and quotes for a module. Implementations wrap
// brokerage or market-data collaborators.
type Source interface {
	Candidates(ctx context.Context, module core.Module) ([]Candidate, error)
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// signalFromCandidate validates and tags one candidate. Candidates with an
// empty strategy or symbol, a confidence outside [0,1], or a non-positive
// size are dropped rather than clamped: a malformed candidate says the
// upstream module is confused, not that its signal was marginal.
func signalFromCandidate(mod core.Module, c Candidate, now time.Time) (core.Signal, bool) {
	strategy := strings.TrimSpace(c.Strategy)
	symbol := strings.ToUpper(strings.TrimSpace(c.Symbol))
	if strategy == "" || symbol == "" {
		return core.Signal{}, false
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return core.Signal{}, false
	}
	if c.Size.LessThanOrEqual(decimal.Zero) {
		return core.Signal{}, false
	}
	side := core.Side(strings.ToLower(strings.TrimSpace(c.Side)))
	if side != core.SideBuy && side != core.SideSell {
		return core.Signal{}, false
	}
	return core.Signal{
		Key:        core.StrategyKey{Module: mod, Strategy: strategy},
		Symbol:     symbol,
		Confidence: c.Confidence,
		Side:       side,
		Size:       c.Size,
		Price:      c.Price,
		Timestamp:  now,
	}, true
}
