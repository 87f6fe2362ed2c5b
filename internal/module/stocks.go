package module

import (
	"context"
	"time"

	"go.uber.org/zap"

	"autotrader/internal/core"
)

// StocksAdapter covers equity strategies (momentum, sector rotation, ...).
type StocksAdapter struct {
	Source Source
	Logger *zap.Logger
}

func (a *StocksAdapter) Module() core.Module { return core.ModuleStocks }

func (a *StocksAdapter) CollectSignals(ctx context.Context) ([]core.Signal, error) {
	if a == nil || a.Source == nil {
		return nil, nil
	}
	candidates, err := a.Source.Candidates(ctx, core.ModuleStocks)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]core.Signal, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		sig, ok := signalFromCandidate(core.ModuleStocks, c, now)
		if !ok {
			dropped++
			continue
		}
		// Equity candidates must carry a reference price; market orders
		// without one cannot be sized against the portfolio.
		if sig.Price.IsZero() {
			dropped++
			continue
		}
		out = append(out, sig)
	}
	if dropped > 0 && a.Logger != nil {
		a.Logger.Debug("stocks adapter dropped malformed candidates", zap.Int("dropped", dropped))
	}
	return out, nil
}
