package module

import (
	"context"
	"time"

	"go.uber.org/zap"

	"autotrader/internal/core"
)

// OptionsAdapter covers options strategies. Contracts are whole-lot only, so
// fractional sizes are rejected here rather than at execution.
type OptionsAdapter struct {
	Source Source
	Logger *zap.Logger
}

func (a *OptionsAdapter) Module() core.Module { return core.ModuleOptions }

func (a *OptionsAdapter) CollectSignals(ctx context.Context) ([]core.Signal, error) {
	if a == nil || a.Source == nil {
		return nil, nil
	}
	candidates, err := a.Source.Candidates(ctx, core.ModuleOptions)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]core.Signal, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		sig, ok := signalFromCandidate(core.ModuleOptions, c, now)
		if !ok {
			dropped++
			continue
		}
		if !sig.Size.Equal(sig.Size.Truncate(0)) {
			dropped++
			continue
		}
		out = append(out, sig)
	}
	if dropped > 0 && a.Logger != nil {
		a.Logger.Debug("options adapter dropped candidates", zap.Int("dropped", dropped))
	}
	return out, nil
}
