package module

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"autotrader/internal/core"
)

// CryptoAdapter covers crypto strategies. Symbols are normalized to the
// BASE/USD form quote sources expect.
type CryptoAdapter struct {
	Source Source
	Logger *zap.Logger
}

func (a *CryptoAdapter) Module() core.Module { return core.ModuleCrypto }

func (a *CryptoAdapter) CollectSignals(ctx context.Context) ([]core.Signal, error) {
	if a == nil || a.Source == nil {
		return nil, nil
	}
	candidates, err := a.Source.Candidates(ctx, core.ModuleCrypto)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]core.Signal, 0, len(candidates))
	for _, c := range candidates {
		sig, ok := signalFromCandidate(core.ModuleCrypto, c, now)
		if !ok {
			if a.Logger != nil {
				a.Logger.Debug("crypto adapter dropped candidate", zap.String("symbol", c.Symbol))
			}
			continue
		}
		sig.Symbol = normalizeCryptoSymbol(sig.Symbol)
		out = append(out, sig)
	}
	return out, nil
}

func normalizeCryptoSymbol(symbol string) string {
	if strings.Contains(symbol, "/") {
		return symbol
	}
	if strings.HasSuffix(symbol, "USD") {
		return strings.TrimSuffix(symbol, "USD") + "/USD"
	}
	return symbol + "/USD"
}
