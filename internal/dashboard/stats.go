package dashboard

import (
	"math"

	"autotrader/internal/models"
)

// sharpeRatio over per-trade pnl, annualization left to the client. Zero with
// fewer than two trades or zero variance.
func sharpeRatio(trades []models.Trade) float64 {
	pnls := closedPnLs(trades)
	if len(pnls) < 2 {
		return 0
	}
	var sum float64
	for _, p := range pnls {
		sum += p
	}
	mean := sum / float64(len(pnls))
	var variance float64
	for _, p := range pnls {
		d := p - mean
		variance += d * d
	}
	variance /= float64(len(pnls) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}

// maxDrawdown is the largest peak-to-trough drop of the cumulative pnl curve,
// reported as a positive number. Trades must be in close order.
func maxDrawdown(trades []models.Trade) float64 {
	pnls := closedPnLs(trades)
	var cumulative, peak, worst float64
	for _, p := range pnls {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > worst {
			worst = dd
		}
	}
	return worst
}

func bestWorstTrade(trades []models.Trade) (best, worst float64) {
	for _, p := range closedPnLs(trades) {
		if p > best {
			best = p
		}
		if p < worst {
			worst = p
		}
	}
	return best, worst
}

func closedPnLs(trades []models.Trade) []float64 {
	out := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.Status != models.TradeStatusClosed || t.PnL == nil {
			continue
		}
		out = append(out, t.PnL.InexactFloat64())
	}
	return out
}
