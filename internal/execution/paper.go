package execution

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"autotrader/internal/core"
)

var ErrNoReferencePrice = errors.New("signal has no reference price")

// PaperExecutor fills orders at the signal's reference price plus a fixed
// slippage haircut. Used in dry-run mode and in tests; shares the Executor
// contract with live brokerage executors.
type PaperExecutor struct {
	Logger      *zap.Logger
	SlippageBps int
}

func (e *PaperExecutor) Execute(ctx context.Context, sig core.Signal) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}
	if sig.Price.LessThanOrEqual(decimal.Zero) {
		return Fill{}, ErrNoReferencePrice
	}
	price := sig.Price
	if e != nil && e.SlippageBps > 0 {
		slip := decimal.NewFromInt(int64(e.SlippageBps)).Div(decimal.NewFromInt(10000))
		adj := sig.Price.Mul(slip)
		if sig.Side == core.SideBuy {
			price = price.Add(adj)
		} else {
			price = price.Sub(adj)
		}
	}
	fill := Fill{
		Symbol:   sig.Symbol,
		Side:     sig.Side,
		Quantity: sig.Size,
		Price:    price,
		FilledAt: time.Now().UTC(),
	}
	if e != nil && e.Logger != nil {
		e.Logger.Debug("paper fill",
			zap.String("symbol", fill.Symbol),
			zap.String("side", string(fill.Side)),
			zap.String("price", fill.Price.StringFixed(4)),
		)
	}
	return fill, nil
}
