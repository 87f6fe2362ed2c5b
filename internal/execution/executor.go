package execution

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"autotrader/internal/core"
)

// Fill is the result of executing one admitted signal.
type Fill struct {
	Symbol   string
	Side     core.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	FilledAt time.Time
}

// Executor places orders for admitted signals. Real brokerage order routing
// lives behind this interface; the core never talks to a venue directly.
type Executor interface {
	Execute(ctx context.Context, sig core.Signal) (Fill, error)
}
