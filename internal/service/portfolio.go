package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"autotrader/internal/core"
	"autotrader/internal/models"
)

type PortfolioStore interface {
	ListOpenPositions(ctx context.Context) ([]models.Position, error)
	UpsertPosition(ctx context.Context, item *models.Position) error
	SumRealizedPnL(ctx context.Context) (decimal.Decimal, error)
	InsertPortfolioSnapshot(ctx context.Context, item *models.PortfolioSnapshot) error
}

type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Portfolio maintains position marks and periodic account snapshots on top of
// a paper ledger: cash starts at InitialCash and moves with realized pnl and
// open cost.
type Portfolio struct {
	Store       PortfolioStore
	Quotes      QuoteSource
	Logger      *zap.Logger
	InitialCash decimal.Decimal
}

// RefreshPositions re-marks every open position from the quote source.
// A failed quote leaves that position's previous mark in place.
func (p *Portfolio) RefreshPositions(ctx context.Context) error {
	if p == nil || p.Store == nil || p.Quotes == nil {
		return errors.New("portfolio service not wired")
	}
	positions, err := p.Store.ListOpenPositions(ctx)
	if err != nil {
		return err
	}
	for i := range positions {
		pos := positions[i]
		price, err := p.Quotes.Quote(ctx, pos.Symbol)
		if err != nil || price.LessThanOrEqual(decimal.Zero) {
			if err != nil && p.Logger != nil {
				p.Logger.Warn("quote failed", zap.String("symbol", pos.Symbol), zap.Error(err))
			}
			continue
		}
		pos.CurrentPrice = price
		pos.UnrealizedPnL = unrealizedPnL(pos)
		if err := p.Store.UpsertPosition(ctx, &pos); err != nil {
			return err
		}
	}
	return nil
}

// TakeSnapshot records the current account state derived from the ledger.
func (p *Portfolio) TakeSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	if p == nil || p.Store == nil {
		return nil, errors.New("portfolio service not wired")
	}
	positions, err := p.Store.ListOpenPositions(ctx)
	if err != nil {
		return nil, err
	}
	realized, err := p.Store.SumRealizedPnL(ctx)
	if err != nil {
		return nil, err
	}

	openCost := decimal.Zero
	marketValue := decimal.Zero
	unrealized := decimal.Zero
	for _, pos := range positions {
		openCost = openCost.Add(pos.EntryPrice.Mul(pos.Quantity))
		marketValue = marketValue.Add(pos.CurrentPrice.Mul(pos.Quantity))
		unrealized = unrealized.Add(unrealizedPnL(pos))
	}

	cash := p.InitialCash.Add(realized).Sub(openCost)
	equity := marketValue
	netLiquidation := cash.Add(equity)

	snapshot := models.PortfolioSnapshot{
		SnapshotAt:     time.Now().UTC().Truncate(time.Second),
		TotalPositions: len(positions),
		Cash:           cash,
		Equity:         equity,
		BuyingPower:    cash,
		UnrealizedPnL:  unrealized,
		RealizedPnL:    realized,
		NetLiquidation: netLiquidation,
	}
	if err := p.Store.InsertPortfolioSnapshot(ctx, &snapshot); err != nil {
		return nil, err
	}
	if p.Logger != nil {
		p.Logger.Info("portfolio snapshot",
			zap.Int("positions", snapshot.TotalPositions),
			zap.String("net_liquidation", snapshot.NetLiquidation.StringFixed(2)),
		)
	}
	return &snapshot, nil
}

func unrealizedPnL(pos models.Position) decimal.Decimal {
	pnl := pos.CurrentPrice.Sub(pos.EntryPrice).Mul(pos.Quantity)
	if pos.Side == string(core.SideSell) {
		return pnl.Neg()
	}
	return pnl
}
