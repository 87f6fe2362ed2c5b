package optimizer

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"autotrader/internal/core"
	"autotrader/internal/gate"
	"autotrader/internal/models"
	"autotrader/internal/perf"
	"autotrader/internal/repository"
)

const (
	ReasonLoosen  = "win_rate_above_baseline"
	ReasonTighten = "win_rate_below_baseline"
)

type Store interface {
	ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error)
	LastOptimizationEventAt(ctx context.Context, module, strategy string) (*time.Time, error)
	InsertOptimizationEvent(ctx context.Context, item *models.OptimizationEvent) error
	ListOptimizationEvents(ctx context.Context, params repository.ListOptimizationEventsParams) ([]models.OptimizationEvent, error)
}

// Gate is the slice of gate.Gate the optimizer needs.
type Gate interface {
	SetThreshold(ctx context.Context, key core.StrategyKey, value float64, source string) error
	Threshold(key core.StrategyKey) (float64, bool)
	Clamp(v float64) float64
}

type Config struct {
	MinSamples      int
	StepFraction    float64
	Margin          float64
	BaselineWindow  time.Duration
	BaselineWinRate float64
	HistoryDepth    int
}

// Optimizer proposes bounded confidence-threshold adjustments from observed
// win rates. Every proposal is appended to the optimization event log whether
// or not the gate accepted it; thresholds only ever change through the gate.
type Optimizer struct {
	Store   Store
	Gate    Gate
	Tracker *perf.Tracker
	Logger  *zap.Logger
	Config  Config
}

// Run evaluates every tracked key on the given interval until ctx ends.
func (o *Optimizer) Run(ctx context.Context, interval time.Duration) {
	if o == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.RunOnce(ctx); err != nil && o.Logger != nil {
				o.Logger.Warn("optimizer pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce walks all keys with recorded outcomes and proposes at most one
// adjustment per key. Per-key failures do not stop the pass.
func (o *Optimizer) RunOnce(ctx context.Context) error {
	if o == nil || o.Store == nil || o.Gate == nil || o.Tracker == nil {
		return errors.New("optimizer not wired")
	}
	var lastErr error
	for key, record := range o.Tracker.SnapshotAll() {
		if err := o.evaluate(ctx, key, record); err != nil {
			lastErr = err
			if o.Logger != nil {
				o.Logger.Warn("optimizer evaluation failed", zap.String("key", key.String()), zap.Error(err))
			}
		}
	}
	return lastErr
}

func (o *Optimizer) evaluate(ctx context.Context, key core.StrategyKey, record perf.Record) error {
	current, ok := o.Gate.Threshold(key)
	if !ok {
		// No gating decision has touched this key yet; nothing to tune.
		return nil
	}

	// Only act on evidence accumulated since the last proposal for the key.
	since, err := o.sinceLastEvent(ctx, key)
	if err != nil {
		return err
	}
	recent, err := o.recentRecord(ctx, key, since)
	if err != nil {
		return err
	}
	minSamples := o.Config.MinSamples
	if minSamples <= 0 {
		minSamples = 10
	}
	if recent.TotalTrades < minSamples {
		return nil
	}

	// The baseline is the key's own history prior to the sample window: the
	// all-time aggregates with the window subtracted out. A key without
	// enough prior history falls back to the configured win rate.
	baselineWinRate := o.Config.BaselineWinRate
	if baselineWinRate <= 0 {
		baselineWinRate = 0.5
	}
	baselineAvgPnL := decimal.Zero
	prior := perf.Record{
		TotalTrades: record.TotalTrades - recent.TotalTrades,
		Wins:        record.Wins - recent.Wins,
		Losses:      record.Losses - recent.Losses,
		TotalPnL:    record.TotalPnL.Sub(recent.TotalPnL),
	}
	if prior.TotalTrades >= minSamples {
		baselineWinRate = prior.WinRate()
		baselineAvgPnL = prior.AvgPnLPerTrade()
	}

	winRate := recent.WinRate()
	margin := o.Config.Margin

	step := current * o.stepFraction()
	var proposed float64
	var reason string
	switch {
	case winRate > baselineWinRate+margin && recent.AvgPnLPerTrade().GreaterThan(baselineAvgPnL):
		// Outperforming its own history on both measures: admit more by
		// lowering the bar.
		proposed = current - step
		reason = ReasonLoosen
	case winRate < baselineWinRate-margin:
		proposed = current + step
		reason = ReasonTighten
	default:
		return nil
	}

	improvement, err := o.expectedImprovement(ctx, key, current, proposed)
	if err != nil {
		return err
	}

	event := models.OptimizationEvent{
		Module:              string(key.Module),
		Strategy:            key.Strategy,
		ParameterType:       models.ParameterTypeConfidenceThreshold,
		OldValue:            current,
		NewValue:            proposed,
		ExpectedImprovement: improvement,
		Applied:             true,
		WinRate:             winRate,
		SampleSize:          recent.TotalTrades,
		Reason:              reason,
	}

	// The raw stepped value goes to the gate unclamped. A band rejection is
	// recorded as an unapplied event carrying the clamped value, so the log
	// shows what the optimizer wanted versus what was admissible.
	if err := o.Gate.SetThreshold(ctx, key, proposed, gate.SourceOptimizer); err != nil {
		if !errors.Is(err, gate.ErrOutOfBounds) {
			return err
		}
		event.Applied = false
		event.NewValue = o.Gate.Clamp(proposed)
	}

	if err := o.Store.InsertOptimizationEvent(ctx, &event); err != nil {
		return err
	}
	if o.Logger != nil {
		o.Logger.Info("optimizer proposal",
			zap.String("key", key.String()),
			zap.Float64("old", event.OldValue),
			zap.Float64("new", event.NewValue),
			zap.Bool("applied", event.Applied),
			zap.Float64("win_rate", winRate),
			zap.Int("samples", recent.TotalTrades),
		)
	}
	return nil
}

// recentRecord aggregates the key's closed trades inside the sample window.
func (o *Optimizer) recentRecord(ctx context.Context, key core.StrategyKey, since time.Time) (perf.Record, error) {
	module := string(key.Module)
	strategy := key.Strategy
	status := models.TradeStatusClosed
	trades, err := o.Store.ListTrades(ctx, repository.ListTradesParams{
		Limit:    1000,
		Module:   &module,
		Strategy: &strategy,
		Status:   &status,
		Since:    &since,
	})
	if err != nil {
		return perf.Record{}, err
	}
	var recent perf.Record
	for _, t := range trades {
		recent.TotalTrades++
		if t.PnL == nil {
			continue
		}
		recent.TotalPnL = recent.TotalPnL.Add(*t.PnL)
		if t.PnL.IsPositive() {
			recent.Wins++
		} else if t.PnL.IsNegative() {
			recent.Losses++
		}
	}
	return recent, nil
}

func (o *Optimizer) sinceLastEvent(ctx context.Context, key core.StrategyKey) (time.Time, error) {
	last, err := o.Store.LastOptimizationEventAt(ctx, string(key.Module), key.Strategy)
	if err != nil {
		return time.Time{}, err
	}
	if last != nil {
		return *last, nil
	}
	window := o.Config.BaselineWindow
	if window <= 0 {
		window = 168 * time.Hour
	}
	return time.Now().UTC().Add(-window), nil
}

// expectedImprovement extrapolates a win-rate delta for the proposed change
// from the slope of recent applied events. With fewer than two usable points
// the estimate is zero rather than a guess.
func (o *Optimizer) expectedImprovement(ctx context.Context, key core.StrategyKey, current, proposed float64) (float64, error) {
	depth := o.Config.HistoryDepth
	if depth <= 0 {
		depth = 10
	}
	module := string(key.Module)
	strategy := key.Strategy
	applied := true
	events, err := o.Store.ListOptimizationEvents(ctx, repository.ListOptimizationEventsParams{
		Limit:    depth,
		Module:   &module,
		Strategy: &strategy,
		Applied:  &applied,
	})
	if err != nil {
		return 0, err
	}
	if len(events) < 2 {
		return 0, nil
	}
	// Events arrive newest-first; slope between the two most recent
	// distinct threshold points.
	for i := 1; i < len(events); i++ {
		dThreshold := events[0].NewValue - events[i].NewValue
		if dThreshold == 0 {
			continue
		}
		slope := (events[0].WinRate - events[i].WinRate) / dThreshold
		return slope * (proposed - current), nil
	}
	return 0, nil
}

func (o *Optimizer) stepFraction() float64 {
	if o.Config.StepFraction <= 0 {
		return 0.10
	}
	return o.Config.StepFraction
}
