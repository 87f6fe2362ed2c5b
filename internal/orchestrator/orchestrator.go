package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"autotrader/internal/core"
	"autotrader/internal/execution"
	"autotrader/internal/models"
	"autotrader/internal/module"
	"autotrader/internal/perf"
)

var (
	// ErrCycleBusy means the mutual-exclusion guard could not be acquired
	// within the bounded wait. The cycle is skipped; no partial state commits.
	ErrCycleBusy = errors.New("cycle already in flight")

	ErrTradeNotFound = errors.New("trade not found")
	ErrTradeClosed   = errors.New("trade already closed")
)

type Store interface {
	InsertTrade(ctx context.Context, item *models.Trade) error
	GetTradeByTradeID(ctx context.Context, tradeID string) (*models.Trade, error)
	CloseTrade(ctx context.Context, tradeID string, exitPrice, pnl decimal.Decimal, closedAt time.Time) error
	UpsertPosition(ctx context.Context, item *models.Position) error
	DeletePositionBySymbol(ctx context.Context, symbol string) error
	InsertCycleRecord(ctx context.Context, item *models.CycleRecord) error
	MaxCycleNumber(ctx context.Context) (uint64, error)
}

// Gate is satisfied by gate.Gate.
type Gate interface {
	Admit(ctx context.Context, sig core.Signal) (bool, float64)
}

type Config struct {
	CollectTimeout time.Duration
	ExecuteTimeout time.Duration
	GuardWait      time.Duration
}

// CycleResult summarizes one orchestrator pass. Module and signal failures
// are partial: they are recorded but do not flip Success.
type CycleResult struct {
	CycleNumber     uint64
	StartedAt       time.Time
	Duration        time.Duration
	SignalsSeen     int
	SignalsAdmitted int
	TradesOpened    int
	ModuleFailures  []core.AdapterFailure
	SignalFailures  []core.ExecutionFailure
	Success         bool
}

type ModuleStatus struct {
	LastSeen  time.Time
	LastError string
}

type Status struct {
	CycleNumber uint64
	LastCycleAt time.Time
	StartedAt   time.Time
	Modules     map[core.Module]ModuleStatus
}

// Orchestrator drives one execution cycle: collect candidates from every
// adapter, gate them, execute admitted signals, record outcomes, advance
// cycle bookkeeping. At most one cycle is in flight per process.
type Orchestrator struct {
	Adapters map[core.Module]module.Adapter
	Gate     Gate
	Executor execution.Executor
	Store    Store
	Tracker  *perf.Tracker
	Logger   *zap.Logger
	Config   Config

	guard chan struct{}

	mu        sync.Mutex
	cycleNum  uint64
	lastCycle time.Time
	startedAt time.Time
	modules   map[core.Module]ModuleStatus
}

// Init seeds the cycle counter from storage and must be called once before
// RunCycle.
func (o *Orchestrator) Init(ctx context.Context) error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.guard = make(chan struct{}, 1)
	o.startedAt = time.Now().UTC()
	o.modules = map[core.Module]ModuleStatus{}
	if o.Store == nil {
		return nil
	}
	maxCycle, err := o.Store.MaxCycleNumber(ctx)
	if err != nil {
		return err
	}
	o.cycleNum = maxCycle
	return nil
}

// RunCycle is the single entry point; idempotent to call repeatedly.
// Returns ErrCycleBusy when another cycle holds the guard past GuardWait.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleResult, error) {
	if o == nil || o.Store == nil || o.Gate == nil {
		return CycleResult{}, errors.New("orchestrator not wired")
	}
	if err := o.acquire(ctx); err != nil {
		return CycleResult{}, err
	}
	defer o.release()

	started := time.Now().UTC()
	result := CycleResult{StartedAt: started, Success: true}

	// Collecting: adapters run concurrently, each under its own timeout.
	// Their only shared write is the mutex-guarded signal list.
	signals, failures := o.collect(ctx)
	result.ModuleFailures = failures
	result.SignalsSeen = len(signals)

	// Cancellation point: a cancelled cycle may stop here, before any
	// signal has been executed. Once execution starts, signals run to
	// completion or reported failure.
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Gating.
	type admitted struct {
		sig       core.Signal
		threshold float64
	}
	var toExecute []admitted
	for _, sig := range signals {
		ok, threshold := o.Gate.Admit(ctx, sig)
		if !ok {
			continue
		}
		toExecute = append(toExecute, admitted{sig: sig, threshold: threshold})
	}
	result.SignalsAdmitted = len(toExecute)

	// Executing + Recording trades. Per-signal failures are isolated;
	// persistence failures are hard and flip Success.
	var hardFailure bool
	for _, item := range toExecute {
		fill, err := o.execute(ctx, item.sig)
		if err != nil {
			result.SignalFailures = append(result.SignalFailures, core.ExecutionFailure{Signal: item.sig, Err: err})
			if o.Logger != nil {
				o.Logger.Warn("signal execution failed",
					zap.String("key", item.sig.Key.String()),
					zap.String("symbol", item.sig.Symbol),
					zap.Error(err),
				)
			}
			continue
		}
		if err := o.openTrade(ctx, item.sig, item.threshold, fill); err != nil {
			hardFailure = true
			if o.Logger != nil {
				o.Logger.Error("trade persist failed", zap.String("symbol", item.sig.Symbol), zap.Error(err))
			}
			continue
		}
		result.TradesOpened++
	}

	// Recording: cycle bookkeeping. The counter only advances when the
	// record is durably appended, keeping the sequence gap-free.
	o.mu.Lock()
	nextCycle := o.cycleNum + 1
	o.mu.Unlock()

	result.CycleNumber = nextCycle
	result.Duration = time.Since(started)
	result.Success = !hardFailure

	record := models.CycleRecord{
		CycleNumber:     nextCycle,
		StartedAt:       started,
		DurationMs:      result.Duration.Milliseconds(),
		SignalsSeen:     result.SignalsSeen,
		SignalsAdmitted: result.SignalsAdmitted,
		TradesOpened:    result.TradesOpened,
		ModuleFailures:  failuresJSON(result.ModuleFailures),
		SignalFailures:  signalFailuresJSON(result.SignalFailures),
		Success:         result.Success,
	}
	if err := o.Store.InsertCycleRecord(ctx, &record); err != nil {
		return result, err
	}

	o.mu.Lock()
	o.cycleNum = nextCycle
	o.lastCycle = started
	o.mu.Unlock()

	if o.Logger != nil {
		o.Logger.Info("cycle complete",
			zap.Uint64("cycle", result.CycleNumber),
			zap.Int("seen", result.SignalsSeen),
			zap.Int("admitted", result.SignalsAdmitted),
			zap.Int("opened", result.TradesOpened),
			zap.Int("module_failures", len(result.ModuleFailures)),
			zap.Bool("success", result.Success),
		)
	}
	return result, nil
}

// RecordExit closes an open trade at the given exit price, removes its
// position, and feeds the performance tracker. Trades are immutable once
// closed.
func (o *Orchestrator) RecordExit(ctx context.Context, tradeID string, exitPrice decimal.Decimal) (*models.Trade, error) {
	if o == nil || o.Store == nil {
		return nil, errors.New("orchestrator not wired")
	}
	trade, err := o.Store.GetTradeByTradeID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}
	if trade.Status == models.TradeStatusClosed {
		return nil, ErrTradeClosed
	}

	pnl := exitPrice.Sub(trade.EntryPrice).Mul(trade.Quantity)
	if trade.Side == string(core.SideSell) {
		pnl = pnl.Neg()
	}
	closedAt := time.Now().UTC()
	if err := o.Store.CloseTrade(ctx, tradeID, exitPrice, pnl, closedAt); err != nil {
		return nil, err
	}
	if err := o.Store.DeletePositionBySymbol(ctx, trade.Symbol); err != nil && o.Logger != nil {
		o.Logger.Warn("position delete failed", zap.String("symbol", trade.Symbol), zap.Error(err))
	}

	trade.ExitPrice = &exitPrice
	trade.PnL = &pnl
	trade.Status = models.TradeStatusClosed
	trade.ClosedAt = &closedAt
	if o.Tracker != nil {
		o.Tracker.RecordClose(*trade)
	}
	if o.Logger != nil {
		o.Logger.Info("trade closed",
			zap.String("trade_id", tradeID),
			zap.String("symbol", trade.Symbol),
			zap.String("pnl", pnl.StringFixed(2)),
		)
	}
	return trade, nil
}

func (o *Orchestrator) Status() Status {
	if o == nil {
		return Status{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	modules := make(map[core.Module]ModuleStatus, len(o.modules))
	for mod, st := range o.modules {
		modules[mod] = st
	}
	return Status{
		CycleNumber: o.cycleNum,
		LastCycleAt: o.lastCycle,
		StartedAt:   o.startedAt,
		Modules:     modules,
	}
}

func (o *Orchestrator) acquire(ctx context.Context) error {
	wait := o.Config.GuardWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case o.guard <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrCycleBusy
	}
}

func (o *Orchestrator) release() {
	<-o.guard
}

func (o *Orchestrator) collect(ctx context.Context) ([]core.Signal, []core.AdapterFailure) {
	timeout := o.Config.CollectTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	var (
		mu       sync.Mutex
		signals  []core.Signal
		failures []core.AdapterFailure
		wg       sync.WaitGroup
	)
	now := time.Now().UTC()
	for _, adapter := range o.Adapters {
		adapter := adapter
		if adapter == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			collected, err := adapter.CollectSignals(cctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, core.AdapterFailure{Module: adapter.Module(), Err: err})
				o.noteModule(adapter.Module(), now, err)
				return
			}
			signals = append(signals, collected...)
			o.noteModule(adapter.Module(), now, nil)
		}()
	}
	wg.Wait()
	return signals, failures
}

func (o *Orchestrator) execute(ctx context.Context, sig core.Signal) (execution.Fill, error) {
	if o.Executor == nil {
		return execution.Fill{}, errors.New("no executor wired")
	}
	timeout := o.Config.ExecuteTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ectx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return o.Executor.Execute(ectx, sig)
}

func (o *Orchestrator) openTrade(ctx context.Context, sig core.Signal, threshold float64, fill execution.Fill) error {
	o.mu.Lock()
	cycle := o.cycleNum + 1
	o.mu.Unlock()

	trade := models.Trade{
		TradeID:           uuid.NewString(),
		Module:            string(sig.Key.Module),
		Strategy:          sig.Key.Strategy,
		Symbol:            sig.Symbol,
		Side:              string(sig.Side),
		Quantity:          fill.Quantity,
		EntryPrice:        fill.Price,
		ConfidenceAtEntry: sig.Confidence,
		ThresholdAtEntry:  threshold,
		Status:            models.TradeStatusOpen,
		CycleNumber:       cycle,
		OpenedAt:          fill.FilledAt,
	}
	if err := o.Store.InsertTrade(ctx, &trade); err != nil {
		return err
	}
	position := models.Position{
		Symbol:       sig.Symbol,
		Module:       string(sig.Key.Module),
		Strategy:     sig.Key.Strategy,
		Side:         string(sig.Side),
		Quantity:     fill.Quantity,
		EntryPrice:   fill.Price,
		CurrentPrice: fill.Price,
		TradeID:      trade.TradeID,
		OpenedAt:     fill.FilledAt,
	}
	return o.Store.UpsertPosition(ctx, &position)
}

// callers hold the collect mutex
func (o *Orchestrator) noteModule(mod core.Module, at time.Time, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.modules == nil {
		o.modules = map[core.Module]ModuleStatus{}
	}
	st := ModuleStatus{LastSeen: at}
	if err != nil {
		prev := o.modules[mod]
		st.LastSeen = prev.LastSeen
		st.LastError = err.Error()
	}
	o.modules[mod] = st
}

func failuresJSON(failures []core.AdapterFailure) datatypes.JSON {
	if len(failures) == 0 {
		return nil
	}
	out := map[string]string{}
	for _, f := range failures {
		out[string(f.Module)] = f.Err.Error()
	}
	raw, _ := json.Marshal(out)
	return raw
}

func signalFailuresJSON(failures []core.ExecutionFailure) datatypes.JSON {
	if len(failures) == 0 {
		return nil
	}
	out := make([]map[string]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, map[string]string{
			"key":    f.Signal.Key.String(),
			"symbol": f.Signal.Symbol,
			"error":  f.Err.Error(),
		})
	}
	raw, _ := json.Marshal(out)
	return raw
}
