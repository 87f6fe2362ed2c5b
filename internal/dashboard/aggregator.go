package dashboard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"autotrader/internal/cache"
	"autotrader/internal/core"
	"autotrader/internal/models"
	"autotrader/internal/orchestrator"
	"autotrader/internal/perf"
	"autotrader/internal/repository"
)

const (
	statusUnknown  = "unknown"
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	statusIdle     = "idle"
	statusRunning  = "running"

	cacheKeySnapshot = "dashboard:snapshot"
)

type Store interface {
	ListOpenPositions(ctx context.Context) ([]models.Position, error)
	ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error)
	ListClosedTrades(ctx context.Context, since *time.Time) ([]models.Trade, error)
	ListCycleRecords(ctx context.Context, limit int) ([]models.CycleRecord, error)
	ListOptimizationEvents(ctx context.Context, params repository.ListOptimizationEventsParams) ([]models.OptimizationEvent, error)
	CountOptimizationEventsSince(ctx context.Context, since time.Time) (int64, error)
	LatestPortfolioSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)
}

// StatusSource is satisfied by orchestrator.Orchestrator.
type StatusSource interface {
	Status() orchestrator.Status
}

type Flags interface {
	OptimizerEnabled(ctx context.Context) bool
}

type Config struct {
	OutputPath  string
	RecentLimit int
	CacheTTL    time.Duration
	DataSource  string
}

// Aggregator assembles the dashboard snapshot from storage, the performance
// tracker and orchestrator status. Strictly read-side: it never mutates any
// upstream state. Each section degrades to its sentinel independently, so one
// unreachable source never fails the whole document.
type Aggregator struct {
	Store   Store
	Tracker *perf.Tracker
	Status  StatusSource
	Flags   Flags
	Cache   cache.Store
	Logger  *zap.Logger
	Config  Config
}

func (a *Aggregator) Snapshot(ctx context.Context) Snapshot {
	if a == nil {
		return Snapshot{}
	}
	now := time.Now().UTC()
	snap := Snapshot{
		Positions:   []PositionView{},
		Trades:      []TradeView{},
		Modules:     map[string]ModulePerf{},
		GeneratedAt: now.Format(time.RFC3339),
		DataSource:  a.Config.DataSource,
	}
	snap.Portfolio = a.buildPortfolio(ctx, now)
	snap.Positions = a.buildPositions(ctx, now)
	snap.Trades = a.buildTrades(ctx)
	snap.Performance = a.buildPerformance(ctx)
	snap.Modules = a.buildModules()
	snap.Orchestrator = a.buildOrchestrator(ctx)
	snap.MLOptimization = a.buildMLOptimization(ctx, now)
	snap.ParameterEffectiveness = a.buildParameterEffectiveness()
	snap.SystemHealth = a.buildSystemHealth(ctx)
	return snap
}

// JSON renders the snapshot, serving from cache within CacheTTL.
func (a *Aggregator) JSON(ctx context.Context) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	if a.Cache != nil {
		if cached, found, err := a.Cache.Get(ctx, cacheKeySnapshot); err == nil && found {
			return cached, nil
		}
	}
	raw, err := json.MarshalIndent(a.Snapshot(ctx), "", "  ")
	if err != nil {
		return nil, err
	}
	if a.Cache != nil {
		if err := a.Cache.Set(ctx, cacheKeySnapshot, raw, a.Config.CacheTTL); err != nil && a.Logger != nil {
			a.Logger.Warn("snapshot cache set failed", zap.Error(err))
		}
	}
	return raw, nil
}

// Invalidate drops the cached rendering; called after every cycle.
func (a *Aggregator) Invalidate(ctx context.Context) {
	if a == nil || a.Cache == nil {
		return
	}
	if err := a.Cache.Delete(ctx, cacheKeySnapshot); err != nil && a.Logger != nil {
		a.Logger.Warn("snapshot cache invalidate failed", zap.Error(err))
	}
}

// WriteFile persists the snapshot atomically: full write to a temp file in
// the target directory, then rename.
func (a *Aggregator) WriteFile(ctx context.Context) error {
	if a == nil || a.Config.OutputPath == "" {
		return nil
	}
	raw, err := json.MarshalIndent(a.Snapshot(ctx), "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(a.Config.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".dashboard-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), a.Config.OutputPath)
}

func (a *Aggregator) buildPortfolio(ctx context.Context, now time.Time) Portfolio {
	if a.Store == nil {
		return Portfolio{}
	}
	latest, err := a.Store.LatestPortfolioSnapshot(ctx)
	if err != nil || latest == nil {
		a.warnSection("portfolio", err)
		return Portfolio{}
	}
	out := Portfolio{
		Value:       latest.NetLiquidation.InexactFloat64(),
		Cash:        latest.Cash.InexactFloat64(),
		Equity:      latest.Equity.InexactFloat64(),
		BuyingPower: latest.BuyingPower.InexactFloat64(),
	}
	midnight := now.Truncate(24 * time.Hour)
	closedToday, err := a.Store.ListClosedTrades(ctx, &midnight)
	if err != nil {
		a.warnSection("portfolio", err)
		return out
	}
	var daily float64
	for _, t := range closedToday {
		if t.PnL != nil {
			daily += t.PnL.InexactFloat64()
		}
	}
	daily += latest.UnrealizedPnL.InexactFloat64()
	out.DailyPL = daily
	if base := out.Value - daily; base != 0 {
		out.DailyPLPercent = daily / base * 100
	}
	return out
}

func (a *Aggregator) buildPositions(ctx context.Context, now time.Time) []PositionView {
	out := []PositionView{}
	if a.Store == nil {
		return out
	}
	positions, err := a.Store.ListOpenPositions(ctx)
	if err != nil {
		a.warnSection("positions", err)
		return out
	}
	for _, p := range positions {
		unrealized := p.CurrentPrice.Sub(p.EntryPrice).Mul(p.Quantity)
		if p.Side == string(core.SideSell) {
			unrealized = unrealized.Neg()
		}
		var pct float64
		if cost := p.EntryPrice.Mul(p.Quantity); !cost.IsZero() {
			pct = unrealized.Div(cost).InexactFloat64() * 100
		}
		out = append(out, PositionView{
			Symbol:          p.Symbol,
			Quantity:        p.Quantity.InexactFloat64(),
			EntryPrice:      p.EntryPrice.InexactFloat64(),
			CurrentPrice:    p.CurrentPrice.InexactFloat64(),
			UnrealizedPL:    unrealized.InexactFloat64(),
			UnrealizedPLPct: pct,
			HoldTime:        now.Sub(p.OpenedAt).Truncate(time.Minute).String(),
			Strategy:        p.Strategy,
			Type:            positionType(p.Side),
			Module:          p.Module,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (a *Aggregator) buildTrades(ctx context.Context) []TradeView {
	out := []TradeView{}
	if a.Store == nil {
		return out
	}
	trades, err := a.Store.ListTrades(ctx, repository.ListTradesParams{Limit: a.recentLimit()})
	if err != nil {
		a.warnSection("trades", err)
		return out
	}
	for _, t := range trades {
		view := TradeView{
			Timestamp:  t.OpenedAt.UTC().Format(time.RFC3339),
			Symbol:     t.Symbol,
			Action:     t.Side,
			Strategy:   t.Strategy,
			ModuleName: t.Module,
			Confidence: t.ConfidenceAtEntry,
		}
		if t.PnL != nil {
			v := t.PnL.InexactFloat64()
			view.PnL = &v
		}
		out = append(out, view)
	}
	return out
}

func (a *Aggregator) buildPerformance(ctx context.Context) Performance {
	var out Performance
	if a.Tracker != nil {
		for _, record := range a.Tracker.SnapshotAll() {
			out.TotalTrades += record.TotalTrades
			out.WinningTrades += record.Wins
			out.LosingTrades += record.Losses
			out.TotalPnL += record.TotalPnL.InexactFloat64()
		}
	}
	if out.TotalTrades > 0 {
		out.WinRate = float64(out.WinningTrades) / float64(out.TotalTrades)
		out.AvgPnLPerTrade = out.TotalPnL / float64(out.TotalTrades)
	}
	if a.Store != nil {
		closed, err := a.Store.ListClosedTrades(ctx, nil)
		if err != nil {
			a.warnSection("performance", err)
			return out
		}
		out.BestTrade, out.WorstTrade = bestWorstTrade(closed)
		out.SharpeRatio = sharpeRatio(closed)
		out.MaxDrawdown = maxDrawdown(closed)
	}
	return out
}

func (a *Aggregator) buildModules() map[string]ModulePerf {
	out := map[string]ModulePerf{}
	if a.Tracker == nil {
		return out
	}
	totals := map[string]perf.Record{}
	for key, record := range a.Tracker.SnapshotAll() {
		agg := totals[string(key.Module)]
		agg.TotalTrades += record.TotalTrades
		agg.Wins += record.Wins
		agg.TotalPnL = agg.TotalPnL.Add(record.TotalPnL)
		totals[string(key.Module)] = agg
	}
	for module, agg := range totals {
		out[module] = ModulePerf{
			TotalTrades: agg.TotalTrades,
			WinRate:     agg.WinRate(),
			TotalPnL:    agg.TotalPnL.InexactFloat64(),
		}
	}
	return out
}

func (a *Aggregator) buildOrchestrator(ctx context.Context) OrchestratorView {
	out := OrchestratorView{LastCycleTime: statusUnknown, UptimeStatus: statusUnknown}
	if a.Status != nil {
		st := a.Status.Status()
		out.CycleNumber = st.CycleNumber
		if !st.LastCycleAt.IsZero() {
			out.LastCycleTime = st.LastCycleAt.UTC().Format(time.RFC3339)
		}
	}
	if a.Store == nil {
		return out
	}
	records, err := a.Store.ListCycleRecords(ctx, a.recentLimit())
	if err != nil {
		a.warnSection("orchestrator", err)
		return out
	}
	if len(records) == 0 {
		out.UptimeStatus = statusIdle
		return out
	}
	succeeded := 0
	for _, r := range records {
		if r.Success {
			succeeded++
		}
	}
	out.SuccessRate = float64(succeeded) / float64(len(records))
	if records[0].Success {
		out.UptimeStatus = statusRunning
	} else {
		out.UptimeStatus = statusDegraded
	}
	return out
}

func (a *Aggregator) buildMLOptimization(ctx context.Context, now time.Time) MLOptimization {
	out := MLOptimization{RecentOptimizations: []OptimizationView{}}
	if a.Flags != nil {
		out.OptimizationEnabled = a.Flags.OptimizerEnabled(ctx)
	}
	if a.Store == nil {
		return out
	}
	events, err := a.Store.ListOptimizationEvents(ctx, repository.ListOptimizationEventsParams{Limit: a.recentLimit()})
	if err != nil {
		a.warnSection("ml_optimization", err)
		return out
	}
	for _, e := range events {
		out.RecentOptimizations = append(out.RecentOptimizations, OptimizationView{
			Module:              e.Module,
			Strategy:            e.Strategy,
			ParameterType:       e.ParameterType,
			OldValue:            e.OldValue,
			NewValue:            e.NewValue,
			ExpectedImprovement: e.ExpectedImprovement,
			Applied:             e.Applied,
			Timestamp:           e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	midnight := now.Truncate(24 * time.Hour)
	changes, err := a.Store.CountOptimizationEventsSince(ctx, midnight)
	if err != nil {
		a.warnSection("ml_optimization", err)
		return out
	}
	out.ParameterChangesToday = changes
	return out
}

func (a *Aggregator) buildParameterEffectiveness() ParameterEffectiveness {
	out := ParameterEffectiveness{
		TopPerformingParameters:   []ParameterView{},
		UnderperformingParameters: []ParameterView{},
	}
	if a.Tracker == nil {
		return out
	}
	var views []ParameterView
	for key, buckets := range a.Tracker.AllThresholdEffects() {
		for threshold, record := range buckets {
			views = append(views, ParameterView{
				Key:       key.String(),
				Threshold: threshold,
				WinRate:   record.WinRate(),
				Trades:    record.TotalTrades,
				TotalPnL:  record.TotalPnL.InexactFloat64(),
			})
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].WinRate != views[j].WinRate {
			return views[i].WinRate > views[j].WinRate
		}
		if views[i].Key != views[j].Key {
			return views[i].Key < views[j].Key
		}
		return views[i].Threshold < views[j].Threshold
	})
	out.ParametersTracked = len(views)
	for _, v := range views {
		if v.WinRate >= 0.5 && len(out.TopPerformingParameters) < 5 {
			out.TopPerformingParameters = append(out.TopPerformingParameters, v)
		}
	}
	for i := len(views) - 1; i >= 0; i-- {
		if views[i].WinRate < 0.5 && len(out.UnderperformingParameters) < 5 {
			out.UnderperformingParameters = append(out.UnderperformingParameters, views[i])
		}
	}
	return out
}

func (a *Aggregator) buildSystemHealth(ctx context.Context) SystemHealth {
	out := SystemHealth{OverallStatus: statusUnknown, ModulesStatus: map[string]string{}}
	if a.Status != nil {
		st := a.Status.Status()
		for mod, ms := range st.Modules {
			if ms.LastError != "" {
				out.ModulesStatus[string(mod)] = ms.LastError
			} else {
				out.ModulesStatus[string(mod)] = "ok"
			}
		}
		if !st.LastCycleAt.IsZero() && !st.StartedAt.IsZero() {
			out.UptimeHours = st.LastCycleAt.Sub(st.StartedAt).Hours()
		}
	}
	if a.Store == nil {
		return out
	}
	records, err := a.Store.ListCycleRecords(ctx, a.recentLimit())
	if err != nil {
		a.warnSection("system_health", err)
		return out
	}
	if len(records) == 0 {
		out.OverallStatus = statusIdle
		return out
	}
	failed := 0
	for _, r := range records {
		if !r.Success {
			failed++
		}
	}
	out.ErrorRate = float64(failed) / float64(len(records))
	if records[0].Success && out.ErrorRate < 0.5 {
		out.OverallStatus = statusHealthy
	} else {
		out.OverallStatus = statusDegraded
	}
	return out
}

func (a *Aggregator) recentLimit() int {
	if a.Config.RecentLimit <= 0 {
		return 20
	}
	return a.Config.RecentLimit
}

func (a *Aggregator) warnSection(section string, err error) {
	if a.Logger == nil || err == nil {
		return
	}
	a.Logger.Warn("dashboard section degraded", zap.String("section", section), zap.Error(err))
}

func positionType(side string) string {
	if side == string(core.SideSell) {
		return "short"
	}
	return "long"
}
