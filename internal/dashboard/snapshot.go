package dashboard

// Snapshot is the document served to the dashboard client and written to
// disk. Key names match the on-disk schema the client already consumes.
type Snapshot struct {
	Portfolio              Portfolio              `json:"portfolio"`
	Positions              []PositionView         `json:"positions"`
	Trades                 []TradeView            `json:"trades"`
	Performance            Performance            `json:"performance"`
	Modules                map[string]ModulePerf  `json:"modules"`
	Orchestrator           OrchestratorView       `json:"orchestrator"`
	MLOptimization         MLOptimization         `json:"ml_optimization"`
	ParameterEffectiveness ParameterEffectiveness `json:"parameter_effectiveness"`
	SystemHealth           SystemHealth           `json:"system_health"`
	GeneratedAt            string                 `json:"generated_at"`
	DataSource             string                 `json:"data_source"`
}

type Portfolio struct {
	Value          float64 `json:"value"`
	Cash           float64 `json:"cash"`
	Equity         float64 `json:"equity"`
	BuyingPower    float64 `json:"buying_power"`
	DailyPL        float64 `json:"daily_pl"`
	DailyPLPercent float64 `json:"daily_pl_percent"`
}

type PositionView struct {
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"`
	EntryPrice      float64 `json:"entry_price"`
	CurrentPrice    float64 `json:"current_price"`
	UnrealizedPL    float64 `json:"unrealized_pl"`
	UnrealizedPLPct float64 `json:"unrealized_pl_percent"`
	HoldTime        string  `json:"hold_time"`
	Strategy        string  `json:"strategy"`
	Type            string  `json:"type"`
	Module          string  `json:"module"`
}

type TradeView struct {
	Timestamp  string   `json:"timestamp"`
	Symbol     string   `json:"symbol"`
	Action     string   `json:"action"`
	Strategy   string   `json:"strategy"`
	ModuleName string   `json:"module_name"`
	PnL        *float64 `json:"pnl"`
	Confidence float64  `json:"confidence"`
}

type Performance struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	TotalPnL       float64 `json:"total_pnl"`
	AvgPnLPerTrade float64 `json:"avg_pnl_per_trade"`
	BestTrade      float64 `json:"best_trade"`
	WorstTrade     float64 `json:"worst_trade"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
}

type ModulePerf struct {
	TotalTrades int     `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
	TotalPnL    float64 `json:"total_pnl"`
}

type OrchestratorView struct {
	LastCycleTime string  `json:"last_cycle_time"`
	CycleNumber   uint64  `json:"cycle_number"`
	SuccessRate   float64 `json:"success_rate"`
	UptimeStatus  string  `json:"uptime_status"`
}

type OptimizationView struct {
	Module              string  `json:"module"`
	Strategy            string  `json:"strategy"`
	ParameterType       string  `json:"parameter_type"`
	OldValue            float64 `json:"old_value"`
	NewValue            float64 `json:"new_value"`
	ExpectedImprovement float64 `json:"expected_improvement"`
	Applied             bool    `json:"applied"`
	Timestamp           string  `json:"timestamp"`
}

type MLOptimization struct {
	OptimizationEnabled   bool               `json:"optimization_enabled"`
	RecentOptimizations   []OptimizationView `json:"recent_optimizations"`
	ParameterChangesToday int64              `json:"parameter_changes_today"`
}

type ParameterView struct {
	Key       string  `json:"key"`
	Threshold float64 `json:"threshold"`
	WinRate   float64 `json:"win_rate"`
	Trades    int     `json:"trades"`
	TotalPnL  float64 `json:"total_pnl"`
}

type ParameterEffectiveness struct {
	ParametersTracked         int             `json:"parameters_tracked"`
	TopPerformingParameters   []ParameterView `json:"top_performing_parameters"`
	UnderperformingParameters []ParameterView `json:"underperforming_parameters"`
}

type SystemHealth struct {
	OverallStatus string            `json:"overall_status"`
	ModulesStatus map[string]string `json:"modules_status"`
	ErrorRate     float64           `json:"error_rate"`
	UptimeHours   float64           `json:"uptime_hours"`
}
