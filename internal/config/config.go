package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cron      CronConfig      `mapstructure:"cron"`
	Gate      GateConfig      `mapstructure:"gate"`
	Modules   ModulesConfig   `mapstructure:"modules"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr  string `mapstructure:"http_addr"`
	AuthToken string `mapstructure:"auth_token"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CronConfig struct {
	Cycle             string `mapstructure:"cycle"`
	Optimizer         string `mapstructure:"optimizer"`
	Snapshot          string `mapstructure:"snapshot"`
	PositionRefresh   string `mapstructure:"position_refresh"`
	PortfolioSnapshot string `mapstructure:"portfolio_snapshot"`
}

type GateConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	MinBound         float64 `mapstructure:"min_bound"`
	MaxBound         float64 `mapstructure:"max_bound"`
}

type ModulesConfig struct {
	CollectTimeout time.Duration `mapstructure:"collect_timeout"`
	Source         SourceConfig  `mapstructure:"source"`
}

type SourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ExecutorConfig struct {
	DryRun         bool          `mapstructure:"dry_run"`
	ExecuteTimeout time.Duration `mapstructure:"execute_timeout"`
	SlippageBps    int           `mapstructure:"slippage_bps"`
	GuardWait      time.Duration `mapstructure:"guard_wait"`
}

type OptimizerConfig struct {
	MinSamples      int           `mapstructure:"min_samples"`
	StepFraction    float64       `mapstructure:"step_fraction"`
	Margin          float64       `mapstructure:"margin"`
	BaselineWindow  time.Duration `mapstructure:"baseline_window"`
	BaselineWinRate float64       `mapstructure:"baseline_win_rate"`
	HistoryDepth    int           `mapstructure:"history_depth"`
}

type DashboardConfig struct {
	OutputPath  string        `mapstructure:"output_path"`
	RecentLimit int           `mapstructure:"recent_limit"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	DataSource  string        `mapstructure:"data_source"`
}

type PortfolioConfig struct {
	InitialCash float64 `mapstructure:"initial_cash"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.auth_token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cron.cycle", "@every 2m")
	v.SetDefault("cron.optimizer", "@every 30m")
	v.SetDefault("cron.snapshot", "@every 1m")
	v.SetDefault("cron.position_refresh", "@every 30s")
	v.SetDefault("cron.portfolio_snapshot", "@every 1h")

	v.SetDefault("gate.default_threshold", 0.60)
	v.SetDefault("gate.min_bound", 0.05)
	v.SetDefault("gate.max_bound", 0.95)

	v.SetDefault("modules.collect_timeout", "20s")
	v.SetDefault("modules.source.base_url", "http://localhost:9000")
	v.SetDefault("modules.source.timeout", "10s")

	v.SetDefault("executor.dry_run", true)
	v.SetDefault("executor.execute_timeout", "15s")
	v.SetDefault("executor.slippage_bps", 10)
	v.SetDefault("executor.guard_wait", "5s")

	v.SetDefault("optimizer.min_samples", 10)
	v.SetDefault("optimizer.step_fraction", 0.10)
	v.SetDefault("optimizer.margin", 0.05)
	v.SetDefault("optimizer.baseline_window", "168h")
	v.SetDefault("optimizer.baseline_win_rate", 0.5)
	v.SetDefault("optimizer.history_depth", 10)

	v.SetDefault("dashboard.output_path", "data/dashboard.json")
	v.SetDefault("dashboard.recent_limit", 20)
	v.SetDefault("dashboard.cache_ttl", "5s")
	v.SetDefault("dashboard.data_source", "live")

	v.SetDefault("portfolio.initial_cash", 100000)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
