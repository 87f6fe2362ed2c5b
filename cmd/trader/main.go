package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"autotrader/internal/cache"
	"autotrader/internal/config"
	"autotrader/internal/core"
	cronrunner "autotrader/internal/cron"
	"autotrader/internal/dashboard"
	"autotrader/internal/db"
	"autotrader/internal/execution"
	"autotrader/internal/gate"
	"autotrader/internal/handler"
	"autotrader/internal/live"
	"autotrader/internal/logger"
	"autotrader/internal/module"
	"autotrader/internal/optimizer"
	"autotrader/internal/orchestrator"
	"autotrader/internal/perf"
	gormrepository "autotrader/internal/repository/gorm"
	"autotrader/internal/service"

	_ "autotrader/docs"
)

func main() {
	cfgPath := os.Getenv("AT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("AT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := gormrepository.New(dbConn.Gorm)

	flags := &service.Flags{Store: store, Logger: logger}
	if err := flags.EnsureDefaults(ctx); err != nil {
		logger.Warn("init default feature switches failed", zap.Error(err))
	}

	gateSvc := &gate.Gate{
		Store:  store,
		Logger: logger,
		Config: gate.Config{
			DefaultThreshold: cfg.Gate.DefaultThreshold,
			MinBound:         cfg.Gate.MinBound,
			MaxBound:         cfg.Gate.MaxBound,
		},
	}
	if err := gateSvc.Load(ctx); err != nil {
		logger.Fatal("threshold table load failed", zap.Error(err))
	}

	tracker := perf.NewTracker()
	if err := tracker.Rebuild(ctx, store); err != nil {
		logger.Warn("performance rebuild failed", zap.Error(err))
	}

	source := &module.HTTPSource{
		BaseURL: cfg.Modules.Source.BaseURL,
		Client:  &http.Client{Timeout: cfg.Modules.Source.Timeout},
	}
	adapters := map[core.Module]module.Adapter{
		core.ModuleStocks:  gated(&module.StocksAdapter{Source: source, Logger: logger}, flags, service.FeatureModuleStocks),
		core.ModuleCrypto:  gated(&module.CryptoAdapter{Source: source, Logger: logger}, flags, service.FeatureModuleCrypto),
		core.ModuleOptions: gated(&module.OptionsAdapter{Source: source, Logger: logger}, flags, service.FeatureModuleOptions),
	}

	if !cfg.Executor.DryRun {
		logger.Warn("live order routing not configured, falling back to paper fills")
	}
	executor := &execution.PaperExecutor{Logger: logger, SlippageBps: cfg.Executor.SlippageBps}

	orch := &orchestrator.Orchestrator{
		Adapters: adapters,
		Gate:     gateSvc,
		Executor: executor,
		Store:    store,
		Tracker:  tracker,
		Logger:   logger,
		Config: orchestrator.Config{
			CollectTimeout: cfg.Modules.CollectTimeout,
			ExecuteTimeout: cfg.Executor.ExecuteTimeout,
			GuardWait:      cfg.Executor.GuardWait,
		},
	}
	if err := orch.Init(ctx); err != nil {
		logger.Fatal("orchestrator init failed", zap.Error(err))
	}

	opt := &optimizer.Optimizer{
		Store:   store,
		Gate:    gateSvc,
		Tracker: tracker,
		Logger:  logger,
		Config: optimizer.Config{
			MinSamples:      cfg.Optimizer.MinSamples,
			StepFraction:    cfg.Optimizer.StepFraction,
			Margin:          cfg.Optimizer.Margin,
			BaselineWindow:  cfg.Optimizer.BaselineWindow,
			BaselineWinRate: cfg.Optimizer.BaselineWinRate,
			HistoryDepth:    cfg.Optimizer.HistoryDepth,
		},
	}

	var snapshotCache cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisStore := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, using in-memory cache", zap.Error(err))
		} else {
			snapshotCache = redisStore
			defer redisStore.Close()
		}
	}

	aggregator := &dashboard.Aggregator{
		Store:   store,
		Tracker: tracker,
		Status:  orch,
		Flags:   flags,
		Cache:   snapshotCache,
		Logger:  logger,
		Config: dashboard.Config{
			OutputPath:  cfg.Dashboard.OutputPath,
			RecentLimit: cfg.Dashboard.RecentLimit,
			CacheTTL:    cfg.Dashboard.CacheTTL,
			DataSource:  cfg.Dashboard.DataSource,
		},
	}

	portfolio := &service.Portfolio{
		Store:       store,
		Quotes:      source,
		Logger:      logger,
		InitialCash: decimal.NewFromFloat(cfg.Portfolio.InitialCash),
	}

	hub := live.NewHub(logger)
	if flags.IsEnabled(ctx, service.FeatureLiveFeed) {
		go hub.Run(ctx)
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORS())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	statusHandler := &handler.StatusHandler{
		Aggregator:   aggregator,
		Orchestrator: orch,
		Repo:         store,
		AuthToken:    cfg.Server.AuthToken,
	}
	statusHandler.Register(engine)
	thresholdHandler := &handler.ThresholdHandler{Gate: gateSvc, Repo: store, AuthToken: cfg.Server.AuthToken}
	thresholdHandler.Register(engine)
	tradesHandler := &handler.TradesHandler{Repo: store, Orchestrator: orch, AuthToken: cfg.Server.AuthToken}
	tradesHandler.Register(engine)
	switchesHandler := &handler.SwitchesHandler{Flags: flags, AuthToken: cfg.Server.AuthToken}
	switchesHandler.Register(engine)
	hub.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	cronRunner := cronrunner.New(logger, ctx)

	_, err = cronRunner.Add(cfg.Cron.Cycle, func(ctx context.Context) {
		if _, err := orch.RunCycle(ctx); err != nil {
			if errors.Is(err, orchestrator.ErrCycleBusy) {
				logger.Warn("cycle skipped, previous still in flight")
				return
			}
			logger.Warn("cycle failed", zap.Error(err))
			return
		}
		aggregator.Invalidate(ctx)
		if raw, err := aggregator.JSON(ctx); err == nil {
			hub.Broadcast(raw)
		}
	})
	if err != nil {
		logger.Warn("cron register cycle failed", zap.Error(err))
	}

	_, err = cronRunner.Add(cfg.Cron.Optimizer, func(ctx context.Context) {
		if !flags.IsEnabled(ctx, service.FeatureOptimizer) {
			return
		}
		if err := opt.RunOnce(ctx); err != nil {
			logger.Warn("optimizer pass failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register optimizer failed", zap.Error(err))
	}

	_, err = cronRunner.Add(cfg.Cron.Snapshot, func(ctx context.Context) {
		if !flags.IsEnabled(ctx, service.FeatureSnapshotWriter) {
			return
		}
		if err := aggregator.WriteFile(ctx); err != nil {
			logger.Warn("snapshot write failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register snapshot failed", zap.Error(err))
	}

	_, err = cronRunner.Add(cfg.Cron.PositionRefresh, func(ctx context.Context) {
		if !flags.IsEnabled(ctx, service.FeaturePositionRefresh) {
			return
		}
		if err := portfolio.RefreshPositions(ctx); err != nil {
			logger.Warn("position price refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register position refresh failed", zap.Error(err))
	}

	_, err = cronRunner.Add(cfg.Cron.PortfolioSnapshot, func(ctx context.Context) {
		if _, err := portfolio.TakeSnapshot(ctx); err != nil {
			logger.Warn("portfolio snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register portfolio snapshot failed", zap.Error(err))
	}

	cronRunner.Start()
	defer cronRunner.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// gatedAdapter consults a feature switch before collecting, so individual
// modules can be paused from the API without a restart.
type gatedAdapter struct {
	inner module.Adapter
	flags *service.Flags
	key   string
}

func gated(inner module.Adapter, flags *service.Flags, key string) module.Adapter {
	return &gatedAdapter{inner: inner, flags: flags, key: key}
}

func (a *gatedAdapter) Module() core.Module { return a.inner.Module() }

func (a *gatedAdapter) CollectSignals(ctx context.Context) ([]core.Signal, error) {
	if !a.flags.IsEnabled(ctx, a.key) {
		return nil, nil
	}
	return a.inner.CollectSignals(ctx)
}
