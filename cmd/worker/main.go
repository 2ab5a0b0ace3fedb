package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Apillon/apillon-services-sub004/internal/alert"
	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/chain/evm"
	"github.com/Apillon/apillon-services-sub004/internal/chain/ratelimit"
	"github.com/Apillon/apillon-services-sub004/internal/chain/substrate"
	"github.com/Apillon/apillon-services-sub004/internal/circuitbreaker"
	"github.com/Apillon/apillon-services-sub004/internal/config"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/depletion"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/ledger"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/linker"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/monitor"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/retry"
	"github.com/Apillon/apillon-services-sub004/internal/pipeline/worker"
	"github.com/Apillon/apillon-services-sub004/internal/price"
	"github.com/Apillon/apillon-services-sub004/internal/store/postgres"
	redisstore "github.com/Apillon/apillon-services-sub004/internal/store/redis"
	"github.com/Apillon/apillon-services-sub004/internal/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

type poolStatsRecorder interface {
	RecordPoolStats()
}

func collectDBPoolStats(db poolStatsRecorder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("db pool stats collection panicked: %v", r)
		}
	}()
	if db == nil {
		return fmt.Errorf("db stats recorder is nil")
	}
	db.RecordPoolStats()
	return nil
}

func startDBPoolStatsPump(ctx context.Context, db poolStatsRecorder, interval time.Duration, logger *slog.Logger) {
	if db == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()

		if err := collectDBPoolStats(db); err != nil {
			logger.Warn("failed to collect initial db pool stats", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				logger.Info("db pool stats sampler stopped", "cause", "context_done")
				return
			case <-ticker.C:
				if err := collectDBPoolStats(db); err != nil {
					logger.Warn("failed to collect db pool stats", "error", err)
				}
			}
		}
	}()
}

// buildRegistry registers one family per configured endpoint. Each endpoint
// gets its own request budget and balance breaker.
func buildRegistry(endpoints []config.ChainEndpoint, logger *slog.Logger) (*chain.Registry, error) {
	registry := chain.NewRegistry()
	for _, e := range endpoints {
		limiter := ratelimit.NewLimiter(e.RPS, e.Burst, string(e.Chain))
		breaker := circuitbreaker.New("balance:"+e.Key().String(), circuitbreaker.Config{}, logger)

		switch e.ChainType {
		case model.ChainTypeEVM:
			registry.Register(evm.NewAdapter(e.Chain, e.IndexerURL, e.RPCURL, limiter, breaker, logger))
		case model.ChainTypeSubstrate:
			profile, ok := substrate.ProfileFor(e.Chain)
			if !ok {
				return nil, fmt.Errorf("no substrate profile for chain %s", e.Chain)
			}
			registry.Register(substrate.NewAdapter(profile, e.IndexerURL, e.RPCURL, limiter, breaker, logger))
		default:
			return nil, fmt.Errorf("unsupported chain type %q for %s", e.ChainType, e.Chain)
		}
	}
	return registry, nil
}

func buildPrices(cfg config.PriceConfig, logger *slog.Logger) worker.PriceLookup {
	if !cfg.Enabled() {
		logger.Info("price feed disabled, ledger values stay null")
		return price.Disabled{}
	}
	breaker := circuitbreaker.New("price", circuitbreaker.Config{}, logger)
	return price.NewClient(price.Config{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Currency:  cfg.Currency,
		TokenIDs:  cfg.TokenIDs,
		CacheTTL:  cfg.CacheTTL,
		CacheSize: cfg.CacheSize,
		Timeout:   cfg.Timeout,
	}, breaker, logger)
}

// buildAlerter fans out to the log and every configured channel. The
// returned close func releases the cooldown store.
func buildAlerter(cfg *config.Config, logger *slog.Logger) (alert.Alerter, func(), error) {
	sinks := []alert.Alerter{alert.NewLogAlerter(logger)}
	if cfg.Alert.SlackWebhookURL != "" {
		sinks = append(sinks, alert.NewSlackAlerter(cfg.Alert.SlackWebhookURL))
	}
	if cfg.Alert.WebhookURL != "" {
		sinks = append(sinks, alert.NewWebhookAlerter(cfg.Alert.WebhookURL))
	}

	if cfg.Redis.URL == "" {
		return alert.NewMultiAlerter(cfg.Alert.Cooldown, nil, logger, sinks...), func() {}, nil
	}
	cooldown, err := redisstore.NewCooldown(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect alert cooldown store: %w", err)
	}
	closeFn := func() {
		if err := cooldown.Close(); err != nil {
			logger.Warn("close alert cooldown store", "error", err)
		}
	}
	return alert.NewMultiAlerter(cfg.Alert.Cooldown, cooldown, logger, sinks...), closeFn, nil
}

func workerConfig(cfg config.WorkerConfig) worker.Config {
	return worker.Config{
		Concurrency:    cfg.Concurrency,
		Filter:         model.WalletFilter{Chain: cfg.Chain, ChainType: cfg.ChainType},
		WindowLimit:    cfg.WindowLimit,
		FetchTimeout:   cfg.FetchTimeout,
		DBTimeout:      cfg.DBTimeout,
		BalanceTimeout: cfg.BalanceTimeout,
		PriceTimeout:   cfg.PriceTimeout,
		FetchRetry:     retry.Policy{MaxAttempts: cfg.FetchMaxAttempts},
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	chainKeys := make([]string, len(cfg.Chains))
	for i, e := range cfg.Chains {
		chainKeys[i] = e.Key().String()
	}
	logger.Info("starting wallet ledger worker",
		"chains", chainKeys,
		"schedule", cfg.Worker.Schedule,
		"run_once", cfg.Worker.RunOnce,
		"concurrency", cfg.Worker.Concurrency,
		"price_feed", cfg.Price.Enabled(),
		"redis_cooldown", cfg.Redis.URL != "",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingEndpoint := ""
	if cfg.Tracing.Enabled {
		tracingEndpoint = cfg.Tracing.Endpoint
	}
	shutdownTracing, err := tracing.Init(ctx, "wallet-ledger-worker", tracingEndpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	db, err := postgres.New(postgres.Config{
		URL:                cfg.DB.URL,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetime:    cfg.DB.ConnMaxLifetime,
		StatementTimeoutMS: cfg.DB.StatementTimeoutMS,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, cfg.DB.MigrationsDir); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg.Chains, logger)
	if err != nil {
		logger.Error("failed to build chain registry", "error", err)
		os.Exit(1)
	}

	alerter, closeAlerter, err := buildAlerter(cfg, logger)
	if err != nil {
		logger.Error("failed to build alerter", "error", err)
		os.Exit(1)
	}
	defer closeAlerter()

	walletRepo := postgres.NewWalletRepo(db)
	logRepo := postgres.NewTransactionLogRepo(db)
	depositRepo := postgres.NewWalletDepositRepo(db)
	health := worker.NewHealth()

	w := worker.New(workerConfig(cfg.Worker), worker.Deps{
		DB:        db,
		Wallets:   walletRepo,
		Families:  registry,
		Writer:    ledger.NewWriter(logRepo, walletRepo, logger),
		Linker:    linker.New(logRepo, logger),
		Depletion: depletion.New(depositRepo, logger),
		Monitor:   monitor.New(walletRepo, logger),
		Prices:    buildPrices(cfg.Price, logger),
		Alerter:   alerter,
		Health:    health,
	}, logger)

	job := func(ctx context.Context) {
		summary, err := w.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker run failed", "run_id", summary.RunID.String(), "error", err)
		}
	}

	if cfg.Worker.RunOnce {
		job(ctx)
		logger.Info("single run finished")
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHealthServer(gCtx, cfg.Server.HealthPort, health, logger)
	})

	g.Go(func() error {
		return runScheduled(gCtx, cfg.Worker.Schedule, job, logger)
	})

	startDBPoolStatsPump(gCtx, db, cfg.DB.PoolStatsInterval, logger)

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker shut down gracefully")
}

// runScheduled runs job on schedule until ctx is done. A run still in
// progress when the next tick fires makes that tick a no-op. On shutdown it
// waits for the running job to return.
func runScheduled(ctx context.Context, schedule string, job func(context.Context), logger *slog.Logger) error {
	cl := cronLogger{logger: logger.With("component", "scheduler")}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl))
	if _, err := c.AddFunc(schedule, func() { job(ctx) }); err != nil {
		return fmt.Errorf("schedule worker %q: %w", schedule, err)
	}

	c.Start()
	logger.Info("worker scheduled", "schedule", schedule)
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

// cronLogger routes scheduler events into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

func healthHandler(health *worker.Health, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		if !health.Healthy() {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"healthy": status == http.StatusOK,
			"chains":  health.Snapshot(),
		}); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
}

func runHealthServer(ctx context.Context, port int, health *worker.Health, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/healthz", healthHandler(health, logger))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()

	logger.Info("health server started", "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
