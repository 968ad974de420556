package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/qayd-app/qayd/internal/app"
	"github.com/qayd-app/qayd/internal/integration"
	"github.com/qayd-app/qayd/internal/invoicing"
	"github.com/qayd-app/qayd/internal/ledger/accounts"
	"github.com/qayd-app/qayd/internal/ledger/journals"
	"github.com/qayd-app/qayd/internal/ledger/periods"
	"github.com/qayd-app/qayd/internal/ledger/reports"
	"github.com/qayd-app/qayd/internal/observability"
	"github.com/qayd-app/qayd/internal/platform/cache"
	"github.com/qayd-app/qayd/internal/platform/db"
	"github.com/qayd-app/qayd/internal/shared"
	"github.com/qayd-app/qayd/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching degraded", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	accountsService := accounts.NewService(accounts.NewRepository(pool), logger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	periodsService := periods.NewService(periods.NewRepository(pool))
	periodsHandler := periods.NewHandler(logger, periodsService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reports.NewRepository(pool), reportCache, logger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	journalsService := journals.NewService(journals.NewRepository(pool), periodsService, logger).
		WithAudit(auditLogger).
		WithMetrics(metrics).
		WithCache(reportCache)
	journalsHandler := journals.NewHandler(logger, journalsService)

	seller := invoicing.Seller{Name: cfg.SellerName, VATNumber: cfg.SellerVATNumber}
	invoicesService := invoicing.NewService(invoicing.NewRepository(pool), seller, logger).
		WithMetrics(metrics)
	invoicesHandler := invoicing.NewHandler(logger, invoicesService)

	adapter := integration.NewAdapter(accountsService, journalsService, invoicesService, logger)
	ordersHandler := integration.NewHandler(logger, adapter)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(asynq.NewInspector(redisOpts), jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		JournalsHandler: journalsHandler,
		PeriodsHandler:  periodsHandler,
		InvoicesHandler: invoicesHandler,
		ReportsHandler:  reportsHandler,
		OrdersHandler:   ordersHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
