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
	"github.com/joho/godotenv"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/coa"
	"github.com/ledgerline/ledgerline/internal/insights"
	"github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/notify"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/statements"
	"github.com/ledgerline/ledgerline/internal/statements/export"
	statementhttp "github.com/ledgerline/ledgerline/internal/statements/http"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	_ = godotenv.Load()

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
		logger.Warn("redis unavailable, statement caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	statementCache := statements.NewCache(redisClient, cfg.CacheTTL)
	balances := statements.NewRepository(pool)

	balanceSheet := statements.NewBalanceSheetService(balances, statementCache)
	profitLoss := statements.NewProfitLossService(balances, statementCache)
	taxSummary := statements.NewTaxSummaryService(balances, statementCache, statements.ClassifyByGroupKeyword("tax"))
	expenseReport := statements.NewExpenseReportService(balances, statementCache)

	pdf := &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: 30 * time.Second}}
	enqueuer := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	var insightsService *insights.Service
	if cfg.GeminiAPIKey != "" {
		insightsService = insights.NewService(logger, &insights.GeminiProvider{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	}

	coaService := coa.NewService(logger, coa.NewRepository(pool), statementCache)

	var statementInsights statementhttp.InsightsService
	if insightsService != nil {
		statementInsights = insightsService
	}

	router := app.NewRouter(app.RouterParams{
		Logger: logger,
		Config: cfg,
		TenantMiddleware: tenant.Middleware{
			Repo:   tenant.NewRepository(pool),
			Logger: logger,
		},
		StatementsHandler: statementhttp.NewHandler(logger, balanceSheet, profitLoss, taxSummary, expenseReport, pdf, enqueuer, statementInsights),
		COAHandler:        coa.NewHandler(logger, coaService),
		NotifyHandler:     notify.NewHandler(logger, notify.NewRepository(pool)),
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
