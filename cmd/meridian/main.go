package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/assets"
	"github.com/meridian-erp/meridian-erp/internal/accounting/automation"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/opening"
	"github.com/meridian-erp/meridian-erp/internal/accounting/periods"
	"github.com/meridian-erp/meridian-erp/internal/accounting/reports"
	"github.com/meridian-erp/meridian-erp/internal/accounting/rules"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	audit := internalshared.NewAuditLogger(pool, logger)

	accountRepo := accounts.NewRepository(pool)
	accountService := accounts.NewService(accountRepo)

	periodRepo := periods.NewRepository(pool)
	periodService := periods.NewService(periodRepo, audit)

	journalRepo := journals.NewRepository(pool)
	journalService := journals.NewService(journalRepo, periodService, audit, metrics)

	ruleRepo := rules.NewRepository(pool)
	automationService := automation.NewService(ruleRepo, journalService, logger, cfg.BaseCurrency)
	openingService := opening.NewService(journalService, logger)

	reportRepo := reports.NewRepository(pool)
	reportService := reports.NewService(reportRepo, accountRepo, cfg.BaseCurrency)

	// the monthly run lives in the worker; here assets need CRUD plus a
	// queue handle for on-demand runs
	assetService := assets.NewService(assets.NewRepository(pool, cfg.BaseCurrency), journalService, nil, logger, cfg.BaseCurrency)
	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountsHandler:   accounts.NewHandler(logger, accountService),
		PeriodsHandler:    periods.NewHandler(logger, periodService),
		JournalsHandler:   journals.NewHandler(logger, journalService),
		RulesHandler:      rules.NewHandler(logger, ruleRepo),
		AutomationHandler: automation.NewHandler(logger, automationService),
		OpeningHandler:    opening.NewHandler(logger, openingService),
		ReportsHandler:    reports.NewHandler(logger, reportService),
		AssetsHandler:     assets.NewHandler(logger, assetService, jobClient),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("ledger service listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
