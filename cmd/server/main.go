package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/quantfolio/internal/clients/yahoo"
	"github.com/aristath/quantfolio/internal/config"
	"github.com/aristath/quantfolio/internal/database"
	"github.com/aristath/quantfolio/internal/marketdata"
	"github.com/aristath/quantfolio/internal/modules/analysis"
	"github.com/aristath/quantfolio/internal/modules/market"
	"github.com/aristath/quantfolio/internal/modules/optimization"
	"github.com/aristath/quantfolio/internal/modules/projection"
	"github.com/aristath/quantfolio/internal/modules/recommendation"
	"github.com/aristath/quantfolio/internal/modules/returns"
	"github.com/aristath/quantfolio/internal/scheduler"
	"github.com/aristath/quantfolio/internal/server"
	"github.com/aristath/quantfolio/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored from the start
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "error", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting quantfolio")

	// Price cache database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Market data: Yahoo Finance behind a read-through cache
	yahooClient := yahoo.NewClient(log)
	prices := marketdata.NewCachingProvider(yahooClient, db, log)

	// Quantitative engine
	calc := returns.NewCalculator(cfg.TradingDays, log)
	optimizer := optimization.New(calc, log)
	marketAnalyzer := market.NewAnalyzer(cfg.TradingDays, log)
	projector := projection.New(projection.Config{
		TradingDays:  cfg.TradingDays,
		Horizon:      cfg.ProjectionHorizon,
		RiskFreeRate: cfg.RiskFreeRate,
	}, log)
	analysisService := analysis.NewService(prices, calc, marketAnalyzer, projector, analysis.Config{
		TradingDays:     cfg.TradingDays,
		LookbackDays:    cfg.LookbackDays,
		RiskFreeRate:    cfg.RiskFreeRate,
		BenchmarkSymbol: cfg.BenchmarkSymbol,
	}, log)
	recommender := recommendation.New(prices, yahooClient, calc, recommendation.Config{
		TradingDays:     cfg.TradingDays,
		LookbackDays:    cfg.LookbackDays,
		BenchmarkSymbol: cfg.BenchmarkSymbol,
	}, log)

	// Background refresh of benchmark and sector-proxy history
	refreshSymbols := []string{cfg.BenchmarkSymbol}
	for proxy := range recommendation.DefaultSectorProxies {
		refreshSymbols = append(refreshSymbols, proxy)
	}
	refreshJob := marketdata.NewRefreshJob(prices, refreshSymbols, cfg.LookbackDays, log)

	sched := scheduler.New(log)
	if err := sched.AddJob("0 0 6 * * *", refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// Warm the cache in the background so the first requests after a cold
	// start do not all pay the upstream latency
	go func() {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Warn().Err(err).Msg("Initial cache warm-up incomplete")
		}
	}()

	srv := server.New(server.Deps{
		Log:         log,
		Config:      cfg,
		Prices:      prices,
		Optimizer:   optimizer,
		Analysis:    analysisService,
		Recommender: recommender,
		Market:      marketAnalyzer,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
