package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mealplan-subscription/internal/config"
	"mealplan-subscription/internal/domain/ports/adapter"
	aiAdapters "mealplan-subscription/internal/infra/adapters/ai"
	payAdapters "mealplan-subscription/internal/infra/adapters/payment"
	"mealplan-subscription/internal/infra/clock"
	pg "mealplan-subscription/internal/infra/db/postgres"
	"mealplan-subscription/internal/infra/logging"
	"mealplan-subscription/internal/infra/metrics"
	red "mealplan-subscription/internal/infra/redis"
	"mealplan-subscription/internal/infra/sched"
	"mealplan-subscription/internal/infra/web"
	"mealplan-subscription/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, relaxed checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	subRepo := pg.NewSubscriptionRepo(pool)
	prefRepo := pg.NewPreferenceRepo(pool)
	mealPlanRepo := pg.NewMealPlanRepo(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	switch cfg.Payment.Provider {
	case "stripe":
		gateway, err = payAdapters.NewStripeGateway(cfg.Payment.Stripe.SecretKey, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
	default:
		gateway = payAdapters.NewMockGateway(float64(cfg.Payment.Mock.FailureRate)/100, time.Now().UnixNano())
	}
	logger.Info().Str("provider", gateway.Name()).Msg("payment gateway configured")

	// ---- AI generator ----
	var generator adapter.MealPlanGenerator
	switch cfg.AI.Provider {
	case "openai":
		generator, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
	case "gemini":
		generator, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
	default:
		generator = aiAdapters.NewNoopGenerator()
	}
	logger.Info().Str("provider", generator.Name()).Msg("meal plan generator configured")

	// ---- Use cases ----
	clk := clock.NewSystem()
	entitlementUC := usecase.NewEntitlementUseCase(subRepo, prefRepo, clk, cfg.Trial.Days, cfg.Trial.GenerationLimit, logger)
	subUC := usecase.NewSubscriptionUseCase(
		planRepo, subRepo, gateway, txm, clk,
		cfg.Payment.Currency, cfg.Scheduler.DueWindow, cfg.Scheduler.GatewayTimeout,
		logger,
	)
	mealPlanUC := usecase.NewMealPlanUseCase(entitlementUC, prefRepo, mealPlanRepo, generator, clk, logger)
	statsUC := usecase.NewStatsUseCase(subRepo)

	// ---- Renewal worker ----
	worker := sched.NewRenewalWorker(cfg.Scheduler.RenewalInterval, subUC, locker, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	srv := web.NewServer(entitlementUC, subUC, mealPlanUC, statsUC, planRepo, cfg.Admin.APIKey, auth, cfg.Trial.ExemptUserIDs, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
