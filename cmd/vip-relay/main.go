// cmd/vip-relay/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vip-relay/internal/api"
	"vip-relay/internal/common/aws"
	"vip-relay/internal/common/clock"
	"vip-relay/internal/common/config"
	"vip-relay/internal/common/database"
	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/observability"

	tc "vip-relay/internal/workers/ticket-created"
	vs "vip-relay/internal/workers/vip-sync"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(zap.String("service", cfg.App.Name))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting vip-relay...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version))

	obs, err := observability.New(cfg.App.Name, log)
	if err != nil {
		zapLog.Warn("Observability disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()
	clk := clock.Real()

	// --- Contact search budget: shared through Redis when enabled ---
	searchWindow := config.GetDuration(cfg.Freshdesk.RateLimit.Window)
	var searchBudget freshdesk.Budget = freshdesk.NewRateBudget(cfg.Freshdesk.RateLimit.Requests, searchWindow, clk)
	dependencies := map[string]api.Pinger{}

	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedis(cfg.Redis)
		if err != nil {
			zapLog.Fatal("failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()

		err = retryWithBackoff(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return redisClient.Ping(pingCtx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("failed to connect to redis", zap.Error(err))
		}

		searchBudget = freshdesk.NewRedisBudget(redisClient.Client, freshdesk.RedisBudgetOptions{
			Key:      redisClient.Key("budget", string(freshdesk.ClassContactSearch)),
			Limit:    cfg.Freshdesk.RateLimit.Requests,
			Window:   searchWindow,
			FailOpen: cfg.Redis.FailOpen,
			Clock:    clk,
			Logger:   log,
		})
		dependencies["redis"] = redisClient
		zapLog.Info("Redis connected, contact search budget is shared", zap.String("address", cfg.Redis.Address))
	}

	// --- Alerts ---
	var alerter vs.Alerter
	if cfg.Alerts.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Alerts.Region, cfg.Alerts.TopicARN)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		alerter = snsClient
		zapLog.Info("SNS alerts enabled", zap.String("topicArn", cfg.Alerts.TopicARN))
	}

	// --- Freshdesk ---
	helpdesk, err := freshdesk.NewClient(freshdesk.Config{
		Domain:             cfg.Freshdesk.Domain,
		BaseURL:            cfg.Freshdesk.BaseURL,
		APIKey:             cfg.Freshdesk.APIKey,
		Timeout:            config.GetDuration(cfg.Freshdesk.Timeout),
		MaxAttempts:        cfg.Freshdesk.Retry.MaxAttempts,
		FallbackRetryAfter: config.GetDuration(cfg.Freshdesk.Retry.FallbackWait),
		Budgets: map[freshdesk.BudgetClass]freshdesk.Budget{
			freshdesk.ClassContactSearch: searchBudget,
		},
		Clock:  clk,
		Logger: log,
	})
	if err != nil {
		zapLog.Fatal("failed to create freshdesk client", zap.Error(err))
	}
	zapLog.Info("Freshdesk client ready", zap.String("baseUrl", helpdesk.BaseURL()))

	// --- Workers ---
	intercomHandler, err := vs.NewHandler(vs.HandlerOptions{
		AppConfig:     cfg,
		Helpdesk:      helpdesk,
		Alerter:       alerter,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create vip-sync handler", zap.Error(err))
	}

	ticketHandler, err := tc.NewHandler(tc.HandlerOptions{
		AppConfig:     cfg,
		Helpdesk:      helpdesk,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create ticket-created handler", zap.Error(err))
	}

	// --- HTTP Server ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterOptions{
		Intercom:     intercomHandler,
		Freshdesk:    ticketHandler,
		Dependencies: dependencies,
		Logger:       log,
	})

	// Requests derive from baseCtx so rate-limit waits abort when draining times out.
	baseCtx, abortRequests := context.WithCancel(ctx)
	defer abortRequests()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
		abortRequests()
		_ = server.Close()
	}

	zapLog.Info("vip-relay stopped gracefully")
}
