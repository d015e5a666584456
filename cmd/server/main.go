package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Priya8975/subscription-reminders/internal/api"
	"github.com/Priya8975/subscription-reminders/internal/channel"
	"github.com/Priya8975/subscription-reminders/internal/config"
	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/Priya8975/subscription-reminders/internal/store"
	ws "github.com/Priya8975/subscription-reminders/internal/websocket"
	"github.com/Priya8975/subscription-reminders/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize PostgreSQL
	ctx := context.Background()
	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()
	logger.Info("connected to PostgreSQL")

	if err := pgStore.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Initialize Redis
	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()
	logger.Info("connected to Redis")

	rdb := redisStore.Client()

	hub := ws.NewHub(logger)
	go hub.Run()

	breaker := channel.BreakerSettings{
		FailureThreshold: uint32(cfg.BreakerFailures),
		Cooldown:         cfg.BreakerCooldown,
		Logger:           logger,
	}

	// Native push first, then web push; both sit behind the permission gate.
	var system []engine.Channel
	if cfg.PushEnabled() {
		system = append(system, channel.WithBreaker(channel.NewPushChannel(channel.PushConfig{
			ServerURL: cfg.PushServerURL,
			Topic:     cfg.PushTopic,
			Token:     cfg.PushToken,
			Timeout:   cfg.ChannelTimeout,
			Logger:    logger,
		}), breaker))
	}
	if cfg.WebhookEnabled() {
		system = append(system, channel.WithBreaker(channel.NewWebhookChannel(channel.WebhookConfig{
			URL:       cfg.WebhookURL,
			Secret:    cfg.WebhookSecret,
			Timeout:   cfg.ChannelTimeout,
			Limiter:   engine.NewRateLimiter(rdb, logger),
			RateLimit: cfg.WebhookRateLimit,
			Logger:    logger,
		}), breaker))
	}
	resolver := channel.NewResolver(channel.NewPopupChannel(hub), system...)
	logger.Info("channels configured", "push", cfg.PushEnabled(), "webhook", cfg.WebhookEnabled())

	dedup := store.NewRedisDedupStore(rdb)
	queue := engine.NewCheckQueue(rdb, logger)

	checker := engine.NewChecker(engine.CheckerConfig{
		Source:   pgStore,
		Recorder: pgStore,
		Channels: resolver,
		Dedup:    dedup,
		Lock:     engine.NewRedisLock(rdb, cfg.CheckLockTTL),
		Logger:   logger,
		Location: cfg.Location,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	dispatcher := worker.NewDispatcher(queue, checker, cfg.CheckPollInterval, logger)
	dispatcher.OnReport(func(report *engine.CheckReport) {
		if !report.PromptPermission {
			return
		}
		// Nothing could be delivered and system notifications are off.
		delivered, err := hub.Notify(ws.PopupEvent{
			Type:      "permission_prompt",
			Title:     "Enable notifications",
			Body:      "Allow notifications so renewal reminders reach you when the app is closed.",
			Timestamp: time.Now().UTC(),
		})
		switch {
		case err != nil:
			logger.Error("failed to send permission prompt", "error", err, "request_id", report.RequestID)
		case !delivered:
			logger.Info("permission prompt held until a client connects", "request_id", report.RequestID)
		}
	})
	go dispatcher.Start(workerCtx)

	scheduler := worker.NewScheduler(queue, cfg.CheckInterval, logger)
	go scheduler.Start(workerCtx)

	router := api.NewRouter(api.Deps{
		Store:    pgStore,
		Queue:    queue,
		Dedup:    dedup,
		Checker:  checker,
		Channels: resolver,
		Hub:      hub,
		Health: []api.HealthCheck{
			{Name: "postgres", Ping: pgStore.Ping},
			{Name: "redis", Ping: redisStore.Ping},
		},
		Logger: logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Stop picking up checks before the server goes away.
	workerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
