// Command remindctl inspects and drives reminder checks from a shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Priya8975/subscription-reminders/internal/channel"
	"github.com/Priya8975/subscription-reminders/internal/config"
	"github.com/Priya8975/subscription-reminders/internal/engine"
	"github.com/Priya8975/subscription-reminders/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	root := newRootCmd(func(ctx context.Context) (*app, error) {
		return openApp(ctx, logger)
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp connects to the same Postgres and Redis the server uses. The
// checker it builds has no channels: the CLI previews and queues, the server
// delivers.
func openApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		pgStore.Close()
		return nil, err
	}

	checker := engine.NewChecker(engine.CheckerConfig{
		Source:   pgStore,
		Channels: channel.NewResolver(nil),
		Dedup:    engine.NewMemoryDedupStore(),
		Logger:   logger,
		Location: cfg.Location,
	})

	return &app{
		checker: checker,
		queue:   engine.NewCheckQueue(redisStore.Client(), logger),
		dedup:   store.NewRedisDedupStore(redisStore.Client()),
		close: func() {
			redisStore.Close()
			pgStore.Close()
		},
	}, nil
}
