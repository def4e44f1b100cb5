// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command activity-tracker serves the activity tracker agent over A2A.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/go-a2a/a2a-samples/agent"
	"github.com/go-a2a/a2a-samples/agents/activitytracker"
	"github.com/go-a2a/a2a-samples/internal/app"
	"github.com/go-a2a/a2a-samples/internal/config"
)

func newAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger) (agent.Agent, error) {
	if cfg.GoogleAPIKey == "" {
		return nil, errors.New("GOOGLE_API_KEY environment variable not set")
	}
	model, err := activitytracker.NewGeminiModel(ctx, cfg.GoogleAPIKey)
	if err != nil {
		return nil, err
	}

	opts := []activitytracker.Option{
		activitytracker.WithModelName(cfg.Agent.Model),
		activitytracker.WithLogger(logger),
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.InfoContext(ctx, "storing activities in redis", "addr", cfg.Redis.Addr)
		// The agent owns the client; the process closes the agent on shutdown.
		opts = append(opts, activitytracker.WithStore(activitytracker.NewRedisStore(client, cfg.Redis.Prefix)))
	}
	return activitytracker.New(model, opts...), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := app.Command(app.Spec{
		Name:     "activity-tracker",
		Card:     activitytracker.Card,
		NewAgent: newAgent,
	}, activitytracker.DefaultPort)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
