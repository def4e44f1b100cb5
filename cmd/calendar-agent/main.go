// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command calendar-agent serves the calendar agent over A2A.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-a2a/a2a-samples/agent"
	"github.com/go-a2a/a2a-samples/agents/calendar"
	"github.com/go-a2a/a2a-samples/internal/app"
	"github.com/go-a2a/a2a-samples/internal/config"
)

func newAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger) (agent.Agent, error) {
	events := calendar.NewGoogleCalendar(cfg.Agent.CredentialsFile, cfg.Agent.TokenFile, logger)
	return calendar.New(events,
		calendar.WithExcelPath(cfg.Agent.ExcelPath),
		calendar.WithLogger(logger),
	), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := app.Command(app.Spec{
		Name:     "calendar-agent",
		Card:     calendar.Card,
		NewAgent: newAgent,
	}, calendar.DefaultPort)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
