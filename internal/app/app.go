// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package app assembles an agent server process from its configuration: stores,
// push notification signing, task manager, HTTP server, metrics and tracing.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/agent"
	"github.com/go-a2a/a2a-samples/auth"
	"github.com/go-a2a/a2a-samples/internal/config"
	"github.com/go-a2a/a2a-samples/internal/observability"
	"github.com/go-a2a/a2a-samples/server"
	"github.com/go-a2a/a2a-samples/server/task"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Spec describes the agent a process hosts.
type Spec struct {
	// Name is used as the tracing service name.
	Name string

	// Card returns the agent card published at url.
	Card func(url string) *a2a.AgentCard

	// NewAgent builds the agent.
	NewAgent func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (agent.Agent, error)
}

// NewLogger returns a logger writing to w in the format and level of cfg.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Stores are the task manager backends of one process.
type Stores struct {
	Tasks task.TaskStore
	Push  task.PushNotificationConfigStore

	db *gorm.DB
}

// OpenStores opens and initializes the backends selected by cfg.
func OpenStores(ctx context.Context, cfg config.StoreConfig) (*Stores, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", config.StoreMemory:
		return &Stores{
			Tasks: task.NewInMemoryTaskStore(),
			Push:  task.NewInMemoryPushNotificationConfigStore(),
		}, nil
	case config.StoreSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.StorePostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	s := &Stores{db: db}
	if s.Tasks, err = task.NewDatabaseTaskStore(task.DatabaseTaskStoreConfig{DB: db, CreateTable: true}); err != nil {
		s.Close(ctx)
		return nil, err
	}
	if s.Push, err = task.NewDatabasePushNotificationConfigStore(db, true); err != nil {
		s.Close(ctx)
		return nil, err
	}
	if err := s.Tasks.Initialize(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}
	if err := s.Push.Initialize(ctx); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Close releases the stores and their database connection.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	if s.Tasks != nil {
		errs = append(errs, s.Tasks.Close(ctx))
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Process is an assembled agent server.
type Process struct {
	Handler http.Handler

	cfg      *config.Config
	logger   *slog.Logger
	stores   *Stores
	agent    agent.Agent
	shutdown observability.ShutdownFunc
}

// Build wires the agent of spec behind an A2A server configured by cfg.
func Build(ctx context.Context, cfg *config.Config, spec Spec, logger *slog.Logger) (*Process, error) {
	shutdown, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName: spec.Name,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	p := &Process{cfg: cfg, logger: logger, shutdown: shutdown}

	handler, err := p.build(ctx, spec)
	if err != nil {
		p.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	p.Handler = handler
	return p, nil
}

func (p *Process) build(ctx context.Context, spec Spec) (http.Handler, error) {
	a, err := spec.NewAgent(ctx, p.cfg, p.logger)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	p.agent = a

	if p.stores, err = OpenStores(ctx, p.cfg.Store); err != nil {
		return nil, err
	}

	sender := auth.NewPushNotificationSenderAuth(auth.WithSenderLogger(p.logger))
	if err := sender.GenerateJWK(); err != nil {
		return nil, fmt.Errorf("generate push notification key: %w", err)
	}

	metrics := observability.NewMetrics()
	tm := server.NewAgentTaskManager(a, sender,
		server.WithTaskStore(p.stores.Tasks),
		server.WithPushNotificationConfigStore(p.stores.Push),
		server.WithTaskManagerLogger(p.logger),
		server.WithTaskManagerMetrics(metrics),
	)
	return server.NewA2AServer(spec.Card(p.cfg.Server.URL()), tm,
		server.WithLogger(p.logger),
		server.WithMetrics(metrics),
		server.WithJWKSHandler(sender.JWKSHandler()),
	)
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully.
// Cleartext HTTP/2 is accepted alongside HTTP/1.1. Requests in flight when ctx
// is done run to completion within the shutdown timeout.
func (p *Process) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h2c.NewHandler(p.Handler, &http2.Server{}),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.logger.InfoContext(ctx, "starting server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		p.logger.InfoContext(sctx, "shutting down server")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// Run listens on the configured address and serves until ctx is done.
func (p *Process) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", p.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return p.Serve(ctx, ln)
}

// Close releases the stores and flushes pending spans. An agent implementing
// [io.Closer] is closed as well.
func (p *Process) Close(ctx context.Context) error {
	var errs []error
	if c, ok := p.agent.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if p.stores != nil {
		errs = append(errs, p.stores.Close(ctx))
	}
	if p.shutdown != nil {
		errs = append(errs, p.shutdown(ctx))
	}
	return errors.Join(errs...)
}
