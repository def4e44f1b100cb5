// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-a2a/a2a-samples/internal/config"
)

// Command returns the root command of an agent server binary. Flags override
// the configuration file, which overrides the environment defaults.
func Command(spec Spec, defaultPort int) *cobra.Command {
	var (
		configFile string
		host       string
		port       int
	)
	cmd := &cobra.Command{
		Use:           spec.Name,
		Short:         "Serve the " + spec.Name + " agent over A2A",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") || cfg.Server.Host == "" {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") || cfg.Server.Port == 0 {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, spec)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&host, "host", "localhost", "host to listen on")
	cmd.Flags().IntVar(&port, "port", defaultPort, "port to listen on")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, spec Spec) error {
	logger, err := NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	p, err := Build(ctx, cfg, spec, logger)
	if err != nil {
		return fmt.Errorf("start %s: %w", spec.Name, err)
	}
	defer func() {
		if err := p.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "close", "error", err)
		}
	}()
	return p.Run(ctx)
}
