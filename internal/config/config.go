// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads agent server settings from a YAML file, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the full configuration of one agent server process.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Redis   RedisConfig   `yaml:"redis"`
	Tracing TracingConfig `yaml:"tracing"`
	Agent   AgentConfig   `yaml:"agent"`

	// GoogleAPIKey authenticates Gemini calls. Read from GOOGLE_API_KEY when unset.
	GoogleAPIKey string `yaml:"google_api_key"`
}

// ServerConfig is the listen address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// URL returns the base URL advertised in the agent card.
func (c ServerConfig) URL() string {
	return "http://" + c.Addr() + "/"
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// StoreConfig selects the task and push notification config backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig points the activity store at Redis. An empty Addr keeps
// activities in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter string `yaml:"exporter"` // none, stdout or otlp
	Endpoint string `yaml:"endpoint"`
}

// AgentConfig holds agent specific settings.
type AgentConfig struct {
	Model           string `yaml:"model"`
	ExcelPath       string `yaml:"excel_path"`
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "localhost"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Driver: StoreMemory},
		Redis:   RedisConfig{Prefix: "a2a:activities:"},
		Tracing: TracingConfig{Exporter: "none"},
		Agent: AgentConfig{
			Model:           "gemini-1.5-flash",
			ExcelPath:       "calendar_activities.xlsx",
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},
	}
}

// Load reads the .env file of the working directory if present, then the YAML
// file at path if path is not empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if c.GoogleAPIKey == "" {
		c.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if v := os.Getenv("A2A_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("A2A_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid A2A_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("A2A_DATABASE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("A2A_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	return nil
}

// Validate checks the settings every agent server needs.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %s requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
