// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 10002
log:
  level: debug
  format: json
store:
  driver: sqlite
  dsn: file::memory:
agent:
  model: gemini-2.0-flash
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOOGLE_API_KEY=from-dotenv\n"), 0o600))

	t.Setenv("A2A_HOST", "0.0.0.0")
	t.Setenv("A2A_REDIS_ADDR", "localhost:6379")
	t.Setenv("GOOGLE_API_KEY", "")
	os.Unsetenv("GOOGLE_API_KEY")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:10002", cfg.Server.Addr())
	assert.Equal(t, "http://0.0.0.0:10002/", cfg.Server.URL())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "gemini-2.0-flash", cfg.Agent.Model)
	assert.Equal(t, "token.json", cfg.Agent.TokenFile)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "from-dotenv", cfg.GoogleAPIKey)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("A2A_PORT", "ten")

	_, err := Load("")
	assert.ErrorContains(t, err, "A2A_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "no port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid port"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = StorePostgres }, wantErr: "requires a dsn"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: "unknown store driver"},
		{name: "unknown format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.Port = 10000
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
