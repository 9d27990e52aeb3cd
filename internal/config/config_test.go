package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"aviation_calculator/internal/takeoff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves into an empty directory so no ./config.yaml is picked up
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv(envConfigPath, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "aviation_calculator.db", cfg.DBPath)
	assert.Equal(t, takeoff.Rotax912ULS, cfg.Engine)
	assert.Equal(t, LogConfig{Level: "info", Format: "text"}, cfg.Log)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 100, cfg.History.BatchSize)
	assert.Equal(t, time.Second, cfg.History.FlushInterval)
	assert.Equal(t, 90*24*time.Hour, cfg.History.Retention)
	assert.Equal(t, time.Hour, cfg.History.PruneInterval)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calculator.yaml")
	content := `
db_path: /tmp/history.db
aircraft:
  engine: ul
log:
  level: debug
  format: json
history:
  batch_size: 10
  retention_days: 7
server:
  addr: 127.0.0.1:9000
  cors_allowed_origins:
    - http://localhost:3000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(envConfigPath, path)
	t.Setenv("AVIATION_CALCULATOR_HISTORY_FLUSH_INTERVAL", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/history.db", cfg.DBPath)
	assert.Equal(t, takeoff.Rotax912UL, cfg.Engine)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.History.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.History.FlushInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.History.Retention)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_InvalidEngine(t *testing.T) {
	chdirTemp(t)
	t.Setenv(envConfigPath, "")
	t.Setenv("AVIATION_CALCULATOR_AIRCRAFT_ENGINE", "912is")

	_, err := Load()
	assert.ErrorIs(t, err, takeoff.ErrUnknownEngine)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBPath: "history.db",
			Log:    LogConfig{Level: "info", Format: "text"},
			History: HistoryConfig{
				Enabled:       true,
				BatchSize:     100,
				FlushInterval: time.Second,
				Retention:     24 * time.Hour,
				PruneInterval: time.Hour,
			},
			Server: ServerConfig{Addr: ":8080"},
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "uppercase log level", modify: func(c *Config) { c.Log.Level = "DEBUG" }},
		{name: "no db path with history", modify: func(c *Config) { c.DBPath = "" }, wantErr: "db_path is required"},
		{name: "no db path without history", modify: func(c *Config) { c.DBPath = ""; c.History.Enabled = false }},
		{name: "zero batch size", modify: func(c *Config) { c.History.BatchSize = 0 }, wantErr: "history.batch_size"},
		{name: "zero flush interval", modify: func(c *Config) { c.History.FlushInterval = 0 }, wantErr: "history.flush_interval"},
		{name: "negative retention", modify: func(c *Config) { c.History.Retention = -time.Hour }, wantErr: "history.retention_days"},
		{name: "zero prune interval", modify: func(c *Config) { c.History.PruneInterval = 0 }, wantErr: "history.prune_interval"},
		{name: "no server address", modify: func(c *Config) { c.Server.Addr = "" }, wantErr: "server.addr"},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "trace" }, wantErr: "invalid log level"},
		{name: "bad log format", modify: func(c *Config) { c.Log.Format = "xml" }, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
