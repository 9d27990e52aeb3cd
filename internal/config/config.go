package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"aviation_calculator/internal/takeoff"

	"github.com/spf13/viper"
)

const (
	envPrefix     = "AVIATION_CALCULATOR"
	envConfigPath = envPrefix + "_CONFIG_PATH"
)

// Config holds all configuration for the calculator and its server
type Config struct {
	DBPath  string
	Engine  takeoff.Engine
	Log     LogConfig
	History HistoryConfig
	Server  ServerConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	File   string // empty logs to stderr
}

// HistoryConfig controls how calculations are recorded
type HistoryConfig struct {
	Enabled       bool
	BatchSize     int
	FlushInterval time.Duration
	Retention     time.Duration
	PruneInterval time.Duration
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Addr               string
	CORSAllowedOrigins []string
}

// ConfigPathEnv is the environment variable pointing at an explicit config file
func ConfigPathEnv() string {
	return envConfigPath
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("db_path", "aviation_calculator.db")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.batch_size", 100)
	v.SetDefault("history.flush_interval", 1)
	v.SetDefault("history.retention_days", 90)
	v.SetDefault("history.prune_interval", 60)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("aircraft.engine", takeoff.Rotax912ULS.String())

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/aviation_calculator")
	v.AddConfigPath(".")

	if configPath := os.Getenv(envConfigPath); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// A missing config file is fine, defaults and env vars apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	engine, err := takeoff.ParseEngine(v.GetString("aircraft.engine"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: aircraft.engine: %w", err)
	}

	retentionDays := v.GetInt("history.retention_days")
	cfg := &Config{
		DBPath: v.GetString("db_path"),
		Engine: engine,
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
		History: HistoryConfig{
			Enabled:       v.GetBool("history.enabled"),
			BatchSize:     v.GetInt("history.batch_size"),
			FlushInterval: time.Duration(v.GetInt("history.flush_interval")) * time.Second,
			Retention:     time.Duration(retentionDays) * 24 * time.Hour,
			PruneInterval: time.Duration(v.GetInt("history.prune_interval")) * time.Minute,
		},
		Server: ServerConfig{
			Addr:               v.GetString("server.addr"),
			CORSAllowedOrigins: v.GetStringSlice("server.cors_allowed_origins"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.DBPath == "" && cfg.History.Enabled {
		return fmt.Errorf("db_path is required when history is enabled")
	}

	if cfg.History.BatchSize <= 0 {
		return fmt.Errorf("history.batch_size must be greater than 0")
	}

	if cfg.History.FlushInterval <= 0 {
		return fmt.Errorf("history.flush_interval must be greater than 0")
	}

	if cfg.History.Retention < 0 {
		return fmt.Errorf("history.retention_days must not be negative")
	}

	if cfg.History.PruneInterval <= 0 {
		return fmt.Errorf("history.prune_interval must be greater than 0")
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
