package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"aviation_calculator/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

const usage = `Usage: aviation_calculator [-config path] <command> [flags]

Commands:
  takeoff            calculate the FK9 takeoff ground roll and distance to 50 ft
  isa                ICAO standard temperature and temperature deviation
  pressure-altitude  pressure altitude from QNH and field elevation
  wind               wind triangle: ground speed, wind correction angle and heading
  batch              evaluate takeoff requests from CSV files
  history            list recorded calculations
  serve              run the HTTP API

Run 'aviation_calculator <command> -h' for the flags of a command.
`

func initLogger(cfg *config.Config) {
	var logLevel slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	// stdout carries command output, so logs go to stderr unless a file is configured
	var w io.Writer = os.Stderr
	if cfg.Log.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    32, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *configPath != "" {
		os.Setenv(config.ConfigPathEnv(), *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// Logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var run func(*config.Config, []string) error
	switch cmd {
	case "takeoff":
		run = runTakeoff
	case "isa":
		run = runISA
	case "pressure-altitude":
		run = runPressureAltitude
	case "wind":
		run = runWind
	case "batch":
		run = runBatch
	case "history":
		run = runHistory
	case "serve":
		run = runServe
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
