package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"aviation_calculator/internal/api"
	"aviation_calculator/internal/database"
	"aviation_calculator/internal/models"
	"aviation_calculator/internal/scheduler"
	"aviation_calculator/internal/takeoff"
	"aviation_calculator/internal/tasks"
)

const shutdownTimeout = 5 * time.Second

// Daemon runs the HTTP API together with the history collector and pruner
type Daemon struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cfg        Config
	scheduler  *scheduler.Scheduler
	database   database.Repository // nil when history is disabled
	records    chan *models.Calculation
	collector  *tasks.CalculationCollector
	server     *http.Server
	listener   net.Listener
	errs       chan error
	collectorD chan struct{}

	shutdownTimeout time.Duration
}

// Config holds daemon configuration
type Config struct {
	Addr               string         // HTTP listen address (e.g., ":8080")
	CORSAllowedOrigins []string       // empty allows every origin
	Engine             takeoff.Engine // used when a request names no engine

	HistoryEnabled bool
	DBPath         string        // Path to SQLite database
	BatchSize      int           // Number of calculations to batch before writing
	FlushInterval  time.Duration // flush batch after this time even if not full
	Retention      time.Duration // zero keeps history forever
	PruneInterval  time.Duration
}

// New creates a new daemon instance
func New(cfg Config) (*Daemon, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("Addr is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		scheduler:  scheduler.New(ctx),
		errs:       make(chan error, 1),
		collectorD: make(chan struct{}),

		shutdownTimeout: shutdownTimeout,
	}

	var history database.CalculationRepository
	if cfg.HistoryEnabled {
		db, err := database.New(cfg.DBPath)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		d.database = db
		history = db.CalculationRepository()

		batchSize := 100
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
		flushInterval := 1 * time.Second
		if cfg.FlushInterval > 0 {
			flushInterval = cfg.FlushInterval
		}

		d.records = make(chan *models.Calculation, 10*batchSize)
		d.collector = tasks.NewCalculationCollectorWithConfig(history, d.records, batchSize, flushInterval)

		if cfg.Retention > 0 {
			pruneInterval := time.Hour
			if cfg.PruneInterval > 0 {
				pruneInterval = cfg.PruneInterval
			}
			d.scheduler.AddTask(tasks.NewHistoryPruner(history, cfg.Retention, pruneInterval))
		}
	}

	handler := api.NewHandler(cfg.Engine, d.records, history)
	d.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Routes(cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return d, nil
}

// Start opens the listener and runs the server, collector and scheduler in the background
func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	ln, err := net.Listen("tcp", d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.Addr, err)
	}
	d.listener = ln

	if d.collector != nil {
		go func() {
			defer close(d.collectorD)
			if err := d.collector.Start(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Calculation collector stopped", "error", err)
			}
		}()
	} else {
		close(d.collectorD)
	}

	d.scheduler.Start()

	go func() {
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
			d.errs <- err
		}
	}()

	slog.Info("Daemon started successfully", "addr", ln.Addr().String(), "history", d.cfg.HistoryEnabled)
	return nil
}

// Addr returns the address the server listens on, or "" before Start
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Errors reports a server failure after Start
func (d *Daemon) Errors() <-chan error {
	return d.errs
}

// Stop gracefully stops the daemon. Calculations received before the
// server shut down are written to the database.
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
		// Handlers may still be sending, so the collector stops on cancel instead
		d.cancel()
	} else if d.records != nil {
		// No handler can send anymore, closing lets the collector drain and flush
		close(d.records)
	}
	if d.listener != nil {
		<-d.collectorD
	}

	d.scheduler.Stop()
	d.cancel()

	if d.database != nil {
		if err := d.database.Close(); err != nil {
			slog.Error("Error closing database", "error", err)
		}
	}

	slog.Info("Daemon stopped")
	return nil
}
