package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"aviation_calculator/internal/atmosphere"
	"aviation_calculator/internal/batch"
	"aviation_calculator/internal/config"
	"aviation_calculator/internal/daemon"
	"aviation_calculator/internal/database"
	"aviation_calculator/internal/models"
	"aviation_calculator/internal/navigation"
	"aviation_calculator/internal/takeoff"
	"aviation_calculator/internal/tasks"
	"aviation_calculator/internal/units"
)

// setFlags returns the names of the flags given on the command line
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// checkFinite rejects NaN and infinite flag values, which flag.Float64 accepts
func checkFinite(fs *flag.FlagSet) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if g, ok := f.Value.(flag.Getter); ok && err == nil {
			if v, ok := g.Get().(float64); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
				err = fmt.Errorf("-%s must be a finite number", f.Name)
			}
		}
	})
	return err
}

func runTakeoff(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("takeoff", flag.ExitOnError)
	engine := fs.String("engine", cfg.Engine.String(), "engine variant: rotax912ul or rotax912uls")
	mass := fs.Float64("mass", 0, "takeoff mass in kg")
	pressureAltitude := fs.Float64("pa", 0, "pressure altitude in ft")
	qnh := fs.Float64("qnh", 0, "QNH in hPa, used with -elevation instead of -pa")
	elevation := fs.Float64("elevation", 0, "field elevation in ft")
	temperature := fs.Float64("temp", 0, "outside air temperature in °C")
	slope := fs.Float64("slope", 0, "runway slope in percent, negative downhill")
	grass := fs.String("grass", "", "grass runway: dry, or a comma separated list of wet, soft_ground, damaged_turf, high_grass (empty for paved)")
	contamination := fs.String("contamination", "", "runway contamination: slush, snow or powder_snow")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	fs.Parse(args)
	if err := checkFinite(fs); err != nil {
		return err
	}

	set := setFlags(fs)
	if !set["mass"] {
		return errors.New("-mass is required")
	}
	if !set["temp"] {
		return errors.New("-temp is required")
	}

	req := takeoff.Request{
		MassKg:       *mass,
		TemperatureC: *temperature,
		SlopePct:     *slope,
	}

	var err error
	if req.Engine, err = takeoff.ParseEngine(*engine); err != nil {
		return err
	}
	if req.Grass, err = takeoff.ParseGrassSurface(*grass); err != nil {
		return err
	}
	if req.Contamination, err = takeoff.ParseContamination(*contamination); err != nil {
		return err
	}

	switch {
	case set["pa"]:
		req.PressureAltitudeFt = *pressureAltitude
	case set["qnh"] && set["elevation"]:
		req.PressureAltitudeFt = atmosphere.PressureAltitudeFeet(*qnh, *elevation)
	default:
		return errors.New("-pa or both -qnh and -elevation are required")
	}

	result, calcErr := req.Calculate()
	recordHistory(cfg, models.NewCalculation(models.SourceCLI, req, result, calcErr))
	if calcErr != nil {
		return calcErr
	}

	if *asJSON {
		return printJSON(os.Stdout, struct {
			Request takeoff.Request `json:"request"`
			takeoff.Distances
		}{req, result})
	}

	fmt.Printf("Engine:             %s\n", req.Engine)
	fmt.Printf("Pressure altitude:  %.1f ft\n", req.PressureAltitudeFt)
	fmt.Printf("Ground roll:        %.2f m\n", result.GroundRoll)
	fmt.Printf("Distance to 50 ft:  %.2f m\n", result.DistanceTo50Ft)
	return nil
}

// recordHistory stores a single CLI calculation. Failures are logged and do
// not fail the command.
func recordHistory(cfg *config.Config, calc *models.Calculation) {
	if !cfg.History.Enabled {
		return
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		slog.Warn("Failed to open history database", "db_path", cfg.DBPath, "error", err)
		return
	}
	defer db.Close()

	if err := db.CalculationRepository().InsertBatch([]*models.Calculation{calc}); err != nil {
		slog.Warn("Failed to record calculation", "id", calc.ID, "error", err)
		return
	}
	slog.Debug("Recorded calculation", "id", calc.ID, "failed", calc.Failed())
}

func runISA(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("isa", flag.ExitOnError)
	altitude := fs.Float64("altitude", 0, "altitude in m")
	inFeet := fs.Bool("ft", false, "altitude is given in ft")
	temperature := fs.Float64("temp", 0, "actual temperature in °C, prints the deviation from standard")
	fs.Parse(args)
	if err := checkFinite(fs); err != nil {
		return err
	}

	meters := *altitude
	if *inFeet {
		meters = units.FeetToMeters(*altitude)
	}

	standard, err := atmosphere.StandardTemperature(meters)
	if err != nil {
		return err
	}
	fmt.Printf("Standard temperature at %s m: %.2f °C\n", formatFloat(units.Round(meters, 2)), standard)

	if setFlags(fs)["temp"] {
		deviation, err := atmosphere.TemperatureDeviation(meters, *temperature)
		if err != nil {
			return err
		}
		fmt.Printf("Temperature deviation: %+.2f °C\n", deviation)
	}
	return nil
}

func runPressureAltitude(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("pressure-altitude", flag.ExitOnError)
	qnh := fs.Float64("qnh", 0, "QNH in hPa")
	elevation := fs.Float64("elevation", 0, "field elevation in ft")
	inMeters := fs.Bool("m", false, "elevation is given in m")
	fs.Parse(args)
	if err := checkFinite(fs); err != nil {
		return err
	}

	if *qnh <= 0 {
		return errors.New("-qnh must be greater than 0")
	}

	elevationM := *elevation
	if !*inMeters {
		elevationM = units.FeetToMeters(*elevation)
	}

	meters := atmosphere.PressureAltitudeFromQNH(*qnh, elevationM)
	fmt.Printf("Pressure altitude: %.1f ft (%.2f m)\n", units.Round(units.MetersToFeet(meters), 1), meters)
	return nil
}

func runWind(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("wind", flag.ExitOnError)
	course := fs.Float64("course", 0, "true course in degrees")
	tas := fs.Float64("tas", 0, "true airspeed")
	windDirection := fs.Float64("wd", 0, "wind direction in degrees")
	windSpeed := fs.Float64("ws", 0, "wind speed in the unit of -tas")
	fs.Parse(args)
	if err := checkFinite(fs); err != nil {
		return err
	}

	switch {
	case *tas <= 0:
		return errors.New("-tas must be greater than 0")
	case *windSpeed < 0:
		return errors.New("-ws must not be negative")
	case *windSpeed > *tas:
		return errors.New("-ws must not exceed -tas")
	}

	fmt.Printf("Ground speed:          %.2f\n", navigation.GroundSpeed(*course, *tas, *windDirection, *windSpeed))
	fmt.Printf("Wind correction angle: %+.2f°\n", navigation.WindCorrectionAngle(*tas, *windSpeed, *windDirection-*course))
	fmt.Printf("Heading:               %.2f°\n", units.NormalizeDegrees(navigation.Heading(*course, *tas, *windDirection, *windSpeed)))
	return nil
}

func runBatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	out := fs.String("out", "", "write results to this CSV file instead of stdout")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("at least one CSV file is required")
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}
	writer := batch.NewWriter(w)

	// Records flow through the collector so large files are committed in batches
	var records chan *models.Calculation
	collectorDone := make(chan struct{})
	if cfg.History.Enabled {
		db, err := database.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		records = make(chan *models.Calculation, cfg.History.BatchSize)
		collector := tasks.NewCalculationCollectorWithConfig(db.CalculationRepository(), records, cfg.History.BatchSize, cfg.History.FlushInterval)
		go func() {
			defer close(collectorDone)
			if err := collector.Start(context.Background()); err != nil {
				slog.Error("Calculation collector stopped", "error", err)
			}
		}()
	} else {
		close(collectorDone)
	}

	evaluator := &batch.Evaluator{DefaultEngine: cfg.Engine}
	summary, err := evaluator.EvaluateMultipleCSV(fs.Args(), func(calc *models.Calculation) error {
		if records != nil {
			records <- calc
		}
		return writer.Write(calc)
	})

	if records != nil {
		close(records)
	}
	<-collectorDone

	if flushErr := writer.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		return err
	}

	slog.Info("Batch finished", "rows", summary.Rows, "failed", summary.Failed, "skipped", summary.Skipped)
	return nil
}

func runHistory(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of calculations to show")
	asJSON := fs.Bool("json", false, "print the calculations as JSON")
	fs.Parse(args)

	if !cfg.History.Enabled {
		return errors.New("calculation history is disabled (history.enabled)")
	}
	if *limit <= 0 {
		return errors.New("-limit must be greater than 0")
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	calcs, err := db.CalculationRepository().Recent(*limit)
	if err != nil {
		return err
	}

	if *asJSON {
		if calcs == nil {
			calcs = []*models.Calculation{}
		}
		return printJSON(os.Stdout, calcs)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSOURCE\tENGINE\tMASS\tPA FT\tTEMP\tSLOPE\tSURFACE\tGROUND ROLL\tTO 50 FT\tERROR")
	for _, c := range calcs {
		surface := "paved"
		if c.Grass != nil {
			surface = "grass"
			if *c.Grass != "" {
				surface += "(" + *c.Grass + ")"
			}
		}
		if c.Contamination != takeoff.Inconspicuous.String() {
			surface += "/" + c.Contamination
		}

		groundRoll, to50Ft := "-", "-"
		if !c.Failed() {
			groundRoll, to50Ft = formatFloat(c.GroundRollM), formatFloat(c.DistanceTo50FtM)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.CreatedAt.Local().Format(time.DateTime),
			c.Source,
			c.Engine,
			formatFloat(c.MassKg),
			formatFloat(c.PressureAltitudeFt),
			formatFloat(c.TemperatureC),
			formatFloat(c.SlopePct),
			surface,
			groundRoll,
			to50Ft,
			c.Error,
		)
	}
	return tw.Flush()
}

func runServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "HTTP listen address")
	fs.Parse(args)

	d, err := daemon.New(daemon.Config{
		Addr:               *addr,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Engine:             cfg.Engine,
		HistoryEnabled:     cfg.History.Enabled,
		DBPath:             cfg.DBPath,
		BatchSize:          cfg.History.BatchSize,
		FlushInterval:      cfg.History.FlushInterval,
		Retention:          cfg.History.Retention,
		PruneInterval:      cfg.History.PruneInterval,
	})
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		d.Stop()
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		slog.Info("Received interrupt signal, shutting down...")
	case err = <-d.Errors():
	}

	if stopErr := d.Stop(); err == nil {
		err = stopErr
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
