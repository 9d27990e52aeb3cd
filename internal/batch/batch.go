package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"aviation_calculator/internal/atmosphere"
	"aviation_calculator/internal/models"
	"aviation_calculator/internal/takeoff"
)

// Column names recognised in the header row
const (
	ColumnEngine           = "engine"
	ColumnMass             = "mass_kg"
	ColumnPressureAltitude = "pressure_altitude_ft"
	ColumnQNH              = "qnh_hpa"
	ColumnElevation        = "elevation_ft"
	ColumnTemperature      = "temperature_c"
	ColumnSlope            = "slope_pct"
	ColumnGrass            = "grass"
	ColumnContamination    = "contamination"
)

var ErrMissingPressureAltitude = errors.New("either pressure_altitude_ft or qnh_hpa and elevation_ft are required")

// Summary counts what happened to the rows of a run
type Summary struct {
	Rows    int // rows evaluated
	Failed  int // rows whose calculation was rejected
	Skipped int // rows that could not be parsed into a request
}

// Evaluator turns CSV rows into takeoff calculations
type Evaluator struct {
	// DefaultEngine is used for rows without an engine column or value
	DefaultEngine takeoff.Engine
}

// EvaluateMultipleCSV reads takeoff requests from one or more CSV files,
// calculates each of them and passes the resulting record to emit. The
// header of the first file defines the columns for all files.
func (e *Evaluator) EvaluateMultipleCSV(csvPaths []string, emit func(*models.Calculation) error) (Summary, error) {
	var summary Summary
	var headerMap map[string]int
	var expectedFields int

	for fileIdx, csvPath := range csvPaths {
		if err := func() error {
			file, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("failed to open CSV file %s: %w", csvPath, err)
			}
			defer file.Close()

			reader := csv.NewReader(file)
			reader.FieldsPerRecord = -1
			reader.Comment = '#'

			header, err := reader.Read()
			if err != nil {
				return fmt.Errorf("failed to read CSV header from %s: %w", csvPath, err)
			}

			if fileIdx == 0 {
				expectedFields = len(header)
				headerMap = make(map[string]int)
				for i, h := range header {
					headerMap[strings.ToLower(strings.Trim(strings.TrimSpace(h), "'\""))] = i
				}
				if _, ok := headerMap[ColumnMass]; !ok {
					return fmt.Errorf("CSV header of %s has no %s column", csvPath, ColumnMass)
				}
			}

			for {
				record, err := reader.Read()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read CSV record from %s: %w", csvPath, err)
				}

				line, _ := reader.FieldPos(0)
				if len(record) != expectedFields {
					slog.Warn("Skipping CSV row with unexpected field count",
						"file", csvPath, "line", line, "fields", len(record), "expected", expectedFields)
					summary.Skipped++
					continue
				}

				req, err := e.parseRequest(record, headerMap)
				if err != nil {
					slog.Warn("Skipping invalid CSV row", "file", csvPath, "line", line, "error", err)
					summary.Skipped++
					continue
				}

				result, calcErr := req.Calculate()
				calc := models.NewCalculation(models.SourceBatch, req, result, calcErr)
				summary.Rows++
				if calc.Failed() {
					summary.Failed++
				}

				if err := emit(calc); err != nil {
					return fmt.Errorf("failed to emit calculation: %w", err)
				}
			}
		}(); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// parseRequest builds a request from one CSV record
func (e *Evaluator) parseRequest(record []string, headerMap map[string]int) (takeoff.Request, error) {
	req := takeoff.Request{Engine: e.DefaultEngine}

	if v := getField(record, headerMap, ColumnEngine); v != "" {
		engine, err := takeoff.ParseEngine(v)
		if err != nil {
			return req, err
		}
		req.Engine = engine
	}

	var err error
	if req.MassKg, err = parseFloat(record, headerMap, ColumnMass, true); err != nil {
		return req, err
	}

	if v := getField(record, headerMap, ColumnPressureAltitude); v != "" {
		if req.PressureAltitudeFt, err = parseFloat(record, headerMap, ColumnPressureAltitude, true); err != nil {
			return req, err
		}
	} else {
		qnh := getField(record, headerMap, ColumnQNH)
		elevation := getField(record, headerMap, ColumnElevation)
		if qnh == "" || elevation == "" {
			return req, ErrMissingPressureAltitude
		}
		qnhHPa, err := parseFloat(record, headerMap, ColumnQNH, true)
		if err != nil {
			return req, err
		}
		elevationFt, err := parseFloat(record, headerMap, ColumnElevation, true)
		if err != nil {
			return req, err
		}
		req.PressureAltitudeFt = atmosphere.PressureAltitudeFeet(qnhHPa, elevationFt)
	}

	if req.TemperatureC, err = parseFloat(record, headerMap, ColumnTemperature, true); err != nil {
		return req, err
	}
	if req.SlopePct, err = parseFloat(record, headerMap, ColumnSlope, false); err != nil {
		return req, err
	}

	// Grass conditions may be separated by ';' or '|' so the column needs no quoting
	grass := strings.NewReplacer(";", ",", "|", ",").Replace(getField(record, headerMap, ColumnGrass))
	if req.Grass, err = takeoff.ParseGrassSurface(grass); err != nil {
		return req, err
	}

	if req.Contamination, err = takeoff.ParseContamination(getField(record, headerMap, ColumnContamination)); err != nil {
		return req, err
	}

	return req, nil
}

func parseFloat(record []string, headerMap map[string]int, fieldName string, required bool) (float64, error) {
	v := getField(record, headerMap, fieldName)
	if v == "" {
		if required {
			return 0, fmt.Errorf("missing value for %s", fieldName)
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s: %w", v, fieldName, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid value %q for %s: not a finite number", v, fieldName)
	}
	return f, nil
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}
