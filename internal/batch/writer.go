package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"aviation_calculator/internal/models"
)

var resultHeader = []string{
	"id", ColumnEngine, ColumnMass, ColumnPressureAltitude, ColumnTemperature, ColumnSlope,
	ColumnGrass, ColumnContamination, "ground_roll_m", "distance_to_50ft_m", "error",
}

// Writer writes calculation records as CSV rows
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// Write appends one record, writing the header row first if needed
func (w *Writer) Write(calc *models.Calculation) error {
	if !w.wroteHeader {
		if err := w.w.Write(resultHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		w.wroteHeader = true
	}

	grass := ""
	if calc.Grass != nil {
		grass = *calc.Grass
		if grass == "" {
			grass = "dry"
		}
	}

	row := []string{
		calc.ID,
		calc.Engine,
		formatFloat(calc.MassKg),
		formatFloat(calc.PressureAltitudeFt),
		formatFloat(calc.TemperatureC),
		formatFloat(calc.SlopePct),
		grass,
		calc.Contamination,
		"",
		"",
		calc.Error,
	}
	if !calc.Failed() {
		row[8] = formatFloat(calc.GroundRollM)
		row[9] = formatFloat(calc.DistanceTo50FtM)
	}

	if err := w.w.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	return nil
}

// Flush writes any buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
