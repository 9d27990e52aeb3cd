package models

import (
	"strings"
	"time"

	"aviation_calculator/internal/takeoff"

	"github.com/google/uuid"
)

// Calculation sources
const (
	SourceCLI   = "cli"
	SourceAPI   = "api"
	SourceBatch = "batch"
)

// Calculation is one takeoff calculation kept in the history
type Calculation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"` // cli, api or batch

	Engine             string  `json:"engine"`
	MassKg             float64 `json:"mass_kg"`
	PressureAltitudeFt float64 `json:"pressure_altitude_ft"`
	TemperatureC       float64 `json:"temperature_c"`
	SlopePct           float64 `json:"slope_pct"`
	Grass              *string `json:"grass,omitempty"` // nil for paved runways, comma separated flags otherwise
	Contamination      string  `json:"contamination"`

	GroundRollM     float64 `json:"ground_roll_m"`
	DistanceTo50FtM float64 `json:"distance_to_50ft_m"`
	Error           string  `json:"error,omitempty"` // set when the calculation was rejected
}

// NewCalculation builds a history record from a request and the outcome of
// its calculation.
func NewCalculation(source string, req takeoff.Request, result takeoff.Distances, err error) *Calculation {
	c := &Calculation{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		Source:             source,
		Engine:             req.Engine.String(),
		MassKg:             req.MassKg,
		PressureAltitudeFt: req.PressureAltitudeFt,
		TemperatureC:       req.TemperatureC,
		SlopePct:           req.SlopePct,
		Contamination:      req.Contamination.String(),
	}
	if req.Grass != nil {
		flags := strings.Join(req.Grass.Flags(), ",")
		c.Grass = &flags
	}

	if err != nil {
		c.Error = err.Error()
	} else {
		c.GroundRollM = result.GroundRoll
		c.DistanceTo50FtM = result.DistanceTo50Ft
	}
	return c
}

// Failed reports whether the calculation was rejected
func (c *Calculation) Failed() bool {
	return c.Error != ""
}
