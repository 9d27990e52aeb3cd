package takeoff

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEngine is returned for an Engine value without a performance table.
var ErrUnknownEngine = errors.New("unknown engine")

// Engine selects one of the two FK9 engine variants.
type Engine int

const (
	Rotax912UL Engine = iota
	Rotax912ULS
)

// String returns the canonical engine name
func (e Engine) String() string {
	switch e {
	case Rotax912UL:
		return "rotax912ul"
	case Rotax912ULS:
		return "rotax912uls"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// ParseEngine accepts the canonical names as well as the short forms "ul"/"uls"
// and the variant letters "a"/"b".
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rotax912ul", "912ul", "ul", "a":
		return Rotax912UL, nil
	case "rotax912uls", "912uls", "uls", "b":
		return Rotax912ULS, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// MarshalText encodes the engine as its canonical name.
func (e Engine) MarshalText() ([]byte, error) {
	if _, ok := tables[e]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEngine, int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText accepts every name ParseEngine does.
func (e *Engine) UnmarshalText(text []byte) error {
	engine, err := ParseEngine(string(text))
	if err != nil {
		return err
	}
	*e = engine
	return nil
}

// PerformanceTable holds takeoff distances over mass for one engine variant.
// Mass is strictly ascending and all three columns have the same length.
type PerformanceTable struct {
	Mass           []float64 // kg
	GroundRoll     []float64 // m
	DistanceTo50Ft []float64 // m
}

// Distances from the approved flight manual. Never modified after init.
var tables = map[Engine]PerformanceTable{
	Rotax912UL: {
		Mass:           []float64{472.5, 525.0, 540.0},
		GroundRoll:     []float64{106.0, 140.0, 147.0},
		DistanceTo50Ft: []float64{265.0, 350.0, 367.0},
	},
	Rotax912ULS: {
		Mass:           []float64{472.5, 525.0, 540.0, 570.0, 600.0},
		GroundRoll:     []float64{100.0, 128.0, 136.0, 141.0, 153.0},
		DistanceTo50Ft: []float64{225.0, 320.0, 338.0, 352.0, 375.0},
	},
}

func tableFor(engine Engine) (PerformanceTable, error) {
	table, ok := tables[engine]
	if !ok {
		return PerformanceTable{}, fmt.Errorf("%w: %d", ErrUnknownEngine, int(engine))
	}
	return table, nil
}

// MassRange returns the lowest and highest mass covered by the engine's table.
func MassRange(engine Engine) (minMass, maxMass float64, err error) {
	table, err := tableFor(engine)
	if err != nil {
		return 0, 0, err
	}
	return table.Mass[0], table.Mass[len(table.Mass)-1], nil
}
