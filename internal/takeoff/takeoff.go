// Package takeoff computes FK9 takeoff distances from the flight manual tables
// and the corrections of FSM 3/75 "Einflüsse auf die Länge der Startstrecke".
package takeoff

import (
	"math"
	"sort"

	"aviation_calculator/internal/atmosphere"
	"aviation_calculator/internal/units"
)

const (
	MinTemperature = -90.0 // °C
	MaxTemperature = 70.0  // °C
	MaxSlope       = 25.0  // %
)

// The tables are calibrated to a 120 m reference and rescaled to 100 m.
const (
	tableReference = 120.0
	baseReference  = 100.0
)

// Request holds the inputs of a single takeoff calculation.
type Request struct {
	Engine             Engine        `json:"engine"`
	MassKg             float64       `json:"mass_kg"`
	PressureAltitudeFt float64       `json:"pressure_altitude_ft"`
	TemperatureC       float64       `json:"temperature_c"`
	SlopePct           float64       `json:"slope_pct"`
	Grass              *GrassSurface `json:"grass,omitempty"`
	Contamination      Contamination `json:"contamination"`
}

// Distances is the result of a takeoff calculation in meters.
type Distances struct {
	GroundRoll     float64 `json:"ground_roll_m"`
	DistanceTo50Ft float64 `json:"distance_to_50ft_m"`
}

// Calculate runs CalculateTakeoffDistance for the request.
func (r Request) Calculate() (Distances, error) {
	groundRoll, to50Ft, err := CalculateTakeoffDistance(
		r.Engine, r.MassKg, r.PressureAltitudeFt, r.TemperatureC, r.SlopePct, r.Grass, r.Contamination)
	if err != nil {
		return Distances{}, err
	}
	return Distances{GroundRoll: groundRoll, DistanceTo50Ft: to50Ft}, nil
}

// CalculateTakeoffDistance returns the ground roll and the distance to clear a
// 50 ft obstacle, both in meters and rounded to two decimals.
//
// pressureAltitude is in feet, temperature in °C and slope in percent
// (negative for downhill). grass is nil for paved runways.
func CalculateTakeoffDistance(
	engine Engine,
	mass float64,
	pressureAltitude float64,
	temperature float64,
	slope float64,
	grass *GrassSurface,
	contamination Contamination,
) (groundRoll, distanceTo50Ft float64, err error) {
	for _, in := range []struct {
		name  string
		value float64
	}{
		{"Temperature", temperature},
		{"Slope", slope},
		{"Mass", mass},
		{"Pressure altitude", pressureAltitude},
	} {
		if math.IsNaN(in.value) || math.IsInf(in.value, 0) {
			return 0, 0, &NotFiniteError{Name: in.name, Value: in.value}
		}
	}

	if temperature < MinTemperature {
		return 0, 0, &TemperatureTooLowError{Min: MinTemperature, Temperature: temperature}
	}
	if temperature > MaxTemperature {
		return 0, 0, &TemperatureTooHighError{Max: MaxTemperature, Temperature: temperature}
	}

	if math.Abs(slope) > MaxSlope {
		return 0, 0, &SlopeTooSteepError{Max: MaxSlope, Slope: slope}
	}

	table, err := tableFor(engine)
	if err != nil {
		return 0, 0, err
	}
	minMass, maxMass := table.Mass[0], table.Mass[len(table.Mass)-1]
	if mass < minMass {
		return 0, 0, &MassTooLowError{Min: minMass, Mass: mass}
	}
	if mass > maxMass {
		return 0, 0, &MassTooHighError{Max: maxMass, Mass: mass}
	}

	c, err := newCorrections(pressureAltitude, temperature, slope, grass, contamination)
	if err != nil {
		return 0, 0, err
	}

	groundRoll = c.apply(baseDistance(mass, table.Mass, table.GroundRoll))
	distanceTo50Ft = c.apply(baseDistance(mass, table.Mass, table.DistanceTo50Ft))
	return groundRoll, distanceTo50Ft, nil
}

// baseDistance interpolates distances over masses, which must be sorted
// ascending, and rescales the result to the base reference. Masses outside
// the table are clamped to its first or last row.
func baseDistance(mass float64, masses, distances []float64) float64 {
	i := sort.SearchFloat64s(masses, mass)

	var d float64
	switch {
	case i == len(masses):
		d = distances[len(distances)-1]
	case i == 0 || masses[i] == mass:
		d = distances[i]
	default:
		t := (mass - masses[i-1]) / (masses[i] - masses[i-1])
		d = units.Lerp(distances[i-1], distances[i], t)
	}
	return d / tableReference * baseReference
}

// corrections holds the factors derived from the environment. They are the
// same for both distance columns.
type corrections struct {
	pressureAltitude     float64
	temperatureDeviation float64
	slope                float64
	grass                *GrassSurface
	contamination        Contamination
}

func newCorrections(pressureAltitude, temperature, slope float64, grass *GrassSurface, contamination Contamination) (corrections, error) {
	deviation, err := temperatureDeviationForCorrection(pressureAltitude, temperature)
	if err != nil {
		return corrections{}, err
	}
	return corrections{
		pressureAltitude:     pressureAltitude,
		temperatureDeviation: deviation,
		slope:                slope,
		grass:                grass,
		contamination:        contamination,
	}, nil
}

// apply runs the correction chain. The order is fixed: pressure altitude,
// temperature, slope, grass, contamination.
func (c corrections) apply(distance float64) float64 {
	distance = applyPressureAltitudeCorrection(distance, c.pressureAltitude)
	distance = applyTemperatureCorrection(distance, c.temperatureDeviation)
	distance *= 1 + 0.1*c.slope
	if c.grass != nil {
		distance = applyGrassSurfaceCorrection(distance, *c.grass)
	}
	distance *= c.contamination.factor()
	return units.Round(distance, 2)
}

// applyPressureAltitudeCorrection never shortens the distance.
func applyPressureAltitudeCorrection(distance, pressureAltitude float64) float64 {
	multiplier := 0.10
	if pressureAltitude > 3000 {
		multiplier = 0.18
	} else if pressureAltitude > 1000 {
		multiplier = 0.13
	}
	return distance * math.Max(1, 1+multiplier*(pressureAltitude/1000))
}

// temperatureDeviationForCorrection clamps sub-zero temperatures to 0 °C
// before taking the deviation from the standard atmosphere.
func temperatureDeviationForCorrection(pressureAltitude, temperature float64) (float64, error) {
	deviation, err := atmosphere.TemperatureDeviation(units.FeetToMeters(pressureAltitude), math.Max(temperature, 0))
	if err != nil {
		return 0, &InvalidPressureAltitudeError{Err: err}
	}
	return deviation, nil
}

func applyTemperatureCorrection(distance, deviation float64) float64 {
	return distance * (1 + 0.01*deviation)
}

func applyGrassSurfaceCorrection(distance float64, grass GrassSurface) float64 {
	distance *= 1.2
	if grass.Wet {
		distance *= 1.1
	}
	if grass.SoftGround {
		distance *= 1.5
	}
	if grass.DamagedTurf {
		distance *= 1.1
	}
	if grass.HighGrass {
		distance *= 1.2
	}
	return distance
}
