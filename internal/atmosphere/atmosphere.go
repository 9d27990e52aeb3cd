// Package atmosphere implements the temperature profile of the ICAO Standard
// Atmosphere and the barometric conversions built on it.
package atmosphere

import (
	"math"

	"aviation_calculator/internal/units"
)

// Sea level reference values of the ICAO Standard Atmosphere
const (
	ISATemperature            = 288.15  // K
	ISAPressure               = 1013.25 // hPa
	TroposphericLapseRate     = 0.0065  // K/m
	StratosphericLapseRate    = 0.0010  // K/m
	SpecificGasConstant       = 287.058 // J/(kg·K)
	GravitationalAcceleration = 9.81    // m/s²
)

// Altitude envelope in which the standard atmosphere is defined (meters)
const (
	MinimumAltitude = -1_000.0
	MaximumAltitude = 80_000.0
)

// Level is one band of the standard atmosphere. LapseRate is positive when
// the temperature falls with altitude.
type Level struct {
	Base            float64 // m
	LapseRate       float64 // K/m
	BaseTemperature float64 // °C
}

// levels must stay sorted by Base, starting at 0
var levels = [...]Level{
	{Base: 0, LapseRate: TroposphericLapseRate, BaseTemperature: 15.0},        // troposphere
	{Base: 11_000, LapseRate: 0, BaseTemperature: -56.5},                      // tropopause
	{Base: 20_000, LapseRate: StratosphericLapseRate, BaseTemperature: -56.5}, // stratosphere
	{Base: 32_000, LapseRate: 0, BaseTemperature: -44.5},                      // stratosphere
}

// StandardTemperature returns the ICAO standard temperature in °C at the given
// geopotential altitude in meters, rounded to two decimals.
func StandardTemperature(altitude float64) (float64, error) {
	if altitude < MinimumAltitude {
		return 0, &BelowMinimumAltitudeError{Min: MinimumAltitude, Altitude: altitude}
	}
	if altitude > MaximumAltitude {
		return 0, &AboveMaximumAltitudeError{Max: MaximumAltitude, Altitude: altitude}
	}

	level := levelAt(altitude)
	return units.Round(level.BaseTemperature-(altitude-level.Base)*level.LapseRate, 2), nil
}

// levelAt returns the highest band whose base is at or below altitude.
// Altitudes below sea level use the troposphere.
func levelAt(altitude float64) Level {
	current := levels[0]
	for _, level := range levels {
		if altitude < level.Base {
			break
		}
		current = level
	}
	return current
}

// PressureAltitudeFromQNH converts a QNH in hPa and a field elevation in
// meters to the pressure altitude in meters.
func PressureAltitudeFromQNH(qnh, fieldElevation float64) float64 {
	exponent := SpecificGasConstant * TroposphericLapseRate / GravitationalAcceleration
	return units.Round(
		fieldElevation+ISATemperature/TroposphericLapseRate*(1-math.Pow(qnh/ISAPressure, exponent)),
		2,
	)
}

// PressureAltitudeFeet is PressureAltitudeFromQNH for a field elevation given
// in feet. The result is in feet, rounded to one decimal.
func PressureAltitudeFeet(qnh, fieldElevationFt float64) float64 {
	meters := PressureAltitudeFromQNH(qnh, units.FeetToMeters(fieldElevationFt))
	return units.Round(units.MetersToFeet(meters), 1)
}

// TemperatureDeviation returns the difference between the actual temperature
// and the standard temperature at the given altitude in meters.
func TemperatureDeviation(altitude, temperature float64) (float64, error) {
	standard, err := StandardTemperature(altitude)
	if err != nil {
		return 0, err
	}
	return units.Round(temperature-standard, 2), nil
}
