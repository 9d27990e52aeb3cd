// Package navigation solves the wind triangle for flight planning.
package navigation

import (
	"math"

	"aviation_calculator/internal/units"
)

// GroundSpeed returns the ground speed for a course in degrees, a true air
// speed, and a wind (direction in degrees, speed in the unit of tas).
func GroundSpeed(course, tas, windDirection, windSpeed float64) float64 {
	if windSpeed == 0 {
		return tas
	}

	crs := units.ToRadians(units.NormalizeDegrees(course))
	wd := units.ToRadians(units.NormalizeDegrees(windDirection))
	swc := (windSpeed / tas) * math.Sin(wd-crs)

	return units.Round(tas*math.Sqrt(1-swc*swc)-windSpeed*math.Cos(wd-crs), 2)
}

// WindCorrectionAngle returns the wind correction angle in degrees for the
// acute wind angle awa (wind direction relative to the course).
func WindCorrectionAngle(tas, windSpeed, awa float64) float64 {
	if awa == 0 || awa == 180 || windSpeed == 0 {
		return 0
	}

	return units.Round(units.ToDegrees(math.Asin(windSpeed/tas*math.Sin(units.ToRadians(units.NormalizeDegrees(awa))))), 2)
}

// Heading returns the heading to fly for a desired course.
func Heading(course, tas, windDirection, windSpeed float64) float64 {
	return units.Round(course+WindCorrectionAngle(tas, windSpeed, windDirection-course), 2)
}
