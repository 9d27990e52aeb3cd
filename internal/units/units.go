package units

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Foot is the length of one international foot in meters
const Foot = 0.3048

// FeetToMeters converts a length in feet to meters
func FeetToMeters(feet float64) float64 {
	return feet * Foot
}

// MetersToFeet converts a length in meters to feet
func MetersToFeet(meters float64) float64 {
	return meters / Foot
}

// ToRadians converts an angle in degrees to radians
func ToRadians(degrees float64) float64 {
	return math.Pi / 180 * degrees
}

// ToDegrees converts an angle in radians to degrees
func ToDegrees(radians float64) float64 {
	return 180 / math.Pi * radians
}

// NormalizeDegrees reduces an angle modulo 360. The sign of the input is kept,
// so -45 stays -45 and 450 becomes 90.
func NormalizeDegrees(degrees float64) float64 {
	return math.Mod(degrees, 360)
}

// Round rounds x to the given number of decimals, half away from zero.
func Round[F constraints.Float](x F, decimals int) F {
	y := math.Pow(10, float64(decimals))
	return F(math.Round(float64(x)*y) / y)
}

// Lerp returns the linear interpolation between a and b at t.
func Lerp[F constraints.Float](a, b, t F) F {
	return a + t*(b-a)
}
