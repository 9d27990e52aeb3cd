package takeoff

import (
	"fmt"
	"strconv"
)

// NotFiniteError is returned when an input is NaN or infinite.
type NotFiniteError struct {
	Name  string
	Value float64
}

func (e *NotFiniteError) Error() string {
	return fmt.Sprintf("%s %s is not a finite number", e.Name, formatFloat(e.Value))
}

// MassTooLowError is returned when the mass is below the lowest table entry.
type MassTooLowError struct {
	Min  float64
	Mass float64
}

func (e *MassTooLowError) Error() string {
	return fmt.Sprintf("Mass %s kg is below the minimum available data (%s kg)", formatFloat(e.Mass), formatFloat(e.Min))
}

// MassTooHighError is returned when the mass is above the highest table entry.
type MassTooHighError struct {
	Max  float64
	Mass float64
}

func (e *MassTooHighError) Error() string {
	return fmt.Sprintf("Mass %s kg is above the maximum available data (%s kg)", formatFloat(e.Mass), formatFloat(e.Max))
}

type TemperatureTooLowError struct {
	Min         float64
	Temperature float64
}

func (e *TemperatureTooLowError) Error() string {
	return fmt.Sprintf("Temperature %s °C is below the minimum sensible data (%s °C)", formatFloat(e.Temperature), formatFloat(e.Min))
}

type TemperatureTooHighError struct {
	Max         float64
	Temperature float64
}

func (e *TemperatureTooHighError) Error() string {
	return fmt.Sprintf("Temperature %s °C is above the maximum sensible data (%s °C)", formatFloat(e.Temperature), formatFloat(e.Max))
}

// SlopeTooSteepError is returned when the absolute slope exceeds Max percent.
type SlopeTooSteepError struct {
	Max   float64
	Slope float64
}

func (e *SlopeTooSteepError) Error() string {
	return fmt.Sprintf("Slope %s %% is too steep to provide sensible data (Maximum %s %%)", formatFloat(e.Slope), formatFloat(e.Max))
}

// InvalidPressureAltitudeError wraps the atmosphere error raised while
// deriving the temperature deviation for a pressure altitude.
type InvalidPressureAltitudeError struct {
	Err error
}

func (e *InvalidPressureAltitudeError) Error() string {
	return "The given pressure altitude is not defined by the ICAO standard atmosphere: " + e.Err.Error()
}

func (e *InvalidPressureAltitudeError) Unwrap() error {
	return e.Err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
