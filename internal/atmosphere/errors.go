package atmosphere

import (
	"fmt"
	"strconv"
)

// BelowMinimumAltitudeError is returned for altitudes below the envelope of
// the standard atmosphere.
type BelowMinimumAltitudeError struct {
	Min      float64
	Altitude float64
}

func (e *BelowMinimumAltitudeError) Error() string {
	return fmt.Sprintf("The pressure altitude %s m is below the minimum defined (%s m) in the ICAO Standard Atmosphere",
		formatFloat(e.Altitude), formatFloat(e.Min))
}

// AboveMaximumAltitudeError is returned for altitudes above the envelope of
// the standard atmosphere.
type AboveMaximumAltitudeError struct {
	Max      float64
	Altitude float64
}

func (e *AboveMaximumAltitudeError) Error() string {
	return fmt.Sprintf("The pressure altitude %s m is above the maximum defined (%s m) in the ICAO Standard Atmosphere",
		formatFloat(e.Altitude), formatFloat(e.Max))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
