package takeoff

import (
	"fmt"
	"strings"
)

// GrassSurface describes the condition of a grass runway. A nil *GrassSurface
// means the runway is paved.
type GrassSurface struct {
	Wet         bool `json:"wet"`
	SoftGround  bool `json:"soft_ground"`
	DamagedTurf bool `json:"damaged_turf"`
	HighGrass   bool `json:"high_grass"`
}

// Flags returns the names of the conditions that are set
func (g GrassSurface) Flags() []string {
	var flags []string
	if g.Wet {
		flags = append(flags, "wet")
	}
	if g.SoftGround {
		flags = append(flags, "soft_ground")
	}
	if g.DamagedTurf {
		flags = append(flags, "damaged_turf")
	}
	if g.HighGrass {
		flags = append(flags, "high_grass")
	}
	return flags
}

// ParseGrassSurface parses a comma separated list of grass conditions.
//
//	""      -> nil (paved runway)
//	"dry"   -> grass with no additional penalty
//	"wet,soft_ground" -> grass, wet and soft
func ParseGrassSurface(s string) (*GrassSurface, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "paved" {
		return nil, nil
	}

	g := &GrassSurface{}
	for _, flag := range strings.Split(s, ",") {
		switch strings.TrimSpace(flag) {
		case "grass", "dry", "none":
		case "wet":
			g.Wet = true
		case "soft_ground", "soft":
			g.SoftGround = true
		case "damaged_turf", "damaged":
			g.DamagedTurf = true
		case "high_grass", "high":
			g.HighGrass = true
		default:
			return nil, fmt.Errorf("unknown grass condition %q", flag)
		}
	}
	return g, nil
}

// Contamination is the general condition of the runway surface.
type Contamination int

const (
	Inconspicuous Contamination = iota
	Slush
	Snow
	PowderSnow
)

var contaminationNames = map[Contamination]string{
	Inconspicuous: "inconspicuous",
	Slush:         "slush",
	Snow:          "snow",
	PowderSnow:    "powder_snow",
}

func (c Contamination) String() string {
	if name, ok := contaminationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("contamination(%d)", int(c))
}

// ParseContamination parses a contamination name. The empty string is
// Inconspicuous.
func ParseContamination(s string) (Contamination, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "none", "dry":
		return Inconspicuous, nil
	case "powdersnow", "powder-snow":
		return PowderSnow, nil
	}
	for c, name := range contaminationNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown surface contamination %q", s)
}

// MarshalText encodes the contamination as its canonical name.
func (c Contamination) MarshalText() ([]byte, error) {
	if _, ok := contaminationNames[c]; !ok {
		return nil, fmt.Errorf("unknown surface contamination %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts every name ParseContamination does.
func (c *Contamination) UnmarshalText(text []byte) error {
	contamination, err := ParseContamination(string(text))
	if err != nil {
		return err
	}
	*c = contamination
	return nil
}

// factor returns the multiplier applied for the contamination
func (c Contamination) factor() float64 {
	switch c {
	case Slush:
		return 1.3
	case Snow:
		return 1.5
	case PowderSnow:
		return 1.25
	default:
		return 1.0
	}
}
