package holtwinters

import (
	"fmt"
	"strings"
)

// SeasonalKind selects how the seasonal component combines with level and trend.
type SeasonalKind int

const (
	// Additive treats the seasonal effect as a constant offset.
	Additive SeasonalKind = iota
	// Multiplicative treats the seasonal effect as a scaling factor.
	Multiplicative
)

// String returns the canonical upper-case name.
func (k SeasonalKind) String() string {
	switch k {
	case Additive:
		return "ADDITIVE"
	case Multiplicative:
		return "MULTIPLICATIVE"
	default:
		return fmt.Sprintf("SeasonalKind(%d)", int(k))
	}
}

// ParseSeasonal parses a seasonal kind name, ignoring case.
//
// Accepted spellings:
//   - "additive", "add"
//   - "multiplicative", "mul", "mult"
func ParseSeasonal(s string) (SeasonalKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "additive", "add":
		return Additive, nil
	case "multiplicative", "mul", "mult":
		return Multiplicative, nil
	default:
		return 0, fmt.Errorf("invalid seasonal kind %q (must be additive or multiplicative)", s)
	}
}

// neutral is the seasonal value that leaves level+trend unchanged.
func (k SeasonalKind) neutral() float64 {
	if k == Multiplicative {
		return 1
	}
	return 0
}
