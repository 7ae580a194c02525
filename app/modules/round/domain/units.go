package rounddomain

import (
	"strconv"
	"strings"
)

// Units is a distance display unit.
type Units string

const (
	UnitMeters Units = "m"
	UnitYards  Units = "yd"
)

// MetersToYards is the conversion factor from meters to yards.
const MetersToYards = 1.09361

// ParseUnits maps user-facing spellings to a unit, ignoring case. The second
// result is false for anything it does not recognise.
func ParseUnits(s string) (Units, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "meter", "meters", "metre", "metres":
		return UnitMeters, true
	case "yd", "yds", "yard", "yards":
		return UnitYards, true
	default:
		return "", false
	}
}

// ConvertDistance converts d between units.
func ConvertDistance(d float64, from, to Units) float64 {
	if from == to {
		return d
	}
	switch {
	case from == UnitMeters && to == UnitYards:
		return d * MetersToYards
	case from == UnitYards && to == UnitMeters:
		return d / MetersToYards
	}
	return d
}

// FormatDistance renders a distance given in meters in the requested unit,
// e.g. "123 m" or "134 yd".
func FormatDistance(meters float64, unit Units, precision int) string {
	if unit == UnitYards {
		return strconv.FormatFloat(ConvertDistance(meters, UnitMeters, UnitYards), 'f', precision, 64) + " yd"
	}
	return strconv.FormatFloat(meters, 'f', precision, 64) + " m"
}
