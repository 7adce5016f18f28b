// Package units provides shared constants and conversions for length units.
package units

import "math"

// Unit constants
const (
	Inches      = "in"
	Feet        = "ft"
	Meters      = "m"
	Millimeters = "mm"
)

// Conversion factors. All editor math happens in metres; inches and feet
// appear only at the item-attribute and rack-length boundaries.
const (
	MetersPerInch = 0.0254
	MetersPerFoot = 0.3048
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Inches, Feet, Meters, Millimeters}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "in, ft, m, mm"
}

// InchesToMeters converts a length in inches to metres.
func InchesToMeters(in float64) float64 {
	return in * MetersPerInch
}

// MetersToInches converts a length in metres to inches.
func MetersToInches(m float64) float64 {
	return m / MetersPerInch
}

// FeetToMeters converts a length in feet to metres.
func FeetToMeters(ft float64) float64 {
	return ft * MetersPerFoot
}

// MetersToFeet converts a length in metres to feet.
func MetersToFeet(m float64) float64 {
	return m / MetersPerFoot
}

// ConvertLength converts a length value between units, normalizing through
// metres. Unknown units pass the value through unchanged.
func ConvertLength(value float64, from, to string) float64 {
	if from == to {
		return value
	}
	meters := value
	switch from {
	case Inches:
		meters = value * MetersPerInch
	case Feet:
		meters = value * MetersPerFoot
	case Millimeters:
		meters = value / 1000
	}
	switch to {
	case Inches:
		return meters / MetersPerInch
	case Feet:
		return meters / MetersPerFoot
	case Millimeters:
		return meters * 1000
	}
	return meters
}

// Sanitize returns value unless it is non-finite or not strictly positive,
// in which case the documented fallback is returned. Dimension attributes
// and rack lengths pass through here before any footprint math.
func Sanitize(value, fallback float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fallback
	}
	return value
}

// SanitizeNonNegative is Sanitize for values where zero is meaningful
// (insulation thickness, conduit spacing of a single run).
func SanitizeNonNegative(value, fallback float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return fallback
	}
	return value
}
