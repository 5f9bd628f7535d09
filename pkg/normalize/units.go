package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Measurement is a parsed magnitude with its unit.
type Measurement struct {
	Value float64
	Unit  string
}

// Format renders a measurement in the canonical "{value:.2f} {unit}" shape.
func (m Measurement) Format() string {
	return fmt.Sprintf("%.2f %s", m.Value, m.Unit)
}

// MeasurementPattern matches the canonical output shape, used to verify a
// standardized column only contains well-formed values.
var MeasurementPattern = regexp.MustCompile(`^\d+(\.\d{2})\s[a-z]+$`)

var unitAliases = map[string]string{
	"cm": "cm", "centimeter": "cm", "centimeters": "cm", "centimetre": "cm", "centimetres": "cm",
	"m": "m", "meter": "m", "meters": "m", "metre": "m", "metres": "m",
	"in": "in", "inch": "in", "inches": "in",
	"ft": "ft", "foot": "ft", "feet": "ft",
	"kg": "kg", "kgs": "kg", "kilogram": "kg", "kilograms": "kg",
	"g": "g", "gram": "g", "grams": "g",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
}

// Dimension conversion tables. Lengths convert through centimetres, masses
// through kilograms.
var toCentimeters = map[string]float64{
	"cm": 1, "m": 100, "in": 2.54, "ft": 30.48,
}

var toKilograms = map[string]float64{
	"kg": 1, "g": 0.001, "lb": 0.45359237, "oz": 0.028349523125,
}

var (
	explicitFeetInches = regexp.MustCompile(`(?i)^\s*(\d+)\s*(?:'|ft\.?|feet|foot)\s*(\d{1,2})?\s*(?:"|''|in\.?|inches|inch)?\s*$`)
	impliedFeetInches  = regexp.MustCompile(`^\s*(\d)\s+(\d{1,2})\s*$`)
	singleMeasurement  = regexp.MustCompile(`(?i)^\s*(-?\d+(?:\.\d+)?)\s*([a-z]+)\.?\s*$`)
)

// ParseMeasurement extracts a measurement from free text. Compound
// feet/inches values come back already converted to centimetres: explicit
// notation ("5'10\"", "5 ft 10 in") at 0.9, an implied bare pair ("5 8") at
// 0.75 when the numbers are in human-height range. Single values with a
// recognized unit parse at 0.85.
func ParseMeasurement(value string) (Measurement, float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return Measurement{}, 0, false
	}

	if m := explicitFeetInches.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches := 0
		if m[2] != "" {
			inches, _ = strconv.Atoi(m[2])
		}
		cm := (float64(feet)*12 + float64(inches)) * 2.54
		return Measurement{Value: cm, Unit: "cm"}, 0.9, true
	}

	if m := impliedFeetInches.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.Atoi(m[1])
		inches, _ := strconv.Atoi(m[2])
		if feet >= 3 && feet <= 8 && inches <= 11 {
			cm := (float64(feet)*12 + float64(inches)) * 2.54
			return Measurement{Value: cm, Unit: "cm"}, 0.75, true
		}
	}

	if m := singleMeasurement.FindStringSubmatch(s); m != nil {
		if unit, ok := unitAliases[strings.ToLower(m[2])]; ok {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				return Measurement{Value: v, Unit: unit}, 0.85, true
			}
		}
	}

	return Measurement{}, 0, false
}

// ParseBareNumber reads a unitless numeric value.
func ParseBareNumber(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return v, err == nil
}

// ConvertUnit converts a magnitude between units of the same dimension.
// Cross-dimension conversions (length to mass) report false.
func ConvertUnit(value float64, from, to string) (float64, bool) {
	from, okFrom := unitAliases[strings.ToLower(from)]
	to2, okTo := unitAliases[strings.ToLower(to)]
	if !okFrom || !okTo {
		return 0, false
	}
	to = to2

	if f, ok := toCentimeters[from]; ok {
		t, ok := toCentimeters[to]
		if !ok {
			return 0, false
		}
		return value * f / t, true
	}
	if f, ok := toKilograms[from]; ok {
		t, ok := toKilograms[to]
		if !ok {
			return 0, false
		}
		return value * f / t, true
	}
	return 0, false
}

// CanonicalUnitFor picks the default target unit for a measurement column
// by its name: weights standardize to kilograms, lengths to centimetres.
func CanonicalUnitFor(column string) string {
	if strings.Contains(strings.ToLower(column), "weight") {
		return "kg"
	}
	return "cm"
}
