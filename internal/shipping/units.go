package shipping

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	kgPerLb = 0.453592
	cmPerIn = 2.54
)

// WeightUnit identifies the unit a parcel weight is expressed in.
type WeightUnit string

const (
	WeightKg WeightUnit = "kg"
	WeightLb WeightUnit = "lb"
)

// DimensionUnit identifies the unit parcel dimensions are expressed in.
type DimensionUnit string

const (
	DimensionCm DimensionUnit = "cm"
	DimensionIn DimensionUnit = "in"
)

// Valid reports whether u is a known weight unit.
func (u WeightUnit) Valid() bool { return u == WeightKg || u == WeightLb }

// Valid reports whether u is a known dimension unit.
func (u DimensionUnit) Valid() bool { return u == DimensionCm || u == DimensionIn }

// WeightToKg converts a weight to kilograms. Unknown units are treated as kilograms.
func WeightToKg(value float64, unit WeightUnit) float64 {
	value = finiteOrZero(value)
	if normaliseWeightUnit(unit) == WeightLb {
		return value * kgPerLb
	}
	return value
}

// DimensionToCm converts a length to centimetres. Unknown units are treated as centimetres.
func DimensionToCm(value float64, unit DimensionUnit) float64 {
	value = finiteOrZero(value)
	if normaliseDimensionUnit(unit) == DimensionIn {
		return value * cmPerIn
	}
	return value
}

func normaliseWeightUnit(unit WeightUnit) WeightUnit {
	return WeightUnit(strings.ToLower(strings.TrimSpace(string(unit))))
}

func normaliseDimensionUnit(unit DimensionUnit) DimensionUnit {
	return DimensionUnit(strings.ToLower(strings.TrimSpace(string(unit))))
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Number is a float that decodes from either a JSON number or a numeric
// string. Anything else decodes to zero, matching how form inputs are coerced.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = 0
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(parseNumber(s))
		return nil
	}
	*n = Number(parseNumber(string(trimmed)))
	return nil
}

// Float returns the value as a float64.
func (n Number) Float() float64 { return float64(n) }

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(v)
}
