package recommend

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Climate defaults applied when a payload omits a field or sends a non-numeric value.
const (
	DefaultTemperature = 25.0
	DefaultHumidity    = 50.0
	DefaultRainfall    = 100.0
)

// Shape identifies which payload layout a request uses.
type Shape int

const (
	// ShapeStructured nests soil under "nutrients" and weather under "climate".
	ShapeStructured Shape = iota
	// ShapeFlat carries every field at the top level.
	ShapeFlat
)

func (s Shape) String() string {
	if s == ShapeFlat {
		return "flat"
	}
	return "structured"
}

// DetectShape reports ShapeFlat iff both top-level "nitrogen" and
// "phosphorous" keys exist, whatever their values. Mixed payloads are flat.
func DetectShape(raw map[string]any) Shape {
	_, hasN := raw["nitrogen"]
	_, hasP := raw["phosphorous"]
	if hasN && hasP {
		return ShapeFlat
	}
	return ShapeStructured
}

// Location holds the raw coordinate values as sent by the client. They are kept
// untyped so the truthiness rule can be applied before coercion.
type Location struct {
	Latitude  any
	Longitude any
}

// Candidate is a feature vector that may still have unusable fields (nil).
type Candidate struct {
	Shape Shape

	Nitrogen    *float64
	Phosphorous *float64
	Potassium   *float64
	PH          *float64
	Temperature *float64
	Humidity    *float64
	Rainfall    *float64

	Location Location
}

// fieldSource says where each field lives for one shape.
type fieldSource struct {
	soil           map[string]any
	climate        map[string]any
	phosphorousKey string
}

func sourceFor(shape Shape, raw map[string]any) fieldSource {
	if shape == ShapeFlat {
		return fieldSource{soil: raw, climate: raw, phosphorousKey: "phosphorous"}
	}
	return fieldSource{
		soil:           object(raw["nutrients"]),
		climate:        object(raw["climate"]),
		phosphorousKey: "phosphorus",
	}
}

// Normalize extracts the seven model fields from either payload shape.
// Soil fields that are missing or non-numeric stay nil; climate fields fall
// back to their defaults. It has no side effects.
func Normalize(raw map[string]any) Candidate {
	shape := DetectShape(raw)
	src := sourceFor(shape, raw)
	loc := object(raw["location"])

	return Candidate{
		Shape:       shape,
		Nitrogen:    number(src.soil["nitrogen"]),
		Phosphorous: number(src.soil[src.phosphorousKey]),
		Potassium:   number(src.soil["potassium"]),
		PH:          number(src.soil["ph"]),
		Temperature: numberOr(src.climate["temperature"], DefaultTemperature),
		Humidity:    numberOr(src.climate["humidity"], DefaultHumidity),
		Rainfall:    numberOr(src.climate["rainfall"], DefaultRainfall),
		Location: Location{
			Latitude:  loc["latitude"],
			Longitude: loc["longitude"],
		},
	}
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func numberOr(v any, fallback float64) *float64 {
	if n := number(v); n != nil {
		return n
	}
	return &fallback
}

// number coerces JSON numbers and numeric strings to a finite float64.
// Anything else, including booleans, blank strings, NaN and Inf, yields nil.
func number(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// truthy applies loose truthiness: nil, false, 0, NaN and "" are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	case string:
		return t != ""
	default:
		return true
	}
}
