package domain

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Intensity thresholds in kWh/m² for consumption levels.
const (
	lowIntensityLimit    = 30
	mediumIntensityLimit = 60
)

// maxExactInteger is the largest magnitude parsed as an integer field (2^53).
// Larger values are treated as non-numeric, which also keeps
// electricity + gas from overflowing.
const maxExactInteger = 1 << 53

// TransformStats counts what a transform pass did with a batch.
type TransformStats struct {
	Extracted int `json:"extracted"`
	Kept      int `json:"kept"`
	Dropped   int `json:"dropped"`
}

// Transform maps, filters, enriches, and sorts a raw batch. Each phase builds
// a new slice; the input is never modified. It accepts any record shape.
func Transform(batch []RawRecord) ([]Building, TransformStats) {
	mapped := make([]Building, 0, len(batch))
	for _, raw := range batch {
		mapped = append(mapped, MapRecord(raw))
	}

	valid := make([]Building, 0, len(mapped))
	for _, b := range mapped {
		if IsValid(b) {
			valid = append(valid, b)
		}
	}

	enriched := make([]Building, 0, len(valid))
	for _, b := range valid {
		enriched = append(enriched, Enrich(b))
	}

	stats := TransformStats{
		Extracted: len(batch),
		Kept:      len(enriched),
		Dropped:   len(batch) - len(enriched),
	}
	return SortByTotalEnergy(enriched), stats
}

// MapRecord renames and types the raw fields of one record. Derived fields are
// left zero; see Enrich.
func MapRecord(raw RawRecord) Building {
	return Building{
		Name:           parseText(raw[FieldName]),
		Category:       normalizeCategory(raw[FieldType]),
		Address:        parseText(raw[FieldAddress]),
		ElectricityKWh: parseInt(raw[FieldElectricity]),
		GasKWh:         parseInt(raw[FieldGas]),
		WaterM3:        parseInt(raw[FieldWater]),
		FloorAreaM2:    parseInt(raw[FieldSurface]),
		Year:           parseInt(raw[FieldYear]),
		Latitude:       parseFloat(raw[FieldLat]),
		Longitude:      parseFloat(raw[FieldLng]),
		EnergyClass:    parseText(raw[FieldEnergyClass]),
		Occupants:      parseInt(raw[FieldOccupants]),
	}
}

// IsValid reports whether a mapped building can be published: it needs a
// name, both coordinates, and some electricity consumption.
func IsValid(b Building) bool {
	return b.Name != "" &&
		b.Latitude != 0 &&
		b.Longitude != 0 &&
		b.ElectricityKWh > 0
}

// Enrich returns a copy of b with its derived fields computed.
func Enrich(b Building) Building {
	b.TotalEnergyKWh = b.ElectricityKWh + b.GasKWh
	b.EnergyIntensity = perSurface(b.TotalEnergyKWh, b.FloorAreaM2, 10)
	b.WaterIntensity = perSurface(b.WaterM3, b.FloorAreaM2, 100)
	b.ConsumptionLevel = classifyConsumption(b.TotalEnergyKWh, b.FloorAreaM2)
	return b
}

// SortByTotalEnergy returns a new slice ordered by total energy, largest
// first. Equal totals keep their relative order.
func SortByTotalEnergy(buildings []Building) []Building {
	out := slices.Clone(buildings)
	slices.SortStableFunc(out, func(a, b Building) int {
		return cmp.Compare(b.TotalEnergyKWh, a.TotalEnergyKWh)
	})
	return out
}

// perSurface divides value by surface and rounds to 1/scale. It returns 0
// when there is no usable surface.
func perSurface(value, surface int, scale float64) float64 {
	if surface <= 0 {
		return 0
	}
	return roundHalfUp(float64(value)/float64(surface)*scale) / scale
}

// classifyConsumption buckets the unrounded total/surface ratio, independent
// of EnergyIntensity. A ratio of 29.96 is low even though it displays as 30.0.
func classifyConsumption(total, surface int) ConsumptionLevel {
	if surface <= 0 {
		return LevelMedium
	}
	intensity := float64(total) / float64(surface)
	switch {
	case intensity < lowIntensityLimit:
		return LevelLow
	case intensity < mediumIntensityLimit:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// normalizeCategory upper-cases with French rules so accented codes such as
// "médiathèque" meet their table keys.
func normalizeCategory(v any) string {
	code := cases.Upper(language.French).String(parseText(v))
	if label, ok := categoryLabels[code]; ok {
		return label
	}
	return CategoryOther
}

// parseText converts a scalar to a trimmed string. Non-scalars yield "".
func parseText(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// parseNumber converts strings and numbers to a finite float64.
func parseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		v = t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseInt(v any) int {
	f, ok := parseNumber(v)
	if !ok {
		return 0
	}
	r := roundHalfUp(f)
	if math.Abs(r) > maxExactInteger {
		return 0
	}
	return int(r)
}

func parseFloat(v any) float64 {
	f, _ := parseNumber(v)
	return f
}

// roundHalfUp rounds to the nearest integer, ties toward +∞.
func roundHalfUp(x float64) float64 {
	f := math.Floor(x)
	if x-f >= 0.5 {
		return f + 1
	}
	return f
}
