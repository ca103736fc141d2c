package domain

import "errors"

// ErrSourceUnavailable reports that raw records could not be obtained from
// the upstream source. A run that hits it stops before Transform.
var ErrSourceUnavailable = errors.New("source unavailable")

// Raw field names as exported by the building inventory.
const (
	FieldName        = "nom_batiment"
	FieldType        = "type_infra"
	FieldAddress     = "adresse"
	FieldElectricity = "conso_elec_kwh"
	FieldGas         = "conso_gaz_kwh"
	FieldWater       = "conso_eau_m3"
	FieldSurface     = "surface_m2"
	FieldYear        = "annee_construction"
	FieldLat         = "lat"
	FieldLng         = "lng"
	FieldEnergyClass = "classe_dpe"
	FieldOccupants   = "nb_occupants"
)

// RawRecord is one untrusted building object as decoded from the source.
// Values may be strings, float64, bool, nil, or nested JSON values.
type RawRecord map[string]any

// Clone returns a deep copy of the record.
func (r RawRecord) Clone() RawRecord {
	if r == nil {
		return nil
	}
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// CloneBatch deep-copies every record so callers never alias the source batch.
func CloneBatch(batch []RawRecord) []RawRecord {
	if batch == nil {
		return nil
	}
	out := make([]RawRecord, len(batch))
	for i, r := range batch {
		out[i] = r.Clone()
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case RawRecord:
		return t.Clone()
	case map[string]any:
		return map[string]any(RawRecord(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// ConsumptionLevel buckets a building by energy intensity.
type ConsumptionLevel string

const (
	LevelLow    ConsumptionLevel = "low"
	LevelMedium ConsumptionLevel = "medium"
	LevelHigh   ConsumptionLevel = "high"
)

// Building is the canonical, validated form of a raw record with its derived
// fields. Values are never mutated once a transform pass has produced them.
type Building struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Address        string  `json:"address"`
	ElectricityKWh int     `json:"electricity_kwh"`
	GasKWh         int     `json:"gas_kwh"`
	WaterM3        int     `json:"water_m3"`
	FloorAreaM2    int     `json:"floor_area_m2"`
	Year           int     `json:"year"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	EnergyClass    string  `json:"energy_class"`
	Occupants      int     `json:"occupants"`

	// Derived by Enrich.
	TotalEnergyKWh   int              `json:"total_energy_kwh"`
	EnergyIntensity  float64          `json:"energy_intensity"`
	WaterIntensity   float64          `json:"water_intensity"`
	ConsumptionLevel ConsumptionLevel `json:"consumption_level"`
}
