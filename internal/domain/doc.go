// Package domain models municipal building energy records.
//
// # Data Source
//
// Raw records come from the city's building inventory export: one flat JSON
// object per building with French field names and loosely typed values.
// Numbers arrive as JSON numbers or as numeric strings, optional fields may be
// missing, null, or empty strings. See the Field* constants for the names.
//
// # Field Typing
//
// Text fields are trimmed; missing values become "".
//
// Integer fields (consumption, surface, year, occupants) are parsed as numbers
// and rounded half up to the nearest integer, the way a browser's Math.round
// does it: 12.5 → 13, -12.5 → -12. Missing, empty, or non-numeric values
// become 0.
//
// Coordinates are parsed as float64 without rounding; anything unparsable
// becomes 0.
//
// Infrastructure type codes are uppercased and looked up in a synonym table
// ("ECOLE", "ÉCOLE" → "École"). Unknown codes collapse to [CategoryOther].
//
// # Validity
//
// A building survives the transform only if it has a name, non-zero latitude
// and longitude, and a strictly positive electricity consumption. Everything
// else degrades to defaults; malformed input is never an error.
//
// # Derived Fields
//
//	total_energy_kwh  = electricity_kwh + gas_kwh
//	energy_intensity  = round(total / surface × 10) / 10      (0 when surface ≤ 0)
//	water_intensity   = round(water / surface × 100) / 100    (0 when surface ≤ 0)
//
// Consumption level uses the unrounded total / surface ratio:
//
//	< 30 kWh/m² low | < 60 kWh/m² medium | ≥ 60 kWh/m² high
//
// A building with no usable surface is classified medium. Because the level is
// computed from the unrounded ratio, a building displaying an intensity of 30.0
// can still be classified low (e.g. 29.96 rounds to 30.0).
//
// # Ordering
//
// Transformed batches are sorted by total energy, largest first. The sort is
// stable, so buildings with equal totals keep their source order.
package domain
