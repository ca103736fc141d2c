package view

import (
	"context"
	"sync"

	"github.com/couchcryptid/building-energy-etl/internal/dataset"
)

// FeatureCollection is a GeoJSON feature collection of building points.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one building marker.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Point          `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Point is a GeoJSON point; coordinates are [longitude, latitude].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Map places every published building on a map.
type Map struct {
	mu sync.RWMutex
	fc FeatureCollection
}

// NewMap creates an empty map view.
func NewMap() *Map {
	return &Map{fc: FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}}
}

func (m *Map) Name() string { return "map" }

func (m *Map) OnPublish(_ context.Context, snap dataset.Snapshot) error {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(snap.Records))}
	for _, b := range snap.Records {
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Point{Type: "Point", Coordinates: [2]float64{b.Longitude, b.Latitude}},
			Properties: map[string]any{
				"name":              b.Name,
				"category":          b.Category,
				"address":           b.Address,
				"energy_class":      b.EnergyClass,
				"total_energy_kwh":  b.TotalEnergyKWh,
				"energy_intensity":  b.EnergyIntensity,
				"consumption_level": b.ConsumptionLevel,
			},
		})
	}

	m.mu.Lock()
	m.fc = fc
	m.mu.Unlock()
	return nil
}

// FeatureCollection returns the current markers.
func (m *Map) FeatureCollection() FeatureCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fc
}
