// Command genmock writes a synthetic raw building fixture, with a share of
// deliberately invalid records, and optionally the transformed output. The
// same seed always produces the same files. It runs the real domain
// transform so the transformed fixture matches pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -n 200 -seed 42 \
//	  -raw-out data/mock/buildings.json \
//	  -transformed-out data/mock/buildings_transformed.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
)

type category struct {
	code      string
	label     string
	minArea   int
	maxArea   int
	intensity float64 // typical kWh/m²
	gasShare  float64
}

var categories = []category{
	{code: "ECOLE", label: "École", minArea: 400, maxArea: 2500, intensity: 38, gasShare: 0.45},
	{code: "COLLEGE", label: "Collège", minArea: 3000, maxArea: 9000, intensity: 32, gasShare: 0.55},
	{code: "LYCEE", label: "Lycée", minArea: 8000, maxArea: 20000, intensity: 40, gasShare: 0.6},
	{code: "CRECHE", label: "Crèche", minArea: 300, maxArea: 900, intensity: 55, gasShare: 0.5},
	{code: "MAIRIE", label: "Mairie", minArea: 1200, maxArea: 7000, intensity: 60, gasShare: 0.55},
	{code: "GYMNASE", label: "Gymnase", minArea: 1000, maxArea: 3500, intensity: 65, gasShare: 0.6},
	{code: "PISCINE", label: "Piscine", minArea: 2500, maxArea: 6000, intensity: 230, gasShare: 0.65},
	{code: "BIBLIOTHEQUE", label: "Bibliothèque", minArea: 800, maxArea: 28000, intensity: 30, gasShare: 0.35},
	{code: "MUSEE", label: "Musée", minArea: 2000, maxArea: 30000, intensity: 60, gasShare: 0.25},
	{code: "SALLE", label: "Salle polyvalente", minArea: 400, maxArea: 2000, intensity: 58, gasShare: 0.55},
	{code: "STADE", label: "Stade", minArea: 500, maxArea: 3000, intensity: 45, gasShare: 0.4},
	{code: "DEPOT", label: domain.CategoryOther, minArea: 800, maxArea: 5000, intensity: 35, gasShare: 0.3},
}

var streets = []string{
	"rue Garibaldi", "avenue Jean Jaurès", "rue de la République", "quai Perrache",
	"boulevard des Belges", "rue Paul Bert", "cours Lafayette", "rue Marietton",
	"avenue Berthelot", "rue Duguesclin",
}

var energyClasses = []string{"A", "B", "C", "D", "E", "F", "G"}

// Lyon bounding box.
const (
	minLat = 45.70
	maxLat = 45.81
	minLng = 4.77
	maxLng = 4.90
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 200, "number of raw records to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	invalid := flag.Float64("invalid", 0.1, "share of records that must be dropped by the transform")
	rawOut := flag.String("raw-out", "", "output path for the raw JSON fixture")
	transformedOut := flag.String("transformed-out", "", "optional output path for the transformed JSON fixture")
	flag.Parse()

	if *rawOut == "" || *n <= 0 || *invalid < 0 || *invalid > 1 {
		flag.Usage()
		return fmt.Errorf("missing or invalid flags: -raw-out is required, -n must be positive, -invalid in [0,1]")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	batch := generate(rng, *n, *invalid)

	if err := writeJSON(*rawOut, batch); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d records)", *rawOut, len(batch))

	buildings, stats := domain.Transform(batch)
	if *transformedOut != "" {
		if err := writeJSON(*transformedOut, buildings); err != nil {
			return fmt.Errorf("writing transformed fixture: %w", err)
		}
		log.Printf("wrote transformed fixture: %s", *transformedOut)
	}

	printStats(buildings, stats)
	return nil
}

func generate(rng *rand.Rand, n int, invalidShare float64) []domain.RawRecord {
	batch := make([]domain.RawRecord, 0, n)
	for i := range n {
		rec := validRecord(rng, i)
		if rng.Float64() < invalidShare {
			corrupt(rng, rec)
		}
		batch = append(batch, rec)
	}
	return batch
}

func validRecord(rng *rand.Rand, i int) domain.RawRecord {
	c := categories[rng.IntN(len(categories))]
	area := c.minArea + rng.IntN(c.maxArea-c.minArea+1)
	total := float64(area) * c.intensity * (0.6 + 0.8*rng.Float64())
	gas := int(total * c.gasShare)
	elec := max(int(total)-gas, 1)

	rec := domain.RawRecord{
		domain.FieldName:        fmt.Sprintf("%s %s n°%d", c.label, streets[rng.IntN(len(streets))], i+1),
		domain.FieldType:        randomCase(rng, c.code),
		domain.FieldAddress:     fmt.Sprintf("%d %s, 6900%d Lyon", 1+rng.IntN(150), streets[rng.IntN(len(streets))], 1+rng.IntN(9)),
		domain.FieldElectricity: looseNumber(rng, float64(elec)),
		domain.FieldGas:         looseNumber(rng, float64(gas)),
		domain.FieldWater:       looseNumber(rng, float64(area)*(0.05+0.5*rng.Float64())),
		domain.FieldSurface:     looseNumber(rng, float64(area)),
		domain.FieldYear:        looseNumber(rng, float64(1850+rng.IntN(175))),
		domain.FieldLat:         looseCoord(rng, minLat+(maxLat-minLat)*rng.Float64()),
		domain.FieldLng:         looseCoord(rng, minLng+(maxLng-minLng)*rng.Float64()),
		domain.FieldEnergyClass: energyClasses[rng.IntN(len(energyClasses))],
		domain.FieldOccupants:   looseNumber(rng, float64(rng.IntN(area/10+1))),
	}
	if rng.IntN(20) == 0 {
		rec[domain.FieldSurface] = ""
	}
	if rng.IntN(15) == 0 {
		rec[domain.FieldOccupants] = nil
	}
	return rec
}

// corrupt breaks exactly one validity rule.
func corrupt(rng *rand.Rand, rec domain.RawRecord) {
	switch rng.IntN(5) {
	case 0:
		rec[domain.FieldName] = "   "
	case 1:
		rec[domain.FieldElectricity] = "0"
	case 2:
		rec[domain.FieldElectricity] = "n/c"
	case 3:
		rec[domain.FieldLat] = ""
	default:
		delete(rec, domain.FieldLng)
	}
}

// looseNumber renders v the way mixed sources do: a JSON number, a plain
// string, or a string padded with spaces.
func looseNumber(rng *rand.Rand, v float64) any {
	n := int(v)
	switch rng.IntN(3) {
	case 0:
		return n
	case 1:
		return strconv.Itoa(n)
	default:
		return " " + strconv.Itoa(n) + " "
	}
}

func looseCoord(rng *rand.Rand, v float64) any {
	v = float64(int(v*1e4)) / 1e4
	if rng.IntN(2) == 0 {
		return v
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func randomCase(rng *rand.Rand, code string) string {
	if rng.IntN(4) == 0 {
		b := []byte(code)
		for i := range b {
			if b[i] >= 'A' && b[i] <= 'Z' {
				b[i] += 'a' - 'A'
			}
		}
		return string(b)
	}
	return code
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(buildings []domain.Building, stats domain.TransformStats) {
	byCategory := map[string]int{}
	byLevel := map[domain.ConsumptionLevel]int{}
	for i := range buildings {
		byCategory[buildings[i].Category]++
		byLevel[buildings[i].ConsumptionLevel]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Extracted: %d, kept: %d, dropped: %d\n", stats.Extracted, stats.Kept, stats.Dropped)
	fmt.Printf("By level: low=%d, medium=%d, high=%d\n",
		byLevel[domain.LevelLow], byLevel[domain.LevelMedium], byLevel[domain.LevelHigh])

	labels := make([]string, 0, len(byCategory))
	for label := range byCategory {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	fmt.Print("By category:")
	for _, label := range labels {
		fmt.Printf(" %s=%d", label, byCategory[label])
	}
	fmt.Println()

	if len(buildings) > 0 {
		top := buildings[0]
		fmt.Printf("\nLargest consumer: %s (%d kWh, %.1f kWh/m², %s)\n",
			top.Name, top.TotalEnergyKWh, top.EnergyIntensity, top.ConsumptionLevel)
	}
}
