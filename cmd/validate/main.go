// Command validate runs the domain transform over a raw building fixture and
// checks the published-dataset guarantees: every kept record is valid and
// fully derived, the output is ordered by total energy with ties in source
// order, repeated runs agree, and the input batch is left untouched. An
// optional expected file is diffed against the transformed output.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -fixture data/mock/buildings.json \
//	  -expected data/mock/buildings_transformed.json
//
// Without -fixture the embedded fixture is validated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/building-energy-etl/internal/adapter/fixture"
	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixturePath := flag.String("fixture", "", "path to a raw JSON fixture (default: embedded fixture)")
	expectedPath := flag.String("expected", "", "optional path to the expected transformed JSON")
	flag.Parse()

	os.Exit(run(*fixturePath, *expectedPath))
}

func run(fixturePath, expectedPath string) int {
	fmt.Println("=== Building Energy Fixture Validation ===")
	fmt.Println()

	batch, err := loadBatch(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	before := domain.CloneBatch(batch)
	buildings, stats := domain.Transform(batch)

	phases := []*phase{
		validateCounts(batch, buildings, stats),
		validateRecords(buildings),
		validateOrdering(batch, buildings),
		validateDeterminism(batch, before, buildings),
	}
	if expectedPath != "" {
		phases = append(phases, validateExpected(expectedPath, buildings))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d extracted, %d kept, %d dropped\n", stats.Extracted, stats.Kept, stats.Dropped)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadBatch(path string) ([]domain.RawRecord, error) {
	if path == "" {
		src, err := fixture.NewEmbedded()
		if err != nil {
			return nil, err
		}
		return src.Extract(context.Background())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return domain.DecodeRawBatch(data)
}

// ── Phase 1: Counts ──

func validateCounts(batch []domain.RawRecord, out []domain.Building, stats domain.TransformStats) *phase {
	p := &phase{name: "Phase 1: Counts (kept + dropped)"}

	if stats.Extracted != len(batch) {
		p.errorf("extracted: expected %d, got %d", len(batch), stats.Extracted)
	}
	if stats.Kept != len(out) {
		p.errorf("kept: expected %d, got %d", len(out), stats.Kept)
	}
	if stats.Kept+stats.Dropped != stats.Extracted {
		p.errorf("kept %d + dropped %d != extracted %d", stats.Kept, stats.Dropped, stats.Extracted)
	}

	var valid int
	for _, raw := range batch {
		if domain.IsValid(domain.MapRecord(raw)) {
			valid++
		}
	}
	if valid != len(out) {
		p.errorf("filter: %d raw records are valid but %d were kept", valid, len(out))
	}
	return p
}

// ── Phase 2: Records ──

func validateRecords(out []domain.Building) *phase {
	p := &phase{name: "Phase 2: Records (validity, derived fields)"}

	known := map[string]bool{}
	for _, c := range domain.Categories() {
		known[c] = true
	}

	for i := range out {
		b := &out[i]
		pf := func(format string, args ...any) {
			p.errorf("record %d (%q): "+format, append([]any{i, b.Name}, args...)...)
		}

		if !domain.IsValid(*b) {
			pf("published record fails the validity filter")
		}
		if !known[b.Category] {
			pf("category %q is not a known label", b.Category)
		}
		if b.TotalEnergyKWh != b.ElectricityKWh+b.GasKWh {
			pf("total %d != electricity %d + gas %d", b.TotalEnergyKWh, b.ElectricityKWh, b.GasKWh)
		}
		checkIntensities(pf, b)
	}
	return p
}

func checkIntensities(pf func(string, ...any), b *domain.Building) {
	if b.FloorAreaM2 <= 0 {
		if b.EnergyIntensity != 0 || b.WaterIntensity != 0 {
			pf("intensities must be 0 without a surface")
		}
		if b.ConsumptionLevel != domain.LevelMedium {
			pf("level %q without a surface, expected medium", b.ConsumptionLevel)
		}
		return
	}

	ratio := float64(b.TotalEnergyKWh) / float64(b.FloorAreaM2)
	if math.Abs(b.EnergyIntensity-ratio) > 0.05+1e-9 {
		pf("energy intensity %.1f too far from %.4f", b.EnergyIntensity, ratio)
	}
	if !roundedTo(b.EnergyIntensity, 10) {
		pf("energy intensity %v is not rounded to one decimal", b.EnergyIntensity)
	}
	if !roundedTo(b.WaterIntensity, 100) {
		pf("water intensity %v is not rounded to two decimals", b.WaterIntensity)
	}

	want := domain.LevelHigh
	switch {
	case ratio < 30:
		want = domain.LevelLow
	case ratio < 60:
		want = domain.LevelMedium
	}
	if b.ConsumptionLevel != want {
		pf("level %q for ratio %.4f, expected %q", b.ConsumptionLevel, ratio, want)
	}
}

func roundedTo(v, scale float64) bool {
	return math.Abs(v*scale-math.Round(v*scale)) < 1e-6
}

// ── Phase 3: Ordering ──

func validateOrdering(batch []domain.RawRecord, out []domain.Building) *phase {
	p := &phase{name: "Phase 3: Ordering (descending, stable)"}

	for i := 1; i < len(out); i++ {
		if out[i-1].TotalEnergyKWh < out[i].TotalEnergyKWh {
			p.errorf("records %d and %d out of order: %d < %d", i-1, i, out[i-1].TotalEnergyKWh, out[i].TotalEnergyKWh)
		}
	}

	// Ties must keep source order; compare against the kept records in
	// source order.
	var source []domain.Building
	for _, raw := range batch {
		if b := domain.MapRecord(raw); domain.IsValid(b) {
			source = append(source, domain.Enrich(b))
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i-1].TotalEnergyKWh != out[i].TotalEnergyKWh {
			continue
		}
		a := slices.IndexFunc(source, func(b domain.Building) bool { return cmp.Equal(b, out[i-1]) })
		b := slices.IndexFunc(source, func(b domain.Building) bool { return cmp.Equal(b, out[i]) })
		if a > b {
			p.errorf("tie at total %d: %q came before %q in the source", out[i].TotalEnergyKWh, out[i].Name, out[i-1].Name)
		}
	}
	return p
}

// ── Phase 4: Determinism ──

func validateDeterminism(batch, before []domain.RawRecord, out []domain.Building) *phase {
	p := &phase{name: "Phase 4: Determinism (idempotent, pure)"}

	if diff := cmp.Diff(before, batch); diff != "" {
		p.errorf("transform modified its input (-before +after):\n%s", diff)
	}
	again, _ := domain.Transform(batch)
	if diff := cmp.Diff(out, again); diff != "" {
		p.errorf("second transform differs (-first +second):\n%s", diff)
	}
	return p
}

// ── Phase 5: Expected output ──

func validateExpected(path string, out []domain.Building) *phase {
	p := &phase{name: "Phase 5: Expected output (JSON fixture)"}

	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read %s: %v", path, err)
		return p
	}
	var expected []domain.Building
	if err := json.Unmarshal(data, &expected); err != nil {
		p.errorf("decode %s: %v", path, err)
		return p
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		p.errorf("transformed output differs (-expected +got):\n%s", diff)
	}
	return p
}
