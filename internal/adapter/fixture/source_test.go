package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded_TransformsToExpectedDataset(t *testing.T) {
	src, err := NewEmbedded()
	require.NoError(t, err)

	raw, err := src.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 18)

	out, stats := domain.Transform(raw)

	// Dropped: zero electricity, empty name, missing coordinates, "n/c" electricity.
	assert.Equal(t, domain.TransformStats{Extracted: 18, Kept: 14, Dropped: 4}, stats)
	assert.Equal(t, "Musée des Confluences", out[0].Name)

	var school *domain.Building
	for i := range out {
		if out[i].Name == "École Pasteur" {
			school = &out[i]
		}
	}
	require.NotNil(t, school)
	assert.Equal(t, 23000, school.TotalEnergyKWh)
	assert.Equal(t, 46.0, school.EnergyIntensity)
	assert.Equal(t, domain.LevelMedium, school.ConsumptionLevel)

	for _, b := range out {
		if b.Name == "Centre technique municipal" {
			assert.Equal(t, domain.CategoryOther, b.Category)
		}
		if b.Name == "Stade de Gerland (vestiaires)" {
			assert.Zero(t, b.EnergyIntensity)
			assert.Equal(t, domain.LevelMedium, b.ConsumptionLevel)
		}
	}
}

func TestSource_ExtractReturnsDeepCopies(t *testing.T) {
	src, err := NewSource([]byte(`[{"nom_batiment":"Mairie","meta":{"tags":["a"]}}]`))
	require.NoError(t, err)

	first, err := src.Extract(context.Background())
	require.NoError(t, err)
	first[0][domain.FieldName] = "changed"
	first[0]["meta"].(map[string]any)["tags"].([]any)[0] = "changed"

	second, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mairie", second[0][domain.FieldName])
	assert.Equal(t, "a", second[0]["meta"].(map[string]any)["tags"].([]any)[0])
}

func TestNewSource_Malformed(t *testing.T) {
	_, err := NewSource([]byte(`{not json`))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFileSource_Extract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"records":[{"nom_batiment":"Gymnase"},42]}`), 0o600))

	raw, err := NewFileSource(path).Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, "Gymnase", raw[0][domain.FieldName])
	assert.Empty(t, raw[1])
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Extract(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFileSource_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.json")
	require.NoError(t, os.WriteFile(path, []byte(`"just a string"`), 0o600))

	_, err := NewFileSource(path).Extract(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
