package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/domain"
	testingpkg "github.com/aristath/factorlens/internal/testing"
)

func TestLoadOverrides(t *testing.T) {
	path := testingpkg.WriteTempFile(t, "overrides.yaml", `
vale:
  region: LatAm
  sector: Materials
VOO:
  region: US
  sector: S&P 500
  factor: Core Beta
`)

	o, err := LoadOverrides(path)
	require.NoError(t, err)

	assert.Equal(t, domain.Classification{Region: "LatAm", Sector: "Materials", Factor: "Unassigned", Source: SourceManual}, o["VALE"])
	assert.Equal(t, "Core Beta", o["VOO"].Factor, "file wins over built-in defaults")
	assert.Equal(t, "Energy/Cyclicals", o["XOM"].Factor, "defaults survive")
}

func TestLoadOverrides_Errors(t *testing.T) {
	_, err := LoadOverrides("/nonexistent/overrides.yaml")
	assert.Error(t, err)

	path := testingpkg.WriteTempFile(t, "bad.yaml", "VOO: [not, a, map]\n")
	_, err = LoadOverrides(path)
	assert.Error(t, err)

	o, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Len(t, o, 6)
}

func TestOverrides_Complete(t *testing.T) {
	o := DefaultOverrides()
	o["VALE"] = domain.Classification{Region: "LatAm", Sector: "Unknown"}

	assert.True(t, o.Complete("VOO"))
	assert.False(t, o.Complete("VALE"))
	assert.False(t, o.Complete("NOPE"))
}

func TestMerge(t *testing.T) {
	fetched := domain.Classification{Region: "US", Sector: "Industrials", Factor: "", Source: SourceSpark}

	t.Run("unknown base takes everything", func(t *testing.T) {
		got := Merge(domain.UnknownClassification(), fetched)
		assert.Equal(t, domain.Classification{Region: "US", Sector: "Industrials", Factor: "Cyclicals/Real Assets", Source: SourceSpark}, got)
	})

	t.Run("known fields are kept", func(t *testing.T) {
		base := domain.Classification{Region: "Global", Sector: "Unknown", Factor: "Unassigned", Source: SourceManual}
		got := Merge(base, fetched)
		assert.Equal(t, "Global", got.Region)
		assert.Equal(t, "Industrials", got.Sector)
		assert.Equal(t, "Cyclicals/Real Assets", got.Factor)
		assert.Equal(t, SourceManual, got.Source)
	})

	t.Run("empty fetched fields stay unknown", func(t *testing.T) {
		got := Merge(domain.UnknownClassification(), domain.Classification{})
		assert.Equal(t, "Unknown", got.Region)
		assert.Equal(t, "Unknown", got.Sector)
		assert.Equal(t, "Unassigned", got.Factor)
	})
}
