package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"househunt/internal/models"
	"househunt/internal/scoring"
)

func TestPresetStore_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	content := `{"criteria": [
		{"text": "Garden", "type": "NICE_TO_HAVE", "weight": 42},
		{"text": "Two bedrooms", "type": "MUST_HAVE", "weight": 7, "rating_type": "STARS"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	store := NewPresetStore(path)
	require.NoError(t, store.Load())

	criteria, err := store.Criteria()
	require.NoError(t, err)
	require.Len(t, criteria, 2)

	assert.Equal(t, models.DefaultWeight, *criteria[0].Weight)
	assert.Equal(t, scoring.Stars, *criteria[0].RatingType)
	assert.Nil(t, criteria[1].Weight)
	assert.Nil(t, criteria[1].RatingType)
	assert.Equal(t, 1, criteria[1].Position)
}

func TestPresetStore_Errors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		store := NewPresetStore(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, store.Load())
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
		assert.Error(t, NewPresetStore(path).Load())
	})

	t.Run("Nothing loaded", func(t *testing.T) {
		_, err := NewPresetStore("unused.json").Criteria()
		assert.ErrorIs(t, err, ErrNoPresets)
	})
}

func TestPresetStore_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "presets.json")
	store := NewPresetStore(path)
	store.Set([]models.Criterion{{Text: "Quiet street", Type: scoring.NiceToHave}})
	require.NoError(t, store.Save())

	reloaded := NewPresetStore(path)
	require.NoError(t, reloaded.Load())
	criteria, err := reloaded.Criteria()
	require.NoError(t, err)
	require.Len(t, criteria, 1)
	assert.Equal(t, "Quiet street", criteria[0].Text)
	assert.Equal(t, models.DefaultWeight, *criteria[0].Weight)
}

func TestPresetStore_BundledFile(t *testing.T) {
	store := NewPresetStore("criteria_presets.json")
	require.NoError(t, store.Load())

	criteria, err := store.Criteria()
	require.NoError(t, err)
	set := models.CriteriaSet(criteria)
	assert.NotEmpty(t, set.MustHaves)
	assert.NotEmpty(t, set.NiceToHaves)
	assert.NotEmpty(t, set.DealBreakers)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("TELEGRAM_CHAT_ID", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 100, cfg.BatchProcessing.MaxBatchSize)
	assert.False(t, cfg.TelegramEnabled())
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoding.BaseURL)
}
