package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"househunt/internal/database"
	"househunt/internal/models"
	"househunt/internal/scoring"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func openTestDB(t *testing.T, path string) *database.Database {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	db, err := database.NewDatabase(path, logger)
	require.NoError(t, err)
	return db
}

func intPtr(v int) *int { return &v }

func TestScoreCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name: "Weighted stars",
			input: `{"criteria":[{"id":"n1","text":"Light","type":"NICE_TO_HAVE","weight":10,"rating_type":"STARS"}],
				"ratings":{"n1":3}}`,
			contains: []string{"none present", "all met", "Light", "3/5", "Score: 60 (scored)"},
		},
		{
			name: "Deal-breaker",
			input: `{"criteria":[{"id":"d1","text":"Flood zone","type":"DEAL_BREAKER"},{"id":"m1","text":"Garage","type":"MUST_HAVE"}],
				"ratings":{"d1":true,"m1":true}}`,
			contains: []string{"present: Flood zone", "not evaluated", "Score: 0 (disqualified_deal_breaker)"},
		},
		{
			name:     "Unmet must-have",
			input:    `{"criteria":[{"id":"m1","text":"Garage","type":"MUST_HAVE"}],"ratings":{}}`,
			contains: []string{"not met: Garage", "Score: 0 (disqualified_must_have)"},
		},
		{
			name:     "No criteria",
			input:    `{"criteria":[],"ratings":{}}`,
			contains: []string{"Score: 100 (vacuous)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, "score", writeFile(t, "input.json", tt.input))
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestScoreCommand_JSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	path := writeFile(t, "input.json", `{"criteria":[
		{"id":"a","text":"Garden","type":"NICE_TO_HAVE","weight":4,"rating_type":"YES_NO"},
		{"id":"b","text":"Quiet","type":"NICE_TO_HAVE","weight":2,"rating_type":"SCALE_10"}],
		"ratings":{"a":true,"b":7}}`)

	out, err := runCommand(t, "score", path, "--json")
	require.NoError(t, err)

	var b scoring.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	// 20 + 7 out of 30
	assert.Equal(t, 90, b.Score)
	assert.Equal(t, 27.0, b.PointsEarned)
	assert.Equal(t, 30.0, b.MaxPossiblePoints)
}

func TestScoreCommand_Errors(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	_, err := runCommand(t, "score", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read score input")

	_, err = runCommand(t, "score", writeFile(t, "bad.json", `{"criteria":`))
	assert.ErrorContains(t, err, "failed to parse score input")

	_, err = runCommand(t, "score", writeFile(t, "type.json", `{"criteria":[{"id":"x","type":"OPTIONAL"}]}`))
	assert.ErrorContains(t, err, "unknown type")

	_, err = runCommand(t, "score")
	assert.Error(t, err)
}

func TestSeedCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dbPath := filepath.Join(t.TempDir(), "seed.db")
	presets := writeFile(t, "presets.json", `{"criteria":[
		{"text":"Two bedrooms","type":"MUST_HAVE","weight":3},
		{"text":"Garden","type":"NICE_TO_HAVE","weight":40}]}`)

	out, err := runCommand(t, "seed", "--db", dbPath, "--presets", presets)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 2 criteria")

	out, err = runCommand(t, "seed", "--db", dbPath, "--presets", presets)
	require.NoError(t, err)
	assert.Contains(t, out, "Skipped: 2 criteria already defined")

	db := openTestDB(t, dbPath)
	defer db.Close()
	criteria, err := db.GetAllCriteria()
	require.NoError(t, err)
	require.Len(t, criteria, 2)
	for _, c := range criteria {
		assert.NotEmpty(t, c.ID)
		if c.Type == scoring.NiceToHave {
			assert.Equal(t, models.DefaultWeight, *c.Weight)
		} else {
			assert.Nil(t, c.Weight)
		}
	}

	_, err = runCommand(t, "seed", "--db", dbPath, "--presets", filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func seedProperties(t *testing.T, dbPath string) {
	t.Helper()
	db := openTestDB(t, dbPath)
	defer db.Close()

	require.NoError(t, db.InsertCriteria([]models.Criterion{
		{ID: "quiet", Text: "Quiet", Type: scoring.NiceToHave, Weight: intPtr(5)},
		{ID: "flood", Text: "Flood", Type: scoring.DealBreaker},
	}))

	properties := []models.Property{
		{Street: "Kerkstraat 1", City: "Leiden", Price: 300000, Ratings: datatypes.JSONMap{"quiet": 2}},
		{Street: "Breestraat 9", City: "Leiden", Price: 350000, Ratings: datatypes.JSONMap{"quiet": 5}},
		{Street: "Haven 3", City: "Leiden", Price: 250000, Ratings: datatypes.JSONMap{"quiet": 5, "flood": true}},
	}
	for i := range properties {
		require.NoError(t, db.CreateProperty(&properties[i]))
	}
}

func TestRescoreCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BATCH_MAX_SIZE", "2")
	dbPath := filepath.Join(t.TempDir(), "rescore.db")
	seedProperties(t, dbPath)

	out, err := runCommand(t, "rescore", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Rescored 3 properties in 2 batches, 3 scores changed")

	db := openTestDB(t, dbPath)
	properties, err := db.GetAllProperties(models.PropertyFilter{Sort: models.SortPriceAsc})
	require.NoError(t, err)
	db.Close()

	require.Len(t, properties, 3)
	scores := make([]int, 0, len(properties))
	for _, p := range properties {
		require.NotNil(t, p.Score, p.Street)
		assert.NotNil(t, p.ScoredAt)
		scores = append(scores, *p.Score)
	}
	assert.Equal(t, []int{0, 40, 100}, scores)

	out, err = runCommand(t, "rescore", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 scores changed")
}

func TestCompareCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dbPath := filepath.Join(t.TempDir(), "compare.db")
	seedProperties(t, dbPath)

	out, err := runCommand(t, "compare", "--db", dbPath)
	require.NoError(t, err)

	breestraat := strings.Index(out, "Breestraat 9")
	kerkstraat := strings.Index(out, "Kerkstraat 1")
	haven := strings.Index(out, "Haven 3")
	require.True(t, breestraat >= 0 && kerkstraat >= 0 && haven >= 0, out)
	assert.Less(t, breestraat, kerkstraat)
	assert.Less(t, kerkstraat, haven)
	assert.NotContains(t, out, "out of date")

	out, err = runCommand(t, "compare", "--db", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Breestraat 9")
	assert.NotContains(t, out, "Kerkstraat 1")

	// Cached scores are empty until a rescore
	out, err = runCommand(t, "compare", "--db", dbPath, "--live=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Haven 3")
	assert.NotContains(t, out, "out of date")
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := runCommand(t, "score", writeFile(t, "input.json", `{}`))
	assert.ErrorContains(t, err, "invalid log level")
}
