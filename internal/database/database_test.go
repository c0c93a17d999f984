package database

import (
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"househunt/internal/models"
	"househunt/internal/scoring"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestProperties_CRUD(t *testing.T) {
	db := newTestDatabase(t)

	p := &models.Property{Street: "Prinsengracht 263", City: "Amsterdam", PostalCode: "1016GV", Price: 650000, LivingArea: intPtr(80)}
	require.NoError(t, db.CreateProperty(p))
	require.NotZero(t, p.ID)
	assert.Equal(t, models.StatusInterested, p.Status)

	got, err := db.GetProperty(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amsterdam", got.City)
	assert.Nil(t, got.Score)

	got.Price = 600000
	got.Status = models.StatusViewed
	require.NoError(t, db.UpdateProperty(got))

	got, err = db.GetProperty(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 600000, got.Price)
	assert.Equal(t, models.StatusViewed, got.Status)

	require.NoError(t, db.DeleteProperty(p.ID))
	_, err = db.GetProperty(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteProperty(p.ID), ErrNotFound)
}

func setScore(t *testing.T, db *Database, id int64, score int) {
	t.Helper()
	require.NoError(t, UpdateScores(db.GetDB(), map[int64]int{id: score}, time.Now()))
}

func testCriteriaSet() scoring.CriteriaSet {
	return scoring.Split([]scoring.Criterion{
		{ID: "garden", Text: "Garden", Type: scoring.NiceToHave, Weight: 5, RatingType: scoring.YesNo},
		{ID: "light", Text: "Light", Type: scoring.NiceToHave, Weight: 5, RatingType: scoring.Scale10},
	})
}

func TestMergeRatings(t *testing.T) {
	db := newTestDatabase(t)
	set := testCriteriaSet()

	p := &models.Property{Street: "Damrak 1", City: "Amsterdam", Price: 400000}
	require.NoError(t, db.CreateProperty(p))

	previous, err := db.MergeRatings(p.ID, map[string]interface{}{"garden": true, "light": 4.0}, set)
	require.NoError(t, err)
	assert.Nil(t, previous)

	got, err := db.GetProperty(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	// 25 + 10 out of 50
	assert.Equal(t, 70, *got.Score)
	assert.NotNil(t, got.ScoredAt)
	assert.Equal(t, true, got.Ratings["garden"])
	assert.Equal(t, 4.0, got.Ratings["light"])

	// nil removes a rating, untouched keys stay
	previous, err = db.MergeRatings(p.ID, map[string]interface{}{"light": nil}, set)
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, 70, *previous)

	got, err = db.GetProperty(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, *got.Score)
	assert.Equal(t, true, got.Ratings["garden"])
	assert.NotContains(t, got.Ratings, "light")

	// Editing the property must not touch the ratings or score
	got.Notes = "Bright living room"
	require.NoError(t, db.UpdateProperty(got))
	got, err = db.GetProperty(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, *got.Score)
	assert.Equal(t, true, got.Ratings["garden"])

	_, err = db.MergeRatings(9999, map[string]interface{}{"garden": true}, set)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergeRatings_Concurrent(t *testing.T) {
	db := newTestDatabase(t)
	set := testCriteriaSet()

	p := &models.Property{Street: "Spui 21", City: "Amsterdam"}
	require.NoError(t, db.CreateProperty(p))

	keys := []string{"garden", "light", "parking", "quiet", "balcony", "cellar"}
	var wg sync.WaitGroup
	errs := make(chan error, len(keys))
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, err := db.MergeRatings(p.ID, map[string]interface{}{key: true}, set)
			errs <- err
		}(key)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := db.GetProperty(p.ID)
	require.NoError(t, err)
	for _, key := range keys {
		assert.Contains(t, got.Ratings, key)
	}
	assert.Equal(t, set.Score(got.RatingsMap()), *got.Score)
}

func TestRescoreProperties(t *testing.T) {
	db := newTestDatabase(t)
	set := testCriteriaSet()

	p := &models.Property{Street: "Nieuwmarkt 4", City: "Amsterdam"}
	require.NoError(t, db.CreateProperty(p))
	_, err := db.MergeRatings(p.ID, map[string]interface{}{"garden": true, "light": 10.0}, set)
	require.NoError(t, err)
	setScore(t, db, p.ID, 20)

	scores, err := RescoreProperties(db.GetDB(), []int64{p.ID, 4242}, set, time.Now())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{p.ID: 100}, scores)

	got, err := db.GetProperty(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, *got.Score)

	scores, err = RescoreProperties(db.GetDB(), nil, set, time.Now())
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestGetAllProperties_Filters(t *testing.T) {
	db := newTestDatabase(t)

	for _, p := range []*models.Property{
		{Street: "A", City: "Utrecht", Price: 300000},
		{Street: "B", City: "utrecht", Price: 500000, Status: models.StatusRejected},
		{Street: "C", City: "Leiden", Price: 400000},
	} {
		require.NoError(t, db.CreateProperty(p))
	}
	setScore(t, db, 1, 40)
	setScore(t, db, 3, 90)

	tests := []struct {
		name     string
		filter   models.PropertyFilter
		expected []string
	}{
		{"Default sort puts unscored last", models.PropertyFilter{}, []string{"C", "A", "B"}},
		{"City is case-insensitive", models.PropertyFilter{City: "UTRECHT", Sort: models.SortPriceAsc}, []string{"A", "B"}},
		{"Status", models.PropertyFilter{Status: models.StatusRejected}, []string{"B"}},
		{"Minimum score", models.PropertyFilter{MinScore: intPtr(50)}, []string{"C"}},
		{"Price descending", models.PropertyFilter{Sort: models.SortPriceDesc}, []string{"B", "C", "A"}},
		{"IDs", models.PropertyFilter{IDs: []int64{1, 2}, Sort: models.SortPriceAsc}, []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			properties, err := db.GetAllProperties(tt.filter)
			require.NoError(t, err)
			streets := make([]string, len(properties))
			for i, p := range properties {
				streets[i] = p.Street
			}
			assert.Equal(t, tt.expected, streets)
		})
	}
}

func TestCriteria_CRUD(t *testing.T) {
	db := newTestDatabase(t)

	rt := scoring.YesNo
	c := &models.Criterion{Text: "Garden", Type: scoring.NiceToHave, Weight: intPtr(0), RatingType: &rt}
	require.NoError(t, db.CreateCriterion(c))
	require.NotEmpty(t, c.ID)

	got, err := db.GetCriterion(c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWeight, *got.Weight)
	assert.Equal(t, scoring.YesNo, *got.RatingType)

	got.Type = scoring.MustHave
	require.NoError(t, db.UpdateCriterion(got))
	got, err = db.GetCriterion(c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Weight)
	assert.Nil(t, got.RatingType)

	n, err := db.CountCriteria()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, db.DeleteCriterion(c.ID))
	_, err = db.GetCriterion(c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.UpdateCriterion(&models.Criterion{ID: "missing", Type: scoring.MustHave}), ErrNotFound)
}

func TestInsertCriteria_Ordering(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.InsertCriteria([]models.Criterion{
		{Text: "Quiet", Type: scoring.NiceToHave, Position: 2},
		{Text: "Garden", Type: scoring.NiceToHave, Position: 1},
		{Text: "Bedrooms", Type: scoring.MustHave},
	}))

	criteria, err := db.GetAllCriteria()
	require.NoError(t, err)
	require.Len(t, criteria, 3)
	assert.Equal(t, "Bedrooms", criteria[0].Text)
	assert.Equal(t, "Garden", criteria[1].Text)
	assert.Equal(t, "Quiet", criteria[2].Text)
}

func TestGeocodingQueries(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.CreateProperty(&models.Property{Street: "Located 1", City: "Delft", Latitude: floatPtr(52.0), Longitude: floatPtr(4.3)}))
	require.NoError(t, db.CreateProperty(&models.Property{Street: "Missing 2", City: "Delft"}))
	require.NoError(t, db.CreateProperty(&models.Property{City: "Delft"}))

	pending, err := db.GetPropertiesNeedingGeocoding(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Missing 2", pending[0].Street)

	require.NoError(t, db.UpdateCoordinates(pending[0].ID, nil, nil))
	pending, err = db.GetPropertiesNeedingGeocoding(10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	located, err := db.GetPropertiesWithCoordinates()
	require.NoError(t, err)
	assert.Len(t, located, 1)
}

func TestUpdateScoresAndBatches(t *testing.T) {
	db := newTestDatabase(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.CreateProperty(&models.Property{Street: "Street", City: "Haarlem", Price: 100000 * (i + 1)}))
	}

	var seen []int64
	err := db.EachPropertyBatch(2, func(batch []models.Property) error {
		assert.LessOrEqual(t, len(batch), 2)
		for _, p := range batch {
			seen = append(seen, p.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seen)

	scoredAt := time.Now()
	require.NoError(t, UpdateScores(db.GetDB(), map[int64]int{1: 10, 2: 20}, scoredAt))

	p, err := db.GetProperty(2)
	require.NoError(t, err)
	require.NotNil(t, p.Score)
	assert.Equal(t, 20, *p.Score)
}

func TestGetPropertyStats(t *testing.T) {
	db := newTestDatabase(t)

	stats, err := db.GetPropertyStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalProperties)
	assert.Nil(t, stats.TopPropertyID)

	require.NoError(t, db.CreateProperty(&models.Property{Street: "A", City: "Gouda", Price: 300000, LivingArea: intPtr(100)}))
	require.NoError(t, db.CreateProperty(&models.Property{Street: "B", City: "Gouda", Price: 500000, LivingArea: intPtr(100)}))
	require.NoError(t, db.CreateProperty(&models.Property{Street: "C", City: "Gouda", Price: 400000}))
	setScore(t, db, 1, 0)
	setScore(t, db, 2, 80)
	require.NoError(t, db.CreateCriterion(&models.Criterion{Text: "Garden", Type: scoring.NiceToHave}))

	stats, err = db.GetPropertyStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProperties)
	assert.Equal(t, 2, stats.ScoredCount)
	assert.Equal(t, 1, stats.Disqualified)
	assert.Equal(t, 40.0, stats.AverageScore)
	assert.Equal(t, 400000.0, stats.AveragePrice)
	assert.Equal(t, 4000.0, stats.PricePerSqm)
	assert.Equal(t, 1, stats.CriteriaCount)
	require.NotNil(t, stats.TopPropertyID)
	assert.Equal(t, int64(2), *stats.TopPropertyID)
	assert.Equal(t, 80, *stats.TopScore)
}
