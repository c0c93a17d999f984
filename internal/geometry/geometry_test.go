package geometry

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"househunt/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func located(id int64, postal string, lat, lon float64, score *int) models.Property {
	return models.Property{
		ID:         id,
		Street:     "Street",
		City:       "Amsterdam",
		PostalCode: postal,
		Latitude:   floatPtr(lat),
		Longitude:  floatPtr(lon),
		Score:      score,
	}
}

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid", "4.7,52.3,5.0,52.4", false},
		{"Spaces", " 4.7, 52.3 ,5.0,52.4", false},
		{"Too few values", "4.7,52.3,5.0", true},
		{"Not a number", "a,52.3,5.0,52.4", true},
		{"Inverted", "5.0,52.3,4.7,52.4", true},
		{"Out of range", "4.7,-95,5.0,52.4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bound, err := ParseBBox(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, orb.Point{4.7, 52.3}, bound.Min)
			assert.Equal(t, orb.Point{5.0, 52.4}, bound.Max)
		})
	}
}

func TestPropertyFeatures(t *testing.T) {
	properties := []models.Property{
		located(1, "1016GV", 52.37, 4.88, intPtr(80)),
		located(2, "1012AB", 52.0, 4.3, nil),
		{ID: 3, Street: "Unknown"},
	}

	fc := PropertyFeatures(properties, nil)
	require.Len(t, fc.Features, 2)

	point, ok := fc.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{4.88, 52.37}, point)
	assert.Equal(t, int64(1), fc.Features[0].Properties["id"])

	bound, err := ParseBBox("4.7,52.3,5.0,52.4")
	require.NoError(t, err)
	fc = PropertyFeatures(properties, &bound)
	require.Len(t, fc.Features, 1)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
	assert.Contains(t, string(data), `"coordinates":[4.88,52.37]`)
}

func TestDistrictCode(t *testing.T) {
	assert.Equal(t, "1016", DistrictCode("1016GV"))
	assert.Equal(t, "1016", DistrictCode(" 1016 GV"))
	assert.Equal(t, "", DistrictCode("AB12"))
	assert.Equal(t, "", DistrictCode("101"))
}

func TestConvexHull(t *testing.T) {
	square := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}, {0.2, 0.7}}
	hull := ConvexHull(square)

	require.NotNil(t, hull)
	assert.True(t, hull.Closed())
	assert.Len(t, hull, 5)
	assert.NotContains(t, hull, orb.Point{0.5, 0.5})
	assert.InDelta(t, 1.0, orb.Polygon{hull}.Bound().Max[0], 1e-9)

	assert.Nil(t, ConvexHull([]orb.Point{{0, 0}, {1, 1}}))
	assert.Nil(t, ConvexHull([]orb.Point{{0, 0}, {1, 1}, {2, 2}}))
}

func TestDistrictHulls(t *testing.T) {
	properties := []models.Property{
		located(1, "1016AA", 52.370, 4.880, intPtr(80)),
		located(2, "1016AB", 52.372, 4.885, intPtr(60)),
		located(3, "1016AC", 52.375, 4.881, nil),
		located(4, "1012AA", 52.374, 4.890, intPtr(10)),
		located(5, "1012AB", 52.373, 4.892, nil),
	}

	features := DistrictHulls(properties)
	require.Len(t, features, 1)
	assert.Equal(t, "1016", features[0].Properties["district"])
	assert.Equal(t, 3, features[0].Properties["point_count"])
	assert.Equal(t, 70.0, *features[0].Properties["average_score"].(*float64))

	districts := GroupDistricts(properties)
	assert.Len(t, districts, 2)
	assert.Len(t, districts["1012"].Points, 2)
}
