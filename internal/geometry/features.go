package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"househunt/internal/models"
)

// ParseBBox parses "minLon,minLat,maxLon,maxLat"
func ParseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must have 4 comma separated values, got %d", len(parts))
	}

	var values [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox value %q: %w", part, err)
		}
		values[i] = v
	}

	if values[0] > values[2] || values[1] > values[3] {
		return orb.Bound{}, fmt.Errorf("bbox minimum exceeds maximum")
	}
	if values[1] < -90 || values[3] > 90 || values[0] < -180 || values[2] > 180 {
		return orb.Bound{}, fmt.Errorf("bbox out of range")
	}

	return orb.Bound{
		Min: orb.Point{values[0], values[1]},
		Max: orb.Point{values[2], values[3]},
	}, nil
}

// PropertyPoint returns the property location as lon/lat
func PropertyPoint(p models.Property) (orb.Point, bool) {
	if !p.HasCoordinates() {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// PropertyFeatures builds one Point feature per geocoded property. When bound
// is non-nil, properties outside it are skipped.
func PropertyFeatures(properties []models.Property, bound *orb.Bound) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, p := range properties {
		point, ok := PropertyPoint(p)
		if !ok {
			continue
		}
		if bound != nil && !bound.Contains(point) {
			continue
		}

		feature := geojson.NewFeature(point)
		feature.ID = p.ID
		feature.Properties = geojson.Properties{
			"id":            p.ID,
			"street":        p.Street,
			"city":          p.City,
			"price":         p.Price,
			"status":        p.Status,
			"score":         p.Score,
			"geometry_type": "property",
		}
		fc.Append(feature)
	}

	return fc
}
