package geometry

import (
	"sort"
	"strings"
	"unicode"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"househunt/internal/models"
)

// District groups geocoded properties sharing a 4 digit postal code prefix
type District struct {
	Code         string
	City         string
	Points       []orb.Point
	AverageScore *float64
}

// DistrictCode returns the numeric part of a Dutch postal code, or "".
func DistrictCode(postalCode string) string {
	code := strings.TrimSpace(postalCode)
	if len(code) < 4 {
		return ""
	}
	for _, r := range code[:4] {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return code[:4]
}

// GroupDistricts buckets properties by district. Properties without
// coordinates or a usable postal code are ignored.
func GroupDistricts(properties []models.Property) map[string]*District {
	districts := make(map[string]*District)
	scoreSums := make(map[string]float64)
	scoreCounts := make(map[string]int)

	for _, p := range properties {
		point, ok := PropertyPoint(p)
		code := DistrictCode(p.PostalCode)
		if !ok || code == "" {
			continue
		}

		d, exists := districts[code]
		if !exists {
			d = &District{Code: code, City: p.City}
			districts[code] = d
		}
		d.Points = append(d.Points, point)

		if p.Score != nil {
			scoreSums[code] += float64(*p.Score)
			scoreCounts[code]++
		}
	}

	for code, d := range districts {
		if n := scoreCounts[code]; n > 0 {
			avg := scoreSums[code] / float64(n)
			d.AverageScore = &avg
		}
	}
	return districts
}

// DistrictHulls returns a convex hull polygon per district with at least
// three distinct points, sorted by district code.
func DistrictHulls(properties []models.Property) []*geojson.Feature {
	districts := GroupDistricts(properties)

	codes := make([]string, 0, len(districts))
	for code := range districts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	features := make([]*geojson.Feature, 0, len(codes))
	for _, code := range codes {
		district := districts[code]
		hull := ConvexHull(district.Points)
		if hull == nil {
			continue
		}

		polygon := orb.Polygon{hull}
		feature := geojson.NewFeature(polygon)
		feature.Properties = geojson.Properties{
			"district":      district.Code,
			"city":          district.City,
			"point_count":   len(district.Points),
			"average_score": district.AverageScore,
			"area":          planar.Area(polygon),
			"geometry_type": "hull",
			"hull_type":     "convex",
		}
		features = append(features, feature)
	}
	return features
}

// ConvexHull computes a closed counter-clockwise ring around points using
// the monotone chain algorithm. It returns nil for fewer than three
// non-collinear points.
func ConvexHull(points []orb.Point) orb.Ring {
	if len(points) < 3 {
		return nil
	}

	sorted := make([]orb.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	hull := make([]orb.Point, 0, 2*len(sorted))
	// lower
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// upper
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// The last point equals the first, closing the ring
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
