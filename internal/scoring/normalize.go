package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxNormalized is the top of the common scale every nice-to-have is mapped onto.
const MaxNormalized = 5.0

// NormalizeRating maps a raw rating onto the common 0-5 scale.
// Unknown or empty rating types are treated as STARS.
func NormalizeRating(value any, ratingType RatingType) float64 {
	switch ratingType {
	case YesNo:
		if b, ok := value.(bool); ok && b {
			return MaxNormalized
		}
		return 0
	case Scale10:
		return clamp(toNumber(value), 0, 10) / 2
	default:
		return clamp(toNumber(value), 0, MaxNormalized)
	}
}

// effectiveWeight returns the weight used for aggregation; unset means 1.
func effectiveWeight(c Criterion) float64 {
	if c.Weight <= 0 {
		return 1
	}
	return float64(c.Weight)
}

func effectiveRatingType(c Criterion) RatingType {
	if c.RatingType.Valid() {
		return c.RatingType
	}
	return Stars
}

// isTrue matches only a literal boolean true. Deal-breakers use it.
func isTrue(value any) bool {
	b, ok := value.(bool)
	return ok && b
}

// isTruthy treats nil, false, zero, NaN and the empty string as not met.
func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	}
	if f, ok := numberOf(value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// toNumber coerces a raw rating to a finite number; anything else is 0.
func toNumber(value any) float64 {
	var f float64
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		n, ok := numberOf(value)
		if !ok {
			return 0
		}
		f = n
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func numberOf(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DisplayRating renders a raw value the way the detail and comparison views show it.
func DisplayRating(value any, ratingType RatingType) string {
	if value == nil {
		return "Not rated"
	}
	switch ratingType {
	case YesNo:
		if isTrue(value) {
			return "Yes"
		}
		return "No"
	case Scale10:
		return fmt.Sprintf("%s/10", formatPoints(clamp(toNumber(value), 0, 10)))
	default:
		return fmt.Sprintf("%s/5", formatPoints(clamp(toNumber(value), 0, MaxNormalized)))
	}
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
