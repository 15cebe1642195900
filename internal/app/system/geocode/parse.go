// internal/app/system/geocode/parse.go
package geocode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPoint marks coordinate input that could not be understood.
// Errors wrapping it are validation failures, not provider failures.
var ErrInvalidPoint = errors.New("invalid coordinates")

// ParsePoint normalizes the coordinate shapes callers have historically
// sent:
//
//	[lng, lat]                      JSON array, GeoJSON axis order
//	"lat,lng"                       string
//	{"lat": …, "lng": …}            object
//	{"latitude": …, "longitude": …} object
//
// Anything else, non-numeric components, and out-of-range values wrap
// ErrInvalidPoint. Note the tuple form is [lng, lat] while the string form
// is "lat,lng"; both conventions exist in the wild and both are accepted.
func ParsePoint(v any) (Point, error) {
	switch val := v.(type) {
	case nil:
		return Point{}, fmt.Errorf("%w: missing value", ErrInvalidPoint)

	case string:
		return parseLatLngString(val)

	case []any:
		if len(val) != 2 {
			return Point{}, fmt.Errorf("%w: tuple must have exactly 2 elements, got %d", ErrInvalidPoint, len(val))
		}
		lng, ok1 := toFloat(val[0])
		lat, ok2 := toFloat(val[1])
		if !ok1 || !ok2 {
			return Point{}, fmt.Errorf("%w: tuple elements must be numbers", ErrInvalidPoint)
		}
		return checkedPoint(lat, lng)

	case []float64:
		if len(val) != 2 {
			return Point{}, fmt.Errorf("%w: tuple must have exactly 2 elements, got %d", ErrInvalidPoint, len(val))
		}
		return checkedPoint(val[1], val[0])

	case [2]float64:
		return checkedPoint(val[1], val[0])

	case map[string]any:
		return parseObject(val)

	case Point:
		return checkedPoint(val.Lat, val.Lng)

	default:
		return Point{}, fmt.Errorf("%w: unsupported shape %T", ErrInvalidPoint, v)
	}
}

func parseLatLngString(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("%w: want \"lat,lng\", got %q", ErrInvalidPoint, s)
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return Point{}, fmt.Errorf("%w: non-numeric component in %q", ErrInvalidPoint, s)
	}
	return checkedPoint(lat, lng)
}

func parseObject(m map[string]any) (Point, error) {
	if latV, ok := m["lat"]; ok {
		lngV, ok2 := m["lng"]
		if !ok2 {
			return Point{}, fmt.Errorf("%w: object has lat but no lng", ErrInvalidPoint)
		}
		return objectPoint(latV, lngV)
	}
	if latV, ok := m["latitude"]; ok {
		lngV, ok2 := m["longitude"]
		if !ok2 {
			return Point{}, fmt.Errorf("%w: object has latitude but no longitude", ErrInvalidPoint)
		}
		return objectPoint(latV, lngV)
	}
	return Point{}, fmt.Errorf("%w: object needs lat/lng or latitude/longitude", ErrInvalidPoint)
}

func objectPoint(latV, lngV any) (Point, error) {
	lat, ok1 := toFloat(latV)
	lng, ok2 := toFloat(lngV)
	if !ok1 || !ok2 {
		return Point{}, fmt.Errorf("%w: components must be numbers", ErrInvalidPoint)
	}
	return checkedPoint(lat, lng)
}

func checkedPoint(lat, lng float64) (Point, error) {
	p := Point{Lat: lat, Lng: lng}
	if err := checkRange(p); err != nil {
		return Point{}, err
	}
	return p, nil
}

func checkRange(p Point) error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidPoint, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidPoint, p.Lng)
	}
	return nil
}

// toFloat accepts the numeric types JSON decoding and BSON decoding produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
