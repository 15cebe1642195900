// internal/app/system/geocode/geocode.go

// Package geocode translates between free-text addresses and geographic
// coordinates through an external provider.
//
// The provider speaks HTTP JSON: a forward request carries an address, a
// reverse request a "lat,lng" pair, and a response is a status plus a list
// of candidate results each holding a formatted address and a location.
// Everything provider-shaped stays inside this package; callers see only
// Result values and *Error failures.
package geocode

import (
	"context"
	"fmt"
	"strings"
)

// Point is a named latitude/longitude pair. Note the axis order differs from
// the GeoJSON [lng, lat] tuples used by the models; conversion happens at
// the store boundary.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Result is a normalized provider answer: one formatted address and the
// point it names.
type Result struct {
	Address string
	Point   Point
}

// Resolver is the lookup surface stores depend on. The HTTP Client
// implements it; tests substitute fakes.
type Resolver interface {
	// ResolveAddress forward-geocodes a free-text address.
	ResolveAddress(ctx context.Context, address string) (Result, error)
	// ResolveCoordinates reverse-geocodes a point.
	ResolveCoordinates(ctx context.Context, p Point) (Result, error)
}

// Error is any provider-side failure: transport errors, non-success
// statuses, and empty result sets. It is distinct from validation errors so
// callers can translate it to a 400-class response instead of a 500.
type Error struct {
	Op     string // "forward" or "reverse"
	Status string // provider status, or "" for transport failures
	Err    error  // underlying transport error, if any
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("geocode %s: %v", e.Op, e.Err)
	case e.Status != "":
		return fmt.Sprintf("geocode %s: provider status %s", e.Op, e.Status)
	default:
		return fmt.Sprintf("geocode %s failed", e.Op)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// bestForward picks one result deterministically for a forward lookup:
// an exact formatted-address match (case-insensitive) wins; otherwise the
// candidate nearest the centroid of all candidates, ties broken by lowest
// provider-order index. "Nearest first" is deliberate; a distance-sorted
// pick-the-last rule floated in earlier iterations of this service and was
// rejected as farthest-match behavior.
func bestForward(query string, results []providerResult) providerResult {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, r := range results {
		if strings.ToLower(strings.TrimSpace(r.FormattedAddress)) == q {
			return r
		}
	}

	var cLat, cLng float64
	for _, r := range results {
		cLat += r.Geometry.Location.Lat
		cLng += r.Geometry.Location.Lng
	}
	n := float64(len(results))
	return nearest(Point{Lat: cLat / n, Lng: cLng / n}, results)
}

// bestReverse picks the candidate nearest the query point, same tie-break.
func bestReverse(p Point, results []providerResult) providerResult {
	return nearest(p, results)
}

// nearest returns the candidate with the smallest squared coordinate
// distance to p; on a tie the earliest candidate wins.
func nearest(p Point, results []providerResult) providerResult {
	best := results[0]
	bestD := sqDist(p, best.Geometry.Location)
	for _, r := range results[1:] {
		if d := sqDist(p, r.Geometry.Location); d < bestD {
			best, bestD = r, d
		}
	}
	return best
}

func sqDist(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}
