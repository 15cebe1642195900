// internal/domain/models/geometry.go
package models

import (
	"errors"
	"fmt"
)

// GeoJSON axis order is [lng, lat] throughout. Mongo's 2dsphere indexes and
// the geocoder both expect that order, so it is preserved on the wire and in
// storage; only the geocode package deals in named Lat/Lng fields.

// Point is a GeoJSON Point geometry.
type Point struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
}

// NewPoint builds a GeoJSON point from a longitude/latitude pair.
func NewPoint(lng, lat float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Lng returns the point's longitude (first coordinate).
func (p Point) Lng() float64 { return p.Coordinates[0] }

// Lat returns the point's latitude (second coordinate).
func (p Point) Lat() float64 { return p.Coordinates[1] }

// Polygon is a GeoJSON Polygon geometry: one or more linear rings, each a
// closed loop of [lng, lat] positions.
type Polygon struct {
	Type        string         `bson:"type" json:"type"`
	Coordinates [][][2]float64 `bson:"coordinates" json:"coordinates"`
}

var (
	errPolygonType   = errors.New(`geometry type must be "Polygon"`)
	errPolygonEmpty  = errors.New("polygon must have at least one ring")
	errRingTooShort  = errors.New("each ring needs at least 4 positions")
	errRingNotClosed = errors.New("each ring must close (first position == last)")
)

// Validate checks the polygon's structural invariants: type tag, ring
// closure, minimum ring length, and coordinate ranges.
func (g Polygon) Validate() error {
	if g.Type != "Polygon" {
		return errPolygonType
	}
	if len(g.Coordinates) == 0 {
		return errPolygonEmpty
	}
	for i, ring := range g.Coordinates {
		if len(ring) < 4 {
			return errRingTooShort
		}
		if ring[0] != ring[len(ring)-1] {
			return errRingNotClosed
		}
		for j, pos := range ring {
			if err := CheckLngLat(pos[0], pos[1]); err != nil {
				return fmt.Errorf("ring %d position %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// CheckLngLat verifies a coordinate pair is within geographic range.
func CheckLngLat(lng, lat float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return nil
}
