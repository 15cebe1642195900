package geocode

import (
	"errors"
	"testing"
)

func TestParsePoint_Shapes(t *testing.T) {
	want := Point{Lat: 40.7, Lng: -73.9}

	tests := []struct {
		name string
		in   any
	}{
		{"lng-lat tuple", []any{-73.9, 40.7}},
		{"float slice", []float64{-73.9, 40.7}},
		{"float array", [2]float64{-73.9, 40.7}},
		{"lat,lng string", "40.7,-73.9"},
		{"lat,lng string with spaces", " 40.7 , -73.9 "},
		{"lat/lng object", map[string]any{"lat": 40.7, "lng": -73.9}},
		{"latitude/longitude object", map[string]any{"latitude": 40.7, "longitude": -73.9}},
		{"point value", Point{Lat: 40.7, Lng: -73.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePoint(tt.in)
			if err != nil {
				t.Fatalf("ParsePoint(%v) failed: %v", tt.in, err)
			}
			if got != want {
				t.Errorf("ParsePoint(%v) = %+v, want %+v", tt.in, got, want)
			}
		})
	}
}

func TestParsePoint_IntComponents(t *testing.T) {
	got, err := ParsePoint(map[string]any{"lat": 40, "lng": -73})
	if err != nil {
		t.Fatalf("ParsePoint failed: %v", err)
	}
	if got != (Point{Lat: 40, Lng: -73}) {
		t.Errorf("got %+v", got)
	}
}

func TestParsePoint_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"bool", true},
		{"bare number", 40.7},
		{"short tuple", []any{-73.9}},
		{"long tuple", []any{-73.9, 40.7, 12.0}},
		{"non-numeric tuple", []any{"a", "b"}},
		{"string one part", "40.7"},
		{"string non-numeric", "forty,seventy"},
		{"object missing lng", map[string]any{"lat": 40.7}},
		{"object missing longitude", map[string]any{"latitude": 40.7}},
		{"object wrong keys", map[string]any{"x": 1.0, "y": 2.0}},
		{"object non-numeric", map[string]any{"lat": "40.7", "lng": "-73.9"}},
		{"lat out of range", []any{0.0, 90.5}},
		{"lng out of range", "0,-180.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePoint(tt.in)
			if err == nil {
				t.Fatalf("ParsePoint(%v) should fail", tt.in)
			}
			if !errors.Is(err, ErrInvalidPoint) {
				t.Errorf("error should wrap ErrInvalidPoint, got %v", err)
			}
		})
	}
}
