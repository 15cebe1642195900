package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dalemusser/regionhub/internal/app/system/geocode"
)

// FakeGeocoder is an in-memory geocode.Resolver for store tests. Forward
// lookups match on address string, reverse lookups on exact point. Unknown
// queries answer like the real provider does for zero results.
type FakeGeocoder struct {
	mu      sync.Mutex
	forward map[string]geocode.Result
	reverse map[geocode.Point]geocode.Result
	Calls   int
}

// NewFakeGeocoder seeds a geocoder with the suite's default fixture:
// "1 Main St" <-> (40.7, -73.9).
func NewFakeGeocoder() *FakeGeocoder {
	g := &FakeGeocoder{
		forward: map[string]geocode.Result{},
		reverse: map[geocode.Point]geocode.Result{},
	}
	g.Add("1 Main St", geocode.Point{Lat: 40.7, Lng: -73.9})
	return g
}

// Add registers a bidirectional address/point pair.
func (g *FakeGeocoder) Add(address string, p geocode.Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	res := geocode.Result{Address: address, Point: p}
	g.forward[address] = res
	g.reverse[p] = res
}

func (g *FakeGeocoder) ResolveAddress(ctx context.Context, address string) (geocode.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if res, ok := g.forward[address]; ok {
		return res, nil
	}
	return geocode.Result{}, &geocode.Error{Op: "forward", Status: "ZERO_RESULTS"}
}

func (g *FakeGeocoder) ResolveCoordinates(ctx context.Context, p geocode.Point) (geocode.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if res, ok := g.reverse[p]; ok {
		return res, nil
	}
	return geocode.Result{}, &geocode.Error{Op: "reverse", Status: "ZERO_RESULTS"}
}

// FailingGeocoder always fails with the given provider status, or as a
// transport error when status is empty.
type FailingGeocoder struct {
	Status string
}

func (g *FailingGeocoder) ResolveAddress(ctx context.Context, address string) (geocode.Result, error) {
	return geocode.Result{}, g.err("forward")
}

func (g *FailingGeocoder) ResolveCoordinates(ctx context.Context, p geocode.Point) (geocode.Result, error) {
	return geocode.Result{}, g.err("reverse")
}

func (g *FailingGeocoder) err(op string) error {
	if g.Status == "" {
		return &geocode.Error{Op: op, Err: fmt.Errorf("connection refused")}
	}
	return &geocode.Error{Op: op, Status: g.Status}
}
