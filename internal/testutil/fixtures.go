package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/regionhub/internal/app/system/apikey"
	"github.com/dalemusser/regionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data directly in the
// database, bypassing store validation and geocoding.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user at the given address and point, with an API key
// whose raw value is returned alongside.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, address string, lng, lat float64) (models.User, string) {
	f.t.Helper()

	rawKey, err := apikey.Generate()
	if err != nil {
		f.t.Fatalf("generate api key: %v", err)
	}

	now := time.Now().UTC()
	loc := models.NewPoint(lng, lat)
	u := models.User{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Email:      email,
		Address:    address,
		Location:   &loc,
		Regions:    []primitive.ObjectID{},
		APIKeyHash: apikey.Hash(rawKey),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u, rawKey
}

// CreateRegion inserts a region and appends its id to the owner's list,
// mirroring what the store's create path produces.
func (f *Fixtures) CreateRegion(ctx context.Context, name string, ownerID primitive.ObjectID) models.Region {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Region{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		UserID:    ownerID,
		Geometry:  SquarePolygon(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("regions").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test region: %v", err)
	}
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{"$push": bson.M{"regions": r.ID}},
	); err != nil {
		f.t.Fatalf("failed to link test region to owner: %v", err)
	}
	return r
}

// SquarePolygon returns a valid closed 5-point square near the test
// coordinates used throughout the suite.
func SquarePolygon() models.Polygon {
	return models.Polygon{
		Type: "Polygon",
		Coordinates: [][][2]float64{{
			{-74.0, 40.6},
			{-73.8, 40.6},
			{-73.8, 40.8},
			{-74.0, 40.8},
			{-74.0, 40.6},
		}},
	}
}
