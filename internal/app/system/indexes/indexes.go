// internal/app/system/indexes/indexes.go

// Package indexes creates the collections' indexes at startup. Each ensure
// function is idempotent; errors are aggregated so every problem is visible
// and startup can fail fast.
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureRegions(ctx, db); err != nil {
		problems = append(problems, "regions: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	// Email is globally unique; duplicate inserts surface as E11000 and are
	// mapped to a conflict by the store.
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "api_key_hash", Value: 1}},
			Options: options.Index().SetName("idx_users_api_key_hash"),
		},
	}
	_, err := db.Collection("users").Indexes().CreateMany(ctx, models)
	return err
}

func ensureRegions(ctx context.Context, db *mongo.Database) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_regions_user"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_regions_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "geometry", Value: "2dsphere"}},
			Options: options.Index().SetName("idx_regions_geometry"),
		},
	}
	_, err := db.Collection("regions").Indexes().CreateMany(ctx, models)
	return err
}
