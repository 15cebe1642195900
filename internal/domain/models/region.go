// internal/domain/models/region.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Region is a user-owned polygon.
//
// UserID is fixed at creation. The owning user's Regions list contains this
// region's id for exactly as long as the document exists; the region store's
// create and delete paths keep both sides in one atomic scope.
type Region struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	Geometry Polygon `bson:"geometry" json:"geometry"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Region name length bounds enforced on create and update.
const (
	RegionNameMin = 3
	RegionNameMax = 100
)
