// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an API account that owns regions.
//
// Address and Location always describe the same physical place: whichever
// side the caller supplied, the other is derived through the geocoder before
// the document is written. Regions holds owned region ids in creation order
// and is mutated only by the region store's ownership paths, never by the
// user-update path.
type User struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name     string               `bson:"name" json:"name"`
	NameCI   string               `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email    string               `bson:"email" json:"email"`
	Address  string               `bson:"address,omitempty" json:"address,omitempty"`
	Location *Point               `bson:"location,omitempty" json:"location,omitempty"`
	Regions  []primitive.ObjectID `bson:"regions" json:"regions"`

	// APIKeyHash is the one-way digest of the user's bearer credential.
	// The raw key is returned to the caller once at creation (or
	// regeneration) and is never stored or retrievable afterwards.
	APIKeyHash string `bson:"api_key_hash" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
