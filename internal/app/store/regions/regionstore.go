// internal/app/store/regions/regionstore.go
package regionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/regionhub/internal/app/system/apperr"
	"github.com/dalemusser/regionhub/internal/app/system/normalize"
	"github.com/dalemusser/regionhub/internal/app/system/paging"
	"github.com/dalemusser/regionhub/internal/app/system/txn"
	"github.com/dalemusser/regionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store provides region persistence plus the ownership bookkeeping on the
// users collection. Create and Delete are the only dual-write paths in the
// system: a region document and its id in the owner's regions list exist for
// exactly the same span, never one without the other.
type Store struct {
	c      *mongo.Collection
	users  *mongo.Collection
	client *mongo.Client
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("regions"),
		users:  db.Collection("users"),
		client: db.Client(),
	}
}

// NewRegion is the input for Create.
type NewRegion struct {
	Name     string
	Geometry models.Polygon
}

func validateName(name string) (string, error) {
	name = normalize.Text(name)
	if len(name) < models.RegionNameMin || len(name) > models.RegionNameMax {
		return "", apperr.Newf(apperr.BadRequest, "region name must be %d-%d characters",
			models.RegionNameMin, models.RegionNameMax)
	}
	return name, nil
}

// Create inserts a region owned by ownerID. The owner lookup, the push onto
// the owner's regions list, and the region insert share one transaction;
// if any step fails nothing survives. On deployments without transaction
// support (txn.IsNotSupported) it falls back to compensating writes: the
// owner-list push goes first as intent, then the insert, and a failed insert
// pulls the intent back out. That ordering can briefly leave a dangling id
// on the owner after a crash, but never an orphan region, and a dangling id
// is cheap to reconcile against the regions collection.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, in NewRegion) (models.Region, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return models.Region{}, err
	}
	if err := in.Geometry.Validate(); err != nil {
		return models.Region{}, apperr.Wrap(apperr.BadRequest, "invalid geometry: "+err.Error(), err)
	}

	now := time.Now().UTC()
	region := models.Region{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		UserID:    ownerID,
		Geometry:  in.Geometry,
		CreatedAt: now,
		UpdatedAt: now,
	}

	create := func(c context.Context) error {
		if err := s.pushOwnerRef(c, ownerID, region.ID); err != nil {
			return err
		}
		if _, err := s.c.InsertOne(c, region); err != nil {
			return err
		}
		return nil
	}

	err = txn.WithTransaction(ctx, s.client, func(sc mongo.SessionContext) error {
		return create(sc)
	})
	if err != nil && txn.IsNotSupported(err) {
		err = s.createCompensating(ctx, ownerID, region)
	}
	if err != nil {
		return models.Region{}, err
	}
	return region, nil
}

// pushOwnerRef appends regionID to the owner's list, failing NotFound when
// the owner does not exist.
func (s *Store) pushOwnerRef(ctx context.Context, ownerID, regionID primitive.ObjectID) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{
			"$push": bson.M{"regions": regionID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "User not found")
	}
	return nil
}

// createCompensating is the no-transaction fallback for Create.
func (s *Store) createCompensating(ctx context.Context, ownerID primitive.ObjectID, region models.Region) error {
	if err := s.pushOwnerRef(ctx, ownerID, region.ID); err != nil {
		return err
	}
	if _, err := s.c.InsertOne(ctx, region); err != nil {
		// Roll the intent back; best effort, a leftover id is reconcilable.
		_, _ = s.users.UpdateOne(ctx,
			bson.M{"_id": ownerID},
			bson.M{"$pull": bson.M{"regions": region.ID}})
		return err
	}
	return nil
}

// GetByID loads a region.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Region, error) {
	var r models.Region
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "region not found")
		}
		return nil, err
	}
	return &r, nil
}

// List returns one page of all regions, sorted by name.
func (s *Store) List(ctx context.Context, p paging.Params) (paging.Page[models.Region], error) {
	if p.SortBy == "" {
		p.SortBy = "name_ci"
		p.SortDir = 1
	}
	return paging.Find[models.Region](ctx, s.c, p)
}

// ListByOwner returns one page of ownerID's regions in creation order.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, p paging.Params) (paging.Page[models.Region], error) {
	p.Filter = bson.M{"user_id": ownerID}
	return paging.Find[models.Region](ctx, s.c, p)
}

// Update is a partial update of name and/or geometry. The owner reference is
// immutable after creation and regions never geocode.
type Update struct {
	Name     *string
	Geometry *models.Polygon
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{}
	if upd.Name != nil {
		name, err := validateName(*upd.Name)
		if err != nil {
			return err
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Geometry != nil {
		if err := upd.Geometry.Validate(); err != nil {
			return apperr.Wrap(apperr.BadRequest, "invalid geometry: "+err.Error(), err)
		}
		set["geometry"] = *upd.Geometry
	}
	if len(set) == 0 {
		return nil
	}
	set["updated_at"] = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "region not found")
	}
	return nil
}

// Delete removes the region and pulls its id from the owner's list in the
// same scope. The no-transaction fallback deletes the region first and then
// pulls the reference, mirroring Create's choice: a dangling owner reference
// is tolerated momentarily, a referenced-but-missing region is not left
// behind on the success path, and an owner already deleted is not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	region, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	del := func(c context.Context) error {
		res, err := s.c.DeleteOne(c, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return apperr.New(apperr.NotFound, "region not found")
		}
		// Owner may have been deleted already; a zero-match pull is fine.
		_, err = s.users.UpdateOne(c,
			bson.M{"_id": region.UserID},
			bson.M{
				"$pull": bson.M{"regions": id},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			})
		return err
	}

	err = txn.WithTransaction(ctx, s.client, func(sc mongo.SessionContext) error {
		return del(sc)
	})
	if err != nil && txn.IsNotSupported(err) {
		return del(ctx)
	}
	return err
}
