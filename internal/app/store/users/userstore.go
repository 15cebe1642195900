// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/regionhub/internal/app/system/apikey"
	"github.com/dalemusser/regionhub/internal/app/system/apperr"
	"github.com/dalemusser/regionhub/internal/app/system/geocode"
	"github.com/dalemusser/regionhub/internal/app/system/normalize"
	"github.com/dalemusser/regionhub/internal/app/system/paging"
	"github.com/dalemusser/regionhub/internal/app/system/txn"
	"github.com/dalemusser/regionhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store provides user persistence. The geocoder is injected so tests can
// substitute a fake; the store never reaches for global state.
type Store struct {
	c       *mongo.Collection
	regions *mongo.Collection
	client  *mongo.Client
	geo     geocode.Resolver
}

func New(db *mongo.Database, geo geocode.Resolver) *Store {
	return &Store{
		c:       db.Collection("users"),
		regions: db.Collection("regions"),
		client:  db.Client(),
		geo:     geo,
	}
}

// NewUser is the input for Create. Exactly one of Address and Coordinates
// must be set; Coordinates accepts any of the shapes geocode.ParsePoint
// understands.
type NewUser struct {
	Name        string
	Email       string
	Address     string
	Coordinates any
}

// Create inserts a new user. The side of the location the caller supplied is
// resolved through the geocoder and the other side derived before anything
// is written, so a failed lookup persists nothing. The returned string is
// the raw API key; it is handed out exactly once and only its hash is
// stored.
func (s *Store) Create(ctx context.Context, in NewUser) (models.User, string, error) {
	name := normalize.Text(in.Name)
	email := normalize.Email(in.Email)
	if name == "" {
		return models.User{}, "", apperr.New(apperr.BadRequest, "name is required")
	}
	if email == "" {
		return models.User{}, "", apperr.New(apperr.BadRequest, "email is required")
	}

	u := models.User{
		Name:    name,
		NameCI:  text.Fold(name),
		Email:   email,
		Regions: []primitive.ObjectID{},
	}

	hasAddr := normalize.Text(in.Address) != ""
	hasCoords := in.Coordinates != nil
	switch {
	case hasAddr && hasCoords:
		return models.User{}, "", apperr.New(apperr.BadRequest, "supply address or coordinates, not both")
	case !hasAddr && !hasCoords:
		return models.User{}, "", apperr.New(apperr.BadRequest, "either address or coordinates is required")
	case hasAddr:
		res, err := s.geo.ResolveAddress(ctx, normalize.Text(in.Address))
		if err != nil {
			return models.User{}, "", classifyGeocode(err)
		}
		applyResult(&u, res)
	default:
		p, err := geocode.ParsePoint(in.Coordinates)
		if err != nil {
			return models.User{}, "", classifyGeocode(err)
		}
		res, err := s.geo.ResolveCoordinates(ctx, p)
		if err != nil {
			return models.User{}, "", classifyGeocode(err)
		}
		applyResult(&u, res)
	}

	rawKey, err := apikey.Generate()
	if err != nil {
		return models.User{}, "", err
	}
	u.APIKeyHash = apikey.Hash(rawKey)

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, "", apperr.New(apperr.Conflict, "a user with this email already exists")
		}
		return models.User{}, "", err
	}
	return u, rawKey, nil
}

// applyResult writes the geocoder's normalized answer onto both location
// fields, keeping address and coordinates describing the same place.
func applyResult(u *models.User, res geocode.Result) {
	u.Address = res.Address
	loc := models.NewPoint(res.Point.Lng, res.Point.Lat)
	u.Location = &loc
}

// classifyGeocode translates geocoder failures into the error taxonomy:
// coordinate shapes the caller got wrong and lookups the provider answered
// negatively are the caller's problem (400-class); a provider we cannot
// reach is ours (503).
func classifyGeocode(err error) error {
	if errors.Is(err, geocode.ErrInvalidPoint) {
		return apperr.Wrap(apperr.BadRequest, err.Error(), err)
	}
	var gerr *geocode.Error
	if errors.As(err, &gerr) {
		if gerr.Status != "" {
			return apperr.Wrap(apperr.BadRequest, "address could not be resolved: "+gerr.Status, err)
		}
		return apperr.Wrap(apperr.ServiceUnavailable, "geocoding provider unreachable", err)
	}
	return err
}

// Update is a partial update. Nil fields are left alone. Location changes go
// through maybeGeocode first, so the derived side is computed before the
// single UpdateOne and a geocoder failure aborts the save with nothing
// partially applied.
type Update struct {
	Name        *string
	Email       *string
	Address     *string
	Coordinates any
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	set := bson.M{}
	if upd.Name != nil {
		name := normalize.Text(*upd.Name)
		if name == "" {
			return apperr.New(apperr.BadRequest, "name cannot be empty")
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Email != nil {
		email := normalize.Email(*upd.Email)
		if email == "" {
			return apperr.New(apperr.BadRequest, "email cannot be empty")
		}
		set["email"] = email
	}

	if err := s.maybeGeocode(ctx, u, upd, set); err != nil {
		return err
	}

	if len(set) == 0 {
		return nil
	}
	set["updated_at"] = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.New(apperr.Conflict, "a user with this email already exists")
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

// maybeGeocode is the consistency step for updates: when the address
// changed, coordinates are re-derived; when coordinates changed, the address
// is. Changing both in one request is rejected since there is no way to
// tell which side is authoritative.
func (s *Store) maybeGeocode(ctx context.Context, current *models.User, upd Update, set bson.M) error {
	hasAddr := upd.Address != nil
	hasCoords := upd.Coordinates != nil

	switch {
	case hasAddr && hasCoords:
		return apperr.New(apperr.BadRequest, "supply address or coordinates, not both")

	case hasAddr:
		addr := normalize.Text(*upd.Address)
		if addr == "" {
			return apperr.New(apperr.BadRequest, "address cannot be empty")
		}
		if addr == current.Address {
			return nil
		}
		res, err := s.geo.ResolveAddress(ctx, addr)
		if err != nil {
			return classifyGeocode(err)
		}
		set["address"] = res.Address
		set["location"] = models.NewPoint(res.Point.Lng, res.Point.Lat)

	case hasCoords:
		p, err := geocode.ParsePoint(upd.Coordinates)
		if err != nil {
			return classifyGeocode(err)
		}
		res, err := s.geo.ResolveCoordinates(ctx, p)
		if err != nil {
			return classifyGeocode(err)
		}
		set["address"] = res.Address
		set["location"] = models.NewPoint(res.Point.Lng, res.Point.Lat)
	}
	return nil
}

// GetByID loads a user.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

// GetByAPIKey resolves a raw bearer key to its user. Lookup is by digest;
// the raw key never touches the database.
func (s *Store) GetByAPIKey(ctx context.Context, rawKey string) (*models.User, error) {
	if rawKey == "" {
		return nil, apperr.New(apperr.Unauthorized, "missing API key")
	}
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"api_key_hash": apikey.Hash(rawKey)}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.Unauthorized, "invalid API key")
		}
		return nil, err
	}
	// Digest lookup already proved the key; Verify keeps the comparison
	// constant-time should the lookup path ever change.
	if !apikey.Verify(rawKey, u.APIKeyHash) {
		return nil, apperr.New(apperr.Unauthorized, "invalid API key")
	}
	return &u, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Name  string // case-insensitive prefix
	Email string // exact, case-insensitive
}

// List returns one page of users, sorted by name.
func (s *Store) List(ctx context.Context, p paging.Params, f ListFilter) (paging.Page[models.User], error) {
	filter := bson.M{}
	if f.Name != "" {
		filter["name_ci"] = bson.M{"$regex": "^" + text.Fold(f.Name)}
	}
	if f.Email != "" {
		filter["email"] = normalize.Email(f.Email)
	}
	p.Filter = filter
	if p.SortBy == "" {
		p.SortBy = "name_ci"
		p.SortDir = 1
	}
	return paging.Find[models.User](ctx, s.c, p)
}

// RegenerateKey replaces the user's credential and returns the new raw key,
// again exactly once.
func (s *Store) RegenerateKey(ctx context.Context, id primitive.ObjectID) (string, error) {
	rawKey, err := apikey.Generate()
	if err != nil {
		return "", err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"api_key_hash": apikey.Hash(rawKey),
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", apperr.New(apperr.NotFound, "user not found")
	}
	return rawKey, nil
}

// Delete removes the user and every region it owns. Both run in one
// transaction where the deployment supports it; on standalone servers the
// regions go first so no region document can outlive its owner's existence
// check.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	del := func(c context.Context) error {
		if _, err := s.regions.DeleteMany(c, bson.M{"user_id": id}); err != nil {
			return err
		}
		res, err := s.c.DeleteOne(c, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return nil
	}

	err := txn.WithTransaction(ctx, s.client, func(sc mongo.SessionContext) error {
		return del(sc)
	})
	if err != nil && txn.IsNotSupported(err) {
		return del(ctx)
	}
	return err
}
