// internal/app/features/users/handler.go
package users

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/regionhub/internal/app/features/respond"
	"github.com/dalemusser/regionhub/internal/app/system/apperr"
	userstore "github.com/dalemusser/regionhub/internal/app/store/users"
	"github.com/dalemusser/regionhub/internal/app/system/paging"
	"github.com/dalemusser/regionhub/internal/app/system/timeouts"
	"github.com/dalemusser/regionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the /users endpoints.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, log *zap.Logger) *Handler {
	return &Handler{Users: users, Log: log}
}

// createRequest is the POST /users body. Coordinates stays raw so the store
// can accept every historical shape through geocode.ParsePoint.
type createRequest struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// createResponse carries the raw API key alongside the user; this is the
// only time the key is ever visible.
type createResponse struct {
	User   models.User `json:"user"`
	APIKey string      `json:"api_key"`
}

// Create handles POST /users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "user create")
	defer cancel()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.Log, apperr.New(apperr.BadRequest, "invalid JSON body"))
		return
	}

	in := userstore.NewUser{Name: req.Name, Email: req.Email, Address: req.Address}
	if len(req.Coordinates) > 0 {
		var coords any
		if err := json.Unmarshal(req.Coordinates, &coords); err != nil {
			respond.Error(w, r, h.Log, apperr.New(apperr.BadRequest, "invalid coordinates"))
			return
		}
		in.Coordinates = coords
	}

	u, rawKey, err := h.Users.Create(ctx, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, createResponse{User: u, APIKey: rawKey})
}

// Get handles GET /users/{userID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user get")
	defer cancel()

	id, err := pathID(r, "userID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user list")
	defer cancel()

	page, err := h.Users.List(ctx, paging.ParseRequest(r), userstore.ListFilter{
		Name:  query.Get(r, "name"),
		Email: query.Get(r, "email"),
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// updateRequest is the PATCH /users/{userID} body. Pointer fields
// distinguish "absent" from "set to empty".
type updateRequest struct {
	Name        *string         `json:"name"`
	Email       *string         `json:"email"`
	Address     *string         `json:"address"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Patch handles PATCH /users/{userID}.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "user update")
	defer cancel()

	id, err := pathID(r, "userID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.Log, apperr.New(apperr.BadRequest, "invalid JSON body"))
		return
	}

	upd := userstore.Update{Name: req.Name, Email: req.Email, Address: req.Address}
	if len(req.Coordinates) > 0 {
		var coords any
		if err := json.Unmarshal(req.Coordinates, &coords); err != nil {
			respond.Error(w, r, h.Log, apperr.New(apperr.BadRequest, "invalid coordinates"))
			return
		}
		upd.Coordinates = coords
	}

	if err := h.Users.Update(ctx, id, upd); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Status(w, http.StatusOK, "updated")
}

// Delete handles DELETE /users/{userID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "user delete")
	defer cancel()

	id, err := pathID(r, "userID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Status(w, http.StatusOK, "deleted")
}

// RegenerateKey handles POST /users/{userID}/api-key.
func (h *Handler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "api key regenerate")
	defer cancel()

	id, err := pathID(r, "userID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	rawKey, err := h.Users.RegenerateKey(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"api_key": rawKey})
}

// pathID reads an ObjectID URL parameter.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.BadRequest, "invalid id")
	}
	return id, nil
}
