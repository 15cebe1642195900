// internal/app/features/regions/handler.go
package regions

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/regionhub/internal/app/features/respond"
	regionstore "github.com/dalemusser/regionhub/internal/app/store/regions"
	"github.com/dalemusser/regionhub/internal/app/system/apperr"
	"github.com/dalemusser/regionhub/internal/app/system/paging"
	"github.com/dalemusser/regionhub/internal/app/system/timeouts"
	"github.com/dalemusser/regionhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the /regions endpoints plus the user-scoped region routes
// mounted by the users feature.
type Handler struct {
	Regions *regionstore.Store
	Log     *zap.Logger
}

func NewHandler(regions *regionstore.Store, log *zap.Logger) *Handler {
	return &Handler{Regions: regions, Log: log}
}

type createRequest struct {
	Name     string         `json:"name"`
	Geometry models.Polygon `json:"geometry"`
}

// CreateForUser handles POST /users/{userID}/regions. The owner comes from
// the route, never the body.
func (h *Handler) CreateForUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "region create")
	defer cancel()

	ownerID, err := pathID(r, "userID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.Log, apperr.New(apperr.BadRequest, "invalid JSON body"))
		return
	}

	region, err := h.Regions.Create(ctx, ownerID, regionstore.NewRegion{
		Name:     req.Name,
		Geometry: req.Geometry,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, region)
}

// Get handles GET /regions/{regionID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "region get")
	defer cancel()

	id, err := pathID(r, "regionID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	region, err := h.Regions.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, region)
}

// List handles GET /regions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "region list")
	defer cancel()

	page, err := h.Regions.List(ctx, paging.ParseRequest(r))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

// ListByOwner handles GET /users/{userID}/regions.
func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "region list by owner")
	defer cancel()

	ownerID, err := pathID(r, "userID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	page, err := h.Regions.ListByOwner(ctx, ownerID, paging.ParseRequest(r))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, page)
}

type updateRequest struct {
	Name     *string         `json:"name"`
	Geometry *models.Polygon `json:"geometry"`
}

// Patch handles PATCH /regions/{regionID}.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "region update")
	defer cancel()

	id, err := pathID(r, "regionID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.Log, apperr.New(apperr.BadRequest, "invalid JSON body"))
		return
	}

	if err := h.Regions.Update(ctx, id, regionstore.Update{
		Name:     req.Name,
		Geometry: req.Geometry,
	}); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Status(w, http.StatusOK, "updated")
}

// Delete handles DELETE /regions/{regionID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "region delete")
	defer cancel()

	id, err := pathID(r, "regionID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Regions.Delete(ctx, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Status(w, http.StatusOK, "deleted")
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.BadRequest, "invalid id")
	}
	return id, nil
}
