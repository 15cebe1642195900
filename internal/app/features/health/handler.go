// internal/app/features/health/handler.go
package health

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/regionhub/internal/app/system/dbconn"
	"github.com/dalemusser/regionhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler serves the health endpoint off the connection manager, so the
// report reflects the manager's view of the database as well as a live ping.
type Handler struct {
	DB  *dbconn.Manager
	Log *zap.Logger
}

func NewHandler(db *dbconn.Manager, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 {"status":"ok","database":"connected"}.
// On DB failure: 503 with the connection state and error.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.Log, "health ping")
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	client, err := h.DB.Client()
	if err == nil {
		err = client.Ping(ctx, readpref.Primary())
	}
	if err != nil {
		h.Log.Error("health-check: mongo unavailable", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:   "error",
			Database: h.DB.State().String(),
			Error:    err.Error(),
		})
		return
	}

	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Database: "connected"})
}
