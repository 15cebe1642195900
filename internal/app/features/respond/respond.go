// internal/app/features/respond/respond.go

// Package respond writes the API's JSON responses and maps store errors to
// HTTP statuses in one place.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/regionhub/internal/app/system/apperr"
	"github.com/dalemusser/regionhub/internal/app/system/requestid"
	"go.uber.org/zap"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error shape.
type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// Error maps err through the apperr taxonomy. Classified errors pass their
// message to the client; anything else is logged in full and answered with a
// generic 500 body.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.Error("unhandled error",
			zap.String("request_id", requestid.FromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	JSON(w, kind.Status(), errorBody{
		Error:     apperr.Message(err),
		Kind:      kind.String(),
		RequestID: requestid.FromContext(r.Context()),
	})
}

// Status answers a bare {"status": ...} body, used by update and delete.
func Status(w http.ResponseWriter, status int, text string) {
	JSON(w, status, map[string]string{"status": text})
}
