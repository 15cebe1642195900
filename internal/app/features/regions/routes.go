// internal/app/features/regions/routes.go
package regions

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /regions subrouter; all of it requires an API key.
// The user-scoped create/list routes live under /users and are mounted by
// the users feature.
func Routes(h *Handler, requireKey func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireKey)

	r.Get("/", h.List)
	r.Route("/{regionID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Patch)
		r.Delete("/", h.Delete)
	})

	return r
}
