// internal/app/features/users/routes.go
package users

import (
	"net/http"

	regionsfeature "github.com/dalemusser/regionhub/internal/app/features/regions"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /users subrouter. Signup is open but rate limited;
// everything else sits behind the API-key middleware.
func Routes(h *Handler, rh *regionsfeature.Handler, requireKey, signupLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(signupLimit).Post("/", h.Create)

	r.Group(func(r chi.Router) {
		r.Use(requireKey)
		r.Get("/", h.List)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Patch)
			r.Delete("/", h.Delete)
			r.Post("/api-key", h.RegenerateKey)
			r.Post("/regions", rh.CreateForUser)
			r.Get("/regions", rh.ListByOwner)
		})
	})

	return r
}
