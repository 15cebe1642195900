// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/regionhub/internal/app/features/health"
	regionsfeature "github.com/dalemusser/regionhub/internal/app/features/regions"
	usersfeature "github.com/dalemusser/regionhub/internal/app/features/users"
	regionstore "github.com/dalemusser/regionhub/internal/app/store/regions"
	userstore "github.com/dalemusser/regionhub/internal/app/store/users"
	"github.com/dalemusser/regionhub/internal/app/system/auth"
	"github.com/dalemusser/regionhub/internal/app/system/limits"
	"github.com/dalemusser/regionhub/internal/app/system/ratelimit"
	"github.com/dalemusser/regionhub/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler. WAFFLE calls this after
// configuration, DB connection, schema setup, and Startup have completed.
//
// Stores get the Mongo database and the geocoder by constructor injection;
// the API-key middleware closes over the user store so authentication and
// user lookup happen in one query.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	users := userstore.New(deps.Database, deps.Geocoder)
	regions := regionstore.New(deps.Database)

	usersHandler := usersfeature.NewHandler(users, logger)
	regionsHandler := regionsfeature.NewHandler(regions, logger)
	healthHandler := healthfeature.NewHandler(deps.Mongo, logger)

	requireKey := auth.RequireAPIKey(users, logger)
	signupLimit := ratelimit.Middleware(ratelimit.New(appCfg.SignupRateLimit, appCfg.SignupRateWindow))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(limits.MaxBody(limits.MaxJSONBody))

	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Mount("/users", usersfeature.Routes(usersHandler, regionsHandler, requireKey, signupLimit))
	r.Mount("/regions", regionsfeature.Routes(regionsHandler, requireKey))

	return r, nil
}
