// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for RegionHub, loaded via
// WAFFLE's config system: config files (mongo_uri, …), environment
// variables (REGIONHUB_MONGO_URI, …), or flags (--mongo_uri, …).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "regionhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "mongo_reconnect_initial", Default: "500ms", Desc: "Initial delay between reconnect attempts"},
	{Name: "mongo_reconnect_max", Default: "30s", Desc: "Maximum delay between reconnect attempts"},

	{Name: "geocoder_base_url", Default: "", Desc: "Geocoding provider base URL"},
	{Name: "geocoder_api_key", Default: "", Desc: "Geocoding provider API key"},
	{Name: "geocoder_timeout", Default: "5s", Desc: "Per-request geocoding provider timeout"},

	{Name: "signup_rate_limit", Default: 10, Desc: "Signup requests allowed per IP per window"},
	{Name: "signup_rate_window", Default: "1m", Desc: "Signup rate limit window"},
	{Name: "reconcile_interval", Default: "5m", Desc: "Interval between dangling region reference sweeps"},
}

// LoadConfig loads the core and app configuration.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "REGIONHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		MongoReconnectInitial: appValues.Duration("mongo_reconnect_initial", 500*time.Millisecond),
		MongoReconnectMax:     appValues.Duration("mongo_reconnect_max", 30*time.Second),

		GeocoderBaseURL: appValues.String("geocoder_base_url"),
		GeocoderAPIKey:  appValues.String("geocoder_api_key"),
		GeocoderTimeout: appValues.Duration("geocoder_timeout", 5*time.Second),

		SignupRateLimit:  appValues.Int("signup_rate_limit"),
		SignupRateWindow: appValues.Duration("signup_rate_window", time.Minute),

		ReconcileInterval: appValues.Duration("reconcile_interval", 5*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig enforces config invariants before anything connects:
// a parseable Mongo URI and, outside dev, a configured geocoding provider.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.GeocoderBaseURL == "" {
		return fmt.Errorf("geocoder_base_url must be set")
	}
	if coreCfg.Env != "dev" && appCfg.GeocoderAPIKey == "" {
		return fmt.Errorf("geocoder_api_key must be set outside dev")
	}

	return nil
}
