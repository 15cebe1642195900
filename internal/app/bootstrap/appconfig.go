// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers framework-level settings (HTTP ports, TLS,
// logging level, request limits); AppConfig is everything specific to
// RegionHub. Values come from config files, REGIONHUB_* environment
// variables, or command-line flags, loaded in LoadConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Reconnect backoff tuning for the connection manager.
	MongoReconnectInitial time.Duration
	MongoReconnectMax     time.Duration

	// Geocoding provider configuration. The key is opaque to the core and
	// validated only for presence outside dev.
	GeocoderBaseURL string
	GeocoderAPIKey  string
	GeocoderTimeout time.Duration

	// Per-IP rate limit on the open signup endpoint.
	SignupRateLimit  int
	SignupRateWindow time.Duration

	// How often the background worker sweeps dangling region references.
	ReconcileInterval time.Duration
}
