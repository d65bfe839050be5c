// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to this service lives: the Mongo
// connection, the voter-session signing key, the push notification VAPID
// pair, and the endpoints of the verification/travel collaborators.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Anonymous voter session cookie
	SessionKey string // Secret key for signing the session cookie (must be strong in production)

	// Web Push (VAPID) configuration. Empty keys disable push delivery;
	// notification sends become logged no-ops.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string // Contact mailto/URL reported to push services

	// Verification collaborators (ML services). Empty URLs disable the
	// corresponding check; the pipeline degrades to its documented fallback.
	PriorityURL   string // Priority classification service base URL
	TextDedupURL  string // Text dedup service base URL
	ImageDedupURL string // Image dedup service base URL

	// Travel-time matrix provider (LocationIQ-compatible). An empty API key
	// disables travel ranking; forwarding falls back to straight-line order.
	TravelBaseURL string
	TravelAPIKey  string
}
