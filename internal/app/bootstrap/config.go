// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/rashikacodes/pulstrix/internal/app/system/travel"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Pulstrix.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, vapid_public_key, etc.
//   - Environment variables: PULSTRIX_MONGO_URI, PULSTRIX_VAPID_PUBLIC_KEY, etc.
//   - Command-line flags: --mongo_uri, --vapid_public_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "pulstrix", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Voter session signing key (must be strong in production)"},

	// Web Push (VAPID)
	{Name: "vapid_public_key", Default: "", Desc: "VAPID public key for Web Push (empty disables push)"},
	{Name: "vapid_private_key", Default: "", Desc: "VAPID private key for Web Push"},
	{Name: "vapid_subscriber", Default: "mailto:ops@pulstrix.dev", Desc: "Contact reported to push services"},

	// Verification collaborators
	{Name: "priority_url", Default: "", Desc: "Priority classification service base URL (empty disables, keyword fallback applies)"},
	{Name: "text_dedup_url", Default: "", Desc: "Text dedup service base URL (empty disables text dedup)"},
	{Name: "image_dedup_url", Default: "", Desc: "Image dedup service base URL (empty disables image dedup)"},

	// Travel-time matrix provider
	{Name: "travel_base_url", Default: travel.DefaultBaseURL, Desc: "Travel matrix provider base URL"},
	{Name: "travel_api_key", Default: "", Desc: "Travel matrix API key (empty disables travel ranking)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PULSTRIX_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PULSTRIX", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey: appValues.String("session_key"),

		VAPIDPublicKey:  appValues.String("vapid_public_key"),
		VAPIDPrivateKey: appValues.String("vapid_private_key"),
		VAPIDSubscriber: appValues.String("vapid_subscriber"),

		PriorityURL:   appValues.String("priority_url"),
		TextDedupURL:  appValues.String("text_dedup_url"),
		ImageDedupURL: appValues.String("image_dedup_url"),

		TravelBaseURL: appValues.String("travel_base_url"),
		TravelAPIKey:  appValues.String("travel_api_key"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
//
// Pulstrix validates the MongoDB URI format to catch configuration errors
// early, and requires the VAPID pair to be set together: a half-configured
// push setup would fail on every send.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if (appCfg.VAPIDPublicKey == "") != (appCfg.VAPIDPrivateKey == "") {
		return fmt.Errorf("vapid_public_key and vapid_private_key must be set together")
	}
	if appCfg.VAPIDPublicKey == "" {
		logger.Warn("VAPID keys not configured; push notifications disabled")
	}

	if appCfg.PriorityURL == "" {
		logger.Warn("priority_url not configured; severity will use the keyword heuristic")
	}
	if appCfg.TextDedupURL == "" && appCfg.ImageDedupURL == "" {
		logger.Warn("no dedup services configured; duplicate reports will not be merged")
	}

	return nil
}
