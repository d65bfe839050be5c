// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	assignmentsfeature "github.com/rashikacodes/pulstrix/internal/app/features/assignments"
	employeesfeature "github.com/rashikacodes/pulstrix/internal/app/features/employees"
	forwardingfeature "github.com/rashikacodes/pulstrix/internal/app/features/forwarding"
	healthfeature "github.com/rashikacodes/pulstrix/internal/app/features/health"
	notificationsfeature "github.com/rashikacodes/pulstrix/internal/app/features/notifications"
	reportsfeature "github.com/rashikacodes/pulstrix/internal/app/features/reports"
	respondersfeature "github.com/rashikacodes/pulstrix/internal/app/features/responders"
	employeestore "github.com/rashikacodes/pulstrix/internal/app/store/employees"
	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	responderstore "github.com/rashikacodes/pulstrix/internal/app/store/responders"
	subscriptionstore "github.com/rashikacodes/pulstrix/internal/app/store/subscriptions"
	"github.com/rashikacodes/pulstrix/internal/app/system/dispatch"
	"github.com/rashikacodes/pulstrix/internal/app/system/match"
	"github.com/rashikacodes/pulstrix/internal/app/system/mlclient"
	"github.com/rashikacodes/pulstrix/internal/app/system/notify"
	"github.com/rashikacodes/pulstrix/internal/app/system/travel"
	"github.com/rashikacodes/pulstrix/internal/app/system/verify"
	"github.com/rashikacodes/pulstrix/internal/app/system/votersession"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Pulstrix builds the stores, the matching/dispatch engines, the
// verification pipeline, and the push notifier here, then mounts the JSON
// API feature routers under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Stores
	reports := reportstore.New(db)
	responders := responderstore.New(db)
	employees := employeestore.New(db)
	subscriptions := subscriptionstore.New(db)

	// Anonymous voter session cookie. Secure cookies in production.
	sessions := votersession.NewManager(appCfg.SessionKey, coreCfg.Env == "prod", logger)

	// Push notifications; empty VAPID keys turn sends into logged no-ops.
	notifier := notify.New(subscriptions, appCfg.VAPIDPublicKey, appCfg.VAPIDPrivateKey, appCfg.VAPIDSubscriber, logger)

	// Collaborator clients
	ml := mlclient.New(mlclient.Config{
		PriorityURL:   appCfg.PriorityURL,
		TextDedupURL:  appCfg.TextDedupURL,
		ImageDedupURL: appCfg.ImageDedupURL,
	}, nil, logger)
	travelClient := travel.New(appCfg.TravelBaseURL, appCfg.TravelAPIKey, nil, logger)

	// Engines
	matcher := match.NewEngine(responders, reports, logger)
	engine := dispatch.NewEngine(reports, responders, employees, travelClient, notifier, logger)
	verifier := verify.NewRunner(reports, ml, matcher, notifier, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	reportsHandler := reportsfeature.NewHandler(reports, engine, verifier, sessions, logger)
	forwardingHandler := forwardingfeature.NewHandler(engine, logger)
	assignmentsHandler := assignmentsfeature.NewHandler(engine, logger)
	respondersHandler := respondersfeature.NewHandler(responders, employees, logger)
	employeesHandler := employeesfeature.NewHandler(employees, reports, logger)
	notificationsHandler := notificationsfeature.NewHandler(subscriptions, logger)

	r.Route("/api", func(api chi.Router) {
		api.Route("/reports", func(rr chi.Router) {
			reportsHandler.MountRoutes(rr)
			forwardingHandler.MountRoutes(rr)
		})
		api.Route("/assignments", assignmentsHandler.MountRoutes)
		api.Route("/responders", func(rr chi.Router) {
			respondersHandler.MountRoutes(rr)
			employeesHandler.MountResponderRoutes(rr)
		})
		api.Route("/employees", employeesHandler.MountEmployeeRoutes)
		api.Route("/notifications", notificationsHandler.MountRoutes)
	})

	logger.Info("HTTP handler built",
		zap.Bool("push_enabled", appCfg.VAPIDPublicKey != ""),
		zap.Bool("travel_ranking", travelClient.Configured()))
	return r, nil
}
