// internal/app/features/reports/handler.go
package reports

import (
	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	"github.com/rashikacodes/pulstrix/internal/app/system/dispatch"
	"github.com/rashikacodes/pulstrix/internal/app/system/verify"
	"github.com/rashikacodes/pulstrix/internal/app/system/votersession"
	"go.uber.org/zap"
)

// Handler owns all report handlers: submission, feed, status override and
// community voting.
type Handler struct {
	Store    *reportstore.Store
	Dispatch *dispatch.Engine
	Verifier *verify.Runner
	Sessions *votersession.Manager
	Log      *zap.Logger
}

// NewHandler constructs a reports Handler.
func NewHandler(store *reportstore.Store, engine *dispatch.Engine, verifier *verify.Runner, sessions *votersession.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    store,
		Dispatch: engine,
		Verifier: verifier,
		Sessions: sessions,
		Log:      logger,
	}
}
