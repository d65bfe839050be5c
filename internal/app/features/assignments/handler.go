// internal/app/features/assignments/handler.go
package assignments

import (
	"github.com/rashikacodes/pulstrix/internal/app/system/dispatch"
	"go.uber.org/zap"
)

// Handler owns the assignment handlers: responder→employee handoff and the
// employee's accept/reject/pass response.
type Handler struct {
	Dispatch *dispatch.Engine
	Log      *zap.Logger
}

// NewHandler constructs an assignments Handler.
func NewHandler(engine *dispatch.Engine, logger *zap.Logger) *Handler {
	return &Handler{Dispatch: engine, Log: logger}
}
