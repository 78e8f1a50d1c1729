package webhook

import (
	apphttp "sdrsolar/internal/http"
	"sdrsolar/platform/logger"
	"sdrsolar/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module.
func NewModule(orchestrator Orchestrator, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(orchestrator, val, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the webhook route on the shared, already
// API-key-gated /api/v1/webhook group (see internal/http/router.New).
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhook.POST("/gateway", m.handler.HandleGatewayEvent)
}

var _ apphttp.Module = (*Module)(nil)
