package metrics

import (
	apphttp "sdrsolar/internal/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Module exposes the registered metrics on GET /metrics. It isn't gated
// by webhook auth or CORS since it's meant for an internal scraper, not
// a browser or the messaging gateway.
type Module struct {
	reg *Registry
}

// NewModule builds the metrics HTTP module around an already-constructed
// Registry, so every counter the background loops increment is the one
// actually served.
func NewModule(reg *Registry) *Module {
	return &Module{reg: reg}
}

func (m *Module) Name() string {
	return "metrics"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	handler := gin.WrapH(promhttp.HandlerFor(m.reg.Gatherer(), promhttp.HandlerOpts{}))
	ctx.Engine.GET("/metrics", handler)
}

var _ apphttp.Module = (*Module)(nil)
