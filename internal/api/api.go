package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/steliosk/authpool/internal/credential"
	"github.com/steliosk/authpool/internal/dispatcher"
	"github.com/steliosk/authpool/internal/failover"
	"github.com/steliosk/authpool/internal/metrics"
	"github.com/steliosk/authpool/internal/registry"
)

// API is the configuration and statistics surface. It never hands out live
// registry state; everything it returns is a snapshot or a copy.
type API struct {
	logger     *slog.Logger
	store      *credential.Store
	registry   *registry.Registry
	dispatcher *dispatcher.Dispatcher
	failover   *failover.Controller
	collector  *metrics.Collector
	authToken  string
}

// New wires the API over the core components. authToken empty leaves the
// surface open; otherwise every endpoint requires the token.
func New(
	logger *slog.Logger,
	store *credential.Store,
	reg *registry.Registry,
	disp *dispatcher.Dispatcher,
	fo *failover.Controller,
	collector *metrics.Collector,
	authToken string,
) *API {
	return &API{
		logger:     logger,
		store:      store,
		registry:   reg,
		dispatcher: disp,
		failover:   fo,
		collector:  collector,
		authToken:  authToken,
	}
}

// Register mounts every route on the engine.
func (a *API) Register(r *gin.Engine) {
	r.Use(gin.Recovery(), a.requestLogger(), a.requireAuth())

	cfg := r.Group("/api/config")
	{
		cfg.GET("/credentials", a.listCredentials)
		cfg.POST("/credentials", a.uploadCredential)
		cfg.DELETE("/credentials/:name", a.deleteCredential)
		cfg.POST("/rescan", a.rescan)
		cfg.GET("/strategy", a.getStrategy)
		cfg.POST("/strategy", a.setStrategy)
		cfg.GET("/slots", a.listSlots)
		cfg.POST("/slots/:id/enabled", a.setSlotEnabled)
	}

	r.GET("/api/stats", a.getStats)
	r.GET("/metrics", a.getMetrics)
}
