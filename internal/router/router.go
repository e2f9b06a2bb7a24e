package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	apiHandler "github.com/spotsync/backend/api/handler"
)

type Handlers struct {
	Facility *apiHandler.FacilityHandler
	Admin    *apiHandler.AdminHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, registry *prometheus.Registry) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.GET("/api/v1/facilities/search", handlers.Facility.Search)
	r.GET("/api/v1/facilities/stats", handlers.Facility.Stats)
	r.GET("/api/v1/facilities/{externalId}", handlers.Facility.Get)

	// Operator routes; protect at the network layer.
	r.POST("/api/v1/admin/reindex", handlers.Admin.Reindex)
	r.POST("/api/v1/admin/collect", handlers.Admin.Collect)
	r.DELETE("/api/v1/admin/cache", handlers.Admin.EvictCache)
	r.DELETE("/api/v1/admin/facilities", handlers.Admin.DeleteFacility)

	if registry != nil {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return r
}
