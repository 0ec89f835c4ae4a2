package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"calibration-backend/internal/cache"
	"calibration-backend/internal/mw"
	"calibration-backend/internal/observability"
)

// RouterConfig carries the middleware dependencies of NewRouter.
type RouterConfig struct {
	RateLimit rate.Limit
	Burst     int
	Cache     cache.Store
	CacheTTL  time.Duration
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.AccessLog(cfg.Logger), mw.Metrics(cfg.Metrics))

	r.GET("/healthz", h.Healthz)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/")
	api.Use(mw.RateLimiter(cfg.RateLimit, cfg.Burst))
	if cfg.Cache != nil {
		api.Use(mw.Cache(cfg.Cache, cfg.CacheTTL, cfg.Logger))
	}
	{
		api.POST("/instruments", h.CreateInstrument)
		api.GET("/instruments", h.ListInstruments)
		api.GET("/instruments/unique", h.UniqueInstruments)
		api.GET("/instruments/:id", h.GetInstrument)
		api.PATCH("/instruments/:id", h.UpdateInstrument)
		api.DELETE("/instruments/:number", h.DeleteInstrument)
		api.POST("/instruments/:id/status", h.SetStatus)
		api.POST("/instruments/:id/complete", h.CompleteCycle)
		api.POST("/instruments/:id/close", h.CloseCycle)
		api.GET("/instruments/:id/history", h.InstrumentHistory)

		api.GET("/compliance/counts", h.ComplianceCounts)
		api.GET("/history", h.History)
	}

	return r
}
