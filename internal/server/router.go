package server

import (
	"net/http"
	"net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/echoface/mediation-adapter/internal/config"
)

// NewRouter wires the middleware chain and every route.
func NewRouter(appCtx *AppContext) *gin.Engine {
	cfg := appCtx.Config

	r := gin.New()
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(config.ServiceName, otelgin.WithTracerProvider(appCtx.TracerProvider)),
		RequestLogger(appCtx.Logger),
	)
	if cfg.Monitoring.Prometheus.Enabled {
		r.Use(PrometheusMetrics(appCtx.HTTPMetrics))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "mediation adapter server is running",
			"version": Version,
			"healthy": appCtx.IsApplicationHealthy(),
		})
	})

	if cfg.Monitoring.HealthCheck.Enabled {
		hh := NewHealthHandler(appCtx)
		base := cfg.Monitoring.HealthCheck.Endpoint
		r.GET(base, hh.HealthCheck)
		r.GET(base+"/live", hh.LivenessProbe)
		r.GET(base+"/ready", hh.ReadinessProbe)
	}
	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.HandlerFor(appCtx.Registry, promhttp.HandlerOpts{})))
	}
	if cfg.EnablePprof {
		registerPprof(r)
	}

	ah := NewAdapterHandler(appCtx)
	v1 := r.Group("/v1")
	v1.GET("/partners", ah.Partners)
	v1.GET("/bidder-info", ah.BidderInfo)

	partner := v1.Group("/:partner", ah.ResolvePartner)
	partner.POST("/setup", ah.Setup)
	partner.POST("/load", ah.Load)
	partner.POST("/show", ah.Show)
	partner.POST("/invalidate", ah.Invalidate)
	partner.POST("/consent", ah.Consent)
	partner.GET("/ads/:id/events", ah.Events)

	return r
}

func registerPprof(r *gin.Engine) {
	g := r.Group("/debug/pprof")
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.GET("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	g.GET("/:name", func(c *gin.Context) {
		pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
	})
}
