package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/echoface/mediation-adapter/internal/health"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	appCtx *AppContext

	healthCheckTotal    prometheus.Counter
	healthCheckDuration prometheus.Histogram
	lastHealthCheckTime prometheus.Gauge
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status     string                   `json:"status"`
	Timestamp  time.Time                `json:"timestamp"`
	Uptime     string                   `json:"uptime"`
	Version    string                   `json:"version,omitempty"`
	Components map[string]health.Status `json:"components,omitempty"`
	Checks     map[string]bool          `json:"checks,omitempty"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(appCtx *AppContext) *HealthHandler {
	factory := promauto.With(appCtx.Registry)
	return &HealthHandler{
		appCtx: appCtx,
		healthCheckTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "health_check_requests_total",
			Help: "Total number of health check requests",
		}),
		healthCheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "health_check_duration_seconds",
			Help:    "Duration of health checks",
			Buckets: prometheus.DefBuckets,
		}),
		lastHealthCheckTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "health_check_last_time_seconds",
			Help: "Unix timestamp of the last health check",
		}),
	}
}

// HealthCheck reports every partner and the process checks.
func (hh *HealthHandler) HealthCheck(c *gin.Context) {
	start := time.Now()
	defer func() {
		hh.healthCheckDuration.Observe(time.Since(start).Seconds())
		hh.lastHealthCheckTime.SetToCurrentTime()
		hh.healthCheckTotal.Inc()
	}()

	checks := map[string]bool{
		"alive":    hh.appCtx.IsApplicationHealthy(),
		"memory":   checkMemory(),
		"partners": hh.partnersHealthy(),
	}

	status, httpStatus := "healthy", http.StatusOK
	for _, ok := range checks {
		if !ok {
			status, httpStatus = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Uptime:     hh.appCtx.Uptime().String(),
		Version:    Version,
		Components: hh.appCtx.Health.All(),
		Checks:     checks,
	})
}

// LivenessProbe handles Kubernetes liveness probe
func (hh *HealthHandler) LivenessProbe(c *gin.Context) {
	if hh.appCtx.IsApplicationHealthy() {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now()})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "dead", "timestamp": time.Now()})
}

// ReadinessProbe is ready once every auto_setup partner finished setup.
func (hh *HealthHandler) ReadinessProbe(c *gin.Context) {
	var required []string
	for _, pc := range hh.appCtx.Config.EnabledPartners() {
		if pc.AutoSetup {
			required = append(required, pc.ID)
		}
	}

	checks := map[string]bool{
		"alive":          hh.appCtx.IsApplicationHealthy(),
		"partners_ready": hh.appCtx.Health.Ready(required),
	}

	status, responseStatus := http.StatusOK, "ready"
	if !checks["alive"] || !checks["partners_ready"] {
		status, responseStatus = http.StatusServiceUnavailable, "not_ready"
	}

	c.JSON(status, gin.H{
		"status":    responseStatus,
		"timestamp": time.Now(),
		"checks":    checks,
	})
}

// partnersHealthy is false when any partner crossed the failure threshold.
func (hh *HealthHandler) partnersHealthy() bool {
	for _, id := range hh.appCtx.Health.IDs() {
		if !hh.appCtx.Health.IsHealthy(id) {
			return false
		}
	}
	return true
}

func checkMemory() bool {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// 已分配内存超过系统内存 90% 视为异常
	return m.Alloc <= m.Sys*9/10
}
