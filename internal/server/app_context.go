package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/echoface/mediation-adapter/internal/config"
	"github.com/echoface/mediation-adapter/internal/health"
	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/internal/metrics"
	"github.com/echoface/mediation-adapter/internal/observability"
	"github.com/echoface/mediation-adapter/internal/partneradapter"
	"github.com/echoface/mediation-adapter/internal/partnersdk"
	"github.com/echoface/mediation-adapter/internal/partnersdk/sim"
	"github.com/echoface/mediation-adapter/pkg/logger"
)

// Version is reported by the root and health endpoints.
var Version = "v1.0.0-dev"

// Partner is one registered partner adapter with its settings.
type Partner struct {
	Config config.PartnerConfig
	// Adapter is the traced adapter the handlers call.
	Adapter mediation.PartnerAdapter
	SDK     partnersdk.SDK

	core   *partneradapter.Adapter
	events *eventStore
}

// ID returns the partner id.
func (p *Partner) ID() string {
	return p.Config.ID
}

// PendingKeys lists the operations still waiting for the partner.
func (p *Partner) PendingKeys() []string {
	return p.core.PendingKeys()
}

// AppContext holds the process-wide dependencies of the HTTP service.
type AppContext struct {
	Config         *config.ServiceConfig
	Logger         logger.Logger
	Registry       *prometheus.Registry
	Metrics        *metrics.AdapterMetrics
	HTTPMetrics    *metrics.HTTPMetrics
	Adapters       *mediation.AdapterRegistry
	Health         *health.Checker
	TracerProvider trace.TracerProvider

	mu        sync.RWMutex
	partners  map[string]*Partner
	healthy   bool
	startTime time.Time
}

// NewAppContext creates the application context. A nil tracer provider
// means no tracing.
func NewAppContext(cfg *config.ServiceConfig, log logger.Logger, tp trace.TracerProvider) *AppContext {
	if tp == nil {
		tp = nooptrace.NewTracerProvider()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prom := cfg.Monitoring.Prometheus
	hc := cfg.Monitoring.HealthCheck

	return &AppContext{
		Config:         cfg,
		Logger:         log,
		Registry:       registry,
		Metrics:        metrics.NewAdapterMetrics(registry, prom.Namespace, prom.Subsystem),
		HTTPMetrics:    metrics.NewHTTPMetrics(registry, prom.Namespace),
		Adapters:       mediation.NewAdapterRegistry(),
		Health:         health.NewChecker(hc.FailureThreshold, hc.SuccessThreshold),
		TracerProvider: tp,
		partners:       make(map[string]*Partner),
		healthy:        true,
		startTime:      time.Now(),
	}
}

// AddPartner builds the adapter stack for pc on top of sdk and registers it.
func (ac *AppContext) AddPartner(pc config.PartnerConfig, sdk partnersdk.SDK) (*Partner, error) {
	core := partneradapter.New(sdk,
		partneradapter.WithPartnerID(pc.ID, pc.DisplayName),
		partneradapter.WithEventLogger(mediation.NewEventLogger(ac.Logger, pc.ID)),
		partneradapter.WithMetrics(ac.Metrics),
		// readiness follows the partner initialization, not the caller's wait
		partneradapter.WithSetupHook(func(err error) {
			ac.Health.Record(pc.ID, err)
			ac.Health.MarkReady(pc.ID, err == nil)
		}),
	)
	traced := observability.NewTracing(core,
		observability.WithTracer(ac.TracerProvider.Tracer("mediation.partner."+pc.ID)),
		observability.WithLogger(ac.Logger),
	)

	if err := ac.Adapters.Register(traced); err != nil {
		return nil, fmt.Errorf("register partner %s: %w", pc.ID, err)
	}

	p := &Partner{Config: pc, Adapter: traced, SDK: sdk, core: core, events: newEventStore()}
	ac.mu.Lock()
	ac.partners[pc.ID] = p
	ac.mu.Unlock()
	return p, nil
}

// AddSimPartners registers every enabled partner on a simulated partner SDK.
func (ac *AppContext) AddSimPartners() error {
	for _, pc := range ac.Config.EnabledPartners() {
		sdk := sim.New(sim.Options{
			Latency:            pc.Sim.Latency,
			Token:              pc.Sim.Token,
			DuplicateCallbacks: pc.Sim.DuplicateCallbacks,
			AutoClick:          pc.Sim.AutoClick,
		})
		if _, err := ac.AddPartner(pc, sdk); err != nil {
			return err
		}
	}
	return nil
}

// Partner retrieves a partner by id.
func (ac *AppContext) Partner(id string) (*Partner, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	p, ok := ac.partners[id]
	return p, ok
}

// PartnerIDs returns the registered partner ids in order.
func (ac *AppContext) PartnerIDs() []string {
	adapters := ac.Adapters.All()
	ids := make([]string, 0, len(adapters))
	for _, a := range adapters {
		ids = append(ids, a.Info().PartnerID)
	}
	return ids
}

// SetupPartners initializes every partner configured with auto_setup.
// Failures are logged and leave the partner not ready. A partner still
// initializing after its request timeout becomes ready once it finishes.
func (ac *AppContext) SetupPartners(ctx context.Context) {
	ac.mu.RLock()
	partners := make([]*Partner, 0, len(ac.partners))
	for _, p := range ac.partners {
		partners = append(partners, p)
	}
	ac.mu.RUnlock()

	for _, p := range partners {
		if !p.Config.AutoSetup {
			continue
		}
		setupCtx, cancel := ac.requestContext(ctx, p)
		err := p.Adapter.Setup(setupCtx, p.Config.SetupConfig())
		cancel()
		if err != nil {
			ac.Logger.Warn("partner setup failed", "partner", p.ID(), "error", err.Error())
			continue
		}
		ac.Logger.Info("partner ready", "partner", p.ID(), "sdk_version", p.Adapter.Info().PartnerSDKVersion)
	}
}

// requestContext bounds ctx with the partner request timeout, if any.
func (ac *AppContext) requestContext(ctx context.Context, p *Partner) (context.Context, context.CancelFunc) {
	if p.Config.RequestTimeout > 0 {
		return context.WithTimeout(ctx, p.Config.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// SetHealthStatus sets the overall liveness of the application.
func (ac *AppContext) SetHealthStatus(healthy bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.healthy = healthy
}

// IsApplicationHealthy returns the overall liveness.
func (ac *AppContext) IsApplicationHealthy() bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return ac.healthy
}

// Uptime returns the time since the context was created.
func (ac *AppContext) Uptime() time.Duration {
	return time.Since(ac.startTime)
}

// Shutdown marks the application unhealthy so probes fail during drain.
func (ac *AppContext) Shutdown() {
	ac.Logger.Info("Initiating graceful shutdown...")
	ac.SetHealthStatus(false)
}
