// Package config is the typed configuration of the mediation adapter
// service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/echoface/mediation-adapter/internal/mediation"
	pkgconfig "github.com/echoface/mediation-adapter/pkg/config"
)

// ServiceName prefixes environment overrides, e.g. MEDIATION_PORT.
const ServiceName = "mediation"

// ServiceConfig 服务配置
type ServiceConfig struct {
	pkgconfig.BaseConfig `mapstructure:",squash"`

	BidderInfo BidderInfoConfig `mapstructure:"bidder_info" json:"bidder_info"`
	Partners   []PartnerConfig  `mapstructure:"partners" json:"partners"`

	// 运行时信息
	RunType    string `mapstructure:"-" json:"run_type"`
	ConfigFile string `mapstructure:"-" json:"config_file"`
}

// BidderInfoConfig bounds the fan-out of bidder information requests.
type BidderInfoConfig struct {
	Timeout        time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency" json:"max_concurrency"`
}

// PartnerConfig describes one partner adapter instance.
type PartnerConfig struct {
	ID          string `mapstructure:"id" json:"id"`
	DisplayName string `mapstructure:"display_name" json:"display_name"`
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	// AutoSetup initializes the partner at startup with Credentials.
	AutoSetup   bool              `mapstructure:"auto_setup" json:"auto_setup"`
	Credentials map[string]string `mapstructure:"credentials" json:"-"`
	// RequestTimeout bounds how long an HTTP caller waits for the partner.
	// Zero waits as long as the caller stays connected.
	RequestTimeout time.Duration       `mapstructure:"request_timeout" json:"request_timeout"`
	DefaultOptions mediation.AdOptions `mapstructure:"default_options" json:"default_options"`
	Sim            SimConfig           `mapstructure:"sim" json:"sim"`
}

// SimConfig tunes the simulated partner SDK.
type SimConfig struct {
	Latency            time.Duration `mapstructure:"latency" json:"latency"`
	Token              string        `mapstructure:"token" json:"token"`
	DuplicateCallbacks bool          `mapstructure:"duplicate_callbacks" json:"duplicate_callbacks"`
	AutoClick          bool          `mapstructure:"auto_click" json:"auto_click"`
}

// SetupConfig returns the credentials as a mediation setup request.
func (p PartnerConfig) SetupConfig() mediation.SetupConfig {
	return mediation.SetupConfig{Credentials: p.Credentials}
}

// Defaults used for keys missing from the conf file.
func defaults() map[string]any {
	base := pkgconfig.DefaultBaseConfig()
	return map[string]any{
		"host":                                      base.Host,
		"port":                                      base.Port,
		"read_timeout":                              base.ReadTimeout,
		"write_timeout":                             base.WriteTimeout,
		"shutdown_timeout":                          base.ShutdownTimeout,
		"logging.backend":                           base.Logging.Backend,
		"logging.level":                             base.Logging.Level,
		"logging.max_size":                          base.Logging.MaxSize,
		"logging.max_backups":                       base.Logging.MaxBackups,
		"logging.max_age":                           base.Logging.MaxAge,
		"monitoring.prometheus.enabled":             base.Monitoring.Prometheus.Enabled,
		"monitoring.prometheus.endpoint":            base.Monitoring.Prometheus.Endpoint,
		"monitoring.prometheus.namespace":           base.Monitoring.Prometheus.Namespace,
		"monitoring.health_check.enabled":           base.Monitoring.HealthCheck.Enabled,
		"monitoring.health_check.endpoint":          base.Monitoring.HealthCheck.Endpoint,
		"monitoring.health_check.failure_threshold": base.Monitoring.HealthCheck.FailureThreshold,
		"monitoring.health_check.success_threshold": base.Monitoring.HealthCheck.SuccessThreshold,
		"monitoring.tracing.sample_ratio":           base.Monitoring.Tracing.SampleRatio,
		"bidder_info.timeout":                       2 * time.Second,
		"bidder_info.max_concurrency":               8,
	}
}

// Load 加载服务配置，支持RUN_TYPE环境变量
func Load(opts ...pkgconfig.LoaderOption) (*ServiceConfig, error) {
	opts = append([]pkgconfig.LoaderOption{pkgconfig.WithDefaults(defaults())}, opts...)
	loader := pkgconfig.NewLoader(ServiceName, opts...)

	var cfg ServiceConfig
	if err := loader.Load(&cfg); err != nil {
		return nil, err
	}
	cfg.RunType = loader.RunType()
	cfg.ConfigFile = loader.ConfigFile()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfg.ConfigFile, err)
	}
	return &cfg, nil
}

// Validate checks the partner list.
func (c *ServiceConfig) Validate() error {
	seen := make(map[string]bool, len(c.Partners))
	for i, p := range c.Partners {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("partners[%d]: id is empty", i)
		}
		if seen[id] {
			return fmt.Errorf("partners[%d]: duplicate id %q", i, id)
		}
		seen[id] = true

		switch p.DefaultOptions.Orientation {
		case "", mediation.OrientationAuto, mediation.OrientationPortrait, mediation.OrientationLandscape:
		default:
			return fmt.Errorf("partner %q: unknown orientation %q", id, p.DefaultOptions.Orientation)
		}
		if p.RequestTimeout < 0 {
			return fmt.Errorf("partner %q: negative request_timeout", id)
		}
	}
	if c.BidderInfo.MaxConcurrency < 0 {
		return fmt.Errorf("bidder_info.max_concurrency must not be negative")
	}
	return nil
}

// EnabledPartners returns the partners to register.
func (c *ServiceConfig) EnabledPartners() []PartnerConfig {
	out := make([]PartnerConfig, 0, len(c.Partners))
	for _, p := range c.Partners {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
