package config

import (
	"fmt"
	"time"
)

// BaseConfig 基础配置（所有服务通用）
type BaseConfig struct {
	// 服务器配置
	Host            string        `mapstructure:"host" json:"host"`
	Port            int           `mapstructure:"port" json:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	EnablePprof     bool          `mapstructure:"enable_pprof" json:"enable_pprof"`

	// 日志配置
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`

	// 监控配置
	Monitoring MonitoringConfig `mapstructure:"monitoring" json:"monitoring"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	// Backend is zap or zerolog.
	Backend    string `mapstructure:"backend" json:"backend"`
	Level      string `mapstructure:"level" json:"level"`
	FilePath   string `mapstructure:"file_path" json:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"` // days
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus  PrometheusConfig  `mapstructure:"prometheus" json:"prometheus"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check" json:"health_check"`
	Tracing     TracingConfig     `mapstructure:"tracing" json:"tracing"`
}

// PrometheusConfig Prometheus配置
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint  string `mapstructure:"endpoint" json:"endpoint"`
	Namespace string `mapstructure:"namespace" json:"namespace"`
	Subsystem string `mapstructure:"subsystem" json:"subsystem"`
}

// HealthCheckConfig 健康检查配置
type HealthCheckConfig struct {
	Enabled          bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint         string `mapstructure:"endpoint" json:"endpoint"`
	FailureThreshold int    `mapstructure:"failure_threshold" json:"failure_threshold"`
	SuccessThreshold int    `mapstructure:"success_threshold" json:"success_threshold"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" json:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio" json:"sample_ratio"`
}

// DefaultBaseConfig 获取默认基础配置
func DefaultBaseConfig() *BaseConfig {
	return &BaseConfig{
		Host:            "localhost",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		EnablePprof:     false,
		Logging: LoggingConfig{
			Backend:    "zap",
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Monitoring: MonitoringConfig{
			Prometheus:  PrometheusConfig{Enabled: true, Endpoint: "/metrics", Namespace: "mediation"},
			HealthCheck: HealthCheckConfig{Enabled: true, Endpoint: "/health", FailureThreshold: 3, SuccessThreshold: 1},
			Tracing:     TracingConfig{SampleRatio: 1},
		},
	}
}

// GetAddress 获取服务器地址
func (c *BaseConfig) GetAddress() string {
	host, port := c.Host, c.Port
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}
