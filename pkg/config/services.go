package config

import (
	"github.com/marmos91/guardfs/internal/telemetry"
	"github.com/marmos91/guardfs/pkg/metrics"
	"github.com/marmos91/guardfs/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// MetricsResult bundles the collectors and server built from configuration.
// Both fields are nil when metrics are disabled.
type MetricsResult struct {
	Metrics *metrics.Metrics
	Server  *metrics.Server
}

// InitializeMetrics creates a dedicated Prometheus registry with the Go
// runtime collectors and the store metrics.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsResult{
		Metrics: metrics.NewMetrics(reg),
		Server:  metrics.NewServer(cfg.Metrics.Port, reg),
	}
}

// StoreLimits converts the store section into store.Config.
func (c StoreConfig) StoreLimits() store.Config {
	return store.Config{
		Capacity:      c.Capacity.Uint64(),
		MaxFiles:      c.MaxFiles,
		MaxHandles:    c.MaxHandles,
		MaxNameLength: c.MaxNameLength,
		MaxFileSize:   c.MaxFileSize.Uint64(),
	}
}

// CreateStore creates the file store described by cfg. m may be nil.
func CreateStore(cfg *Config, m *metrics.Metrics) *store.Store {
	return store.New(cfg.Store.StoreLimits(), m)
}

// TracingConfig converts the telemetry section for telemetry.Init.
func (c TelemetryConfig) TracingConfig(version string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Enabled,
		ServiceName:    "guardfs",
		ServiceVersion: version,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		SampleRate:     c.SampleRate,
	}
}

// ProfilingSettings converts the profiling section for telemetry.InitProfiling.
func (c TelemetryConfig) ProfilingSettings(version string) telemetry.ProfilingConfig {
	return telemetry.ProfilingConfig{
		Enabled:        c.Profiling.Enabled,
		ServiceName:    "guardfs",
		ServiceVersion: version,
		Endpoint:       c.Profiling.Endpoint,
		ProfileTypes:   c.Profiling.ProfileTypes,
	}
}
