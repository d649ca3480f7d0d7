package api

import (
	"time"

	"github.com/marmos91/guardfs/internal/bytesize"
)

// APIConfig configures the store HTTP API server.
type APIConfig struct {
	// Port is the HTTP port for the API endpoints.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// RequestTimeout bounds the handling of a single request.
	// Default: 30s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// SessionIdleTimeout is how long a session may go unused before it is
	// reaped and its open handles are closed.
	// Default: 30m
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" yaml:"session_idle_timeout"`

	// MaxSessions caps concurrently registered sessions. Zero means unlimited.
	MaxSessions int `mapstructure:"max_sessions" validate:"gte=0" yaml:"max_sessions"`

	// MaxIOSize bounds the payload of a single read or write request.
	// Default: 16Mi
	MaxIOSize bytesize.ByteSize `mapstructure:"max_io_size" yaml:"max_io_size"`
}

// ApplyDefaults fills in zero values with defaults.
func (c *APIConfig) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.SessionIdleTimeout == 0 {
		c.SessionIdleTimeout = 30 * time.Minute
	}
	if c.MaxIOSize == 0 {
		c.MaxIOSize = 16 * bytesize.MiB
	}
}
