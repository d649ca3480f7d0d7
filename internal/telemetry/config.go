package telemetry

// Config selects where guardfs sends its request and store-operation spans.
// The server builds it from the telemetry section of its configuration.
type Config struct {
	Enabled bool

	// ServiceName and ServiceVersion become the service.name and
	// service.version resource attributes on every span.
	ServiceName    string
	ServiceVersion string

	// Endpoint is the host:port of an OTLP/gRPC collector.
	Endpoint string
	Insecure bool

	// SampleRate is the fraction of root spans kept; values outside [0, 1]
	// are clamped.
	SampleRate float64
}

// DefaultConfig keeps tracing off and points at a collector on localhost,
// sampling everything once enabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "guardfs",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}

func (c Config) sampleRatio() float64 {
	return min(max(c.SampleRate, 0), 1)
}
