package store

import "math"

const (
	// DefaultMaxNameLength is the longest file name accepted when no limit is configured.
	DefaultMaxNameLength = 255

	// DefaultMaxFileSize bounds a single file when neither MaxFileSize nor a
	// smaller Capacity is configured.
	DefaultMaxFileSize = 1 << 30
)

// Config holds the capacity limits of a Store. Zero values disable a limit.
type Config struct {
	// Capacity is the maximum total content size in bytes.
	Capacity uint64

	// MaxFiles is the maximum number of files.
	MaxFiles int

	// MaxHandles is the maximum number of simultaneously open handles.
	MaxHandles int

	// MaxNameLength is the maximum length of a file name in bytes.
	// Default: 255
	MaxNameLength int

	// MaxFileSize is the largest size a file may reach, and the furthest a
	// handle may seek. It is never larger than Capacity when one is set.
	// Default: 1Gi
	MaxFileSize uint64
}

func (c *Config) applyDefaults() {
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = DefaultMaxNameLength
	}
	if c.MaxFiles < 0 {
		c.MaxFiles = 0
	}
	if c.MaxHandles < 0 {
		c.MaxHandles = 0
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Capacity > 0 && c.MaxFileSize > c.Capacity {
		c.MaxFileSize = c.Capacity
	}
	if c.MaxFileSize > math.MaxInt {
		c.MaxFileSize = math.MaxInt
	}
}
