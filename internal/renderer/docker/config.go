package docker

import (
	"time"
)

// Config holds the configuration for sandboxed rendering.
type Config struct {
	// Image is a Docker image with weasyprint on its PATH.
	Image string
	// WorkDir is bind-mounted read-write at the same path inside every
	// container, so host temp file paths are valid there too.
	WorkDir string
	// FontDir is bind-mounted read-only at the same path, matching the
	// file:// URLs in assembled documents.
	FontDir string
	// MemoryLimit is the maximum amount of memory the container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs the container can use.
	CPULimit float64
	// Timeout bounds a single render.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers to maintain.
	PoolSize int
}

// DefaultConfig returns limits suitable for rendering slide-sized documents.
func DefaultConfig() Config {
	return Config{
		Image: "geniuspost-weasyprint:latest",
		// 512 MB memory limit
		MemoryLimit: 512 * 1024 * 1024,
		CPULimit:    1,
		Timeout:     60 * time.Second,
		PoolSize:    2,
	}
}
