package workers

import (
	"os"
	"strconv"
)

// DefaultMetadata is the number of files processed concurrently during a
// scan. Each unit of work may spawn up to two external tool processes.
const DefaultMetadata = 6

// MaxMetadata caps the metadata pool regardless of configuration.
const MaxMetadata = 64

// EnvOverride names the environment variable that overrides the pool size.
const EnvOverride = "IMAGE_AUDIT_WORKERS"

// Metadata returns the number of concurrent metadata workers.
//
// A positive IMAGE_AUDIT_WORKERS wins, then a positive requested value, then
// DefaultMetadata. The result is capped at MaxMetadata.
func Metadata(requested int) int {
	count := DefaultMetadata

	if override := os.Getenv(EnvOverride); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capped(n)
		}
	}

	if requested > 0 {
		count = requested
	}

	return capped(count)
}

func capped(n int) int {
	if n > MaxMetadata {
		return MaxMetadata
	}
	return n
}
