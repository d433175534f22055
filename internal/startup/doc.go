// Package startup loads configuration and build information for a command
// invocation.
//
// # Configuration
//
// [LoadConfig] layers, lowest precedence first:
//
//  1. built-in defaults ([Defaults])
//  2. a YAML file: the --config path, else IMAGE_AUDIT_CONFIG, else
//     $XDG_CONFIG_HOME/image-audit/config.yaml when it exists
//  3. environment variables
//
// Command-line flags are applied on top by the cli package.
//
// Environment variables:
//
//   - IMAGE_AUDIT_CACHE_DIR: cache directory (default: ~/.cache/image-audit)
//   - IMAGE_AUDIT_MAGICK: ImageMagick executable (default: magick)
//   - IMAGE_AUDIT_TIMEOUT: per-invocation tool timeout (default: 60s)
//   - IMAGE_AUDIT_HISTORY: record runs in the history database (default: true)
//   - IMAGE_AUDIT_METRICS_ADDR: serve /metrics on this address during a run
//   - IMAGE_AUDIT_METRICS_FILE: write metrics to this file after a run
//   - IMAGE_AUDIT_WORKERS: metadata worker count (read by package workers)
//   - LOG_LEVEL, DEBUG: log level (read by package logging)
//
// Example config.yaml:
//
//	cache_dir: ~/.cache/image-audit
//	timeout: 90s
//	extensions: [jpg, jpeg, png, webp, heic]
//	max_mb: 3
//	similarity_threshold: 24
//	quality: 85
//
// # Build Information
//
// Version, Commit and BuildTime are injected with -ldflags:
//
//	go build -ldflags "-X image-audit/internal/startup.Version=1.2.0"
package startup
