// Package main provides the entry point for image-audit.
//
// image-audit audits a folder of images. It reports files above a size or
// pixel limit, files that share a name, files taken on the same day and files
// that look alike, and can recompress or reorganize them.
//
// # Application Lifecycle
//
//  1. Configuration: defaults, the YAML config file, IMAGE_AUDIT_* environment
//     variables, then flags
//  2. Tool check: ImageMagick is located and its version verified when the
//     command needs it
//  3. Scan: the folder is walked, metadata is read from the cache or from
//     ImageMagick by a bounded pool of workers, and the cache is saved
//  4. Grouping: oversized files, duplicate names, day buckets and similarity
//     clusters are computed from the collected metadata
//  5. Action: compress or move, each after a confirmation prompt
//  6. Journal: the run is recorded in the history database
//
// # Environment Variables
//
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - DEBUG: set to true for debug logging
//   - NO_COLOR: disable colored output
//   - IMAGE_AUDIT_CONFIG: config file path
//   - IMAGE_AUDIT_CACHE_DIR: cache and history directory (default: ~/.cache/image-audit)
//   - IMAGE_AUDIT_MAGICK: ImageMagick binary (default: magick)
//   - IMAGE_AUDIT_WORKERS: metadata worker count (default: 6)
//   - IMAGE_AUDIT_TIMEOUT: per-call tool timeout (default: 60s)
//   - IMAGE_AUDIT_HISTORY: set to false to disable the run journal
//   - IMAGE_AUDIT_METRICS_ADDR: serve Prometheus metrics during the run
//   - IMAGE_AUDIT_METRICS_FILE: write Prometheus metrics when the run ends
//
// # Exit Codes
//
//	0  success
//	1  the command failed
//	2  the command completed with per-file errors
package main
