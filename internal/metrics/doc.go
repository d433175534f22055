// Package metrics provides Prometheus instrumentation for image-audit.
//
// All metrics are prefixed with "image_audit_".
//
// # Metric Categories
//
// ## Scan Metrics
//   - ScanRunsTotal, ScanFilesTotal, ScanDuration, ScanLastRunTimestamp
//   - ScanInFlight: files currently held by collector workers
//   - OversizedFiles, GroupsFound: outcome of the last scan
//
// ## Cache Metrics
//   - CacheLookupsTotal by result (hit, miss)
//   - CacheEntries, CacheSaveErrors
//
// ## External Tool Metrics
//   - ToolInvocationsTotal by operation and status (success, error, timeout, overflow)
//   - ToolDuration by operation
//
// ## Compression and Move Metrics
//   - CompressFilesTotal by outcome, CompressBytesSaved
//   - MoveFilesTotal by status
//
// ## Filesystem Retry Metrics
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures,
//     FilesystemStaleErrors
//
// # Export
//
// A CLI run is short lived, so metrics are exported two ways: WriteTextfile
// dumps them at the end of a run (--metrics-file) and Serve exposes /metrics
// and /healthz while the run is in progress (--metrics-addr).
package metrics
