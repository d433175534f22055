package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_scan_runs_total",
			Help: "Total number of scan runs by grouping mode",
		},
		[]string{"mode"},
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_scan_files_total",
			Help: "Total number of files processed by the collector",
		},
		[]string{"status"}, // "ok", "error"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_audit_scan_duration_seconds",
			Help:    "Wall-clock duration of a scan run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 1800},
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_audit_scan_last_run_timestamp",
			Help: "Timestamp of the last completed scan",
		},
	)

	ScanInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_audit_scan_in_flight",
			Help: "Number of files currently being processed by collector workers",
		},
	)

	OversizedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_audit_oversized_files",
			Help: "Number of oversized files found by the last scan",
		},
	)

	GroupsFound = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "image_audit_groups_found",
			Help: "Number of groups found by the last scan",
		},
		[]string{"kind"}, // "duplicate-name", "day", "similiar"
	)
)

// Cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_cache_lookups_total",
			Help: "Total number of metadata cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_audit_cache_entries",
			Help: "Number of entries in the metadata cache",
		},
	)

	CacheSaveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_audit_cache_save_errors_total",
			Help: "Total number of failed cache writes",
		},
	)
)

// External tool metrics
var (
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_tool_invocations_total",
			Help: "Total number of external image tool invocations",
		},
		[]string{"operation", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_audit_tool_duration_seconds",
			Help:    "External image tool invocation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
)

// Compression and move metrics
var (
	CompressFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_compress_files_total",
			Help: "Total number of compression candidates by outcome",
		},
		[]string{"outcome"},
	)

	CompressBytesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_audit_compress_bytes_saved_total",
			Help: "Total bytes saved by recompression",
		},
	)

	MoveFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_move_files_total",
			Help: "Total number of files moved into group directories",
		},
		[]string{"status"}, // "moved", "error"
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after stale file handles",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_audit_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen",
		},
		[]string{"operation"},
	)
)
