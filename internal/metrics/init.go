package metrics

// Tool operations and statuses, shared with the magick package so label
// values stay consistent.
var (
	ToolOperations = []string{"identify", "phash", "compress", "version"}
	ToolStatuses   = []string{"success", "error", "timeout", "overflow"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first scrape or textfile write.
func InitializeMetrics() {
	for _, status := range []string{"ok", "error"} {
		ScanFilesTotal.WithLabelValues(status)
	}

	for _, mode := range []string{"duplicate-name", "day", "similiar", "all"} {
		ScanRunsTotal.WithLabelValues(mode)
	}

	for _, kind := range []string{"duplicate-name", "day", "similiar"} {
		GroupsFound.WithLabelValues(kind)
	}

	for _, result := range []string{"hit", "miss"} {
		CacheLookupsTotal.WithLabelValues(result)
	}

	for _, op := range ToolOperations {
		ToolDuration.WithLabelValues(op)
		for _, status := range ToolStatuses {
			ToolInvocationsTotal.WithLabelValues(op, status)
		}
	}

	for _, outcome := range []string{"compressed", "dry-run", "not-smaller", "error", "canceled"} {
		CompressFilesTotal.WithLabelValues(outcome)
	}

	for _, status := range []string{"moved", "error"} {
		MoveFilesTotal.WithLabelValues(status)
	}

	for _, op := range []string{"stat"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
