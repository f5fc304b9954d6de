package metrics

// InitializeMetrics pre-populates expected label combinations so that every
// metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, st := range []string{"video", "audio"} {
		JobsSubmittedTotal.WithLabelValues(st)
		JobTargetBitrate.WithLabelValues(st)
		TranscodeDuration.WithLabelValues(st)
		TranscodeOutputBytes.WithLabelValues(st)
		for _, status := range []string{"success", "error"} {
			JobsCompletedTotal.WithLabelValues(st, status)
		}
	}

	for _, status := range []string{"full", "partial", "unsatisfiable", "unavailable", "missing"} {
		DownloadsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "create_artifact", "get_artifact",
		"list_artifacts", "commit_reencode", "record_failure"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
	}
}
