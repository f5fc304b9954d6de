package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	// Pre-populated label combinations must exist with a zero value.
	if got := testutil.ToFloat64(JobsSubmittedTotal.WithLabelValues("video")); got != 0 {
		t.Errorf("JobsSubmittedTotal[video] = %v, want 0", got)
	}
	if got := testutil.ToFloat64(JobsCompletedTotal.WithLabelValues("audio", "error")); got != 0 {
		t.Errorf("JobsCompletedTotal[audio,error] = %v, want 0", got)
	}
	if got := testutil.ToFloat64(DownloadsTotal.WithLabelValues("partial")); got != 0 {
		t.Errorf("DownloadsTotal[partial] = %v, want 0", got)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestJobCounters(t *testing.T) {
	before := testutil.ToFloat64(JobsSubmittedTotal.WithLabelValues("video"))
	JobsSubmittedTotal.WithLabelValues("video").Inc()
	after := testutil.ToFloat64(JobsSubmittedTotal.WithLabelValues("video"))

	if after != before+1 {
		t.Errorf("JobsSubmittedTotal[video] = %v after Inc, want %v", after, before+1)
	}
}
