package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"media-encoder/internal/database"
	"media-encoder/internal/progress"
	"media-encoder/internal/streaming"
	"media-encoder/internal/transcoder"

	"github.com/gorilla/mux"
)

// fakeSubmitter records the last submission and returns canned results.
type fakeSubmitter struct {
	jobID string
	err   error

	artifactID    string
	targetBitrate string
	streamType    string
}

func (f *fakeSubmitter) Submit(_ context.Context, artifactID, targetBitrate, streamType string) (string, error) {
	f.artifactID = artifactID
	f.targetBitrate = targetBitrate
	f.streamType = streamType
	if f.err != nil {
		return "", f.err
	}
	return f.jobID, nil
}

// fakeProber returns a canned probe report.
type fakeProber struct {
	report *transcoder.ProbeReport
	err    error
}

func (f *fakeProber) Probe(context.Context, string) (*transcoder.ProbeReport, error) {
	return f.report, f.err
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeSubmitter, *fakeProber) {
	t.Helper()

	dir := t.TempDir()

	db, err := database.New(context.Background(), filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	submitter := &fakeSubmitter{jobID: "job-1"}
	prober := &fakeProber{}

	h := &Handlers{
		db:           db,
		orchestrator: submitter,
		prober:       prober,
		tracker:      progress.NewTracker(),
		uploadDir:    dir,
		streamConfig: streaming.DefaultTimeoutWriterConfig(),
	}
	return h, submitter, prober
}

func newTestRouter(h *Handlers) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/artifacts", h.UploadArtifact).Methods("POST")
	router.HandleFunc("/artifacts", h.ListArtifacts).Methods("GET")
	router.HandleFunc("/artifacts/{artifactId}/status", h.GetArtifactStatus).Methods("GET")
	router.HandleFunc("/artifacts/{artifactId}/metadata", h.GetArtifactMetadata).Methods("GET")
	router.HandleFunc("/artifacts/{artifactId}/download", h.DownloadArtifact).Methods("GET")
	router.HandleFunc("/jobs", h.SubmitJob).Methods("POST")
	router.HandleFunc("/jobs/{jobId}/progress", h.GetJobProgress).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	router.HandleFunc("/version", h.GetVersion).Methods("GET")
	return router
}

func seedArtifact(t *testing.T, h *Handlers, a *database.MediaArtifact) {
	t.Helper()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if err := h.db.CreateArtifact(context.Background(), a); err != nil {
		t.Fatalf("failed to seed artifact: %v", err)
	}
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("status = %d, want %d", got, want)
	}
}

func assertContentType(t *testing.T, header http.Header, want string) {
	t.Helper()
	if got := header.Get("Content-Type"); got != want {
		t.Errorf("Content-Type = %q, want %q", got, want)
	}
}
