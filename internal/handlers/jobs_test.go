package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"media-encoder/internal/database"
	"media-encoder/internal/jobs"
	"media-encoder/internal/transcoder"
)

func TestSubmitJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		submitErr  error
		wantStatus int
	}{
		{
			name:       "accepted",
			body:       `{"mediaArtifactId":"a1","targetBitrate":"800k","streamType":"video"}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "malformed body",
			body:       `{"mediaArtifactId":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing artifact id",
			body:       `{"targetBitrate":"800k","streamType":"video"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation error",
			body:       `{"mediaArtifactId":"a1","targetBitrate":"fast","streamType":"video"}`,
			submitErr:  fmt.Errorf("%w: unparseable bitrate", jobs.ErrValidation),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown artifact",
			body:       `{"mediaArtifactId":"nope","targetBitrate":"800k","streamType":"video"}`,
			submitErr:  database.ErrArtifactNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "source file gone",
			body:       `{"mediaArtifactId":"a1","targetBitrate":"800k","streamType":"video"}`,
			submitErr:  transcoder.ErrSourceNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "internal error",
			body:       `{"mediaArtifactId":"a1","targetBitrate":"800k","streamType":"video"}`,
			submitErr:  errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, submitter, _ := newTestHandlers(t)
			submitter.err = tt.submitErr
			router := newTestRouter(h)

			req := httptest.NewRequest("POST", "/jobs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assertStatus(t, rec.Code, tt.wantStatus)
			assertContentType(t, rec.Header(), "application/json")

			if tt.wantStatus == http.StatusAccepted {
				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["jobId"] != "job-1" {
					t.Errorf("jobId = %q, want %q", resp["jobId"], "job-1")
				}
			}
		})
	}
}

func TestSubmitJobForwardsFields(t *testing.T) {
	t.Parallel()

	h, submitter, _ := newTestHandlers(t)
	router := newTestRouter(h)

	body := `{"mediaArtifactId":"a42","targetBitrate":"2M","streamType":"audio"}`
	req := httptest.NewRequest("POST", "/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assertStatus(t, rec.Code, http.StatusAccepted)
	if submitter.artifactID != "a42" {
		t.Errorf("artifactID = %q, want %q", submitter.artifactID, "a42")
	}
	if submitter.targetBitrate != "2M" {
		t.Errorf("targetBitrate = %q, want %q", submitter.targetBitrate, "2M")
	}
	if submitter.streamType != "audio" {
		t.Errorf("streamType = %q, want %q", submitter.streamType, "audio")
	}
}

func TestGetJobProgress(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	h.tracker.Set("job-7", 42)
	router := newTestRouter(h)

	tests := []struct {
		name  string
		jobID string
		want  int
	}{
		{"known job", "job-7", 42},
		{"unknown job reports zero", "missing", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/jobs/"+tt.jobID+"/progress", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assertStatus(t, rec.Code, http.StatusOK)

			var resp map[string]int
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["progress"] != tt.want {
				t.Errorf("progress = %d, want %d", resp["progress"], tt.want)
			}
		})
	}
}
