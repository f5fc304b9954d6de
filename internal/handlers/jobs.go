package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"media-encoder/internal/database"
	"media-encoder/internal/jobs"
	"media-encoder/internal/logging"
	"media-encoder/internal/transcoder"

	"github.com/gorilla/mux"
)

// SubmitJobRequest is the body of a re-encode job submission.
type SubmitJobRequest struct {
	ArtifactID    string `json:"mediaArtifactId"`
	TargetBitrate string `json:"targetBitrate"`
	StreamType    string `json:"streamType"`
}

// SubmitJob accepts a re-encode job and returns its job ID. The response
// is sent before transcoding starts; clients poll progress and status to
// observe the outcome.
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ArtifactID == "" {
		writeJSONError(w, "mediaArtifactId is required", http.StatusBadRequest)
		return
	}

	jobID, err := h.orchestrator.Submit(r.Context(), req.ArtifactID, req.TargetBitrate, req.StreamType)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrValidation):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, database.ErrArtifactNotFound):
			writeJSONError(w, "artifact not found", http.StatusNotFound)
		case errors.Is(err, transcoder.ErrSourceNotFound):
			writeJSONError(w, "source file not found", http.StatusNotFound)
		default:
			logging.Error("job submission failed for artifact %s: %v", req.ArtifactID, err)
			writeJSONError(w, "failed to start job", http.StatusInternalServerError)
		}
		return
	}

	logging.Debug("job %s accepted for artifact %s (bitrate=%s, stream=%s)",
		jobID, req.ArtifactID, req.TargetBitrate, req.StreamType)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"jobId": jobID})
}

// GetJobProgress returns the latest observed progress for a job. Unknown
// job IDs report 0 rather than an error; a finished job's entry is removed
// so callers cannot distinguish "unknown" from "already done" here.
func (h *Handlers) GetJobProgress(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	percent := h.tracker.Get(jobID)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"progress": percent})
}
