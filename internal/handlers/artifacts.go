package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-encoder/internal/database"
	"media-encoder/internal/filesystem"
	"media-encoder/internal/logging"
	"media-encoder/internal/mediatypes"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory before spilling to disk.
const maxUploadMemory = 32 << 20

// UploadArtifact accepts a multipart file upload, stages it in the upload
// directory, and registers it as a media artifact.
func (h *Handlers) UploadArtifact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSONError(w, "invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		writeJSONError(w, "invalid file name", http.StatusBadRequest)
		return
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !mediatypes.IsMediaFile(ext) {
		writeJSONError(w, "unsupported media type", http.StatusUnsupportedMediaType)
		return
	}

	id := uuid.NewString()
	destPath := filepath.Join(h.uploadDir, id+ext)

	dest, err := os.Create(destPath)
	if err != nil {
		logging.Error("failed to create upload file %s: %v", destPath, err)
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	size, err := io.Copy(dest, file)
	if closeErr := dest.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		logging.Error("failed to write upload file %s: %v", destPath, err)
		if removeErr := os.Remove(destPath); removeErr != nil {
			logging.Warn("failed to remove partial upload %s: %v", destPath, removeErr)
		}
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	artifact := &database.MediaArtifact{
		ID:         id,
		Name:       name,
		SourcePath: destPath,
		Size:       size,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.db.CreateArtifact(r.Context(), artifact); err != nil {
		logging.Error("failed to register artifact %s: %v", id, err)
		if removeErr := os.Remove(destPath); removeErr != nil {
			logging.Warn("failed to remove orphaned upload %s: %v", destPath, removeErr)
		}
		writeJSONError(w, "failed to register artifact", http.StatusInternalServerError)
		return
	}

	logging.Debug("artifact %s uploaded (%s, %d bytes)", id, name, size)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, artifact)
}

// ListArtifacts returns all registered artifacts, newest first.
func (h *Handlers) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.db.ListArtifacts(r.Context())
	if err != nil {
		logging.Error("failed to list artifacts: %v", err)
		writeJSONError(w, "failed to list artifacts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, artifacts)
}

// ArtifactStatusResponse reports whether an artifact has been re-encoded.
// The re-encode fields are only present once a job has succeeded;
// ArtifactExists additionally verifies the output file is still on disk,
// since it may have been removed between completion and download.
type ArtifactStatusResponse struct {
	ID               string `json:"id"`
	IsReencoded      bool   `json:"isReEncoded"`
	ReencodedBitrate string `json:"reEncodedBitrate,omitempty"`
	Size             int64  `json:"size,omitempty"`
	ArtifactExists   *bool  `json:"artifactExists,omitempty"`
	LastError        string `json:"lastError,omitempty"`
	LastErrorAt      string `json:"lastErrorAt,omitempty"`
}

// GetArtifactStatus answers "is this artifact re-encoded yet". A failed
// background job surfaces here through the lastError fields.
func (h *Handlers) GetArtifactStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["artifactId"]

	artifact, err := h.db.GetArtifact(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrArtifactNotFound) {
			writeJSONError(w, "artifact not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to load artifact %s: %v", id, err)
		writeJSONError(w, "failed to load artifact", http.StatusInternalServerError)
		return
	}

	response := ArtifactStatusResponse{
		ID:          artifact.ID,
		IsReencoded: artifact.IsReencoded,
		LastError:   artifact.LastError,
	}

	if artifact.LastError != "" {
		response.LastErrorAt = artifact.LastErrorAt.Format(time.RFC3339)
	}

	if artifact.IsReencoded {
		response.ReencodedBitrate = artifact.ReencodedBitrate
		response.Size = artifact.ReencodedSize

		exists := true
		if _, err := filesystem.StatWithRetry(artifact.ReencodedPath, filesystem.DefaultRetryConfig()); err != nil {
			exists = false
		}
		response.ArtifactExists = &exists
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// GetArtifactMetadata probes the artifact's source file and returns the
// raw probe report.
func (h *Handlers) GetArtifactMetadata(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["artifactId"]

	artifact, err := h.db.GetArtifact(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrArtifactNotFound) {
			writeJSONError(w, "artifact not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to load artifact %s: %v", id, err)
		writeJSONError(w, "failed to load artifact", http.StatusInternalServerError)
		return
	}

	report, err := h.prober.Probe(r.Context(), artifact.SourcePath)
	if err != nil {
		logging.Error("probe failed for artifact %s: %v", id, err)
		writeJSONError(w, "failed to probe artifact", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if len(report.Raw) > 0 {
		if _, err := w.Write(report.Raw); err != nil {
			logging.Error("failed to write probe report: %v", err)
		}
		return
	}
	writeJSON(w, report)
}
