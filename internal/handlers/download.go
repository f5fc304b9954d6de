package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"media-encoder/internal/database"
	"media-encoder/internal/filesystem"
	"media-encoder/internal/logging"
	"media-encoder/internal/mediatypes"
	"media-encoder/internal/metrics"
	"media-encoder/internal/streaming"

	"github.com/gorilla/mux"
)

// byteRange is a decoded single-range Range header, inclusive on both ends.
type byteRange struct {
	start int64
	end   int64
}

// parseRange decodes a "bytes=start-end" header against the given file
// size. The end offset is optional and defaults to the last byte; an end
// past the file is clamped. It returns (nil, false) for absent or
// malformed headers, which callers treat as a full-content request, and a
// non-nil error when start lies beyond the file.
func parseRange(header string, size int64) (*byteRange, bool, error) {
	if header == "" {
		return nil, false, nil
	}

	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") {
		return nil, false, nil
	}

	startStr, endStr, found := strings.Cut(spec, "-")
	if !found || startStr == "" {
		return nil, false, nil
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, false, nil
	}

	if start >= size {
		return nil, false, fmt.Errorf("range start %d beyond size %d", start, size)
	}

	end := size - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return nil, false, nil
		}
		if end > size-1 {
			end = size - 1
		}
	}

	return &byteRange{start: start, end: end}, true, nil
}

// DownloadArtifact serves the re-encoded output of an artifact, honoring a
// single-range Range header. Requests for artifacts that have not been
// re-encoded are rejected with 400; a missing output file yields 404.
func (h *Handlers) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
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

	if !artifact.IsReencoded {
		metrics.DownloadsTotal.WithLabelValues("unavailable").Inc()
		writeJSONError(w, "artifact has not been re-encoded", http.StatusBadRequest)
		return
	}

	info, err := filesystem.StatWithRetry(artifact.ReencodedPath, filesystem.DefaultRetryConfig())
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("missing").Inc()
		logging.Warn("re-encoded output for artifact %s missing from storage: %v", id, err)
		writeJSONError(w, "re-encoded output not found", http.StatusNotFound)
		return
	}
	size := info.Size()

	rng, partial, err := parseRange(r.Header.Get("Range"), size)
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("unsatisfiable").Inc()
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	file, err := filesystem.OpenWithRetry(artifact.ReencodedPath, filesystem.DefaultRetryConfig())
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("missing").Inc()
		logging.Error("failed to open re-encoded output for artifact %s: %v", id, err)
		writeJSONError(w, "re-encoded output not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	// The served name comes from the original upload name plus the applied
	// bitrate, so the result is distinguishable from the source in a user's
	// downloads folder. The stored output path is UUID-based.
	ext := filepath.Ext(artifact.Name)
	base := strings.TrimSuffix(artifact.Name, ext)
	downloadName := fmt.Sprintf("%s.%s%s", base, artifact.ReencodedBitrate, ext)
	contentType := mediatypes.GetMimeType(strings.ToLower(ext))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))

	var body io.Reader = file
	length := size

	if partial {
		if _, err := file.Seek(rng.start, io.SeekStart); err != nil {
			logging.Error("failed to seek artifact %s to %d: %v", id, rng.start, err)
			writeJSONError(w, "failed to read artifact", http.StatusInternalServerError)
			return
		}
		length = rng.end - rng.start + 1
		body = io.LimitReader(file, length)

		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.start, rng.end, size))
		w.WriteHeader(http.StatusPartialContent)
		metrics.DownloadsTotal.WithLabelValues("partial").Inc()
	} else {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		w.WriteHeader(http.StatusOK)
		metrics.DownloadsTotal.WithLabelValues("full").Inc()
	}

	written, err := streaming.Copy(r.Context(), w, body, h.streamConfig)
	metrics.DownloadBytesTotal.Add(float64(written))
	if err != nil {
		// Headers are already sent; all we can do is log.
		logging.Warn("download of artifact %s aborted after %d bytes: %v", id, written, err)
		return
	}

	logging.Debug("served artifact %s: %d bytes (partial=%v)", id, written, partial)
}
