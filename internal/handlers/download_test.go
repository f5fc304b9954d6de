package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"media-encoder/internal/database"

	"github.com/gorilla/mux"
)

// seedReencoded stores a re-encoded artifact whose output file holds the
// given content and returns that content.
func seedReencoded(t *testing.T, h *Handlers, id string, size int) []byte {
	t.Helper()

	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}

	output := filepath.Join(t.TempDir(), id+".video.800k.mp4")
	if err := os.WriteFile(output, content, 0o644); err != nil {
		t.Fatal(err)
	}

	seedArtifact(t, h, &database.MediaArtifact{ID: id, Name: id + ".mp4", SourcePath: "/tmp/" + id + ".mp4", Size: int64(size)})
	if err := h.db.CommitReencode(context.Background(), id, output, int64(size), "800k"); err != nil {
		t.Fatalf("failed to commit re-encode: %v", err)
	}
	return content
}

func downloadRequest(router *mux.Router, id, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/artifacts/"+id+"/download", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDownloadFull(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	content := seedReencoded(t, h, "a1", 1000)
	router := newTestRouter(h)

	rec := downloadRequest(router, "a1", "")

	assertStatus(t, rec.Code, http.StatusOK)
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, want %q", got, "bytes")
	}
	if got := rec.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Content-Length = %q, want %q", got, "1000")
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Error("full download body mismatch")
	}
}

func TestDownloadPartial(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	content := seedReencoded(t, h, "a1", 1000)
	router := newTestRouter(h)

	tests := []struct {
		name         string
		rangeHeader  string
		wantStart    int64
		wantEnd      int64
		wantContent  []byte
		contentRange string
	}{
		{
			name:         "first hundred bytes",
			rangeHeader:  "bytes=0-99",
			wantContent:  content[0:100],
			contentRange: "bytes 0-99/1000",
		},
		{
			name:         "open-ended tail",
			rangeHeader:  "bytes=900-",
			wantContent:  content[900:],
			contentRange: "bytes 900-999/1000",
		},
		{
			name:         "end clamped to file size",
			rangeHeader:  "bytes=950-5000",
			wantContent:  content[950:],
			contentRange: "bytes 950-999/1000",
		},
		{
			name:         "interior slice",
			rangeHeader:  "bytes=250-499",
			wantContent:  content[250:500],
			contentRange: "bytes 250-499/1000",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := downloadRequest(router, "a1", tt.rangeHeader)

			assertStatus(t, rec.Code, http.StatusPartialContent)
			if got := rec.Header().Get("Content-Range"); got != tt.contentRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.contentRange)
			}
			if got := rec.Body.Len(); got != len(tt.wantContent) {
				t.Fatalf("body length = %d, want %d", got, len(tt.wantContent))
			}
			if !bytes.Equal(rec.Body.Bytes(), tt.wantContent) {
				t.Error("partial download body mismatch")
			}
		})
	}
}

func TestDownloadFilenameFromOriginalName(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)

	output := filepath.Join(t.TempDir(), "c0ffee.video.800k.mp4")
	if err := os.WriteFile(output, []byte("encoded"), 0o644); err != nil {
		t.Fatal(err)
	}
	seedArtifact(t, h, &database.MediaArtifact{ID: "a1", Name: "holiday.mp4", SourcePath: "/tmp/c0ffee.mp4", Size: 7})
	if err := h.db.CommitReencode(context.Background(), "a1", output, 7, "800k"); err != nil {
		t.Fatalf("failed to commit re-encode: %v", err)
	}
	router := newTestRouter(h)

	rec := downloadRequest(router, "a1", "")

	assertStatus(t, rec.Code, http.StatusOK)
	want := `attachment; filename="holiday.800k.mp4"`
	if got := rec.Header().Get("Content-Disposition"); got != want {
		t.Errorf("Content-Disposition = %q, want %q", got, want)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q, want %q", got, "video/mp4")
	}
}

func TestDownloadRangeUnsatisfiable(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	seedReencoded(t, h, "a1", 1000)
	router := newTestRouter(h)

	rec := downloadRequest(router, "a1", "bytes=2000-")

	assertStatus(t, rec.Code, http.StatusRequestedRangeNotSatisfiable)
	if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
		t.Errorf("Content-Range = %q, want %q", got, "bytes */1000")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("416 response should have no body, got %d bytes", rec.Body.Len())
	}
}

func TestDownloadMalformedRangeServesFull(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	content := seedReencoded(t, h, "a1", 1000)
	router := newTestRouter(h)

	for _, header := range []string{
		"bytes=abc-def",
		"bytes=-100",
		"bytes=0-99,200-299",
		"bits=0-99",
	} {
		rec := downloadRequest(router, "a1", header)
		if rec.Code != http.StatusOK {
			t.Errorf("Range %q: status = %d, want 200", header, rec.Code)
			continue
		}
		if rec.Body.Len() != len(content) {
			t.Errorf("Range %q: body length = %d, want full %d", header, rec.Body.Len(), len(content))
		}
	}
}

func TestDownloadNotReencoded(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	seedArtifact(t, h, &database.MediaArtifact{ID: "a1", Name: "one.mp4", SourcePath: "/tmp/one.mp4", Size: 10})
	router := newTestRouter(h)

	rec := downloadRequest(router, "a1", "")
	assertStatus(t, rec.Code, http.StatusBadRequest)
}

func TestDownloadOutputMissing(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	seedArtifact(t, h, &database.MediaArtifact{ID: "a1", Name: "one.mp4", SourcePath: "/tmp/one.mp4", Size: 10})
	gone := filepath.Join(t.TempDir(), "vanished.mp4")
	if err := h.db.CommitReencode(context.Background(), "a1", gone, 7, "800k"); err != nil {
		t.Fatalf("failed to commit re-encode: %v", err)
	}
	router := newTestRouter(h)

	rec := downloadRequest(router, "a1", "")
	assertStatus(t, rec.Code, http.StatusNotFound)
}

func TestDownloadUnknownArtifact(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	router := newTestRouter(h)

	rec := downloadRequest(router, "missing", "")
	assertStatus(t, rec.Code, http.StatusNotFound)
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		size      int64
		wantRange *byteRange
		wantErr   bool
	}{
		{"no header", "", 1000, nil, false},
		{"full prefix range", "bytes=0-99", 1000, &byteRange{0, 99}, false},
		{"open ended", "bytes=500-", 1000, &byteRange{500, 999}, false},
		{"end clamped", "bytes=900-5000", 1000, &byteRange{900, 999}, false},
		{"single byte", "bytes=999-999", 1000, &byteRange{999, 999}, false},
		{"start at size", "bytes=1000-", 1000, nil, true},
		{"start beyond size", "bytes=2000-", 1000, nil, true},
		{"suffix form ignored", "bytes=-100", 1000, nil, false},
		{"multi-range ignored", "bytes=0-1,5-6", 1000, nil, false},
		{"wrong unit ignored", "bits=0-99", 1000, nil, false},
		{"garbage ignored", "bytes=a-b", 1000, nil, false},
		{"inverted ignored", "bytes=9-5", 1000, nil, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rng, partial, err := parseRange(tt.header, tt.size)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected unsatisfiable-range error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRange() error = %v", err)
			}
			if tt.wantRange == nil {
				if partial {
					t.Fatalf("expected full-content request, got range %+v", rng)
				}
				return
			}
			if !partial || rng == nil {
				t.Fatal("expected a partial range")
			}
			if rng.start != tt.wantRange.start || rng.end != tt.wantRange.end {
				t.Errorf("range = [%d,%d], want [%d,%d]", rng.start, rng.end, tt.wantRange.start, tt.wantRange.end)
			}
		})
	}
}
