package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeFormat is the container-level section of an ffprobe report.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeStream is a single stream entry of an ffprobe report.
type ProbeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// ProbeReport is the parsed ffprobe output for a media file. Raw holds the
// unmodified JSON document so callers can pass probe output through verbatim.
type ProbeReport struct {
	Format  ProbeFormat     `json:"format"`
	Streams []ProbeStream   `json:"streams"`
	Raw     json.RawMessage `json:"-"`
}

// DurationSeconds returns the container duration, falling back to the
// longest stream duration when the container does not report one.
func (r *ProbeReport) DurationSeconds() float64 {
	if d, err := strconv.ParseFloat(r.Format.Duration, 64); err == nil && d > 0 {
		return d
	}

	var longest float64
	for _, s := range r.Streams {
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > longest {
			longest = d
		}
	}
	return longest
}

// HasVideo reports whether the container carries a video stream.
func (r *ProbeReport) HasVideo() bool {
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}

// Probe runs ffprobe against a media file and returns the parsed report.
func (t *Transcoder) Probe(ctx context.Context, filePath string) (*ProbeReport, error) {
	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	report := &ProbeReport{}
	if err := json.Unmarshal(stdout.Bytes(), report); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	report.Raw = json.RawMessage(stdout.Bytes())

	return report, nil
}
