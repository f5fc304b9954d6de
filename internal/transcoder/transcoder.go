package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-encoder/internal/bitrate"
	"media-encoder/internal/logging"
	"media-encoder/internal/metrics"
	"media-encoder/internal/progress"
)

// StreamType selects which stream of the container a re-encode targets.
type StreamType string

const (
	StreamVideo StreamType = "video"
	StreamAudio StreamType = "audio"
)

// ParseStreamType validates a stream type literal.
func ParseStreamType(s string) (StreamType, error) {
	switch StreamType(s) {
	case StreamVideo, StreamAudio:
		return StreamType(s), nil
	default:
		return "", fmt.Errorf("stream type %q is not one of video, audio", s)
	}
}

// ErrSourceNotFound is returned by Start when the source file is missing.
var ErrSourceNotFound = errors.New("source file not found")

// fixedAudioBitrate is used for the audio track of video re-encodes so that
// shrinking the video stream does not degrade audio quality.
const fixedAudioBitrate = "128k"

// stderrTailLines bounds how much ffmpeg diagnostic output a failure carries.
const stderrTailLines = 20

// Result is the terminal outcome of a transcode job.
type Result struct {
	OutputPath string
	OutputSize int64
	Err        error
}

// TranscodeFailure describes a failed ffmpeg run. Detail carries the tail of
// the subprocess's stderr output.
type TranscodeFailure struct {
	Detail string
	Err    error
}

func (f *TranscodeFailure) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("transcode failed: %v", f.Err)
	}
	return fmt.Sprintf("transcode failed: %v: %s", f.Err, f.Detail)
}

func (f *TranscodeFailure) Unwrap() error {
	return f.Err
}

// Transcoder runs ffmpeg re-encodes as background subprocesses and reports
// fractional progress for each job through a shared progress.Tracker.
type Transcoder struct {
	outputDir string
	ffmpeg    string
	ffprobe   string
	tracker   *progress.Tracker

	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

// New creates a Transcoder writing re-encoded output into outputDir.
// ffmpeg and ffprobe are resolved from PATH.
func New(outputDir string, tracker *progress.Tracker) *Transcoder {
	return &Transcoder{
		outputDir: outputDir,
		ffmpeg:    "ffmpeg",
		ffprobe:   "ffprobe",
		tracker:   tracker,
		processes: make(map[string]*exec.Cmd),
	}
}

// OutputName derives the deterministic output file name for a source file,
// stream type and target bitrate, so repeated requests with different
// parameters produce distinguishable outputs.
func OutputName(sourceName string, streamType StreamType, target bitrate.Bitrate) string {
	ext := filepath.Ext(sourceName)
	base := strings.TrimSuffix(sourceName, ext)
	return fmt.Sprintf("%s.%s.%s%s", base, streamType, target, ext)
}

// Start begins a transcode of sourcePath at the target bitrate as a
// background task and returns the generated job ID together with a channel
// that yields the single terminal Result. The only synchronous work is
// checking that the source file exists.
//
// The caller's context governs the subprocess lifetime; pass a context that
// outlives the submitting request. Cancellation mid-run is not supported
// beyond context cancellation killing the process.
func (t *Transcoder) Start(ctx context.Context, sourcePath string, target bitrate.Bitrate, streamType StreamType) (string, <-chan Result, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
		}
		return "", nil, fmt.Errorf("failed to stat source %s: %w", sourcePath, err)
	}

	jobID := uuid.NewString()
	outputPath := filepath.Join(t.outputDir, OutputName(filepath.Base(sourcePath), streamType, target))

	results := make(chan Result, 1)
	t.tracker.Set(jobID, 0)

	go t.run(ctx, jobID, sourcePath, outputPath, target, streamType, results)

	return jobID, results, nil
}

// run executes the transcode and delivers exactly one Result. The progress
// tracker entry is removed exactly once, on either outcome.
func (t *Transcoder) run(ctx context.Context, jobID, sourcePath, outputPath string, target bitrate.Bitrate, streamType StreamType, results chan<- Result) {
	defer t.tracker.Remove(jobID)

	start := time.Now()
	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	report, err := t.Probe(ctx, sourcePath)
	if err != nil {
		results <- Result{Err: &TranscodeFailure{Err: err}}
		return
	}

	args := buildArgs(sourcePath, outputPath, target, streamType, report.HasVideo())
	logging.Debug("Job %s: ffmpeg %s", jobID, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, t.ffmpeg, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		results <- Result{Err: &TranscodeFailure{Err: fmt.Errorf("failed to create stderr pipe: %w", err)}}
		return
	}

	if err := cmd.Start(); err != nil {
		results <- Result{Err: &TranscodeFailure{Err: fmt.Errorf("failed to start ffmpeg: %w", err)}}
		return
	}

	t.processMu.Lock()
	t.processes[jobID] = cmd
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, jobID)
		t.processMu.Unlock()
	}()

	tail := t.consumeProgress(jobID, stderr, report.DurationSeconds())

	if err := cmd.Wait(); err != nil {
		// Remove a partial output so a stale file can never be served.
		if removeErr := os.Remove(outputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.Warn("Job %s: failed to remove partial output %s: %v", jobID, outputPath, removeErr)
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		metrics.JobsCompletedTotal.WithLabelValues(string(streamType), "error").Inc()
		results <- Result{Err: &TranscodeFailure{Detail: tail, Err: err}}
		return
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		metrics.JobsCompletedTotal.WithLabelValues(string(streamType), "error").Inc()
		results <- Result{Err: &TranscodeFailure{Err: fmt.Errorf("output file missing after transcode: %w", err)}}
		return
	}

	t.tracker.Set(jobID, 100)
	metrics.JobsCompletedTotal.WithLabelValues(string(streamType), "success").Inc()
	metrics.TranscodeDuration.WithLabelValues(string(streamType)).Observe(time.Since(start).Seconds())
	metrics.TranscodeOutputBytes.WithLabelValues(string(streamType)).Add(float64(info.Size()))

	logging.Info("Job %s: transcode complete, %d bytes in %v", jobID, info.Size(), time.Since(start).Round(time.Millisecond))
	results <- Result{OutputPath: outputPath, OutputSize: info.Size()}
}

// buildArgs assembles the ffmpeg invocation for the encoding policy:
//   - video: re-encode the video stream at the target bitrate, keep audio at
//     a fixed bitrate, lay the container out for network streaming.
//   - audio: re-encode the audio stream at the target bitrate; when a video
//     stream is present, copy it verbatim instead of re-encoding it.
func buildArgs(sourcePath, outputPath string, target bitrate.Bitrate, streamType StreamType, hasVideo bool) []string {
	args := []string{"-y", "-i", sourcePath}

	switch streamType {
	case StreamVideo:
		args = append(args,
			"-c:v", "libx264",
			"-b:v", target.String(),
			"-c:a", "aac",
			"-b:a", fixedAudioBitrate,
			"-movflags", "+faststart",
		)
	case StreamAudio:
		if hasVideo {
			args = append(args, "-c:v", "copy")
		}
		args = append(args,
			"-c:a", "aac",
			"-b:a", target.String(),
		)
	}

	return append(args, outputPath)
}

// timePattern matches ffmpeg's periodic stats output, e.g. "time=00:01:23.45".
var timePattern = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)

// consumeProgress reads ffmpeg stderr until EOF, updating the tracker from
// the time= stats lines, and returns the tail of the output for diagnostics.
// Progress is pinned below 100 until the process has actually exited.
func (t *Transcoder) consumeProgress(jobID string, stderr io.Reader, durationSeconds float64) string {
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanLinesOrCR)

	var tail []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if m := timePattern.FindStringSubmatch(line); m != nil && durationSeconds > 0 {
			hours, _ := strconv.Atoi(m[1])
			mins, _ := strconv.Atoi(m[2])
			secs, _ := strconv.Atoi(m[3])

			elapsed := float64(hours*3600 + mins*60 + secs)
			percent := int(elapsed / durationSeconds * 100)
			if percent > 99 {
				percent = 99
			}
			t.tracker.Set(jobID, percent)
			continue
		}

		tail = append(tail, line)
		if len(tail) > stderrTailLines {
			tail = tail[1:]
		}
	}

	return strings.Join(tail, "\n")
}

// scanLinesOrCR splits on both \n and \r, since ffmpeg rewrites its stats
// line in place using bare carriage returns.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Cleanup kills all in-flight ffmpeg processes. Called on shutdown.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for jobID, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing transcode process for job %s", jobID)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transcode process for job %s: %v", jobID, err)
			}
		}
	}
}
