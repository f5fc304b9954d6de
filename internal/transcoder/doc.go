// Package transcoder drives media re-encoding through FFmpeg subprocesses.
//
// A transcode is started asynchronously: Start validates the source file,
// derives the deterministic output path and returns a job ID plus a channel
// delivering the single terminal result. While the subprocess runs, progress
// is derived from ffmpeg's time= stats output relative to the ffprobe
// duration of the source and published to a shared progress tracker.
//
// The package also exposes ffprobe metadata extraction as a pass-through
// JSON report.
//
// FFmpeg and ffprobe must be installed and available in the system PATH.
package transcoder
