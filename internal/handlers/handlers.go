package handlers

import (
	"context"

	"media-encoder/internal/database"
	"media-encoder/internal/jobs"
	"media-encoder/internal/progress"
	"media-encoder/internal/startup"
	"media-encoder/internal/streaming"
	"media-encoder/internal/transcoder"
)

// Submitter accepts re-encode job submissions.
type Submitter interface {
	Submit(ctx context.Context, artifactID, targetBitrate, streamType string) (string, error)
}

// Prober inspects a media file and returns its probe report.
type Prober interface {
	Probe(ctx context.Context, filePath string) (*transcoder.ProbeReport, error)
}

type Handlers struct {
	db           *database.Database
	orchestrator Submitter
	prober       Prober
	tracker      *progress.Tracker
	uploadDir    string
	streamConfig streaming.TimeoutWriterConfig
}

func New(db *database.Database, orch *jobs.Orchestrator, trans *transcoder.Transcoder, tracker *progress.Tracker, config *startup.Config) *Handlers {
	return &Handlers{
		db:           db,
		orchestrator: orch,
		prober:       trans,
		tracker:      tracker,
		uploadDir:    config.UploadDir,
		streamConfig: streaming.DefaultTimeoutWriterConfig(),
	}
}
