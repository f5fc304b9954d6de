package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"media-encoder/internal/bitrate"
	"media-encoder/internal/database"
	"media-encoder/internal/logging"
	"media-encoder/internal/metrics"
	"media-encoder/internal/transcoder"
)

// ErrValidation marks submission errors the client can fix (malformed
// bitrate, unknown stream type).
var ErrValidation = errors.New("invalid submission")

// commitTimeout bounds the database write performed when a background job
// reaches its terminal state.
const commitTimeout = 10 * time.Second

// Starter starts asynchronous transcodes. Implemented by
// *transcoder.Transcoder; abstracted so tests can substitute a fake.
type Starter interface {
	Start(ctx context.Context, sourcePath string, target bitrate.Bitrate, streamType transcoder.StreamType) (string, <-chan transcoder.Result, error)
}

// Orchestrator accepts re-encode submissions, starts them as background
// transcodes and commits each terminal outcome into the artifact record.
//
// A submission returns as soon as the transcode has started; failures that
// happen afterwards are never raised to the submitting caller. They are
// recorded on the artifact and become visible through status polling.
type Orchestrator struct {
	db      *database.Database
	starter Starter

	// ctx outlives individual submissions: a job must keep running after
	// the submitting request's context is done.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Orchestrator committing outcomes into db.
func New(db *database.Database, starter Starter) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		db:      db,
		starter: starter,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit validates a re-encode request, starts the transcode in the
// background and returns the job ID. The request context bounds only the
// synchronous validation work.
//
// Distinguishable failures: ErrValidation for malformed input,
// database.ErrArtifactNotFound for an unknown artifact, and
// transcoder.ErrSourceNotFound when the staged source file is gone.
func (o *Orchestrator) Submit(ctx context.Context, artifactID, targetBitrate, streamType string) (string, error) {
	target, err := bitrate.Parse(targetBitrate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	st, err := transcoder.ParseStreamType(streamType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	artifact, err := o.db.GetArtifact(ctx, artifactID)
	if err != nil {
		return "", err
	}

	jobID, results, err := o.starter.Start(o.ctx, artifact.SourcePath, target, st)
	if err != nil {
		return "", err
	}

	metrics.JobsSubmittedTotal.WithLabelValues(string(st)).Inc()
	metrics.JobTargetBitrate.WithLabelValues(string(st)).Observe(float64(target.BitsPerSecond()))
	logging.Info("Job %s: re-encode of artifact %s (%s @ %s) started", jobID, artifactID, st, target)

	o.wg.Add(1)
	go o.await(jobID, artifactID, target.String(), results)

	return jobID, nil
}

// await is the background continuation: it consumes the job's single result
// and performs the durable state transition for either outcome.
func (o *Orchestrator) await(jobID, artifactID, targetBitrate string, results <-chan transcoder.Result) {
	defer o.wg.Done()

	res := <-results

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	if res.Err != nil {
		logging.Error("Job %s: transcode of artifact %s failed: %v", jobID, artifactID, res.Err)
		if err := o.db.RecordReencodeFailure(ctx, artifactID, res.Err.Error()); err != nil {
			logging.Error("Job %s: failed to record failure for artifact %s: %v", jobID, artifactID, err)
		}
		return
	}

	if err := o.db.CommitReencode(ctx, artifactID, res.OutputPath, res.OutputSize, targetBitrate); err != nil {
		logging.Error("Job %s: failed to commit re-encode for artifact %s: %v", jobID, artifactID, err)
		return
	}

	logging.Info("Job %s: artifact %s re-encoded to %s (%d bytes)", jobID, artifactID, res.OutputPath, res.OutputSize)
}

// Wait blocks until every in-flight continuation has committed its outcome.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Stop cancels the background context shared by running transcodes and
// waits for their continuations to finish. Called on shutdown.
func (o *Orchestrator) Stop() {
	o.cancel()
	o.wg.Wait()
}
