package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrArtifactNotFound is returned when an artifact ID does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// CreateArtifact inserts a new artifact record.
func (d *Database) CreateArtifact(ctx context.Context, a *MediaArtifact) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_artifact", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, name, source_path, size, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.SourcePath, a.Size, a.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", a.ID, err)
	}
	return nil
}

// GetArtifact retrieves an artifact by ID.
// Returns ErrArtifactNotFound if the ID is unknown.
func (d *Database) GetArtifact(ctx context.Context, id string) (*MediaArtifact, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_artifact", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, source_path, size, created_at,
		       is_reencoded, reencoded_path, reencoded_size, reencoded_bitrate,
		       last_error, last_error_at
		FROM artifacts WHERE id = ?
	`, id)

	a, scanErr := scanArtifact(row)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if scanErr != nil {
		err = scanErr
		return nil, fmt.Errorf("failed to get artifact %s: %w", id, scanErr)
	}
	return a, nil
}

// ListArtifacts returns all artifacts, newest first.
func (d *Database) ListArtifacts(ctx context.Context) ([]MediaArtifact, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_artifacts", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, source_path, size, created_at,
		       is_reencoded, reencoded_path, reencoded_size, reencoded_bitrate,
		       last_error, last_error_at
		FROM artifacts ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []MediaArtifact{}
	for rows.Next() {
		a, scanErr := scanArtifact(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("failed to scan artifact row: %w", scanErr)
		}
		artifacts = append(artifacts, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifact rows: %w", err)
	}
	return artifacts, nil
}

// CommitReencode records a successful re-encode outcome. The terminal fields
// (path, size, bitrate) and the is_reencoded flag are written in one UPDATE,
// and any previous failure is cleared, so readers observe all of the new
// state or none of it. With concurrent jobs for one artifact the last commit
// wins whole.
func (d *Database) CommitReencode(ctx context.Context, id, outputPath string, outputSize int64, bitrate string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("commit_reencode", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `
		UPDATE artifacts
		SET is_reencoded = 1,
		    reencoded_path = ?,
		    reencoded_size = ?,
		    reencoded_bitrate = ?,
		    last_error = NULL,
		    last_error_at = NULL
		WHERE id = ?
	`, outputPath, outputSize, bitrate, id)
	if err != nil {
		return fmt.Errorf("failed to commit re-encode for artifact %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for artifact %s: %w", id, err)
	}
	if affected == 0 {
		err = ErrArtifactNotFound
		return err
	}
	return nil
}

// RecordReencodeFailure stores the diagnostic text of a failed background
// job so status queries can surface it. An artifact that was already
// re-encoded successfully keeps its terminal fields; only the error columns
// change.
func (d *Database) RecordReencodeFailure(ctx context.Context, id, message string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_failure", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `
		UPDATE artifacts
		SET last_error = ?, last_error_at = strftime('%s', 'now')
		WHERE id = ?
	`, message, id)
	if err != nil {
		return fmt.Errorf("failed to record failure for artifact %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for artifact %s: %w", id, err)
	}
	if affected == 0 {
		err = ErrArtifactNotFound
		return err
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanArtifact.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArtifact(s scanner) (*MediaArtifact, error) {
	var (
		a           MediaArtifact
		createdAt   int64
		isReencoded int
		path        sql.NullString
		size        sql.NullInt64
		bitrate     sql.NullString
		lastErr     sql.NullString
		lastErrAt   sql.NullInt64
	)

	if err := s.Scan(&a.ID, &a.Name, &a.SourcePath, &a.Size, &createdAt,
		&isReencoded, &path, &size, &bitrate, &lastErr, &lastErrAt); err != nil {
		return nil, err
	}

	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	a.IsReencoded = isReencoded != 0
	if path.Valid {
		a.ReencodedPath = path.String
	}
	if size.Valid {
		a.ReencodedSize = size.Int64
	}
	if bitrate.Valid {
		a.ReencodedBitrate = bitrate.String
	}
	if lastErr.Valid {
		a.LastError = lastErr.String
	}
	if lastErrAt.Valid {
		a.LastErrorAt = time.Unix(lastErrAt.Int64, 0).UTC()
	}
	return &a, nil
}
