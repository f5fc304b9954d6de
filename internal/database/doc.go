// Package database provides SQLite persistence for media artifact records.
//
// It stores the artifact's staged source file location and the terminal
// outcome of re-encode jobs: the output path, size and bitrate (committed
// atomically in a single statement) or the diagnostic text of the last
// failed job.
//
// The database uses WAL mode so status queries never block the background
// commit performed when a job finishes. Schema is initialized automatically.
package database
