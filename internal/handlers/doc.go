// Package handlers implements the HTTP API: artifact upload and listing,
// re-encode job submission, progress and status queries, range-aware
// downloads of re-encoded output, and operational endpoints (health,
// version, metrics).
package handlers
