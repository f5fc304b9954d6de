// Package streaming provides timeout-protected writing of artifact bytes to
// HTTP responses.
//
// Downloads of large re-encoded files can stall when a client stops reading;
// the TimeoutWriter enforces per-write and idle timeouts so handler
// goroutines are always reclaimed.
package streaming
