// Package jobs orchestrates asynchronous re-encode jobs.
//
// A job moves through a single state transition: Running, then exactly one
// of Succeeded or Failed. The orchestrator validates each submission
// synchronously, hands the work to the transcoder, and attaches a
// continuation that commits the terminal outcome into the artifact record —
// success populates the re-encoded fields atomically, failure is retained
// on the artifact so status polling can surface it.
package jobs
