// Package progress tracks transcode job completion percentages.
//
// A single Tracker instance is shared between the transcoder, which owns
// write access for its jobs, and the progress query handler, which reads by
// job ID. Entries live only while the owning job is in flight.
package progress
