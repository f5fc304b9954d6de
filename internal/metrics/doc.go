// Package metrics defines Prometheus metrics for the media encoder service.
//
// Metrics cover HTTP traffic, database queries, re-encode job lifecycle
// (submissions, completions, durations, output size) and artifact downloads.
// All metrics are registered via promauto at package init and served from
// the /metrics endpoint.
package metrics
