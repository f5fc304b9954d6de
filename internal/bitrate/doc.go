// Package bitrate validates and normalizes target bitrate literals for
// re-encode requests.
//
// Accepted forms are an integer immediately followed by an optional unit:
// "k" (kilobits/second) or "M" (megabits/second). Bare integers are read as
// bits/second. Each unit has a plausibility range; well-formed values outside
// the range are rejected to guard against degenerate encodes.
package bitrate
