package bitrate

import (
	"fmt"
	"strconv"
)

// Unit is the bitrate unit suffix accepted in a target bitrate literal.
type Unit string

const (
	// UnitBits means the literal carried no suffix and is read as bits/second.
	UnitBits Unit = ""
	// UnitKilobits is the "k" suffix (kilobits/second).
	UnitKilobits Unit = "k"
	// UnitMegabits is the "M" suffix (megabits/second).
	UnitMegabits Unit = "M"
)

// Plausibility bounds per unit. Values outside these produce either corrupt
// output (near-zero) or impractically large files, so they are rejected even
// when syntactically well-formed.
const (
	minKilobits = 8
	maxKilobits = 8000
	minMegabits = 1
	maxMegabits = 50
	minBits     = 8000
	maxBits     = 50000000
)

// Bitrate is a validated, normalized target bitrate.
type Bitrate struct {
	Value int64
	Unit  Unit
}

// Parse validates a bitrate literal of the form "<digits>", "<digits>k" or
// "<digits>M" and returns the normalized value. It has no side effects.
func Parse(s string) (Bitrate, error) {
	if s == "" {
		return Bitrate{}, fmt.Errorf("bitrate is empty")
	}

	digits := s
	unit := UnitBits
	switch s[len(s)-1] {
	case 'k':
		digits = s[:len(s)-1]
		unit = UnitKilobits
	case 'M':
		digits = s[:len(s)-1]
		unit = UnitMegabits
	}

	if digits == "" {
		return Bitrate{}, fmt.Errorf("bitrate %q has no numeric value", s)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Bitrate{}, fmt.Errorf("bitrate %q is not of the form <digits>[k|M]", s)
		}
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Bitrate{}, fmt.Errorf("bitrate %q is out of numeric range", s)
	}

	var min, max int64
	switch unit {
	case UnitKilobits:
		min, max = minKilobits, maxKilobits
	case UnitMegabits:
		min, max = minMegabits, maxMegabits
	default:
		min, max = minBits, maxBits
	}

	if value < min || value > max {
		return Bitrate{}, fmt.Errorf("bitrate %q is outside the plausible range %d-%d%s", s, min, max, unit)
	}

	return Bitrate{Value: value, Unit: unit}, nil
}

// String returns the canonical literal, suitable as an ffmpeg -b argument.
func (b Bitrate) String() string {
	return strconv.FormatInt(b.Value, 10) + string(b.Unit)
}

// BitsPerSecond returns the bitrate normalized to bits/second.
func (b Bitrate) BitsPerSecond() int64 {
	switch b.Unit {
	case UnitKilobits:
		return b.Value * 1000
	case UnitMegabits:
		return b.Value * 1000000
	default:
		return b.Value
	}
}
