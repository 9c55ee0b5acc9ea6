// Package timecode parses clock-style timestamps and models the time
// intervals shared by trim ranges, transcript words, and diarization turns.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is a closed range of seconds with Start <= End.
type Interval struct {
	Start float64
	End   float64
}

// Contains reports whether the instant falls inside the interval, boundaries
// included.
func (iv Interval) Contains(seconds float64) bool {
	return iv.Start <= seconds && seconds <= iv.End
}

// Duration returns the interval length in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// ParseClock parses an "HH:MM:SS" timestamp into seconds. Minutes and seconds
// must be below 60; hours are unbounded.
func ParseClock(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("timestamp %q is not HH:MM:SS", value)
	}
	fields := make([]int, 3)
	for i, part := range parts {
		if part == "" {
			return 0, fmt.Errorf("timestamp %q is not HH:MM:SS", value)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("timestamp %q is not HH:MM:SS", value)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("timestamp %q has out-of-range minutes or seconds", value)
	}
	return float64(fields[0]*3600 + fields[1]*60 + fields[2]), nil
}

// ParseClockRange parses a start/end pair of "HH:MM:SS" timestamps into an
// Interval and validates ordering.
func ParseClockRange(start, end string) (Interval, error) {
	startSec, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	endSec, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if endSec < startSec {
		return Interval{}, fmt.Errorf("range end %q precedes start %q", end, start)
	}
	return Interval{Start: startSec, End: endSec}, nil
}
