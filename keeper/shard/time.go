// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package shard

import (
	"fmt"
	"strings"
	"time"

	"github.com/qcplatform/schemad/keeper/schema"
)

// DefaultFormat returns the default shard-name suffix format per interval.
func DefaultFormat(interval schema.TimeInterval) string {
	switch interval {
	case schema.IntervalDay:
		return "_YYYYMMDD"
	case schema.IntervalMonth:
		return "_YYYYMM"
	default:
		return "_YYYY"
	}
}

// TimeSuffix renders the shard suffix for a point in time, substituting the
// YYYY/MM/DD tokens. An empty format falls back to the interval default.
func TimeSuffix(interval schema.TimeInterval, format string, t time.Time) string {
	if format == "" {
		format = DefaultFormat(interval)
	}
	out := format
	out = strings.ReplaceAll(out, "YYYY", fmt.Sprintf("%04d", t.Year()))
	out = strings.ReplaceAll(out, "MM", fmt.Sprintf("%02d", int(t.Month())))
	out = strings.ReplaceAll(out, "DD", fmt.Sprintf("%02d", t.Day()))
	return out
}

// WindowStart truncates t to the beginning of its window.
func WindowStart(interval schema.TimeInterval, t time.Time) time.Time {
	switch interval {
	case schema.IntervalDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case schema.IntervalMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	}
}

// NextWindow returns the start of the window after the one containing t.
func NextWindow(interval schema.TimeInterval, t time.Time) time.Time {
	start := WindowStart(interval, t)
	switch interval {
	case schema.IntervalDay:
		return start.AddDate(0, 0, 1)
	case schema.IntervalMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(1, 0, 0)
	}
}

// ParseSuffix recovers the window start from a shard suffix in the default
// per-interval format, e.g. _20250101 for day shards.
func ParseSuffix(interval schema.TimeInterval, suffix string) (time.Time, error) {
	trimmed := strings.TrimPrefix(suffix, "_")
	var layout string
	switch interval {
	case schema.IntervalDay:
		layout = "20060102"
	case schema.IntervalMonth:
		layout = "200601"
	default:
		layout = "2006"
	}
	t, err := time.Parse(layout, trimmed)
	if err != nil {
		return time.Time{}, Error.New("unparsable shard suffix %q: %v", suffix, err)
	}
	return t, nil
}

// timeRange enumerates window starts covering [from, to].
func timeRange(interval schema.TimeInterval, from, to time.Time) []time.Time {
	var windows []time.Time
	for at := WindowStart(interval, from); !at.After(to); at = NextWindow(interval, at) {
		windows = append(windows, at)
	}
	return windows
}
