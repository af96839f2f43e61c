// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package shard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/shard"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaultFormat(t *testing.T) {
	assert.Equal(t, "_YYYYMMDD", shard.DefaultFormat(schema.IntervalDay))
	assert.Equal(t, "_YYYYMM", shard.DefaultFormat(schema.IntervalMonth))
	assert.Equal(t, "_YYYY", shard.DefaultFormat(schema.IntervalYear))
}

func TestTimeSuffix(t *testing.T) {
	at := date(2025, time.March, 7)
	assert.Equal(t, "_20250307", shard.TimeSuffix(schema.IntervalDay, "", at))
	assert.Equal(t, "_202503", shard.TimeSuffix(schema.IntervalMonth, "", at))
	assert.Equal(t, "_2025", shard.TimeSuffix(schema.IntervalYear, "", at))

	// custom format
	assert.Equal(t, "_2025_03", shard.TimeSuffix(schema.IntervalMonth, "_YYYY_MM", at))
}

func TestWindowBoundaries(t *testing.T) {
	at := time.Date(2025, time.June, 15, 13, 45, 12, 0, time.UTC)

	assert.Equal(t, date(2025, time.June, 15), shard.WindowStart(schema.IntervalDay, at))
	assert.Equal(t, date(2025, time.June, 1), shard.WindowStart(schema.IntervalMonth, at))
	assert.Equal(t, date(2025, time.January, 1), shard.WindowStart(schema.IntervalYear, at))

	assert.Equal(t, date(2025, time.June, 16), shard.NextWindow(schema.IntervalDay, at))
	assert.Equal(t, date(2025, time.July, 1), shard.NextWindow(schema.IntervalMonth, at))
	assert.Equal(t, date(2026, time.January, 1), shard.NextWindow(schema.IntervalYear, at))
}

func TestNextWindowYearBoundary(t *testing.T) {
	// December rolls into January of the next year for every interval
	at := time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, date(2026, time.January, 1), shard.NextWindow(schema.IntervalDay, at))
	assert.Equal(t, date(2026, time.January, 1), shard.NextWindow(schema.IntervalMonth, at))
	assert.Equal(t, date(2026, time.January, 1), shard.NextWindow(schema.IntervalYear, at))

	assert.Equal(t, "_20251231", shard.TimeSuffix(schema.IntervalDay, "", at))
	assert.Equal(t, "_20260101",
		shard.TimeSuffix(schema.IntervalDay, "", shard.NextWindow(schema.IntervalDay, at)))
}

func TestParseSuffix(t *testing.T) {
	start, err := shard.ParseSuffix(schema.IntervalDay, "_20250307")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 7), start)

	start, err = shard.ParseSuffix(schema.IntervalMonth, "_202503")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 1), start)

	start, err = shard.ParseSuffix(schema.IntervalYear, "_2025")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 1), start)

	_, err = shard.ParseSuffix(schema.IntervalDay, "_backup")
	require.Error(t, err)
}
