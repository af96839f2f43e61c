// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/qcplatform/schemad/keeper/schema"
)

func dayEntry() *schema.TableSchema {
	return &schema.TableSchema{
		TableName:     "qc_access_log",
		DatabaseType:  schema.Log,
		PartitionType: schema.PartitionTime,
		TimeInterval:  schema.IntervalDay,
		TimeFormat:    "_YYYYMMDD",
	}
}

func TestExpiredShards(t *testing.T) {
	cutoff := time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC)
	names := []string{
		"qc_access_log_20260601", // window long over, expired
		"qc_access_log_20260724", // ends exactly at the cutoff, kept
		"qc_access_log_20260725", // kept
		"qc_access_log_20260810", // current, kept
	}

	expired := ExpiredShards(dayEntry(), names, cutoff)
	assert.Equal(t, []string{"qc_access_log_20260601"}, expired)
}

func TestExpiredShardsKeepsOldestRetainedWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	chore := &Chore{config: Config{Days: 30, Months: 3, Years: 3}, nowFn: func() time.Time { return now }}

	expired := ExpiredShards(dayEntry(), []string{
		"qc_access_log_20250101",
		"qc_access_log_20250501",
	}, chore.cutoff(schema.IntervalDay))
	assert.Equal(t, []string{"qc_access_log_20250101"}, expired,
		"a 30-day policy on 2025-06-01 still retains the 2025-05-01 shard")
}

func TestExpiredShardsKeepsUnparsableNames(t *testing.T) {
	cutoff := time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC)
	names := []string{
		"qc_access_log_backup",
		"qc_access_log_20250101_old",
		"qc_access_log_20250101",
	}

	expired := ExpiredShards(dayEntry(), names, cutoff)
	assert.Equal(t, []string{"qc_access_log_20250101"}, expired,
		"a suffix we cannot parse is never dropped")
}

func TestExpiredShardsMonthly(t *testing.T) {
	entry := dayEntry()
	entry.TimeInterval = schema.IntervalMonth
	entry.TimeFormat = "_YYYYMM"
	cutoff := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	expired := ExpiredShards(entry, []string{
		"qc_access_log_202601",
		"qc_access_log_202604", // ends exactly at the cutoff, kept
		"qc_access_log_202605",
		"qc_access_log_202608",
	}, cutoff)
	assert.Equal(t, []string{"qc_access_log_202601"}, expired)
}

func TestCutoff(t *testing.T) {
	now := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)
	chore := &Chore{config: Config{Days: 30, Months: 3, Years: 3}, nowFn: func() time.Time { return now }}

	assert.Equal(t, time.Date(2026, 7, 25, 0, 0, 0, 0, time.UTC),
		chore.cutoff(schema.IntervalDay))
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		chore.cutoff(schema.IntervalMonth))
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		chore.cutoff(schema.IntervalYear))
}

func TestConfigNormalize(t *testing.T) {
	var config Config
	config.normalize()
	assert.Equal(t, 24*time.Hour, config.Interval)
	assert.Equal(t, DefaultDays, config.Days)
	assert.Equal(t, DefaultMonths, config.Months)
	assert.Equal(t, DefaultYears, config.Years)

	config = Config{Interval: time.Hour, Days: 7, Months: 1, Years: 1}
	config.normalize()
	assert.Equal(t, time.Hour, config.Interval)
	assert.Equal(t, 7, config.Days)
}
