// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcplatform/schemad/keeper/schema"
)

func TestParseBaselineName(t *testing.T) {
	tests := []struct {
		raw  string
		want parsedName
	}{
		{"qc_user", parsedName{
			Logical:       "qc_user",
			DatabaseType:  schema.Main,
			PartitionType: schema.PartitionNone,
		}},
		{"qc_op_log@log", parsedName{
			Logical:       "qc_op_log",
			DatabaseType:  schema.Log,
			PartitionType: schema.PartitionNone,
		}},
		{"qc_sale@order#store", parsedName{
			Logical:       "qc_sale",
			DatabaseType:  schema.Order,
			PartitionType: schema.PartitionStore,
		}},
		{"qc_access@log#time_day", parsedName{
			Logical:       "qc_access",
			DatabaseType:  schema.Log,
			PartitionType: schema.PartitionTime,
			TimeInterval:  schema.IntervalDay,
		}},
		{"qc_report#time_month", parsedName{
			Logical:       "qc_report",
			DatabaseType:  schema.Main,
			PartitionType: schema.PartitionTime,
			TimeInterval:  schema.IntervalMonth,
		}},
		{"qc_archive#time_year", parsedName{
			Logical:       "qc_archive",
			DatabaseType:  schema.Main,
			PartitionType: schema.PartitionTime,
			TimeInterval:  schema.IntervalYear,
		}},
		// unknown role marker stays main
		{"qc_x@warehouse", parsedName{
			Logical:       "qc_x",
			DatabaseType:  schema.Main,
			PartitionType: schema.PartitionNone,
		}},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, parseBaselineName(test.raw), test.raw)
	}
}

func TestShardPattern(t *testing.T) {
	store := &schema.TableSchema{
		TableName:     "qc_sale",
		PartitionType: schema.PartitionStore,
	}
	pattern := shardPattern(store)
	require.NotNil(t, pattern)
	assert.True(t, pattern.MatchString("qc_sale_S001"))
	assert.True(t, pattern.MatchString("qc_sale_42"))
	assert.False(t, pattern.MatchString("qc_sale"))
	assert.False(t, pattern.MatchString("qc_sale_"))

	day := &schema.TableSchema{
		TableName:     "qc_access",
		PartitionType: schema.PartitionTime,
		TimeInterval:  schema.IntervalDay,
		TimeFormat:    "_YYYYMMDD",
	}
	pattern = shardPattern(day)
	require.NotNil(t, pattern)
	assert.True(t, pattern.MatchString("qc_access_20250307"))
	assert.False(t, pattern.MatchString("qc_access_2025030"))
	assert.False(t, pattern.MatchString("qc_access_backup"))

	plain := &schema.TableSchema{
		TableName:     "qc_user",
		PartitionType: schema.PartitionNone,
	}
	assert.Nil(t, shardPattern(plain))
}
