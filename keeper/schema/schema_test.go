// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcplatform/schemad/keeper/schema"
)

func validEntry() *schema.TableSchema {
	return &schema.TableSchema{
		TableName:     "qc_user",
		DatabaseType:  schema.Main,
		PartitionType: schema.PartitionNone,
		SchemaVersion: "1.0.0",
		Definition: schema.TableDefinition{
			TableName: "qc_user",
			Columns: []schema.Column{
				{Name: "user_id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "name", Type: "VARCHAR", Length: 100},
			},
		},
	}
}

func TestTableSchemaValidate(t *testing.T) {
	require.NoError(t, validEntry().Validate())

	entry := validEntry()
	entry.TableName = ""
	require.True(t, schema.ErrValidation.Has(entry.Validate()))

	entry = validEntry()
	entry.DatabaseType = "warehouse"
	require.True(t, schema.ErrValidation.Has(entry.Validate()))

	entry = validEntry()
	entry.PartitionType = "hash"
	require.True(t, schema.ErrValidation.Has(entry.Validate()))

	entry = validEntry()
	entry.SchemaVersion = "one.two"
	require.True(t, schema.ErrValidation.Has(entry.Validate()))
}

func TestTableSchemaValidateTimePartition(t *testing.T) {
	entry := validEntry()
	entry.PartitionType = schema.PartitionTime
	require.True(t, schema.ErrValidation.Has(entry.Validate()), "missing interval")

	entry.TimeInterval = schema.IntervalDay
	require.True(t, schema.ErrValidation.Has(entry.Validate()), "missing format")

	entry.TimeFormat = "_YYYYMMDD"
	require.NoError(t, entry.Validate())
}

func TestPartitionRule(t *testing.T) {
	entry := validEntry()
	assert.Equal(t, "none", entry.PartitionRule())

	entry.PartitionType = schema.PartitionStore
	assert.Equal(t, "store", entry.PartitionRule())

	entry.PartitionType = schema.PartitionTime
	entry.TimeInterval = schema.IntervalMonth
	assert.Equal(t, "time_month", entry.PartitionRule())
}

func TestDefinitionValidate(t *testing.T) {
	def := schema.TableDefinition{TableName: "t"}
	require.True(t, schema.ErrValidation.Has(def.Validate()), "no columns")

	def.Columns = []schema.Column{
		{Name: "id", Type: "INT"},
		{Name: "id", Type: "INT"},
	}
	require.True(t, schema.ErrValidation.Has(def.Validate()), "duplicate column")

	def.Columns = []schema.Column{{Name: "id", Type: "INT"}}
	def.Indexes = []schema.Index{{Name: "idx_missing", Fields: []string{"nope"}}}
	require.True(t, schema.ErrValidation.Has(def.Validate()), "index on unknown column")

	def.Indexes = []schema.Index{{Name: "idx_id", Fields: []string{"id"}}}
	require.NoError(t, def.Validate())

	// a tombstone needs no columns
	drop := schema.TableDefinition{TableName: "t", Action: schema.ActionDrop}
	require.NoError(t, drop.Validate())
}

func TestColumnNullable(t *testing.T) {
	var col schema.Column
	assert.True(t, col.Nullable(), "unspecified means nullable")

	no := false
	col.AllowNull = &no
	assert.False(t, col.Nullable())

	yes := true
	col.AllowNull = &yes
	assert.True(t, col.Nullable())
}

func TestIsDrop(t *testing.T) {
	def := schema.TableDefinition{Action: "drop"}
	assert.True(t, def.IsDrop(), "case insensitive")
	def.Action = ""
	assert.False(t, def.IsDrop())
}
