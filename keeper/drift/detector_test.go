// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package drift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/schema"
)

type baselineTable struct {
	columns []inspect.Column
	indexes []inspect.Index
}

type fakeSource struct {
	order  []string
	tables map[string]baselineTable
}

func (source *fakeSource) TableNames(ctx context.Context, prefix string) ([]string, error) {
	return source.order, nil
}

func (source *fakeSource) Columns(ctx context.Context, table string) ([]inspect.Column, error) {
	return source.tables[table].columns, nil
}

func (source *fakeSource) Indexes(ctx context.Context, table string) ([]inspect.Index, error) {
	return source.tables[table].indexes, nil
}

type fakeCatalog struct {
	schema.Catalog

	active []*schema.TableSchema
	saved  []*schema.TableSchema
}

func (c *fakeCatalog) PutNewVersion(ctx context.Context, entry *schema.TableSchema) error {
	c.saved = append(c.saved, entry)
	return nil
}

func (c *fakeCatalog) GetActive(ctx context.Context, name string, db schema.DatabaseType, pt schema.PartitionType) (*schema.TableSchema, error) {
	for _, entry := range c.active {
		if entry.TableName == name && entry.DatabaseType == db && entry.PartitionType == pt {
			return entry, nil
		}
	}
	return nil, schema.ErrNotFound.New("%s@%s@%s", name, db, pt)
}

func (c *fakeCatalog) ListAllActive(ctx context.Context) ([]*schema.TableSchema, error) {
	return c.active, nil
}

func userColumns() []inspect.Column {
	return []inspect.Column{
		{Name: "user_id", DataType: "int", Key: "PRI", Extra: "auto_increment", Nullable: false},
		{Name: "name", DataType: "varchar", Length: 100, Nullable: true},
	}
}

func userEntry() *schema.TableSchema {
	return &schema.TableSchema{
		TableName:     "qc_user",
		DatabaseType:  schema.Main,
		PartitionType: schema.PartitionNone,
		SchemaVersion: "1.2.0",
		IsActive:      true,
		Definition: schema.TableDefinition{
			TableName: "qc_user",
			Columns: []schema.Column{
				{Name: "user_id", Type: "INT", AllowNull: func() *bool { b := false; return &b }(), PrimaryKey: true, AutoIncrement: true},
				{Name: "name", Type: "VARCHAR", Length: 100},
			},
		},
	}
}

func TestDetectAllNewTable(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		order: []string{"qc_access@log#time_day"},
		tables: map[string]baselineTable{
			"qc_access@log#time_day": {columns: userColumns()},
		},
	}
	catalog := &fakeCatalog{}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposals, err := detector.DetectAll(ctx)
	require.NoError(t, err)
	require.Len(t, proposals, 1)

	proposal := proposals[0]
	assert.Equal(t, "qc_access", proposal.TableName, "markers are stripped")
	assert.Equal(t, schema.Log, proposal.DatabaseType)
	assert.Equal(t, schema.PartitionTime, proposal.PartitionType)
	assert.Equal(t, schema.IntervalDay, proposal.TimeInterval)
	assert.Equal(t, "_YYYYMMDD", proposal.TimeFormat)
	assert.Equal(t, "1.0.0", proposal.SchemaVersion)
	assert.NotEmpty(t, proposal.Definition.Columns)
}

func TestDetectAllUnchanged(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		order: []string{"qc_user"},
		tables: map[string]baselineTable{
			"qc_user": {columns: userColumns()},
		},
	}
	catalog := &fakeCatalog{active: []*schema.TableSchema{userEntry()}}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposals, err := detector.DetectAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, proposals)
}

func TestDetectAllChangedTable(t *testing.T) {
	ctx := context.Background()
	columns := append(userColumns(), inspect.Column{
		Name: "email", DataType: "varchar", Length: 200, Nullable: true,
	})
	source := &fakeSource{
		order: []string{"qc_user"},
		tables: map[string]baselineTable{
			"qc_user": {columns: columns},
		},
	}
	catalog := &fakeCatalog{active: []*schema.TableSchema{userEntry()}}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposals, err := detector.DetectAll(ctx)
	require.NoError(t, err)
	require.Len(t, proposals, 1)

	proposal := proposals[0]
	assert.Equal(t, "1.2.1", proposal.SchemaVersion, "next patch over the active version")
	_, ok := proposal.Definition.FindColumn("email")
	assert.True(t, ok)
}

func TestDetectAllDroppedTable(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{order: nil, tables: nil}
	catalog := &fakeCatalog{active: []*schema.TableSchema{userEntry()}}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposals, err := detector.DetectAll(ctx)
	require.NoError(t, err)
	require.Len(t, proposals, 1)

	proposal := proposals[0]
	assert.True(t, proposal.Definition.IsDrop())
	assert.Equal(t, "1.2.1", proposal.SchemaVersion)
}

func TestDetectAllDroppedTableAlreadyTombstoned(t *testing.T) {
	ctx := context.Background()
	entry := userEntry()
	entry.Definition = schema.TableDefinition{TableName: "qc_user", Action: schema.ActionDrop}

	source := &fakeSource{}
	catalog := &fakeCatalog{active: []*schema.TableSchema{entry}}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposals, err := detector.DetectAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, proposals, "no second tombstone for an already dropped table")
}

func TestDetectAllShardsMatchBase(t *testing.T) {
	ctx := context.Background()
	entry := &schema.TableSchema{
		TableName:     "qc_sale",
		DatabaseType:  schema.Main,
		PartitionType: schema.PartitionStore,
		SchemaVersion: "1.0.0",
		IsActive:      true,
		Definition: schema.TableDefinition{
			TableName: "qc_sale",
			Columns:   []schema.Column{{Name: "sale_id", Type: "INT", PrimaryKey: true}},
		},
	}
	source := &fakeSource{
		order: []string{"qc_sale_S001", "qc_sale_S002"},
		tables: map[string]baselineTable{
			"qc_sale_S001": {columns: userColumns()},
			"qc_sale_S002": {columns: userColumns()},
		},
	}
	catalog := &fakeCatalog{active: []*schema.TableSchema{entry}}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposals, err := detector.DetectAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, proposals, "physical shards neither propose nor tombstone their base")
}

func TestDetectAllTombstoneRevival(t *testing.T) {
	ctx := context.Background()
	entry := userEntry()
	entry.SchemaVersion = "1.3.0"
	entry.Definition = schema.TableDefinition{TableName: "qc_user", Action: schema.ActionDrop}

	source := &fakeSource{
		order: []string{"qc_user"},
		tables: map[string]baselineTable{
			"qc_user": {columns: userColumns()},
		},
	}
	catalog := &fakeCatalog{active: []*schema.TableSchema{entry}}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposals, err := detector.DetectAll(ctx)
	require.NoError(t, err)
	require.Len(t, proposals, 1)

	proposal := proposals[0]
	assert.False(t, proposal.Definition.IsDrop())
	assert.Equal(t, "1.3.1", proposal.SchemaVersion,
		"a revived table supersedes the tombstone, not the initial version")
}

func TestDetectTable(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		order: []string{"qc_user"},
		tables: map[string]baselineTable{
			"qc_user": {columns: userColumns()},
		},
	}
	catalog := &fakeCatalog{active: []*schema.TableSchema{userEntry()}}
	detector := NewDetector(zaptest.NewLogger(t), source, catalog)

	proposal, err := detector.DetectTable(ctx, "qc_user")
	require.NoError(t, err)
	assert.Nil(t, proposal, "matching table yields no proposal")

	proposal, err = detector.DetectTable(ctx, "qc_brand_new")
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, "1.0.0", proposal.SchemaVersion)
}

func TestSaveDetected(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{}
	detector := NewDetector(zaptest.NewLogger(t), &fakeSource{}, catalog)

	batch := []*schema.TableSchema{userEntry()}
	require.NoError(t, detector.SaveDetected(ctx, batch))
	assert.Len(t, catalog.saved, 1)
}
