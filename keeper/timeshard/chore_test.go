// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package timeshard

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/tenant"
)

type fakeCatalog struct {
	schema.Catalog

	entries []*schema.TableSchema
}

func (c *fakeCatalog) ListAllActive(ctx context.Context) ([]*schema.TableSchema, error) {
	return c.entries, nil
}

type fakeTenants struct {
	tenants []tenant.Descriptor
}

func (db *fakeTenants) All(ctx context.Context) ([]tenant.Descriptor, error) {
	return db.tenants, nil
}

func (db *fakeTenants) Normal(ctx context.Context) ([]tenant.Descriptor, error) {
	return db.tenants, nil
}

func (db *fakeTenants) Get(ctx context.Context, id int64) (*tenant.Descriptor, error) {
	return &db.tenants[0], nil
}

type fakeResolver struct{}

func (fakeResolver) Get(ctx context.Context, ten *tenant.Descriptor, role schema.DatabaseType) (*sql.DB, error) {
	return nil, nil
}

// fakeConn reports the tables in present as existing and records every DDL.
type fakeConn struct {
	present  map[string]bool
	executed []string
}

func (conn *fakeConn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	conn.executed = append(conn.executed, query)
	return nil, nil
}

func (conn *fakeConn) Exists(ctx context.Context, table string) (bool, error) {
	return conn.present[table], nil
}

func (conn *fakeConn) Columns(ctx context.Context, table string) ([]inspect.Column, error) {
	return nil, nil
}

func (conn *fakeConn) Indexes(ctx context.Context, table string) ([]inspect.Index, error) {
	return nil, nil
}

func logEntry() *schema.TableSchema {
	return &schema.TableSchema{
		TableName:     "qc_access_log",
		DatabaseType:  schema.Log,
		PartitionType: schema.PartitionTime,
		TimeInterval:  schema.IntervalDay,
		TimeFormat:    "_YYYYMMDD",
		IsActive:      true,
		Definition: schema.TableDefinition{
			TableName: "qc_access_log",
			Columns: []schema.Column{
				{Name: "access_log_id", Type: "BIGINT", PrimaryKey: true, AutoIncrement: true},
			},
		},
	}
}

func newTestChore(t *testing.T, entries []*schema.TableSchema, conn *fakeConn) *Chore {
	log := zaptest.NewLogger(t)
	tenants := &fakeTenants{tenants: []tenant.Descriptor{{
		ID:     1,
		Status: tenant.StatusNormal,
		Databases: map[schema.DatabaseType]tenant.ConnParams{
			schema.Main: {Host: "db", Port: 3306, User: "u", Database: "acme"},
		},
	}}}
	chore := NewChore(log, Config{}, &fakeCatalog{entries: entries}, tenants,
		fakeResolver{}, reconcile.NewEngine(log))
	chore.nowFn = func() time.Time {
		return time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC)
	}
	chore.newConn = func(db *sql.DB, database string) reconcile.Conn { return conn }
	return chore
}

func TestRunOnceCreatesCurrentAndNextWindow(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{}
	chore := newTestChore(t, []*schema.TableSchema{logEntry()}, conn)

	require.NoError(t, chore.RunOnce(ctx))

	// Dec 31 rolls into the next year
	require.Len(t, conn.executed, 2)
	assert.Contains(t, conn.executed[0], "`qc_access_log_20251231`")
	assert.Contains(t, conn.executed[1], "`qc_access_log_20260101`")
	for _, query := range conn.executed {
		assert.Contains(t, query, "CREATE TABLE")
	}
}

func TestRunOnceSkipsExistingShards(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{present: map[string]bool{
		"qc_access_log_20251231": true,
	}}
	chore := newTestChore(t, []*schema.TableSchema{logEntry()}, conn)

	require.NoError(t, chore.RunOnce(ctx))

	require.Len(t, conn.executed, 1, "the existing shard gets no DDL at all")
	assert.Contains(t, conn.executed[0], "`qc_access_log_20260101`")
}

func TestRunOnceIgnoresNonTimeAndTombstoned(t *testing.T) {
	ctx := context.Background()
	plain := &schema.TableSchema{
		TableName:     "qc_user",
		DatabaseType:  schema.Main,
		PartitionType: schema.PartitionNone,
		Definition: schema.TableDefinition{
			TableName: "qc_user",
			Columns:   []schema.Column{{Name: "user_id", Type: "INT", PrimaryKey: true}},
		},
	}
	dropped := logEntry()
	dropped.Definition = schema.TableDefinition{TableName: "qc_access_log", Action: schema.ActionDrop}

	conn := &fakeConn{}
	chore := newTestChore(t, []*schema.TableSchema{plain, dropped}, conn)

	require.NoError(t, chore.RunOnce(ctx))
	assert.Empty(t, conn.executed)
}

func TestRunOnceMonthlyWindows(t *testing.T) {
	ctx := context.Background()
	entry := logEntry()
	entry.TimeInterval = schema.IntervalMonth
	entry.TimeFormat = "_YYYYMM"

	conn := &fakeConn{}
	chore := newTestChore(t, []*schema.TableSchema{entry}, conn)

	require.NoError(t, chore.RunOnce(ctx))
	require.Len(t, conn.executed, 2)
	assert.Contains(t, conn.executed[0], "`qc_access_log_202512`")
	assert.Contains(t, conn.executed[1], "`qc_access_log_202601`")
}
