// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package migration defines the audit and coordination records produced by
// schema migrations: per-DDL history, per-tenant version memos and the
// row-backed migration locks.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/keeper/schema"
)

// Error is the default error class for the migration package.
var Error = errs.Class("migration")

// Type classifies a recorded DDL statement.
type Type string

// Recorded DDL kinds.
const (
	TypeCreate Type = "CREATE"
	TypeAlter  Type = "ALTER"
	TypeDrop   Type = "DROP"
	TypeIndex  Type = "INDEX"
)

// Status is the execution outcome of one DDL statement.
type Status string

// Execution outcomes.
const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Record is one appended history row per physical DDL statement.
type Record struct {
	ID            int64                `json:"id"`
	TableName     string               `json:"tableName"`
	DatabaseType  schema.DatabaseType  `json:"databaseType"`
	PartitionType schema.PartitionType `json:"partitionType"`
	SchemaVersion string               `json:"schemaVersion"`
	Type          Type                 `json:"type"`
	SQL           string               `json:"sql"`
	Status        Status               `json:"status"`
	ExecutionTime time.Duration        `json:"executionTime"`
	ErrorMessage  string               `json:"errorMessage,omitempty"`
	BatchID       string               `json:"batchId"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// History is the append-only store of executed DDL.
//
// architecture: Database
type History interface {
	// Append inserts a record. Records are never updated or deleted.
	Append(ctx context.Context, record *Record) error
	// ByBatch returns all records of one migration batch in insert order.
	ByBatch(ctx context.Context, batchID string) ([]Record, error)
	// ByTable returns the most recent records for a logical table, newest
	// first, up to limit rows.
	ByTable(ctx context.Context, name string, db schema.DatabaseType, limit int) ([]Record, error)
}

// Memo records that a tenant's physical expansion of a logical table has
// already been reconciled to a version.
type Memo struct {
	EnterpriseID  int64
	TableName     string
	DatabaseType  schema.DatabaseType
	PartitionRule string
	Version       string
	MigratedAt    time.Time
}

// Versions is the version-memo store used to skip redundant reconciles.
//
// architecture: Database
type Versions interface {
	// Get returns the memoized version, empty when none.
	Get(ctx context.Context, enterpriseID int64, name string, db schema.DatabaseType, rule string) (string, error)
	// Upsert replaces the memo after a successful reconcile.
	Upsert(ctx context.Context, memo *Memo) error
}

// LockType distinguishes the two mutual-exclusion scopes.
type LockType string

// Lock scopes.
const (
	LockSingleTable LockType = "SINGLE_TABLE"
	LockAllTables   LockType = "ALL_TABLES"
)

// Lock is one row-backed migration lock.
type Lock struct {
	ID            int64                `json:"id"`
	Key           string               `json:"key"`
	Type          LockType             `json:"type"`
	TableName     string               `json:"tableName,omitempty"`
	DatabaseType  schema.DatabaseType  `json:"databaseType,omitempty"`
	PartitionType schema.PartitionType `json:"partitionType,omitempty"`
	StartTime     time.Time            `json:"startTime"`
	Holder        string               `json:"holder"`
	OperationInfo string               `json:"operationInfo,omitempty"`
	IsActive      bool                 `json:"isActive"`
}

// ConflictError reports a denied acquisition together with the lock that
// caused the denial.
type ConflictError struct {
	Existing Lock
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("migration lock conflict: %s lock %q held by %s since %s",
		e.Existing.Type, e.Existing.Key, e.Existing.Holder,
		e.Existing.StartTime.Format(time.RFC3339))
}

// ErrNotHolder is returned when a release is attempted by a different holder.
var ErrNotHolder = errs.Class("not lock holder")

// LockRequest describes an acquisition.
type LockRequest struct {
	Type          LockType
	TableName     string
	DatabaseType  schema.DatabaseType
	PartitionType schema.PartitionType
	OperationInfo string
}

// Locks provides row-backed mutual exclusion for migrations.
//
// architecture: Database
type Locks interface {
	// Acquire attempts to take the lock; on denial the returned error is a
	// *ConflictError carrying the conflicting lock snapshot.
	Acquire(ctx context.Context, req LockRequest) (*Lock, error)
	// Release marks the lock inactive; only the original holder may release.
	Release(ctx context.Context, key, holder string) error
	// ForceRelease marks the lock inactive regardless of holder.
	ForceRelease(ctx context.Context, key string) error
	// CleanupOlderThan flips stale active locks to inactive and reports how
	// many were cleaned.
	CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error)
	// ListActive returns all currently active locks.
	ListActive(ctx context.Context) ([]Lock, error)
}
