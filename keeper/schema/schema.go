// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package schema defines the versioned catalog of desired table structures.
package schema

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/private/version"
)

var (
	// Error is the default error class for the schema package.
	Error = errs.Class("schema")
	// ErrValidation is returned for malformed catalog input.
	ErrValidation = errs.Class("schema validation")
	// ErrNotFound is returned when no active catalog entry matches.
	ErrNotFound = errs.Class("schema not found")
	// ErrVersionOrder is returned when a new version does not supersede the
	// currently active one.
	ErrVersionOrder = errs.Class("schema version order")
	// ErrAmbiguous is returned when a lookup without partition type matches
	// several partition types and the caller must disambiguate.
	ErrAmbiguous = errs.Class("schema ambiguous")
)

// DatabaseType selects which per-tenant database a table lives in.
type DatabaseType string

// Supported database roles.
const (
	Main   DatabaseType = "main"
	Log    DatabaseType = "log"
	Order  DatabaseType = "order"
	Static DatabaseType = "static"
)

// DatabaseTypes lists all supported roles in canonical order.
var DatabaseTypes = []DatabaseType{Main, Log, Order, Static}

// Valid reports whether the database type is one of the supported roles.
func (t DatabaseType) Valid() bool {
	switch t {
	case Main, Log, Order, Static:
		return true
	}
	return false
}

// PartitionType describes how a logical table expands into physical tables.
type PartitionType string

// Supported partition types.
const (
	PartitionNone  PartitionType = "none"
	PartitionStore PartitionType = "store"
	PartitionTime  PartitionType = "time"
)

// Valid reports whether the partition type is supported.
func (t PartitionType) Valid() bool {
	switch t {
	case PartitionNone, PartitionStore, PartitionTime:
		return true
	}
	return false
}

// TimeInterval is the window size of a time-sharded table.
type TimeInterval string

// Supported time intervals.
const (
	IntervalDay   TimeInterval = "day"
	IntervalMonth TimeInterval = "month"
	IntervalYear  TimeInterval = "year"
)

// Valid reports whether the interval is supported.
func (t TimeInterval) Valid() bool {
	switch t {
	case IntervalDay, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// Key identifies one logical table in the catalog.
type Key struct {
	TableName     string
	DatabaseType  DatabaseType
	PartitionType PartitionType
}

// TableSchema is one version of one logical table.
type TableSchema struct {
	ID              int64           `json:"id"`
	TableName       string          `json:"tableName"`
	DatabaseType    DatabaseType    `json:"databaseType"`
	PartitionType   PartitionType   `json:"partitionType"`
	TimeInterval    TimeInterval    `json:"timeInterval,omitempty"`
	TimeFormat      string          `json:"timeFormat,omitempty"`
	SchemaVersion   string          `json:"schemaVersion"`
	Definition      TableDefinition `json:"definition"`
	IsActive        bool            `json:"isActive"`
	UpgradeNotes    string          `json:"upgradeNotes,omitempty"`
	ChangesDetected string          `json:"changesDetected,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Key returns the logical identity of the schema.
func (s *TableSchema) Key() Key {
	return Key{
		TableName:     s.TableName,
		DatabaseType:  s.DatabaseType,
		PartitionType: s.PartitionType,
	}
}

// PartitionRule encodes the expansion mode used by the version memo:
// none, store, time_day, time_month, time_year.
func (s *TableSchema) PartitionRule() string {
	if s.PartitionType == PartitionTime {
		return "time_" + string(s.TimeInterval)
	}
	return string(s.PartitionType)
}

// Validate checks structural invariants of a catalog entry.
func (s *TableSchema) Validate() error {
	switch {
	case s.TableName == "":
		return ErrValidation.New("table_name is required")
	case !s.DatabaseType.Valid():
		return ErrValidation.New("unknown database_type %q", s.DatabaseType)
	case !s.PartitionType.Valid():
		return ErrValidation.New("unknown partition_type %q", s.PartitionType)
	case !version.IsValid(s.SchemaVersion):
		return ErrValidation.New("invalid schema_version %q", s.SchemaVersion)
	}
	if s.PartitionType == PartitionTime {
		if !s.TimeInterval.Valid() {
			return ErrValidation.New("time partition requires time_interval")
		}
		if s.TimeFormat == "" {
			return ErrValidation.New("time partition requires time_format")
		}
	}
	return Error.Wrap(s.Definition.Validate())
}

// Catalog is the persistent store of desired table structures.
//
// architecture: Database
type Catalog interface {
	// PutNewVersion inserts a new version and demotes the active
	// predecessor in a single transaction. The new version must be
	// strictly greater than the active one.
	PutNewVersion(ctx context.Context, entry *TableSchema) error
	// GetActive returns the active version for the key, ErrNotFound when absent.
	GetActive(ctx context.Context, name string, db DatabaseType, pt PartitionType) (*TableSchema, error)
	// GetVersion returns a specific version for the key, ErrNotFound when absent.
	GetVersion(ctx context.Context, name string, db DatabaseType, pt PartitionType, version string) (*TableSchema, error)
	// FindActiveMatches returns active entries matching name and role across
	// partition types.
	FindActiveMatches(ctx context.Context, name string, db DatabaseType) ([]*TableSchema, error)
	// ListAllActive returns every active entry ordered by database_type ASC,
	// table_name ASC, schema_version DESC.
	ListAllActive(ctx context.Context) ([]*TableSchema, error)
	// History returns all versions for name and role, newest first.
	History(ctx context.Context, name string, db DatabaseType) ([]*TableSchema, error)
	// Deactivate flips a single entry inactive without a successor.
	Deactivate(ctx context.Context, id int64) error
}
