// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package tenant describes registered enterprises and manages their
// per-role MySQL connection pools.
package tenant

import (
	"context"

	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/keeper/schema"
)

// Error is the default error class for the tenant package.
var Error = errs.Class("tenant")

// Status is the lifecycle state of an enterprise.
type Status string

// Enterprise states. Only StatusNormal tenants are migrated.
const (
	StatusNormal   Status = "normal"
	StatusDisabled Status = "disabled"
)

// ConnParams is one database connection tuple.
type ConnParams struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// IsZero reports whether the tuple is unset.
func (p ConnParams) IsZero() bool {
	return p.Host == "" && p.Database == ""
}

// StoreCatalog configures where store identifiers are enumerated from for
// store-sharded tables. The table and column are tenant-level configuration
// rather than a hardcoded guess.
type StoreCatalog struct {
	Table           string
	IDColumn        string
	ActivePredicate string
}

// Descriptor is everything the engine needs to know about one enterprise.
type Descriptor struct {
	ID        int64
	Name      string
	Status    Status
	Databases map[schema.DatabaseType]ConnParams
	Stores    StoreCatalog
}

// Params resolves the connection tuple for a database role. A missing role
// tuple falls back to the main tuple with a derived database-name suffix.
func (d *Descriptor) Params(role schema.DatabaseType) (ConnParams, error) {
	if p, ok := d.Databases[role]; ok && !p.IsZero() {
		return p, nil
	}
	main, ok := d.Databases[schema.Main]
	if !ok || main.IsZero() {
		return ConnParams{}, Error.New("tenant %d has no main database configured", d.ID)
	}
	if role == schema.Main {
		return main, nil
	}
	derived := main
	derived.Database = main.Database + "_" + string(role)
	return derived, nil
}

// DB is the store of registered enterprises.
//
// architecture: Database
type DB interface {
	// All returns every registered enterprise.
	All(ctx context.Context) ([]Descriptor, error)
	// Normal returns enterprises in normal status, the only ones migrated.
	Normal(ctx context.Context) ([]Descriptor, error)
	// Get returns a single enterprise by id.
	Get(ctx context.Context, id int64) (*Descriptor, error)
}
