// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package shard resolves a logical table schema and tenant into the list of
// physical table names to reconcile.
package shard

import (
	"context"
	"database/sql"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/tenant"
)

var (
	// Error is the default error class for the shard package.
	Error = errs.Class("shard")

	mon = monkit.Package()
)

// Options restricts or extends an expansion.
type Options struct {
	// StoreID limits store expansion to a single store.
	StoreID string
	// From and To override the time range; when zero the range covers the
	// current and the next window.
	From time.Time
	To   time.Time
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func (opts *Options) now() time.Time {
	if opts.Now != nil {
		return opts.Now()
	}
	return time.Now()
}

// StoreLister enumerates a tenant's main database connection for store ids.
type StoreLister interface {
	Get(ctx context.Context, tenant *tenant.Descriptor, role schema.DatabaseType) (*sql.DB, error)
}

// Expander turns one logical table into its concrete physical names.
// It never issues DDL; store expansion only reads the store directory.
//
// architecture: Service
type Expander struct {
	log      *zap.Logger
	registry StoreLister
}

// NewExpander creates an expander backed by the connection registry.
func NewExpander(log *zap.Logger, registry StoreLister) *Expander {
	return &Expander{log: log, registry: registry}
}

// Expand resolves the physical table names for the schema and tenant.
// Expansion is deterministic given its inputs.
func (expander *Expander) Expand(ctx context.Context, entry *schema.TableSchema, ten *tenant.Descriptor, opts Options) (_ []string, err error) {
	defer mon.Task()(&ctx)(&err)

	switch entry.PartitionType {
	case schema.PartitionNone:
		return []string{entry.TableName}, nil

	case schema.PartitionStore:
		if opts.StoreID != "" {
			return []string{entry.TableName + "_" + opts.StoreID}, nil
		}
		ids, err := expander.storeIDs(ctx, ten)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			names = append(names, entry.TableName+"_"+id)
		}
		return names, nil

	case schema.PartitionTime:
		from, to := opts.From, opts.To
		if from.IsZero() || to.IsZero() {
			now := opts.now()
			from, to = now, NextWindow(entry.TimeInterval, now)
		}
		var names []string
		for _, at := range timeRange(entry.TimeInterval, from, to) {
			names = append(names, entry.TableName+TimeSuffix(entry.TimeInterval, entry.TimeFormat, at))
		}
		return names, nil
	}

	return nil, Error.New("unknown partition type %q", entry.PartitionType)
}

// storeIDs reads active store identifiers from the tenant's configured
// store directory table.
func (expander *Expander) storeIDs(ctx context.Context, ten *tenant.Descriptor) (_ []string, err error) {
	catalog := ten.Stores
	if catalog.Table == "" || catalog.IDColumn == "" {
		return nil, Error.New("tenant %d has no store catalog configured", ten.ID)
	}

	db, err := expander.registry.Get(ctx, ten, schema.Main)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	query := "SELECT `" + catalog.IDColumn + "` FROM `" + catalog.Table + "`"
	if catalog.ActivePredicate != "" {
		query += " WHERE " + catalog.ActivePredicate
	}
	query += " ORDER BY `" + catalog.IDColumn + "`"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, Error.Wrap(err)
		}
		ids = append(ids, id)
	}
	return ids, Error.Wrap(rows.Err())
}
