// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package timeshard pre-creates upcoming time-window shards so that writers
// never hit a missing physical table at a window boundary.
package timeshard

import (
	"context"
	"database/sql"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/shard"
	"github.com/qcplatform/schemad/keeper/tenant"
	"github.com/qcplatform/schemad/private/sync2"
)

var (
	// Error is the default error class for the timeshard package.
	Error = errs.Class("timeshard")

	mon = monkit.Package()
)

// Config configures the pre-creation chore.
type Config struct {
	Interval time.Duration
}

// ConnResolver opens tenant database pools.
type ConnResolver interface {
	Get(ctx context.Context, ten *tenant.Descriptor, role schema.DatabaseType) (*sql.DB, error)
}

// Chore creates the current and next time shard for every time-partitioned
// schema and every normal tenant. The reconcile contract is idempotent, so
// running while a migration is in flight is safe.
//
// architecture: Chore
type Chore struct {
	log     *zap.Logger
	catalog schema.Catalog
	tenants tenant.DB
	conns   ConnResolver
	engine  *reconcile.Engine
	nowFn   func() time.Time
	newConn func(db *sql.DB, database string) reconcile.Conn

	Loop *sync2.Cycle
}

// NewChore creates the pre-creation chore.
func NewChore(log *zap.Logger, config Config, catalog schema.Catalog, tenants tenant.DB, conns ConnResolver, engine *reconcile.Engine) *Chore {
	interval := config.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Chore{
		log:     log,
		catalog: catalog,
		tenants: tenants,
		conns:   conns,
		engine:  engine,
		nowFn:   time.Now,
		newConn: reconcile.NewConn,
		Loop:    sync2.NewCycle(interval),
	}
}

// Run starts the chore loop. A failed pass is logged and the loop keeps
// going.
func (chore *Chore) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	return chore.Loop.Run(ctx, func(ctx context.Context) error {
		if err := chore.RunOnce(ctx); err != nil {
			chore.log.Error("shard pre-creation failed", zap.Error(err))
		}
		return nil
	})
}

// Close stops the chore loop.
func (chore *Chore) Close() error {
	chore.Loop.Close()
	return nil
}

// TriggerWait runs one pass through the chore loop and waits for it.
func (chore *Chore) TriggerWait() {
	chore.Loop.TriggerWait()
}

// RunOnce executes a single pre-creation pass.
func (chore *Chore) RunOnce(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	entries, err := chore.catalog.ListAllActive(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	tenants, err := chore.tenants.Normal(ctx)
	if err != nil {
		return Error.Wrap(err)
	}

	var group errs.Group
	for _, entry := range entries {
		if entry.PartitionType != schema.PartitionTime || entry.Definition.IsDrop() {
			continue
		}
		for i := range tenants {
			if ctx.Err() != nil {
				return Error.Wrap(errs.Combine(group.Err(), ctx.Err()))
			}
			group.Add(chore.prepareTenant(ctx, entry, &tenants[i]))
		}
	}
	return Error.Wrap(group.Err())
}

// prepareTenant creates missing shards for the current and the next window
// of one schema on one tenant.
func (chore *Chore) prepareTenant(ctx context.Context, entry *schema.TableSchema, ten *tenant.Descriptor) error {
	params, err := ten.Params(entry.DatabaseType)
	if err != nil {
		return err
	}
	db, err := chore.conns.Get(ctx, ten, entry.DatabaseType)
	if err != nil {
		return err
	}
	conn := chore.newConn(db, params.Database)

	now := chore.nowFn()
	windows := []time.Time{now, shard.NextWindow(entry.TimeInterval, now)}

	var group errs.Group
	for _, at := range windows {
		name := entry.TableName + shard.TimeSuffix(entry.TimeInterval, entry.TimeFormat, at)

		exists, err := conn.Exists(ctx, name)
		if err != nil {
			group.Add(err)
			continue
		}
		if exists {
			continue
		}

		result, err := chore.engine.Reconcile(ctx, conn, name, &entry.Definition)
		if err != nil {
			group.Add(err)
			continue
		}
		if result.Created {
			chore.log.Info("created upcoming time shard",
				zap.Int64("enterprise", ten.ID),
				zap.String("table", name))
		}
	}
	return group.Err()
}
