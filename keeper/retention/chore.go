// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package retention drops expired time shards of log tables. Retention is
// scoped to database_type=log; other roles keep their shards forever.
package retention

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/shard"
	"github.com/qcplatform/schemad/keeper/tenant"
	"github.com/qcplatform/schemad/private/sync2"
)

var (
	// Error is the default error class for the retention package.
	Error = errs.Class("retention")

	mon = monkit.Package()
)

// Config configures the cleanup chore. The counts are how many whole windows
// to keep: Days of day shards, Months of month shards, Years of year shards.
type Config struct {
	Interval time.Duration
	Days     int
	Months   int
	Years    int
}

// Defaults per interval.
const (
	DefaultDays   = 30
	DefaultMonths = 3
	DefaultYears  = 3
)

func (config *Config) normalize() {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.Days <= 0 {
		config.Days = DefaultDays
	}
	if config.Months <= 0 {
		config.Months = DefaultMonths
	}
	if config.Years <= 0 {
		config.Years = DefaultYears
	}
}

// ConnResolver opens tenant database pools.
type ConnResolver interface {
	Get(ctx context.Context, ten *tenant.Descriptor, role schema.DatabaseType) (*sql.DB, error)
}

// Chore enumerates existing log time shards per tenant and drops those whose
// window fell out of the retention policy.
//
// architecture: Chore
type Chore struct {
	log     *zap.Logger
	config  Config
	catalog schema.Catalog
	tenants tenant.DB
	conns   ConnResolver
	nowFn   func() time.Time

	Loop *sync2.Cycle
}

// NewChore creates the cleanup chore.
func NewChore(log *zap.Logger, config Config, catalog schema.Catalog, tenants tenant.DB, conns ConnResolver) *Chore {
	config.normalize()
	return &Chore{
		log:     log,
		config:  config,
		catalog: catalog,
		tenants: tenants,
		conns:   conns,
		nowFn:   time.Now,
		Loop:    sync2.NewCycle(config.Interval),
	}
}

// Run starts the chore loop. A failed pass is logged and the loop keeps
// going.
func (chore *Chore) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	return chore.Loop.Run(ctx, func(ctx context.Context) error {
		if err := chore.RunOnce(ctx); err != nil {
			chore.log.Error("retention cleanup failed", zap.Error(err))
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

// RunOnce executes a single cleanup pass.
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
		if entry.PartitionType != schema.PartitionTime || entry.DatabaseType != schema.Log {
			continue
		}
		for i := range tenants {
			if ctx.Err() != nil {
				return Error.Wrap(errs.Combine(group.Err(), ctx.Err()))
			}
			group.Add(chore.cleanTenant(ctx, entry, &tenants[i]))
		}
	}
	return Error.Wrap(group.Err())
}

// cleanTenant drops this tenant's expired shards of one log table.
func (chore *Chore) cleanTenant(ctx context.Context, entry *schema.TableSchema, ten *tenant.Descriptor) error {
	params, err := ten.Params(entry.DatabaseType)
	if err != nil {
		return err
	}
	db, err := chore.conns.Get(ctx, ten, entry.DatabaseType)
	if err != nil {
		return err
	}
	inspector := inspect.New(db, params.Database)

	names, err := inspector.TableNames(ctx, entry.TableName+"_")
	if err != nil {
		return err
	}
	expired := ExpiredShards(entry, names, chore.cutoff(entry.TimeInterval))

	var group errs.Group
	for _, name := range expired {
		if ctx.Err() != nil {
			return errs.Combine(group.Err(), ctx.Err())
		}
		if _, err := db.ExecContext(ctx, reconcile.DropTable(name)); err != nil {
			group.Add(err)
			continue
		}
		chore.log.Info("dropped expired time shard",
			zap.Int64("enterprise", ten.ID),
			zap.String("table", name))
	}
	return group.Err()
}

// cutoff returns the retention boundary: shards whose window ended before
// it are expired.
func (chore *Chore) cutoff(interval schema.TimeInterval) time.Time {
	start := shard.WindowStart(interval, chore.nowFn())
	switch interval {
	case schema.IntervalDay:
		return start.AddDate(0, 0, -chore.config.Days)
	case schema.IntervalMonth:
		return start.AddDate(0, -chore.config.Months, 0)
	default:
		return start.AddDate(-chore.config.Years, 0, 0)
	}
}

// ExpiredShards selects the physical names whose whole window ended before
// the cutoff. The shard ending exactly at the cutoff is the oldest one still
// retained. Names with unparsable suffixes are kept; dropping a table we do
// not understand is worse than leaking it.
func ExpiredShards(entry *schema.TableSchema, names []string, cutoff time.Time) []string {
	var expired []string
	for _, name := range names {
		suffix := strings.TrimPrefix(name, entry.TableName)
		start, err := shard.ParseSuffix(entry.TimeInterval, suffix)
		if err != nil {
			continue
		}
		if shard.NextWindow(entry.TimeInterval, start).Before(cutoff) {
			expired = append(expired, name)
		}
	}
	return expired
}
