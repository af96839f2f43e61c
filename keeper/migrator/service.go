// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package migrator drives migrations end to end: it acquires locks, resolves
// catalog entries, enumerates tenants, expands shards, reconciles physical
// tables and records history and version memos.
package migrator

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/shard"
	"github.com/qcplatform/schemad/keeper/tenant"
)

var (
	// Error is the default error class for the migrator package.
	Error = errs.Class("migrator")

	mon = monkit.Package()
)

// Expander resolves a schema and tenant into physical table names.
type Expander interface {
	Expand(ctx context.Context, entry *schema.TableSchema, ten *tenant.Descriptor, opts shard.Options) ([]string, error)
}

// ConnResolver opens tenant database pools.
type ConnResolver interface {
	Get(ctx context.Context, ten *tenant.Descriptor, role schema.DatabaseType) (*sql.DB, error)
}

// Service is the migration orchestrator.
//
// architecture: Service
type Service struct {
	log      *zap.Logger
	catalog  schema.Catalog
	history  migration.History
	versions migration.Versions
	locks    migration.Locks
	tenants  tenant.DB
	conns    ConnResolver
	expander Expander
	engine   *reconcile.Engine
	gate     *gate

	newConn func(db *sql.DB, database string) reconcile.Conn
}

// NewService wires the orchestrator.
func NewService(log *zap.Logger, catalog schema.Catalog, history migration.History,
	versions migration.Versions, locks migration.Locks, tenants tenant.DB,
	conns ConnResolver, expander Expander, engine *reconcile.Engine) *Service {
	return &Service{
		log:      log,
		catalog:  catalog,
		history:  history,
		versions: versions,
		locks:    locks,
		tenants:  tenants,
		conns:    conns,
		expander: expander,
		engine:   engine,
		gate:     &gate{log: log.Named("gate"), versions: versions},
		newConn:  reconcile.NewConn,
	}
}

// MigrateTable reconciles one logical table across all normal tenants.
// An empty partition type is resolved from the catalog and must be
// unambiguous; an empty version selects the active entry.
func (service *Service) MigrateTable(ctx context.Context, name string, db schema.DatabaseType, pt schema.PartitionType, schemaVersion string) (_ *OperationResult, err error) {
	defer mon.Task()(&ctx)(&err)

	entry, err := service.resolveEntry(ctx, name, db, pt, schemaVersion)
	if err != nil {
		return nil, err
	}

	lock, err := service.locks.Acquire(ctx, migration.LockRequest{
		Type:          migration.LockSingleTable,
		TableName:     entry.TableName,
		DatabaseType:  entry.DatabaseType,
		PartitionType: entry.PartitionType,
		OperationInfo: "migrateTable",
	})
	if err != nil {
		return nil, err
	}
	defer service.release(ctx, lock)

	result := newOperationResult()
	service.migrateSchema(ctx, result, entry, shard.Options{}, true)
	result.finish()
	return result, nil
}

// MigrateAllTables reconciles every active catalog entry across all normal
// tenants. Per-schema failures are collected; the sweep continues.
func (service *Service) MigrateAllTables(ctx context.Context) (_ *OperationResult, err error) {
	defer mon.Task()(&ctx)(&err)

	lock, err := service.locks.Acquire(ctx, migration.LockRequest{
		Type:          migration.LockAllTables,
		OperationInfo: "migrateAllTables",
	})
	if err != nil {
		return nil, err
	}
	defer service.release(ctx, lock)

	entries, err := service.catalog.ListAllActive(ctx)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	result := newOperationResult()
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		service.migrateSchema(ctx, result, entry, shard.Options{}, true)
	}
	result.finish()
	return result, nil
}

// MigrateStoreShards reconciles every store-sharded table for a single
// store of a single tenant. The version memo covers the full store set, so
// a store-restricted run neither consults nor updates it.
func (service *Service) MigrateStoreShards(ctx context.Context, storeID string, enterpriseID int64) (_ *OperationResult, err error) {
	defer mon.Task()(&ctx)(&err)

	if storeID == "" {
		return nil, schema.ErrValidation.New("store_id is required")
	}
	ten, err := service.tenants.Get(ctx, enterpriseID)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if ten.Status != tenant.StatusNormal {
		return nil, schema.ErrValidation.New("enterprise %d is not in normal status", enterpriseID)
	}

	lock, err := service.locks.Acquire(ctx, migration.LockRequest{
		Type:          migration.LockSingleTable,
		TableName:     "store:" + storeID,
		PartitionType: schema.PartitionStore,
		OperationInfo: fmt.Sprintf("migrateStoreShards enterprise=%d", enterpriseID),
	})
	if err != nil {
		return nil, err
	}
	defer service.release(ctx, lock)

	entries, err := service.catalog.ListAllActive(ctx)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	result := newOperationResult()
	opts := shard.Options{StoreID: storeID}
	for _, entry := range entries {
		if entry.PartitionType != schema.PartitionStore {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		service.migrateSchemaForTenant(ctx, result, entry, ten, opts, false)
	}
	result.finish()
	return result, nil
}

// resolveEntry finds the catalog entry for the request, disambiguating the
// partition type when omitted.
func (service *Service) resolveEntry(ctx context.Context, name string, db schema.DatabaseType, pt schema.PartitionType, schemaVersion string) (*schema.TableSchema, error) {
	if name == "" {
		return nil, schema.ErrValidation.New("table_name is required")
	}
	if !db.Valid() {
		return nil, schema.ErrValidation.New("unknown database_type %q", db)
	}

	if pt == "" {
		matches, err := service.catalog.FindActiveMatches(ctx, name, db)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		switch len(matches) {
		case 0:
			return nil, schema.ErrNotFound.New("%s@%s", name, db)
		case 1:
			pt = matches[0].PartitionType
		default:
			choices := make([]string, 0, len(matches))
			for _, match := range matches {
				choices = append(choices, string(match.PartitionType))
			}
			return nil, schema.ErrAmbiguous.New(
				"multiple partition types for %s@%s: %v", name, db, choices)
		}
	}
	if !pt.Valid() {
		return nil, schema.ErrValidation.New("unknown partition_type %q", pt)
	}

	if schemaVersion != "" {
		entry, err := service.catalog.GetVersion(ctx, name, db, pt, schemaVersion)
		return entry, err
	}
	entry, err := service.catalog.GetActive(ctx, name, db, pt)
	return entry, err
}

// migrateSchema runs one catalog entry across all normal tenants.
func (service *Service) migrateSchema(ctx context.Context, result *OperationResult, entry *schema.TableSchema, opts shard.Options, useGate bool) {
	tenants, err := service.tenants.Normal(ctx)
	if err != nil {
		result.addSchemaError(entry, Error.Wrap(err))
		return
	}
	for i := range tenants {
		if ctx.Err() != nil {
			return
		}
		service.migrateSchemaForTenant(ctx, result, entry, &tenants[i], opts, useGate)
	}
}

// migrateSchemaForTenant reconciles every physical expansion of the entry
// for one tenant and records history and the version memo.
func (service *Service) migrateSchemaForTenant(ctx context.Context, result *OperationResult, entry *schema.TableSchema, ten *tenant.Descriptor, opts shard.Options, useGate bool) {
	outcome := result.schemaOutcome(entry, ten.ID)

	if useGate && service.gate.shouldSkip(ctx, ten.ID, entry) {
		outcome.Skipped = true
		return
	}

	params, err := ten.Params(entry.DatabaseType)
	if err != nil {
		outcome.fail(err)
		return
	}
	db, err := service.conns.Get(ctx, ten, entry.DatabaseType)
	if err != nil {
		outcome.fail(err)
		return
	}
	conn := service.newConn(db, params.Database)

	names, err := service.expander.Expand(ctx, entry, ten, opts)
	if err != nil {
		outcome.fail(err)
		return
	}

	clean := true
	for _, physical := range names {
		if ctx.Err() != nil {
			return
		}
		reconcileResult, err := service.engine.Reconcile(ctx, conn, physical, &entry.Definition)
		service.recordHistory(ctx, result.BatchID, entry, physical, reconcileResult)
		if err != nil {
			outcome.fail(err)
			clean = false
			continue
		}
		if failed := reconcileResult.Failed(); len(failed) > 0 {
			clean = false
			for _, ddl := range failed {
				result.addFailedSQL(physical, ddl)
			}
		}
		outcome.Tables = append(outcome.Tables, physical)
		outcome.DDLCount += len(reconcileResult.DDLs)
	}

	if clean {
		if useGate {
			service.gate.record(ctx, ten.ID, entry)
		}
	} else {
		outcome.Success = false
	}
}

// recordHistory appends one history row per executed DDL; history failures
// are logged, never fatal.
func (service *Service) recordHistory(ctx context.Context, batchID string, entry *schema.TableSchema, physical string, reconcileResult *reconcile.Result) {
	if reconcileResult == nil {
		return
	}
	for _, ddl := range reconcileResult.DDLs {
		record := &migration.Record{
			TableName:     physical,
			DatabaseType:  entry.DatabaseType,
			PartitionType: entry.PartitionType,
			SchemaVersion: entry.SchemaVersion,
			Type:          ddl.Type,
			SQL:           ddl.SQL,
			Status:        ddl.Status,
			ExecutionTime: ddl.Duration,
			BatchID:       batchID,
		}
		if ddl.Err != nil {
			record.ErrorMessage = ddl.Err.Error()
		}
		if err := service.history.Append(ctx, record); err != nil {
			service.log.Error("recording migration history failed",
				zap.String("table", physical), zap.Error(err))
		}
	}
}

// release runs on every exit path; it must succeed even when the operation
// context is already cancelled.
func (service *Service) release(ctx context.Context, lock *migration.Lock) {
	releaseCtx := context.WithoutCancel(ctx)
	if err := service.locks.Release(releaseCtx, lock.Key, lock.Holder); err != nil {
		service.log.Error("releasing migration lock failed",
			zap.String("key", lock.Key), zap.Error(err))
	}
}

// newBatchID generates the identifier shared by all history rows of one
// orchestrator operation.
func newBatchID() string {
	return uuid.NewString()
}
