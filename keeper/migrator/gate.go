// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package migrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/private/version"
)

// gate skips reconciles that a per-tenant version memo proves redundant.
// Memo failures never stop a migration; a broken memo store only costs
// extra reconciles.
type gate struct {
	log      *zap.Logger
	versions migration.Versions
}

// shouldSkip reports whether the tenant already carries a version at least
// as new as the entry.
func (gate *gate) shouldSkip(ctx context.Context, enterpriseID int64, entry *schema.TableSchema) bool {
	current, err := gate.versions.Get(ctx, enterpriseID, entry.TableName, entry.DatabaseType, entry.PartitionRule())
	if err != nil {
		gate.log.Warn("reading version memo failed",
			zap.Int64("enterprise", enterpriseID),
			zap.String("table", entry.TableName),
			zap.Error(err))
		return false
	}
	if current == "" {
		return false
	}
	if !version.IsValid(current) || !version.IsValid(entry.SchemaVersion) {
		return current == entry.SchemaVersion
	}
	return !version.IsNewer(entry.SchemaVersion, current)
}

// record upserts the memo after a clean reconcile.
func (gate *gate) record(ctx context.Context, enterpriseID int64, entry *schema.TableSchema) {
	err := gate.versions.Upsert(ctx, &migration.Memo{
		EnterpriseID:  enterpriseID,
		TableName:     entry.TableName,
		DatabaseType:  entry.DatabaseType,
		PartitionRule: entry.PartitionRule(),
		Version:       entry.SchemaVersion,
	})
	if err != nil {
		gate.log.Warn("updating version memo failed",
			zap.Int64("enterprise", enterpriseID),
			zap.String("table", entry.TableName),
			zap.Error(err))
	}
}
