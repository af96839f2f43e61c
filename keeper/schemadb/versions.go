// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package schemadb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/schema"
)

// versions implements migration.Versions on the qc_migration_versions table.
type versions struct {
	db *DB
}

func (v *versions) Get(ctx context.Context, enterpriseID int64, name string, db schema.DatabaseType, rule string) (_ string, err error) {
	defer mon.Task()(&ctx)(&err)

	var current string
	err = v.db.db.QueryRowContext(ctx, `
		SELECT current_migrated_version FROM qc_migration_versions
		WHERE enterprise_id = ? AND table_name = ? AND database_type = ?
			AND partition_rule = ?`,
		enterpriseID, name, db, rule).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return current, Error.Wrap(err)
}

func (v *versions) Upsert(ctx context.Context, memo *migration.Memo) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = v.db.db.ExecContext(ctx, `
		INSERT INTO qc_migration_versions (
			enterprise_id, table_name, database_type, partition_rule,
			current_migrated_version, migration_time
		) VALUES (?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			current_migrated_version = VALUES(current_migrated_version),
			migration_time = NOW()`,
		memo.EnterpriseID, memo.TableName, memo.DatabaseType,
		memo.PartitionRule, memo.Version)
	return Error.Wrap(err)
}
