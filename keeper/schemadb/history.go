// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package schemadb

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/schema"
)

// history implements migration.History on the qc_migration_history table.
type history struct {
	db *DB
}

func (h *history) Append(ctx context.Context, record *migration.Record) (err error) {
	defer mon.Task()(&ctx)(&err)

	res, err := h.db.db.ExecContext(ctx, `
		INSERT INTO qc_migration_history (
			table_name, database_type, partition_type, schema_version,
			migration_type, sql_statement, execution_status,
			execution_time_ms, error_message, migration_batch_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.TableName, record.DatabaseType, record.PartitionType,
		record.SchemaVersion, record.Type, record.SQL, record.Status,
		record.ExecutionTime.Milliseconds(), record.ErrorMessage,
		record.BatchID)
	if err != nil {
		return Error.Wrap(err)
	}
	record.ID, err = res.LastInsertId()
	return Error.Wrap(err)
}

func (h *history) ByBatch(ctx context.Context, batchID string) (_ []migration.Record, err error) {
	defer mon.Task()(&ctx)(&err)

	return h.query(ctx, `
		SELECT `+historyColumns+` FROM qc_migration_history
		WHERE migration_batch_id = ?
		ORDER BY id`,
		batchID)
}

func (h *history) ByTable(ctx context.Context, name string, db schema.DatabaseType, limit int) (_ []migration.Record, err error) {
	defer mon.Task()(&ctx)(&err)

	if limit <= 0 {
		limit = 100
	}
	return h.query(ctx, `
		SELECT `+historyColumns+` FROM qc_migration_history
		WHERE table_name = ? AND database_type = ?
		ORDER BY id DESC
		LIMIT ?`,
		name, db, limit)
}

const historyColumns = `id, table_name, database_type, partition_type,
	schema_version, migration_type, sql_statement, execution_status,
	execution_time_ms, COALESCE(error_message, ''), migration_batch_id, created_at`

func (h *history) query(ctx context.Context, query string, args ...interface{}) (_ []migration.Record, err error) {
	rows, err := h.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var records []migration.Record
	for rows.Next() {
		var record migration.Record
		var millis int64
		err := rows.Scan(&record.ID, &record.TableName, &record.DatabaseType,
			&record.PartitionType, &record.SchemaVersion, &record.Type,
			&record.SQL, &record.Status, &millis, &record.ErrorMessage,
			&record.BatchID, &record.CreatedAt)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		record.ExecutionTime = time.Duration(millis) * time.Millisecond
		records = append(records, record)
	}
	return records, Error.Wrap(rows.Err())
}
