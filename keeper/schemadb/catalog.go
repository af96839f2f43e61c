// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package schemadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/private/version"
)

// catalog implements schema.Catalog on the qc_table_schemas table.
type catalog struct {
	db *DB
}

const catalogColumns = `id, table_name, database_type, partition_type,
	time_interval, time_format, schema_version, schema_definition,
	is_active, COALESCE(upgrade_notes, ''), COALESCE(changes_detected, ''), created_at`

func (c *catalog) PutNewVersion(ctx context.Context, entry *schema.TableSchema) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := entry.Validate(); err != nil {
		return err
	}
	definition, err := json.Marshal(entry.Definition)
	if err != nil {
		return schema.ErrValidation.Wrap(err)
	}

	return c.db.withTx(ctx, nil, func(tx *sql.Tx) error {
		var activeID int64
		var activeVersion string
		err := tx.QueryRowContext(ctx, `
			SELECT id, schema_version FROM qc_table_schemas
			WHERE table_name = ? AND database_type = ? AND partition_type = ?
				AND is_active = 1
			ORDER BY id DESC LIMIT 1
			FOR UPDATE`,
			entry.TableName, entry.DatabaseType, entry.PartitionType,
		).Scan(&activeID, &activeVersion)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			// first version for this key

		case err != nil:
			return Error.Wrap(err)

		default:
			if !version.IsNewer(entry.SchemaVersion, activeVersion) {
				return schema.ErrVersionOrder.New(
					"new version %s must be greater than active %s",
					entry.SchemaVersion, activeVersion)
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE qc_table_schemas SET is_active = 0 WHERE id = ? AND is_active = 1`,
				activeID)
			if err != nil {
				return Error.New("demoting active version failed: %w", err)
			}
			if affected, err := res.RowsAffected(); err != nil || affected != 1 {
				return Error.New("demoting active version failed: affected=%d err=%v", affected, err)
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO qc_table_schemas (
				table_name, database_type, partition_type, time_interval,
				time_format, schema_version, schema_definition, is_active,
				upgrade_notes, changes_detected
			) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			entry.TableName, entry.DatabaseType, entry.PartitionType,
			entry.TimeInterval, entry.TimeFormat, entry.SchemaVersion,
			definition, entry.UpgradeNotes, entry.ChangesDetected)
		if err != nil {
			return Error.Wrap(err)
		}
		entry.ID, err = res.LastInsertId()
		entry.IsActive = true
		return Error.Wrap(err)
	})
}

func (c *catalog) GetActive(ctx context.Context, name string, db schema.DatabaseType, pt schema.PartitionType) (_ *schema.TableSchema, err error) {
	defer mon.Task()(&ctx)(&err)

	row := c.db.db.QueryRowContext(ctx, `
		SELECT `+catalogColumns+` FROM qc_table_schemas
		WHERE table_name = ? AND database_type = ? AND partition_type = ?
			AND is_active = 1
		ORDER BY id DESC LIMIT 1`,
		name, db, pt)
	entry, err := scanSchema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schema.ErrNotFound.New("%s@%s@%s", name, db, pt)
	}
	return entry, Error.Wrap(err)
}

func (c *catalog) GetVersion(ctx context.Context, name string, db schema.DatabaseType, pt schema.PartitionType, schemaVersion string) (_ *schema.TableSchema, err error) {
	defer mon.Task()(&ctx)(&err)

	row := c.db.db.QueryRowContext(ctx, `
		SELECT `+catalogColumns+` FROM qc_table_schemas
		WHERE table_name = ? AND database_type = ? AND partition_type = ?
			AND schema_version = ?
		ORDER BY id DESC LIMIT 1`,
		name, db, pt, schemaVersion)
	entry, err := scanSchema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schema.ErrNotFound.New("%s@%s@%s version %s", name, db, pt, schemaVersion)
	}
	return entry, Error.Wrap(err)
}

func (c *catalog) FindActiveMatches(ctx context.Context, name string, db schema.DatabaseType) (_ []*schema.TableSchema, err error) {
	defer mon.Task()(&ctx)(&err)

	return c.query(ctx, `
		SELECT `+catalogColumns+` FROM qc_table_schemas
		WHERE table_name = ? AND database_type = ? AND is_active = 1
		ORDER BY partition_type`,
		name, db)
}

func (c *catalog) ListAllActive(ctx context.Context) (_ []*schema.TableSchema, err error) {
	defer mon.Task()(&ctx)(&err)

	return c.query(ctx, `
		SELECT `+catalogColumns+` FROM qc_table_schemas
		WHERE is_active = 1
		ORDER BY database_type ASC, table_name ASC, schema_version DESC`)
}

func (c *catalog) History(ctx context.Context, name string, db schema.DatabaseType) (_ []*schema.TableSchema, err error) {
	defer mon.Task()(&ctx)(&err)

	return c.query(ctx, `
		SELECT `+catalogColumns+` FROM qc_table_schemas
		WHERE table_name = ? AND database_type = ?
		ORDER BY id DESC`,
		name, db)
}

func (c *catalog) Deactivate(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	res, err := c.db.db.ExecContext(ctx,
		`UPDATE qc_table_schemas SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return schema.ErrNotFound.New("schema id %d", id)
	}
	return nil
}

func (c *catalog) query(ctx context.Context, query string, args ...interface{}) (_ []*schema.TableSchema, err error) {
	rows, err := c.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var entries []*schema.TableSchema
	for rows.Next() {
		entry, err := scanSchema(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		entries = append(entries, entry)
	}
	return entries, Error.Wrap(rows.Err())
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSchema(row scanner) (*schema.TableSchema, error) {
	var entry schema.TableSchema
	var definition []byte
	err := row.Scan(&entry.ID, &entry.TableName, &entry.DatabaseType,
		&entry.PartitionType, &entry.TimeInterval, &entry.TimeFormat,
		&entry.SchemaVersion, &definition, &entry.IsActive,
		&entry.UpgradeNotes, &entry.ChangesDetected, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(definition, &entry.Definition); err != nil {
		return nil, err
	}
	return &entry, nil
}
