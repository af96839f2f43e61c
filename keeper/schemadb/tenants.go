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
	"github.com/qcplatform/schemad/keeper/tenant"
)

// tenants implements tenant.DB on the qc_enterprises table. Connection
// tuples are stored as a JSON object keyed by database role.
type tenants struct {
	db *DB
}

const tenantColumns = `id, name, status, databases,
	store_table, store_id_column, store_active_predicate`

func (t *tenants) All(ctx context.Context) (_ []tenant.Descriptor, err error) {
	defer mon.Task()(&ctx)(&err)

	return t.query(ctx, `
		SELECT `+tenantColumns+` FROM qc_enterprises ORDER BY id`)
}

func (t *tenants) Normal(ctx context.Context) (_ []tenant.Descriptor, err error) {
	defer mon.Task()(&ctx)(&err)

	return t.query(ctx, `
		SELECT `+tenantColumns+` FROM qc_enterprises
		WHERE status = ? ORDER BY id`,
		tenant.StatusNormal)
}

func (t *tenants) Get(ctx context.Context, id int64) (_ *tenant.Descriptor, err error) {
	defer mon.Task()(&ctx)(&err)

	row := t.db.db.QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM qc_enterprises WHERE id = ?`, id)
	descriptor, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tenant.Error.New("enterprise %d not found", id)
	}
	return descriptor, Error.Wrap(err)
}

func (t *tenants) query(ctx context.Context, query string, args ...interface{}) (_ []tenant.Descriptor, err error) {
	rows, err := t.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var result []tenant.Descriptor
	for rows.Next() {
		descriptor, err := scanTenant(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		result = append(result, *descriptor)
	}
	return result, Error.Wrap(rows.Err())
}

func scanTenant(row scanner) (*tenant.Descriptor, error) {
	var descriptor tenant.Descriptor
	var databases []byte
	err := row.Scan(&descriptor.ID, &descriptor.Name, &descriptor.Status,
		&databases, &descriptor.Stores.Table, &descriptor.Stores.IDColumn,
		&descriptor.Stores.ActivePredicate)
	if err != nil {
		return nil, err
	}
	descriptor.Databases = make(map[schema.DatabaseType]tenant.ConnParams)
	if err := json.Unmarshal(databases, &descriptor.Databases); err != nil {
		return nil, err
	}
	return &descriptor, nil
}
