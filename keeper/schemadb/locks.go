// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package schemadb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/keeper/migration"
)

// locks implements migration.Locks on the qc_migration_locks table.
//
// Conflicts are evaluated under a serializable transaction scanning the
// active locks, so two concurrent acquires cannot both succeed.
type locks struct {
	db *DB
}

func (l *locks) Acquire(ctx context.Context, req migration.LockRequest) (_ *migration.Lock, err error) {
	defer mon.Task()(&ctx)(&err)

	lock := &migration.Lock{
		Type:          req.Type,
		TableName:     req.TableName,
		DatabaseType:  req.DatabaseType,
		PartitionType: req.PartitionType,
		Holder:        holderIdentity(),
		OperationInfo: req.OperationInfo,
		StartTime:     time.Now(),
		IsActive:      true,
	}
	millis := lock.StartTime.UnixMilli()
	if req.Type == migration.LockAllTables {
		lock.Key = fmt.Sprintf("ALL_TABLES_%d", millis)
	} else {
		lock.Key = fmt.Sprintf("%s|%s|%s|%d",
			req.TableName, req.DatabaseType, req.PartitionType, millis)
	}

	err = l.db.withTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *sql.Tx) error {
		active, err := scanLocks(tx.QueryContext(ctx, `
			SELECT `+lockColumns+` FROM qc_migration_locks
			WHERE is_active = 1
			ORDER BY id
			FOR UPDATE`))
		if err != nil {
			return Error.Wrap(err)
		}

		for i := range active {
			existing := &active[i]
			if conflicts(req, existing) {
				return &migration.ConflictError{Existing: *existing}
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO qc_migration_locks (
				lock_key, lock_type, table_name, database_type,
				partition_type, lock_holder, operation_info, is_active
			) VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
			lock.Key, lock.Type, lock.TableName, lock.DatabaseType,
			lock.PartitionType, lock.Holder, lock.OperationInfo)
		if err != nil {
			return Error.Wrap(err)
		}
		lock.ID, err = res.LastInsertId()
		return Error.Wrap(err)
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// conflicts applies the conflict rules: an ALL_TABLES lock conflicts with
// everything, an ALL_TABLES request conflicts with any active lock, and a
// SINGLE_TABLE request conflicts with a SINGLE_TABLE lock on the same key.
func conflicts(req migration.LockRequest, existing *migration.Lock) bool {
	if existing.Type == migration.LockAllTables {
		return true
	}
	if req.Type == migration.LockAllTables {
		return true
	}
	return existing.TableName == req.TableName &&
		existing.DatabaseType == req.DatabaseType &&
		existing.PartitionType == req.PartitionType
}

func (l *locks) Release(ctx context.Context, key, holder string) (err error) {
	defer mon.Task()(&ctx)(&err)

	res, err := l.db.db.ExecContext(ctx, `
		UPDATE qc_migration_locks SET is_active = 0
		WHERE lock_key = ? AND lock_holder = ? AND is_active = 1`,
		key, holder)
	if err != nil {
		return Error.Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return nil
	}

	// distinguish a wrong holder from an already-released lock
	var actualHolder string
	err = l.db.db.QueryRowContext(ctx, `
		SELECT lock_holder FROM qc_migration_locks
		WHERE lock_key = ? AND is_active = 1`,
		key).Scan(&actualHolder)
	if err == nil {
		return migration.ErrNotHolder.New("lock %q is held by %s", key, actualHolder)
	}
	return Error.New("no active lock %q", key)
}

func (l *locks) ForceRelease(ctx context.Context, key string) (err error) {
	defer mon.Task()(&ctx)(&err)

	res, err := l.db.db.ExecContext(ctx, `
		UPDATE qc_migration_locks SET is_active = 0
		WHERE lock_key = ? AND is_active = 1`,
		key)
	if err != nil {
		return Error.Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return Error.New("no active lock %q", key)
	}
	return nil
}

func (l *locks) CleanupOlderThan(ctx context.Context, age time.Duration) (_ int64, err error) {
	defer mon.Task()(&ctx)(&err)

	res, err := l.db.db.ExecContext(ctx, `
		UPDATE qc_migration_locks SET is_active = 0
		WHERE is_active = 1 AND start_time < ?`,
		time.Now().Add(-age))
	if err != nil {
		return 0, Error.Wrap(err)
	}
	cleaned, err := res.RowsAffected()
	return cleaned, Error.Wrap(err)
}

func (l *locks) ListActive(ctx context.Context) (_ []migration.Lock, err error) {
	defer mon.Task()(&ctx)(&err)

	return scanLocks(l.db.db.QueryContext(ctx, `
		SELECT `+lockColumns+` FROM qc_migration_locks
		WHERE is_active = 1
		ORDER BY id`))
}

const lockColumns = `id, lock_key, lock_type, table_name, database_type,
	partition_type, start_time, lock_holder, operation_info, is_active`

func scanLocks(rows *sql.Rows, queryErr error) (_ []migration.Lock, err error) {
	if queryErr != nil {
		return nil, Error.Wrap(queryErr)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	var result []migration.Lock
	for rows.Next() {
		var lock migration.Lock
		err := rows.Scan(&lock.ID, &lock.Key, &lock.Type, &lock.TableName,
			&lock.DatabaseType, &lock.PartitionType, &lock.StartTime,
			&lock.Holder, &lock.OperationInfo, &lock.IsActive)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		result = append(result, lock)
	}
	return result, Error.Wrap(rows.Err())
}

// holderIdentity encodes host, process and a random nonce so a crashed
// process never matches a later one.
func holderIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}
