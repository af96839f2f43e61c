// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package schemadb implements the control-database stores: the schema
// catalog, migration history, version memos, migration locks and the
// enterprise directory.
package schemadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/schema"
	"github.com/qcplatform/schemad/keeper/tenant"
	"github.com/qcplatform/schemad/private/migrate"
)

var (
	// Error is the default error class for the schemadb package.
	Error = errs.Class("schemadb")

	mon = monkit.Package()
)

// DB provides access to all control-database stores.
//
// architecture: Master Database
type DB struct {
	log *zap.Logger
	db  *sql.DB
}

// Open connects to the control database.
func Open(log *zap.Logger, params tenant.ConnParams) (*DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", params.Host, params.Port)
	cfg.DBName = params.Database
	cfg.ParseTime = true
	cfg.Timeout = 30 * time.Second
	cfg.Collation = "utf8mb4_unicode_ci"

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, Error.Wrap(err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &DB{log: log, db: db}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	return Error.Wrap(db.db.Close())
}

// Ping verifies the control database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return Error.Wrap(db.db.PingContext(ctx))
}

// MigrateToLatest applies the control database's own schema migrations.
func (db *DB) MigrateToLatest(ctx context.Context) error {
	return Migration().Run(ctx, db.log.Named("migrate"), db.db)
}

// Catalog returns the schema catalog store.
func (db *DB) Catalog() schema.Catalog { return &catalog{db: db} }

// History returns the migration history store.
func (db *DB) History() migration.History { return &history{db: db} }

// Versions returns the version memo store.
func (db *DB) Versions() migration.Versions { return &versions{db: db} }

// Locks returns the migration lock store.
func (db *DB) Locks() migration.Locks { return &locks{db: db} }

// Tenants returns the enterprise directory store.
func (db *DB) Tenants() tenant.DB { return &tenants{db: db} }

func (db *DB) withTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errs.Combine(err, tx.Rollback())
	}
	return tx.Commit()
}

// Migration returns the control database's own schema changes.
//
// Steps only ever get appended; editing an applied step is a bug.
func Migration() *migrate.Migration {
	return &migrate.Migration{
		Table: "qc_schemadb_versions",
		Steps: []*migrate.Step{
			{
				Description: "initial control tables",
				Version:     0,
				Action: migrate.SQL{
					`CREATE TABLE qc_table_schemas (
						id BIGINT NOT NULL AUTO_INCREMENT,
						table_name VARCHAR(128) NOT NULL,
						database_type VARCHAR(16) NOT NULL,
						partition_type VARCHAR(16) NOT NULL,
						time_interval VARCHAR(16) NOT NULL DEFAULT '',
						time_format VARCHAR(64) NOT NULL DEFAULT '',
						schema_version VARCHAR(64) NOT NULL,
						schema_definition JSON NOT NULL,
						is_active TINYINT(1) NOT NULL DEFAULT 1,
						upgrade_notes TEXT,
						changes_detected TEXT,
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						PRIMARY KEY (id),
						KEY idx_schemas_key (table_name, database_type, partition_type, is_active)
					) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
					`CREATE TABLE qc_migration_history (
						id BIGINT NOT NULL AUTO_INCREMENT,
						table_name VARCHAR(128) NOT NULL,
						database_type VARCHAR(16) NOT NULL,
						partition_type VARCHAR(16) NOT NULL,
						schema_version VARCHAR(64) NOT NULL,
						migration_type VARCHAR(16) NOT NULL,
						sql_statement MEDIUMTEXT NOT NULL,
						execution_status VARCHAR(16) NOT NULL,
						execution_time_ms BIGINT NOT NULL DEFAULT 0,
						error_message TEXT,
						migration_batch_id CHAR(36) NOT NULL,
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						PRIMARY KEY (id),
						KEY idx_history_batch (migration_batch_id),
						KEY idx_history_table (table_name, database_type)
					) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
					`CREATE TABLE qc_migration_locks (
						id BIGINT NOT NULL AUTO_INCREMENT,
						lock_key VARCHAR(191) NOT NULL,
						lock_type VARCHAR(16) NOT NULL,
						table_name VARCHAR(128) NOT NULL DEFAULT '',
						database_type VARCHAR(16) NOT NULL DEFAULT '',
						partition_type VARCHAR(16) NOT NULL DEFAULT '',
						start_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						lock_holder VARCHAR(191) NOT NULL,
						operation_info VARCHAR(255) NOT NULL DEFAULT '',
						is_active TINYINT(1) NOT NULL DEFAULT 1,
						PRIMARY KEY (id),
						KEY idx_locks_active (is_active),
						KEY idx_locks_key (lock_key)
					) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
					`CREATE TABLE qc_migration_versions (
						id BIGINT NOT NULL AUTO_INCREMENT,
						enterprise_id BIGINT NOT NULL,
						table_name VARCHAR(128) NOT NULL,
						database_type VARCHAR(16) NOT NULL,
						partition_rule VARCHAR(32) NOT NULL,
						current_migrated_version VARCHAR(64) NOT NULL,
						migration_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						PRIMARY KEY (id),
						UNIQUE KEY uq_versions_key (enterprise_id, table_name, database_type, partition_rule)
					) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
				},
			},
			{
				Description: "enterprise directory",
				Version:     1,
				Action: migrate.SQL{
					`CREATE TABLE qc_enterprises (
						id BIGINT NOT NULL AUTO_INCREMENT,
						name VARCHAR(191) NOT NULL,
						status VARCHAR(16) NOT NULL DEFAULT 'normal',
						databases JSON NOT NULL,
						store_table VARCHAR(128) NOT NULL DEFAULT '',
						store_id_column VARCHAR(128) NOT NULL DEFAULT '',
						store_active_predicate VARCHAR(255) NOT NULL DEFAULT '',
						created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
						PRIMARY KEY (id),
						KEY idx_enterprises_status (status)
					) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
				},
			},
		},
	}
}
