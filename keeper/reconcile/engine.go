// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package reconcile transforms a physical MySQL table to match a target
// definition: create when absent, drop on tombstone, otherwise a four-phase
// alter (drop columns, add columns, modify columns, sync indexes).
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/schema"
)

var (
	// Error is the default error class for the reconcile package.
	Error = errs.Class("reconcile")
	// ErrFatal marks catastrophic failures that abort the reconcile,
	// such as failing to read table metadata.
	ErrFatal = errs.Class("reconcile fatal")

	mon = monkit.Package()
)

// MySQL error numbers tolerated as already-applied state.
const (
	errDuplicateColumn  = 1060
	errDuplicateKeyName = 1061
	errCantDropField    = 1091
)

// Conn is the subset of a tenant connection the engine needs: DDL execution
// plus live metadata.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Exists(ctx context.Context, table string) (bool, error)
	Columns(ctx context.Context, table string) ([]inspect.Column, error)
	Indexes(ctx context.Context, table string) ([]inspect.Index, error)
}

type liveConn struct {
	*sql.DB
	*inspect.Inspector
}

// NewConn bundles a pool and its inspector into an engine connection.
func NewConn(db *sql.DB, database string) Conn {
	return liveConn{DB: db, Inspector: inspect.New(db, database)}
}

// DDL is one executed statement with its outcome.
type DDL struct {
	SQL      string
	Type     migration.Type
	Status   migration.Status
	Duration time.Duration
	Err      error
}

// Result reports everything a single reconcile did.
type Result struct {
	Table   string
	Created bool
	Dropped bool
	DDLs    []DDL
}

// Failed returns the statements that did not succeed.
func (result *Result) Failed() []DDL {
	var failed []DDL
	for _, ddl := range result.DDLs {
		if ddl.Status != migration.StatusSuccess {
			failed = append(failed, ddl)
		}
	}
	return failed
}

// Changed reports whether any DDL was executed.
func (result *Result) Changed() bool { return len(result.DDLs) > 0 }

// Engine reconciles physical tables toward target definitions.
//
// architecture: Service
type Engine struct {
	log *zap.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// Reconcile brings the physical table in line with the target definition.
//
// Per-statement failures are recorded in the result and do not abort the
// reconcile; only metadata read failures do.
func (engine *Engine) Reconcile(ctx context.Context, conn Conn, table string, def *schema.TableDefinition) (_ *Result, err error) {
	defer mon.Task()(&ctx)(&err)

	result := &Result{Table: table}

	if def.IsDrop() {
		err := engine.run(ctx, conn, result, migration.TypeDrop, DropTable(table))
		result.Dropped = err == nil
		return result, Error.Wrap(err)
	}

	exists, err := conn.Exists(ctx, table)
	if err != nil {
		return result, ErrFatal.Wrap(err)
	}

	if !exists {
		err := engine.run(ctx, conn, result, migration.TypeCreate, CreateTable(table, def))
		result.Created = err == nil
		return result, Error.Wrap(err)
	}

	liveColumns, err := conn.Columns(ctx, table)
	if err != nil {
		return result, ErrFatal.Wrap(err)
	}
	liveIndexes, err := conn.Indexes(ctx, table)
	if err != nil {
		return result, ErrFatal.Wrap(err)
	}

	columnPlan := PlanColumns(def, liveColumns)
	indexPlan := PlanIndexes(def, liveIndexes, columnPlan.Drop)

	// Phase A: drop removed columns, never the primary key.
	for _, name := range columnPlan.Drop {
		if ctx.Err() != nil {
			break
		}
		_ = engine.run(ctx, conn, result, migration.TypeAlter,
			DropColumn(table, name), errCantDropField)
	}

	// Phase B: add new columns.
	for _, col := range columnPlan.Add {
		if ctx.Err() != nil {
			break
		}
		_ = engine.run(ctx, conn, result, migration.TypeAlter,
			AddColumn(table, col), errDuplicateColumn)
	}

	// Phase C: restate drifted columns.
	for _, col := range columnPlan.Modify {
		if ctx.Err() != nil {
			break
		}
		_ = engine.run(ctx, conn, result, migration.TypeAlter,
			ModifyColumn(table, col))
	}

	// Phase D: synchronize secondary indexes.
	for _, name := range indexPlan.Drop {
		if ctx.Err() != nil {
			break
		}
		_ = engine.run(ctx, conn, result, migration.TypeIndex,
			DropIndex(table, name), errCantDropField)
	}
	for _, idx := range indexPlan.Create {
		if ctx.Err() != nil {
			break
		}
		_ = engine.run(ctx, conn, result, migration.TypeIndex,
			CreateIndex(table, idx), errDuplicateKeyName)
	}

	return result, Error.Wrap(ctx.Err())
}

// run executes one DDL, records its outcome, and reports the error.
// Errors matching a tolerated MySQL code count as success.
func (engine *Engine) run(ctx context.Context, conn Conn, result *Result, kind migration.Type, query string, tolerated ...uint16) error {
	start := time.Now()
	_, err := conn.ExecContext(ctx, query)
	duration := time.Since(start)

	if err != nil && isTolerated(err, tolerated) {
		engine.log.Debug("statement already applied",
			zap.String("table", result.Table), zap.String("sql", query))
		err = nil
	}

	ddl := DDL{SQL: query, Type: kind, Status: migration.StatusSuccess, Duration: duration}
	if err != nil {
		ddl.Status = migration.StatusFailed
		ddl.Err = err
		engine.log.Warn("statement failed",
			zap.String("table", result.Table),
			zap.String("sql", query),
			zap.Error(err))
	}
	result.DDLs = append(result.DDLs, ddl)
	return err
}

func isTolerated(err error, codes []uint16) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	for _, code := range codes {
		if mysqlErr.Number == code {
			return true
		}
	}
	return false
}

func findLiveColumn(live []inspect.Column, name string) *inspect.Column {
	for i := range live {
		if live[i].Name == name {
			return &live[i]
		}
	}
	return nil
}

// backsColumnUnique reports whether a live index is the implicit backing
// index of a column-level unique attribute in the target, so it must not be
// dropped.
func backsColumnUnique(def *schema.TableDefinition, idx *inspect.Index) bool {
	if !idx.Unique || len(idx.Columns) != 1 {
		return false
	}
	col, ok := def.FindColumn(idx.Columns[0])
	return ok && col.Unique
}
