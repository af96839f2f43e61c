// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package migrate applies integer-versioned schema steps to the control
// database, tracking the applied version in a dedicated table.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sort"
	"strconv"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Error is the default error class for the migrate package.
var Error = errs.Class("migrate")

// Migration describes the full set of schema steps for one database.
type Migration struct {
	Table string
	Steps []*Step
}

// Step is a single versioned change. Versions start at 0 and only ever
// get appended; editing an applied step is a bug.
type Step struct {
	Description string
	Version     int
	Action      Action
}

// Action is something a step needs to do.
type Action interface {
	Run(ctx context.Context, log *zap.Logger, tx *sql.Tx) error
}

// TargetVersion returns the migration truncated to steps up to version.
func (migration *Migration) TargetVersion(version int) *Migration {
	m := *migration
	m.Steps = nil
	for _, step := range migration.Steps {
		if step.Version <= version {
			m.Steps = append(m.Steps, step)
		}
	}
	return &m
}

// ValidTableName checks whether the version table name is safe to splice
// into SQL.
func (migration *Migration) ValidTableName() error {
	matched, err := regexp.MatchString(`^[a-z_]+$`, migration.Table)
	if !matched || err != nil {
		return Error.New("invalid table name: %v", migration.Table)
	}
	return nil
}

// ValidateSteps checks that step versions are in increasing order.
func (migration *Migration) ValidateSteps() error {
	sorted := sort.SliceIsSorted(migration.Steps, func(i, j int) bool {
		return migration.Steps[i].Version <= migration.Steps[j].Version
	})
	if !sorted {
		return Error.New("steps have incorrect order")
	}
	return nil
}

// Run applies every step newer than the database's recorded version.
func (migration *Migration) Run(ctx context.Context, log *zap.Logger, db *sql.DB) error {
	if err := migration.ValidTableName(); err != nil {
		return err
	}
	if err := migration.ValidateSteps(); err != nil {
		return err
	}

	if err := migration.ensureVersionTable(ctx, db); err != nil {
		return Error.New("creating version table failed: %w", err)
	}

	version, err := migration.getLatestVersion(ctx, db)
	if err != nil {
		return Error.Wrap(err)
	}
	initialSetup := version < 0

	for _, step := range migration.Steps {
		if step.Version <= version {
			continue
		}

		stepLog := log.Named(strconv.Itoa(step.Version))
		if !initialSetup {
			stepLog.Info(step.Description)
		}

		err := withTx(ctx, db, func(tx *sql.Tx) error {
			if err := step.Action.Run(ctx, stepLog, tx); err != nil {
				return err
			}
			return migration.addVersion(ctx, tx, step.Version)
		})
		if err != nil {
			return Error.Wrap(err)
		}
	}

	if len(migration.Steps) > 0 {
		last := migration.Steps[len(migration.Steps)-1]
		if initialSetup {
			log.Info("database created", zap.Int("version", last.Version))
		} else {
			log.Info("database version", zap.Int("version", last.Version))
		}
	}
	return nil
}

// CurrentVersion returns the latest applied version, -1 when none.
func (migration *Migration) CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	if err := migration.ensureVersionTable(ctx, db); err != nil {
		return -1, Error.Wrap(err)
	}
	return migration.getLatestVersion(ctx, db)
}

func (migration *Migration) ensureVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS `+migration.Table+` (
			version INT NOT NULL,
			committed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (version)
		) ENGINE=InnoDB`)
	return Error.Wrap(err)
}

func (migration *Migration) getLatestVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM `+migration.Table).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !version.Valid) {
		return -1, nil
	}
	return int(version.Int64), Error.Wrap(err)
}

func (migration *Migration) addVersion(ctx context.Context, tx *sql.Tx, version int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+migration.Table+` (version) VALUES (?)`, version)
	return err
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errs.Combine(err, tx.Rollback())
	}
	return tx.Commit()
}

// SQL is a list of statements executed as one step.
//
// MySQL DDL commits implicitly, so a failed step can leave the version
// table behind the executed statements; steps keep statements idempotent
// where possible.
type SQL []string

// Run executes the statements in order.
func (statements SQL) Run(ctx context.Context, log *zap.Logger, tx *sql.Tx) error {
	for _, query := range statements {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return errs.Wrap(err)
		}
	}
	return nil
}

// Func is an arbitrary operation run as a step.
type Func func(ctx context.Context, log *zap.Logger, tx *sql.Tx) error

// Run runs the function.
func (fn Func) Run(ctx context.Context, log *zap.Logger, tx *sql.Tx) error {
	return fn(ctx, log, tx)
}
