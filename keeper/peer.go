// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package keeper assembles the schema keeper process: control database,
// tenant connection registry, reconciliation engine, drift detector,
// migration orchestrator, lifecycle chores and the admin HTTP server.
package keeper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qcplatform/schemad/keeper/admin"
	"github.com/qcplatform/schemad/keeper/drift"
	"github.com/qcplatform/schemad/keeper/inspect"
	"github.com/qcplatform/schemad/keeper/migrator"
	"github.com/qcplatform/schemad/keeper/reconcile"
	"github.com/qcplatform/schemad/keeper/retention"
	"github.com/qcplatform/schemad/keeper/schemadb"
	"github.com/qcplatform/schemad/keeper/shard"
	"github.com/qcplatform/schemad/keeper/tenant"
	"github.com/qcplatform/schemad/keeper/timeshard"
)

// Error is the default error class for the keeper package.
var Error = errs.Class("keeper")

// Config is the run configuration of the keeper peer.
type Config struct {
	Baseline  tenant.ConnParams
	Server    admin.Config
	Timeshard timeshard.Config
	Retention retention.Config
}

// Peer is the schema keeper process.
//
// architecture: Peer
type Peer struct {
	Log *zap.Logger
	DB  *schemadb.DB

	Baseline *sql.DB

	Tenants  tenant.DB
	Registry *tenant.Registry

	Reconcile struct {
		Engine *reconcile.Engine
	}

	Shard struct {
		Expander *shard.Expander
	}

	Drift struct {
		Detector *drift.Detector
	}

	Migrator struct {
		Service *migrator.Service
	}

	Timeshard struct {
		Chore *timeshard.Chore
	}

	Retention struct {
		Chore *retention.Chore
	}

	Admin struct {
		Listener net.Listener
		Server   *admin.Server
	}
}

// New creates a new keeper peer from an opened control database.
func New(log *zap.Logger, db *schemadb.DB, config Config) (*Peer, error) {
	peer := &Peer{
		Log: log,
		DB:  db,
	}

	peer.Tenants = db.Tenants()
	peer.Registry = tenant.NewRegistry(log.Named("registry"))

	peer.Reconcile.Engine = reconcile.NewEngine(log.Named("reconcile"))
	peer.Shard.Expander = shard.NewExpander(log.Named("shard"), peer.Registry)

	{ // setup drift detection over the baseline database
		baseline, err := openBaseline(config.Baseline)
		if err != nil {
			return nil, errs.Combine(err, peer.Close())
		}
		peer.Baseline = baseline
		peer.Drift.Detector = drift.NewDetector(log.Named("drift"),
			inspect.New(baseline, config.Baseline.Database), db.Catalog())
	}

	peer.Migrator.Service = migrator.NewService(log.Named("migrator"),
		db.Catalog(), db.History(), db.Versions(), db.Locks(),
		peer.Tenants, peer.Registry, peer.Shard.Expander, peer.Reconcile.Engine)

	peer.Timeshard.Chore = timeshard.NewChore(log.Named("timeshard"),
		config.Timeshard, db.Catalog(), peer.Tenants, peer.Registry,
		peer.Reconcile.Engine)
	peer.Retention.Chore = retention.NewChore(log.Named("retention"),
		config.Retention, db.Catalog(), peer.Tenants, peer.Registry)

	{ // setup admin server
		listener, err := net.Listen("tcp", config.Server.Address)
		if err != nil {
			return nil, errs.Combine(Error.Wrap(err), peer.Close())
		}
		peer.Admin.Listener = listener
		peer.Admin.Server = admin.NewServer(log.Named("admin"), listener,
			db.Catalog(), db.History(), db.Locks(), peer.Registry,
			peer.Migrator.Service, peer.Drift.Detector,
			peer.Timeshard.Chore, peer.Retention.Chore, config.Server)
	}

	return peer, nil
}

// Run runs the peer until the context is cancelled.
func (peer *Peer) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return ignoreCancel(peer.Timeshard.Chore.Run(ctx))
	})
	group.Go(func() error {
		return ignoreCancel(peer.Retention.Chore.Run(ctx))
	})
	group.Go(func() error {
		return ignoreCancel(peer.Admin.Server.Run(ctx))
	})

	return group.Wait()
}

// Close releases every resource the peer owns. The control database is
// closed by the caller that opened it.
func (peer *Peer) Close() error {
	var group errs.Group

	if peer.Admin.Server != nil {
		group.Add(peer.Admin.Server.Close())
	} else if peer.Admin.Listener != nil {
		group.Add(peer.Admin.Listener.Close())
	}
	if peer.Retention.Chore != nil {
		group.Add(peer.Retention.Chore.Close())
	}
	if peer.Timeshard.Chore != nil {
		group.Add(peer.Timeshard.Chore.Close())
	}
	if peer.Registry != nil {
		group.Add(peer.Registry.CloseAll())
	}
	if peer.Baseline != nil {
		group.Add(peer.Baseline.Close())
	}

	return Error.Wrap(group.Err())
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openBaseline opens the reference database used by drift detection.
func openBaseline(params tenant.ConnParams) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", params.Host, params.Port)
	cfg.DBName = params.Database
	cfg.ParseTime = true
	cfg.Timeout = 30 * time.Second

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, Error.Wrap(err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}
