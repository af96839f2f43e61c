// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package admin implements the control-plane HTTP API: catalog management,
// migration execution, lock and connection administration, drift detection
// and manual chore triggers.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qcplatform/schemad/keeper/migration"
	"github.com/qcplatform/schemad/keeper/migrator"
	"github.com/qcplatform/schemad/keeper/schema"
)

// Config defines configuration for the admin server.
type Config struct {
	Address string
}

// Migrator is the orchestrator surface the server drives.
type Migrator interface {
	MigrateTable(ctx context.Context, name string, db schema.DatabaseType, pt schema.PartitionType, schemaVersion string) (*migrator.OperationResult, error)
	MigrateAllTables(ctx context.Context) (*migrator.OperationResult, error)
	MigrateStoreShards(ctx context.Context, storeID string, enterpriseID int64) (*migrator.OperationResult, error)
}

// Detector is the drift-detection surface the server exposes.
type Detector interface {
	DetectAll(ctx context.Context) ([]*schema.TableSchema, error)
	DetectTable(ctx context.Context, name string) (*schema.TableSchema, error)
	SaveDetected(ctx context.Context, batch []*schema.TableSchema) error
}

// Connections is the registry admin surface.
type Connections interface {
	Stats() []string
	CloseAll() error
	CloseTenant(enterpriseID int64) error
}

// Trigger runs one chore pass synchronously.
type Trigger interface {
	TriggerWait()
}

// Server provides the control-plane HTTP endpoints.
//
// architecture: Endpoint
type Server struct {
	log *zap.Logger

	listener net.Listener
	server   http.Server

	catalog   schema.Catalog
	history   migration.History
	locks     migration.Locks
	conns     Connections
	migrator  Migrator
	detector  Detector
	timeshard Trigger
	retention Trigger

	config Config
}

// NewServer returns a new admin Server.
func NewServer(log *zap.Logger, listener net.Listener, catalog schema.Catalog,
	history migration.History, locks migration.Locks, conns Connections,
	migrator Migrator, detector Detector, timeshard, retention Trigger,
	config Config) *Server {
	server := &Server{
		log: log,

		listener: listener,

		catalog:   catalog,
		history:   history,
		locks:     locks,
		conns:     conns,
		migrator:  migrator,
		detector:  detector,
		timeshard: timeshard,
		retention: retention,

		config: config,
	}

	root := mux.NewRouter()
	api := root.PathPrefix("/api/").Subrouter()

	api.HandleFunc("/schemas", server.createSchema).Methods("POST")
	api.HandleFunc("/schemas", server.listSchemas).Methods("GET")
	api.HandleFunc("/schemas/{table}", server.getSchema).Methods("GET")
	api.HandleFunc("/schemas/{table}/history", server.schemaHistory).Methods("GET")
	api.HandleFunc("/schemas/{id:[0-9]+}", server.deleteSchema).Methods("DELETE")

	api.HandleFunc("/migrations/execute", server.executeTable).Methods("POST")
	api.HandleFunc("/migrations/execute-all", server.executeAll).Methods("POST")
	api.HandleFunc("/migrations/execute-store", server.executeStore).Methods("POST")
	api.HandleFunc("/migrations/batches/{batch}", server.migrationBatch).Methods("GET")
	api.HandleFunc("/migrations/tables/{table}", server.migrationsByTable).Methods("GET")

	api.HandleFunc("/locks", server.listLocks).Methods("GET")
	api.HandleFunc("/locks/force-release", server.forceReleaseLock).Methods("POST")
	api.HandleFunc("/locks/cleanup", server.cleanupLocks).Methods("POST")

	api.HandleFunc("/connections", server.connectionStats).Methods("GET")
	api.HandleFunc("/connections", server.closeConnections).Methods("DELETE")

	api.HandleFunc("/schema-detection", server.detectAll).Methods("GET")
	api.HandleFunc("/schema-detection/detect-and-save", server.detectAndSave).Methods("POST")
	api.HandleFunc("/schema-detection/tables/{table}", server.detectTable).Methods("GET")

	api.HandleFunc("/chores/timeshard", server.triggerTimeshard).Methods("POST")
	api.HandleFunc("/chores/retention", server.triggerRetention).Methods("POST")

	server.server.Handler = root
	return server
}

// Run starts the admin endpoint and shuts it down when the context is
// cancelled.
func (server *Server) Run(ctx context.Context) error {
	if server.listener == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	var group errgroup.Group
	group.Go(func() error {
		<-ctx.Done()
		return Error.Wrap(server.server.Shutdown(context.Background()))
	})
	group.Go(func() error {
		defer cancel()
		err := server.server.Serve(server.listener)
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
			err = nil
		}
		return Error.Wrap(err)
	})
	return group.Wait()
}

// Close closes server and underlying listener.
func (server *Server) Close() error {
	return Error.Wrap(server.server.Close())
}
