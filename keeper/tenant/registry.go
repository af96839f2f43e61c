// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/qcplatform/schemad/keeper/schema"
)

var mon = monkit.Package()

const (
	poolMaxOpen = 5
	dialTimeout = 30 * time.Second
)

type poolKey struct {
	enterpriseID int64
	role         schema.DatabaseType
}

func (k poolKey) String() string {
	return fmt.Sprintf("%d/%s", k.enterpriseID, k.role)
}

// Registry lazily opens and caches one MySQL pool per (tenant, role).
//
// On first use for a key it ensures the tenant database exists via an admin
// connection, then opens the pool. Cached pools are pinged before handout;
// dead pools are dropped and reopened.
type Registry struct {
	log *zap.Logger

	mu    sync.Mutex
	pools map[poolKey]*sql.DB
}

// NewRegistry creates an empty connection registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		log:   log,
		pools: make(map[poolKey]*sql.DB),
	}
}

// Get returns the pool for the tenant and role, opening it when needed.
func (registry *Registry) Get(ctx context.Context, tenant *Descriptor, role schema.DatabaseType) (_ *sql.DB, err error) {
	defer mon.Task()(&ctx)(&err)

	params, err := tenant.Params(role)
	if err != nil {
		return nil, err
	}
	key := poolKey{enterpriseID: tenant.ID, role: role}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if db, ok := registry.pools[key]; ok {
		if err := db.PingContext(ctx); err == nil {
			return db, nil
		}
		registry.log.Warn("cached pool failed ping, reopening",
			zap.String("key", key.String()))
		_ = db.Close()
		delete(registry.pools, key)
	}

	if err := ensureDatabase(ctx, params); err != nil {
		return nil, Error.Wrap(err)
	}

	db, err := openPool(params)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Error.Wrap(err)
	}

	registry.pools[key] = db
	registry.log.Debug("opened tenant pool",
		zap.String("key", key.String()),
		zap.String("database", params.Database))
	return db, nil
}

// CloseAll closes every cached pool.
func (registry *Registry) CloseAll() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	var group errs.Group
	for key, db := range registry.pools {
		group.Add(db.Close())
		delete(registry.pools, key)
	}
	return Error.Wrap(group.Err())
}

// CloseTenant closes all cached pools belonging to one enterprise.
func (registry *Registry) CloseTenant(enterpriseID int64) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	var group errs.Group
	for key, db := range registry.pools {
		if key.enterpriseID == enterpriseID {
			group.Add(db.Close())
			delete(registry.pools, key)
		}
	}
	return Error.Wrap(group.Err())
}

// Stats returns the sorted list of active cache keys.
func (registry *Registry) Stats() []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	keys := make([]string, 0, len(registry.pools))
	for key := range registry.pools {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	return keys
}

// ensureDatabase creates the tenant database when missing, using an admin
// connection without a selected schema.
func ensureDatabase(ctx context.Context, params ConnParams) error {
	cfg := dsnConfig(params)
	cfg.DBName = ""

	admin, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	_, err = admin.ExecContext(ctx,
		"CREATE DATABASE IF NOT EXISTS `"+params.Database+
			"` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci")
	return err
}

func openPool(params ConnParams) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsnConfig(params).FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(poolMaxOpen)
	// connections are returned to the server as soon as they are done;
	// hundreds of tenants times several roles add up
	db.SetMaxIdleConns(0)
	return db, nil
}

func dsnConfig(params ConnParams) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", params.Host, params.Port)
	cfg.DBName = params.Database
	cfg.ParseTime = true
	cfg.Timeout = dialTimeout
	cfg.Collation = "utf8mb4_unicode_ci"
	cfg.MultiStatements = false
	return cfg
}
