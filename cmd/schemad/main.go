// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"

	"github.com/qcplatform/schemad/keeper"
	"github.com/qcplatform/schemad/keeper/admin"
	"github.com/qcplatform/schemad/keeper/retention"
	"github.com/qcplatform/schemad/keeper/schemadb"
	"github.com/qcplatform/schemad/keeper/tenant"
	"github.com/qcplatform/schemad/keeper/timeshard"
	"github.com/qcplatform/schemad/private/process"
)

var (
	rootCmd = &cobra.Command{
		Use:   "schemad",
		Short: "Multi-tenant MySQL schema keeper",
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the schema keeper",
		RunE:  cmdRun,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply control database migrations and exit",
		RunE:  cmdMigrate,
	}
)

func init() {
	rootCmd.AddCommand(runCmd, migrateCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("db.host", "127.0.0.1", "control database host")
	flags.Int("db.port", 3306, "control database port")
	flags.String("db.user", "root", "control database user")
	flags.String("db.password", "", "control database password")
	flags.String("db.name", "qc_schemad", "control database name")

	flags.String("baseline.host", "127.0.0.1", "baseline database host")
	flags.Int("baseline.port", 3306, "baseline database port")
	flags.String("baseline.user", "root", "baseline database user")
	flags.String("baseline.password", "", "baseline database password")
	flags.String("baseline.name", "", "baseline database name")

	flags.Int("server.port", 8080, "admin api listen port")

	flags.Duration("timeshard.interval", 24*time.Hour, "time between shard pre-creation passes")
	flags.Duration("retention.interval", 24*time.Hour, "time between retention cleanup passes")
	flags.Int("retention.day", retention.DefaultDays, "days of day shards to keep")
	flags.Int("retention.month", retention.DefaultMonths, "months of month shards to keep")
	flags.Int("retention.year", retention.DefaultYears, "years of year shards to keep")

	flags.String("log.level", "info", "log level (debug, info, warn, error)")
	flags.String("log.encoding", "console", "log encoding (console, json)")
	flags.String("log.output", "stderr", "log output path")
}

func cmdRun(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()

	log, err := process.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := schemadb.Open(log.Named("db"), connParams("db"))
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	if err := db.MigrateToLatest(ctx); err != nil {
		return err
	}

	peer, err := keeper.New(log, db, keeperConfig())
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, peer.Close()) }()

	log.Info("schema keeper started")
	return peer.Run(ctx)
}

func cmdMigrate(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()

	log, err := process.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := schemadb.Open(log.Named("db"), connParams("db"))
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	return db.MigrateToLatest(ctx)
}

func keeperConfig() keeper.Config {
	return keeper.Config{
		Baseline: connParams("baseline"),
		Server: admin.Config{
			Address: fmt.Sprintf(":%d", viper.GetInt("server.port")),
		},
		Timeshard: timeshard.Config{
			Interval: viper.GetDuration("timeshard.interval"),
		},
		Retention: retention.Config{
			Interval: viper.GetDuration("retention.interval"),
			Days:     viper.GetInt("retention.day"),
			Months:   viper.GetInt("retention.month"),
			Years:    viper.GetInt("retention.year"),
		},
	}
}

func connParams(prefix string) tenant.ConnParams {
	return tenant.ConnParams{
		Host:     viper.GetString(prefix + ".host"),
		Port:     viper.GetInt(prefix + ".port"),
		User:     viper.GetString(prefix + ".user"),
		Password: viper.GetString(prefix + ".password"),
		Database: viper.GetString(prefix + ".name"),
	}
}

func main() {
	process.Exec(rootCmd)
}
