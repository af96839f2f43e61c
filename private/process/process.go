// Copyright (C) 2026 QC Platform, Inc.
// See LICENSE for copying information.

// Package process sets up shared process configuration: config file and
// environment binding, logging, and signal-aware contexts.
package process

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exec runs a *cobra.Command and sets up process-wide configuration:
// a configuration file, environment variable overrides and flag binding.
func Exec(cmd *cobra.Command) {
	cfgFile := cmd.PersistentFlags().String("config", "", "path to configuration file")

	cobra.OnInitialize(func() {
		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			log.Println(err)
		}
		viper.SetEnvPrefix("schemad")
		// SCHEMAD_DB_HOST resolves the key "db.host"
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		viper.AutomaticEnv()
		if *cfgFile != "" {
			viper.SetConfigFile(*cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				log.Println(err)
			}
		}
	})

	Must(cmd.Execute())
}

// Ctx returns a context that is cancelled when the process receives an
// interrupt or termination signal.
func Ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// Must exits the process on error.
func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
