// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gymdesk/gymdesk/internal/config"
	"github.com/gymdesk/gymdesk/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

const defaultEnvFile = ".env"

// NewRootCmd creates the root command for the gymdesk CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gymdesk",
		Short: "Gymdesk auth service",
		Long: `Gymdesk issues and refreshes JWT credentials for gym staff accounts,
backed by PostgreSQL with optional Redis sessions and AMQP mail dispatch.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded when present")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// loadOptions builds config load options from the global flags and the
// command's own flags. Without --config, $XDG_CONFIG_HOME/gymdesk/config.yaml
// is used when it exists.
func loadOptions(cmd *cobra.Command) config.LoadOptions {
	file := configFile
	if file == "" {
		if path, ok, err := xdg.ConfigFile(); err == nil && ok {
			file = path
		}
	}
	return config.LoadOptions{
		File:    file,
		EnvFile: envFile,
		Flags:   cmd.Flags(),
	}
}
