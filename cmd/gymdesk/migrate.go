// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package main

import (
	"fmt"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gymdesk/gymdesk/internal/auth"
	"github.com/gymdesk/gymdesk/internal/config"
	"github.com/gymdesk/gymdesk/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its children.
// Running it without a subcommand applies all pending migrations.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmdWithDeps(nil)
}

func newMigrateCmdWithDeps(deps *MigrateDeps) *cobra.Command {
	deps = defaultMigrateDeps(deps)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Manage the PostgreSQL schema. Without a subcommand, all pending
migrations are applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateUp)
		},
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateUp)
		},
	}

	var all bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration (--all for every migration)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m Migrator) error {
				return migrateDown(cmd, m, all)
			})
		},
	}
	down.Flags().BoolVar(&all, "all", false, "roll back every migration")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migrateVersion)
		},
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag without
running any migration. Use after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Wrap(err)
			}
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m Migrator) error {
				return migrateForce(cmd, m, v)
			})
		},
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "List migrations not yet applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, migratePending)
		},
	}

	cmd.AddCommand(up, down, versionCmd, force, pending)
	return cmd
}

func defaultMigrateDeps(deps *MigrateDeps) *MigrateDeps {
	if deps == nil {
		deps = &MigrateDeps{}
	}
	if deps.ConfigReader == nil {
		deps.ConfigReader = config.Read
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	return deps
}

// withMigrator resolves the database URL, opens a migrator, runs fn and
// closes the migrator.
func withMigrator(cmd *cobra.Command, deps *MigrateDeps, fn func(*cobra.Command, Migrator) error) (err error) {
	cfg, err := deps.ConfigReader(loadOptions(cmd))
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code(auth.CodeConfigInvalid).
			With("key", "database.url").
			Errorf("database.url is required (set DATABASE_URL or --database-url)")
	}

	m, err := deps.MigratorFactory(cfg.Database.URL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(cmd, m)
}

func migrateUp(cmd *cobra.Command, m Migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}

	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	return printVersion(cmd, m)
}

func migrateDown(cmd *cobra.Command, m Migrator, all bool) error {
	var err error
	if all {
		cmd.Println("Rolling back all migrations...")
		err = m.Down()
	} else {
		cmd.Println("Rolling back one migration...")
		err = m.Steps(-1)
	}
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
	}
	return printVersion(cmd, m)
}

func migrateVersion(cmd *cobra.Command, m Migrator) error {
	return printVersion(cmd, m)
}

func migrateForce(cmd *cobra.Command, m Migrator, v int) error {
	if err := m.Force(v); err != nil {
		return err
	}
	cmd.Printf("Forced schema version to %d\n", v)
	return nil
}

func migratePending(cmd *cobra.Command, m Migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	for _, v := range pending {
		cmd.Println(migrationLabel(v))
	}
	return nil
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if v == 0 {
		cmd.Println("Schema version: none")
		return nil
	}
	line := "Schema version: " + migrationLabel(v)
	if dirty {
		line += " (dirty)"
	}
	cmd.Println(line)
	return nil
}

func migrationLabel(v uint) string {
	name, err := store.MigrationName(v)
	if err != nil || name == "" {
		return fmt.Sprintf("%06d", v)
	}
	return name
}
