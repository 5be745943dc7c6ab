package cmd

import (
	"errors"
	"fmt"

	"github.com/hookscope/hookscope/db"
	"github.com/hookscope/hookscope/db/migrator"
	"github.com/spf13/cobra"
)

var (
	quiet bool
)

func newMigrator() (*migrator.Migrator, error) {
	if !cfg.Store.IsSQL() {
		return nil, fmt.Errorf("store type %q has no database, use postgres or sqlite", cfg.Store.Type)
	}
	sqlDB, err := db.NewSqlDB(cfg.Database, cfg.Store.Type)
	if err != nil {
		return nil, err
	}
	return migrator.New(sqlDB, cfg.Store.Type, cfg.Database.Database), nil
}

func newDatabaseResetCmd() *cobra.Command {
	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset the database",
		Long:  ``,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !prompt(cmd.OutOrStdout(), cmd.InOrStdin(), "Are you sure? This operation is irreversible.") {
					return errors.New("canceled")
				}
			}
			m, err := newMigrator()
			if err != nil {
				return err
			}
			if !quiet {
				cmd.Println("resetting database...")
			}
			if err := m.Reset(); err != nil {
				return err
			}
			if !quiet {
				cmd.Println("database successfully reset")
			}
			return nil
		},
	}
	reset.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "yes")
	return reset
}

func newDatabaseCmd() *cobra.Command {

	database := &cobra.Command{
		Use:               "db",
		Short:             "Database commands",
		Long:              ``,
		PersistentPreRunE: loadConfig,
	}

	database.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	database.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the migration status",
		Long:  ``,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			version, dirty, err := m.Status()
			if err != nil {
				return err
			}
			cmd.Printf("version: %d, dirty: %t\n", version, dirty)
			return nil
		},
	})

	database.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run any new migrations",
		Long:  ``,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			if err := m.Up(); err != nil {
				return err
			}
			if !quiet {
				cmd.Println("database is up-to-date")
			}
			return nil
		},
	})

	database.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		Long:  ``,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			if err := m.Down(); err != nil {
				return err
			}
			if !quiet {
				cmd.Println("database migrations reverted")
			}
			return nil
		},
	})

	database.AddCommand(newDatabaseResetCmd())

	return database
}
