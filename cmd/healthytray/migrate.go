package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(mg *db.Migrator) error {
				changed, err := mg.Up()
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				if !changed {
					fmt.Println("Schema is up to date.")
					return nil
				}
				return printVersion(mg)
			})
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return withMigrator(func(mg *db.Migrator) error {
				if err := mg.Down(steps); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				return printVersion(mg)
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(downCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(printVersion)
		},
	})

	return cmd
}

func withMigrator(fn func(*db.Migrator) error) error {
	_, pool, err := connect(context.Background())
	if err != nil {
		return err
	}
	defer pool.Close()

	mg, err := db.NewMigrator(pool)
	if err != nil {
		return err
	}
	defer mg.Close()
	return fn(mg)
}

func printVersion(mg *db.Migrator) error {
	v, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	if dirty {
		fmt.Printf("Schema version: %d (dirty)\n", v)
		return nil
	}
	fmt.Printf("Schema version: %d\n", v)
	return nil
}
