package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/internal/iodb"
	"github.com/scholdb/scholdb/internal/ioschema"
	"github.com/scholdb/scholdb/pkg/db"
	"github.com/spf13/cobra"
)

func getCreateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create database schema",
		Long: `Create the ScholDB database schema from scratch.

This command:
  1. Connects to PostgreSQL using configuration settings
  2. Checks for existing tables and prompts for confirmation if found
  3. Creates all tables using GORM AutoMigrate

Schema creation is idempotent; re-running it against an up-to-date
database changes nothing.

Use --force to skip confirmation and drop existing tables automatically.

Examples:
  scholdb create
  scholdb create --force
  scholdb create --config custom.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			var op db.Operator = iodb.NewPgxOperator()
			if err := op.Connect(ctx, &cfg.Database); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer op.Close()

			fmt.Printf("Connected to database: %s@%s:%d/%s\n",
				cfg.Database.User, cfg.Database.Host,
				cfg.Database.Port, cfg.Database.Database)

			hasTables, err := op.HasTables(ctx)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			if hasTables {
				if !force && !confirmDrop() {
					fmt.Println("Aborted. No changes made to the database.")
					return nil
				}
				fmt.Println("Dropping all existing tables...")
				if err := op.DropAllTables(ctx); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}

			fmt.Println("Creating schema using GORM AutoMigrate...")
			if err := ioschema.NewManager(op).Create(ctx); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			fmt.Println("\n✓ Database schema creation complete!")
			fmt.Println("\nNext steps:")
			fmt.Println("  - Run 'scholdb acquire' to ingest from configured sources")
			fmt.Println("  - Run 'scholdb merge bylink' to consolidate duplicates")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"drop existing tables before creating schema (destructive)")

	return cmd
}

func confirmDrop() bool {
	fmt.Println("\nWarning: Database contains existing tables.")
	fmt.Println("Creating schema will drop ALL existing tables and data.")
	fmt.Print("\nDo you want to continue? (yes/no): ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y"
}
