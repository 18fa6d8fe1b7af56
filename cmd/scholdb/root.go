package main

import (
	"fmt"

	"github.com/gnames/gnfmt"
	"github.com/joho/godotenv"
	"github.com/scholdb/scholdb/internal/ioconfig"
	"github.com/scholdb/scholdb/internal/iologger"
	"github.com/spf13/cobra"

	pkgconfig "github.com/scholdb/scholdb/pkg/config"
)

var (
	cfgFile string
	cfg     *pkgconfig.Config
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scholdb",
		Short: "ScholDB maintains an identity-managed paper metadata store",
		Long: `ScholDB aggregates scientific paper metadata from heterogeneous
sources into one PostgreSQL store with stable, content-addressed
identifiers. Re-sighting an entity merges fields instead of duplicating
rows; detected duplicates are consolidated with full foreign-key
rewriting; every ingestion and merge is recorded in an append-only
history log that can rebuild the store from scratch.

Main commands:
  - create:  create the database schema
  - acquire: ingest candidates from configured connectors
  - merge:   detect and consolidate duplicate entities
  - replay:  rebuild store state from the history log
  - resolve: follow an id through the canonical index

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (SCHOLDB_*)
  3. Config file (scholdb.yaml)
  4. Built-in defaults

Environment Variables:
  Nested fields use underscores (database.host → SCHOLDB_DATABASE_HOST).

  Examples:
    SCHOLDB_DATABASE_HOST       PostgreSQL host
    SCHOLDB_DATABASE_PORT       PostgreSQL port
    SCHOLDB_DATABASE_USER       PostgreSQL user
    SCHOLDB_DATABASE_PASSWORD   PostgreSQL password
    SCHOLDB_DATABASE_DATABASE   Database name
    SCHOLDB_LOG_LEVEL           Log level (debug/info/warn/error)`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Local .env files are a development convenience; absence
			// is the normal case.
			_ = godotenv.Load()

			result, err := ioconfig.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = result.Config

			if err := iologger.Init(cfg.LogDir(), cfg.Log); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}

			switch result.Source {
			case "file":
				fmt.Printf("Using config from: %s\n", result.SourcePath)
			case "defaults+env":
				fmt.Println(
					"Using built-in defaults with environment overrides")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./scholdb.yaml or ~/.config/scholdb/scholdb.yaml)")

	rootCmd.Flags().BoolP("version", "V", false, "version for scholdb")

	rootCmd.AddCommand(getCreateCmd())
	rootCmd.AddCommand(getAcquireCmd())
	rootCmd.AddCommand(getMergeCmd())
	rootCmd.AddCommand(getReplayCmd())
	rootCmd.AddCommand(getResolveCmd())
	rootCmd.AddCommand(getFlagCmd())
	rootCmd.AddCommand(getScheduleCmd())

	return rootCmd
}

// getConfig returns the loaded configuration (for use in subcommands)
func getConfig() *pkgconfig.Config {
	return cfg
}

// printJSON renders a machine-readable result on stdout.
func printJSON(v any) error {
	enc := gnfmt.GNjson{Pretty: true}
	out, err := enc.Encode(v)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
