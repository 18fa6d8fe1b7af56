package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/internal/ioacquire"
	"github.com/scholdb/scholdb/internal/ioconnect"
	"github.com/scholdb/scholdb/internal/iostore"
	"github.com/spf13/cobra"
)

func getAcquireCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "acquire [connector...]",
		Short: "Ingest candidates from configured source connectors",
		Long: `Query source connectors and ingest everything they produce.

Connectors are declared in sources.yaml under the ScholDB home
directory. Without arguments every declared connector runs; naming
connectors restricts the batch to them. Connectors run concurrently and
a failing connector never aborts the others: its failure appears in the
batch summary and the process still exits zero.

Every candidate is appended to the history log before it is ingested,
so an interrupted batch is recoverable with 'scholdb replay'.

Examples:
  scholdb acquire
  scholdb acquire openalex --limit 1000
  scholdb acquire localdump s2dump`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			sourcesPath, err := ensureSourcesFile()
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			sources, err := ioconnect.LoadSources(sourcesPath)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			op, err := connectOperator(ctx)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer op.Close()

			data := ioconnect.NewDataStore(op)
			registry, err := ioconnect.BuildRegistry(sources, data)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			log, err := historyWriter()
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer log.Close()

			store := iostore.New(cfg, op)
			acquirer := ioacquire.New(cfg, registry, store, log, data)

			if limit == 0 {
				limit = cfg.Acquire.Limit
			}
			connectors := args
			if len(connectors) == 0 {
				connectors = cfg.Acquire.Connectors
			}

			summary, err := acquirer.RunBatch(ctx, connectors, limit)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return printJSON(summary)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0,
		"maximum candidates per connector (0 = connector default)")

	return cmd
}
