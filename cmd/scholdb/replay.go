package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/internal/iohistory"
	"github.com/scholdb/scholdb/internal/iomerge"
	"github.com/scholdb/scholdb/internal/iostore"
	"github.com/spf13/cobra"
)

func getReplayCmd() *cobra.Command {
	var after string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild store state from the history log",
		Long: `Re-apply the append-only history log through the live ingestion
and merge code paths.

Replay is idempotent: applied against a current database it changes
nothing, applied against an empty one it rebuilds the complete store
including all merge consolidations.

--after selects log files whose name sorts after the given string.
Filenames start with a fixed-width UTC timestamp, so a date-like prefix
such as 2024-06 selects everything from June 2024 on. The comparison is
plain string ordering, not date parsing.

Replayed events are not re-appended to the log.

Examples:
  scholdb replay
  scholdb replay --after 2024-06`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			op, err := connectOperator(ctx)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer op.Close()

			store := iostore.New(cfg, op)
			merger := iomerge.New(cfg, op, nil)
			replayer := iohistory.NewReplayer(
				cfg.HistoryDir(), store, merger)

			stats, err := replayer.Replay(ctx, after)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return printJSON(stats)
		},
	}

	cmd.Flags().StringVar(&after, "after", "",
		"replay only log files sorting after this string prefix")

	return cmd
}
