package main

import (
	"context"
	"time"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/internal/iostore"
	"github.com/scholdb/scholdb/pkg/history"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/spf13/cobra"
)

func getFlagCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "flag <paper-id> <flag>",
		Short: "Set or remove a curation flag on a paper",
		Long: `Attach a human curation flag (such as "valid" or "invalid") to a
paper, or remove one with --remove. Flags are curator-only state;
connectors never set them. The change is recorded in the history log.

Examples:
  scholdb flag 8a6e2b4c-1234-5678-9abc-def012345678 valid
  scholdb flag 8a6e2b4c-1234-5678-9abc-def012345678 valid --remove`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			id, err := ident.Parse(args[0])
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			flag := args[1]

			op, err := connectOperator(ctx)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer op.Close()

			log, err := historyWriter()
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer log.Close()

			event := history.Event{
				Op: history.OpFlag,
				At: time.Now().UTC(),
				Flag: &history.FlagChange{
					PaperID: id.String(),
					Flag:    flag,
					On:      !remove,
				},
			}
			if err := log.Append(ctx, event); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			store := iostore.New(cfg, op)
			if err := store.Flag(ctx, id, flag, !remove); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return printJSON(event.Flag)
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false,
		"remove the flag instead of setting it")

	return cmd
}
