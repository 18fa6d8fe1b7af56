package main

import (
	"context"
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/internal/iomerge"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
	"github.com/spf13/cobra"
)

// mergeSummary is the machine-readable result of one merge command.
type mergeSummary struct {
	Strategy string                  `json:"strategy"`
	Kind     schema.Kind             `json:"kind"`
	Groups   int                     `json:"groups"`
	Merged   int                     `json:"merged"`
	Skipped  int                     `json:"skipped"`
	Outcomes []*scholdb.MergeOutcome `json:"outcomes,omitempty"`
}

func getMergeCmd() *cobra.Command {
	var (
		kind string
		ids  []string
	)

	cmd := &cobra.Command{
		Use:   "merge <bylink|byname|manual>",
		Short: "Detect and consolidate duplicate entities",
		Long: `Consolidate groups of rows that represent the same entity.

Strategies:
  bylink  rows of one kind sharing an identical (type, url) identifier,
          e.g. the same DOI under two differently hashed titles
  byname  rows whose normalized names are equal after squashing
  manual  an explicit group of ids given with --ids

Each group merges into exactly one surviving row: fields follow source
quality, every foreign key is rewritten, retired ids stay resolvable
through the canonical index. Merging is idempotent; re-running a
strategy after it converged is a no-op.

Examples:
  scholdb merge bylink --kind paper
  scholdb merge byname --kind author
  scholdb merge manual --kind paper --ids <uuid>,<uuid>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()
			strategy := args[0]

			k := schema.Kind(kind)
			if !k.Valid() {
				err := fmt.Errorf("unknown entity kind %q", kind)
				gn.PrintErrorMessage(err)
				return err
			}

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

			merger := iomerge.New(cfg, op, log)

			var groups [][]ident.HashID
			if strategy == "manual" {
				group, err := parseIDs(ids)
				if err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
				groups = [][]ident.HashID{group}
			} else {
				detector := iomerge.NewDetector(op)
				groups, err = detector.Detect(ctx, strategy, k)
				if err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}

			summary := mergeSummary{
				Strategy: strategy,
				Kind:     k,
				Groups:   len(groups),
			}
			for _, group := range groups {
				outcome, err := merger.Merge(ctx, k, group)
				if err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
				if outcome.NoOp {
					summary.Skipped++
				} else {
					summary.Merged++
				}
				summary.Outcomes = append(summary.Outcomes, outcome)
			}
			return printJSON(summary)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "paper",
		"entity kind: paper, author, venue, institution, topic, release")
	cmd.Flags().StringSliceVar(&ids, "ids", nil,
		"explicit ids to merge (manual strategy)")

	return cmd
}

func parseIDs(raw []string) ([]ident.HashID, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("manual merge needs at least two ids")
	}
	out := make([]ident.HashID, 0, len(raw))
	for _, s := range raw {
		id, err := ident.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}
