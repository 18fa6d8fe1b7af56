package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/internal/iocanon"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/spf13/cobra"
)

// resolveResult reports where an id currently points.
type resolveResult struct {
	ID             string `json:"id"`
	Canonical      string `json:"canonical"`
	Live           bool   `json:"live"`
	ContentDerived bool   `json:"content_derived"`
}

func getResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Follow an id through the canonical index",
		Long: `Resolve an id to the currently-live identifier.

Ids retired by merges stay resolvable forever; a live id resolves to
itself. The reported content_derived field tells whether the canonical
id is a content hash (true) or was assigned by a merge (false).

Examples:
  scholdb resolve 8a6e2b4c-1234-5678-9abc-def012345678`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := ident.Parse(args[0])
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

			canonical, err := iocanon.New(op).Resolve(ctx, id)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			return printJSON(resolveResult{
				ID:             id.String(),
				Canonical:      canonical.String(),
				Live:           canonical == id,
				ContentDerived: canonical.ContentDerived(),
			})
		},
	}
}
