package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gnames/gn"
	"github.com/robfig/cron/v3"
	"github.com/scholdb/scholdb/internal/ioacquire"
	"github.com/scholdb/scholdb/internal/ioconnect"
	"github.com/scholdb/scholdb/internal/iomerge"
	"github.com/scholdb/scholdb/internal/iostore"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
	"github.com/spf13/cobra"
)

func getScheduleCmd() *cobra.Command {
	var (
		spec  string
		once  bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run acquire and merge cycles on a cron schedule",
		Long: `Run the acquisition and duplicate-consolidation pipeline
periodically until interrupted.

Each cycle runs every configured connector, then the bylink and byname
merge strategies for papers, authors and venues. Overlapping cycles are
prevented: if the previous cycle is still running when the schedule
fires again, the new run is skipped.

The --cron expression uses the standard five-field format
(minute hour day-of-month month day-of-week).

Examples:
  scholdb schedule
  scholdb schedule --cron "0 3 * * *"
  scholdb schedule --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(
				context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if once {
				if err := runCycle(ctx, limit); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
				return nil
			}

			running := make(chan struct{}, 1)
			c := cron.New()
			_, err := c.AddFunc(spec, func() {
				select {
				case running <- struct{}{}:
				default:
					slog.Warn("Previous cycle still running, skipping")
					return
				}
				defer func() { <-running }()

				if err := runCycle(ctx, limit); err != nil {
					slog.Error("Scheduled cycle failed", "error", err)
				}
			})
			if err != nil {
				err = fmt.Errorf("invalid cron expression %q: %w", spec, err)
				gn.PrintErrorMessage(err)
				return err
			}

			slog.Info("Scheduler started", "cron", spec)
			c.Start()
			<-ctx.Done()
			slog.Info("Scheduler stopping")
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "0 2 * * *",
		"cron expression for the acquire and merge cycle")
	cmd.Flags().BoolVar(&once, "once", false,
		"run a single cycle immediately and exit")
	cmd.Flags().IntVar(&limit, "limit", 0,
		"maximum candidates per connector (0 = connector default)")

	return cmd
}

// runCycle runs one acquire pass followed by duplicate consolidation.
func runCycle(ctx context.Context, limit int) error {
	cfg := getConfig()

	sourcesPath, err := ensureSourcesFile()
	if err != nil {
		return err
	}
	sources, err := ioconnect.LoadSources(sourcesPath)
	if err != nil {
		return err
	}

	op, err := connectOperator(ctx)
	if err != nil {
		return err
	}
	defer op.Close()

	data := ioconnect.NewDataStore(op)
	registry, err := ioconnect.BuildRegistry(sources, data)
	if err != nil {
		return err
	}

	log, err := historyWriter()
	if err != nil {
		return err
	}
	defer log.Close()

	store := iostore.New(cfg, op)
	acquirer := ioacquire.New(cfg, registry, store, log, data)

	if limit == 0 {
		limit = cfg.Acquire.Limit
	}
	summary, err := acquirer.RunBatch(ctx, cfg.Acquire.Connectors, limit)
	if err != nil {
		return err
	}
	slog.Info("Cycle acquisition finished",
		"created", summary.Created,
		"updated", summary.Updated,
		"failed", summary.Skipped,
	)

	merger := iomerge.New(cfg, op, log)
	detector := iomerge.NewDetector(op)
	kinds := []schema.Kind{schema.KindPaper, schema.KindAuthor, schema.KindVenue}
	for _, strategy := range []string{iomerge.StrategyByLink, iomerge.StrategyByName} {
		for _, kind := range kinds {
			if err := mergeDetected(ctx, detector, merger, strategy, kind); err != nil {
				return err
			}
		}
	}
	return nil
}

func mergeDetected(
	ctx context.Context,
	detector scholdb.Detector,
	merger scholdb.Merger,
	strategy string,
	kind schema.Kind,
) error {
	groups, err := detector.Detect(ctx, strategy, kind)
	if err != nil {
		return err
	}
	var merged int
	for _, group := range groups {
		outcome, err := merger.Merge(ctx, kind, group)
		if err != nil {
			return err
		}
		if !outcome.NoOp {
			merged++
		}
	}
	if merged > 0 {
		slog.Info("Cycle merge finished",
			"strategy", strategy, "kind", kind, "merged", merged)
	}
	return nil
}
