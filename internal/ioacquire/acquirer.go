// Package ioacquire runs ingestion batches over registered connectors.
// Connectors run concurrently; a failing connector is reported in the
// batch summary and never aborts the others. Every candidate is logged
// to history before it is ingested, so a crashed batch is recoverable
// by replay.
package ioacquire

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnfmt"
	"github.com/scholdb/scholdb/pkg/config"
	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/scholdb/scholdb/pkg/history"
	"github.com/scholdb/scholdb/pkg/scholdb"
	"golang.org/x/sync/errgroup"
)

// StateStore persists per-connector bookkeeping between batches.
// *ioconnect.DataStore satisfies it; nil disables the bookkeeping.
type StateStore interface {
	Save(ctx context.Context, scraper, tag string, version int, payload any) error
}

// batchTag and batchVersion identify the last-batch payload format.
const (
	batchTag     = "last_batch"
	batchVersion = 1
)

// acquirer implements scholdb.Acquirer.
type acquirer struct {
	cfg      *config.Config
	registry *connector.Registry
	store    scholdb.Store
	log      history.Log
	state    StateStore
}

// New creates the batch acquirer.
func New(
	cfg *config.Config,
	reg *connector.Registry,
	store scholdb.Store,
	log history.Log,
	state StateStore,
) scholdb.Acquirer {
	return &acquirer{
		cfg:      cfg,
		registry: reg,
		store:    store,
		log:      log,
		state:    state,
	}
}

// RunBatch queries the named connectors (all registered ones when the
// list is empty) and ingests everything they produce. The limit caps
// candidates per connector; zero means connector default.
func (a *acquirer) RunBatch(
	ctx context.Context, connectors []string, limit int,
) (*scholdb.RunSummary, error) {
	if len(connectors) == 0 {
		connectors = a.registry.Names()
	}

	start := time.Now()
	summary := &scholdb.RunSummary{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.jobs())

	for _, name := range connectors {
		g.Go(func() error {
			cs := a.runConnector(ctx, name, limit)

			if a.state != nil && !cs.Failed {
				err := a.state.Save(ctx, name, batchTag, batchVersion, cs)
				if err != nil {
					slog.Warn("failed to save connector state",
						"connector", name, "error", err)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			summary.Connectors = append(summary.Connectors, cs)
			summary.Created += cs.Stats.Created
			summary.Updated += cs.Stats.Updated
			if cs.Failed {
				summary.Skipped++
			}
			return nil
		})
	}

	// Connector failures land in the summary; only cancellation stops
	// the batch.
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	slog.Info("acquisition batch finished",
		"connectors", len(connectors),
		"created", humanize.Comma(int64(summary.Created)),
		"updated", humanize.Comma(int64(summary.Updated)),
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return summary, nil
}

// runConnector drains one connector's stream into the store. Errors are
// folded into the per-connector summary.
func (a *acquirer) runConnector(
	ctx context.Context, name string, limit int,
) scholdb.ConnectorSummary {
	cs := scholdb.ConnectorSummary{Connector: name}

	c, ok := a.registry.Get(name)
	if !ok {
		err := UnknownConnectorError(name)
		slog.Error("unknown connector", "connector", name, "error", err)
		cs.Failed = true
		cs.Error = err.Error()
		return cs
	}

	stream := c.Query(ctx, connector.Params{Limit: limit})
	for item := range stream {
		if item.Err != nil {
			slog.Error("connector failed",
				"connector", name, "error", item.Err)
			cs.Failed = true
			cs.Error = item.Err.Error()
			return cs
		}
		if item.Candidate == nil {
			continue
		}
		item.Candidate.Scraper = name

		if err := a.ingest(ctx, item.Candidate, &cs); err != nil {
			slog.Error("ingestion failed",
				"connector", name,
				"title", item.Candidate.Title,
				"error", err,
			)
			cs.Failed = true
			cs.Error = err.Error()
			return cs
		}
	}
	return cs
}

// ingest logs the candidate and then applies it. Write-ahead order: a
// candidate that made it into the store is always in the log.
func (a *acquirer) ingest(
	ctx context.Context,
	c *connector.Candidate,
	cs *scholdb.ConnectorSummary,
) error {
	if a.log != nil {
		event := history.Event{
			Op:     history.OpIngest,
			At:     time.Now().UTC(),
			Ingest: c,
		}
		if err := a.log.Append(ctx, event); err != nil {
			return err
		}
	}

	stats, err := a.store.Ingest(ctx, c)
	if err != nil {
		return err
	}
	cs.Stats.Add(stats)
	return nil
}

func (a *acquirer) jobs() int {
	if a.cfg.JobsNumber > 0 {
		return a.cfg.JobsNumber
	}
	return 1
}
