package enrich

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/mapleads/internal/types"
)

// Outcome is the enrichment result for one record.
type Outcome struct {
	ID     uuid.UUID              `json:"id"`
	Index  int                    `json:"index"`
	Result types.EnrichmentResult `json:"result"`
}

// OutcomeCallback receives each outcome as it completes. Calls are serialized.
type OutcomeCallback func(Outcome)

// EnrichMany enriches records concurrently, at most Concurrency at a time.
// Completion order is unconstrained; the returned slice is in input order.
// Cancelling ctx stops new oracle calls, and the affected records get fallback results.
func (e *Enricher) EnrichMany(ctx context.Context, records []types.LeadRecord, onResult OutcomeCallback) []Outcome {
	outcomes := make([]Outcome, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	var cbMu sync.Mutex
	for i, rec := range records {
		g.Go(func() error {
			var res types.EnrichmentResult
			if err := gctx.Err(); err != nil {
				res = types.FallbackResult(err)
			} else {
				res = e.Enrich(gctx, rec)
			}

			out := Outcome{ID: rec.ID, Index: i, Result: res}
			outcomes[i] = out
			if onResult != nil {
				cbMu.Lock()
				onResult(out)
				cbMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Info("enrichment complete", "records", len(records), "failed", countFallbacks(outcomes))
	return outcomes
}

func countFallbacks(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Result.IsFallback() {
			n++
		}
	}
	return n
}
