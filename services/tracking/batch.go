package tracking

import (
	"context"
	"time"

	"clipfuel-platform/pkg/scraper"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScrapeRequest identifies one URL to scrape on behalf of an item.
type ScrapeRequest struct {
	ItemID   string
	URL      string
	Platform string
}

// ScrapeOutcome carries either metrics or the error for one request. A failed
// item never aborts its group or the batch.
type ScrapeOutcome struct {
	Request ScrapeRequest
	Metrics *scraper.Metrics
	Err     error
}

// BatchRunner executes collector calls in fixed-size groups with a pause
// between groups. The group-then-pause shape is backpressure against the
// rate-limited provider: unbounded concurrency degrades its completion rate.
type BatchRunner struct {
	collector scraper.Collector
	groupSize int
	pause     time.Duration
}

func NewBatchRunner(collector scraper.Collector, settings Settings) *BatchRunner {
	size := settings.BatchSize
	if size <= 0 {
		size = 5
	}
	return &BatchRunner{
		collector: collector,
		groupSize: size,
		pause:     settings.BatchPause,
	}
}

// Run scrapes every request and returns one outcome per request, in order.
// It returns early only when ctx is cancelled; remaining requests come back
// with ctx.Err().
func (r *BatchRunner) Run(ctx context.Context, requests []ScrapeRequest) []ScrapeOutcome {
	outcomes := make([]ScrapeOutcome, len(requests))
	for i, req := range requests {
		outcomes[i] = ScrapeOutcome{Request: req}
	}

	for start := 0; start < len(requests); start += r.groupSize {
		if err := ctx.Err(); err != nil {
			for i := start; i < len(requests); i++ {
				outcomes[i].Err = err
			}
			return outcomes
		}

		end := start + r.groupSize
		if end > len(requests) {
			end = len(requests)
		}

		g := new(errgroup.Group)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				metrics, err := r.collector.Scrape(ctx, requests[i].URL, requests[i].Platform)
				outcomes[i] = ScrapeOutcome{Request: requests[i], Metrics: metrics, Err: err}
				return nil
			})
		}
		_ = g.Wait()

		if end < len(requests) && r.pause > 0 {
			zap.L().Debug("pausing between scrape groups",
				zap.Duration("pause", r.pause),
				zap.Int("completed", end),
				zap.Int("total", len(requests)),
			)
			select {
			case <-time.After(r.pause):
			case <-ctx.Done():
				for i := end; i < len(requests); i++ {
					outcomes[i].Err = ctx.Err()
				}
				return outcomes
			}
		}
	}

	return outcomes
}
