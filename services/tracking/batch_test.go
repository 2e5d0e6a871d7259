package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipfuel-platform/pkg/scraper"

	"github.com/stretchr/testify/require"
)

func batchRequests(n int) []ScrapeRequest {
	reqs := make([]ScrapeRequest, 0, n)
	for i := 0; i < n; i++ {
		reqs = append(reqs, ScrapeRequest{
			ItemID:   "item-" + string(rune('a'+i)),
			URL:      "https://clips.test/" + string(rune('a'+i)),
			Platform: "tiktok",
		})
	}
	return reqs
}

func TestBatchRunnerReturnsOutcomeInOrder(t *testing.T) {
	collector := &fakeCollector{byURL: map[string]*scraper.Metrics{
		"https://clips.test/a": {Views: 1},
		"https://clips.test/b": {Views: 2},
		"https://clips.test/c": {Views: 3},
	}}
	runner := NewBatchRunner(collector, Settings{BatchSize: 2, BatchPause: 0})

	outcomes := runner.Run(context.Background(), batchRequests(3))
	require.Len(t, outcomes, 3)
	for i, outcome := range outcomes {
		require.NoError(t, outcome.Err)
		require.Equal(t, int64(i+1), outcome.Metrics.Views)
	}
	require.Equal(t, 3, collector.callCount())
}

func TestBatchRunnerBoundsConcurrency(t *testing.T) {
	collector := &fakeCollector{scrapeLatency: 20 * time.Millisecond}
	runner := NewBatchRunner(collector, Settings{BatchSize: 3, BatchPause: time.Millisecond})

	outcomes := runner.Run(context.Background(), batchRequests(9))
	require.Len(t, outcomes, 9)
	require.Equal(t, 9, collector.callCount())
	require.LessOrEqual(t, collector.maxActive, 3)
}

func TestBatchRunnerIsolatesFailures(t *testing.T) {
	scrapeErr := errors.New("rate limited")
	collector := &fakeCollector{
		byURL:    map[string]*scraper.Metrics{"https://clips.test/a": {Views: 10}, "https://clips.test/c": {Views: 30}},
		errByURL: map[string]error{"https://clips.test/b": scrapeErr},
	}
	runner := NewBatchRunner(collector, Settings{BatchSize: 5, BatchPause: 0})

	outcomes := runner.Run(context.Background(), batchRequests(3))
	require.Len(t, outcomes, 3)
	require.NoError(t, outcomes[0].Err)
	require.ErrorIs(t, outcomes[1].Err, scrapeErr)
	require.Nil(t, outcomes[1].Metrics)
	require.NoError(t, outcomes[2].Err)
}

func TestBatchRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	collector := &fakeCollector{onScrape: func(string) { cancel() }}
	runner := NewBatchRunner(collector, Settings{BatchSize: 1, BatchPause: time.Millisecond})

	outcomes := runner.Run(ctx, batchRequests(4))
	require.Len(t, outcomes, 4)
	require.Equal(t, 1, collector.callCount())
	for _, outcome := range outcomes[1:] {
		require.ErrorIs(t, outcome.Err, context.Canceled)
	}
}
