package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clipfuel-platform/pkg/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newCollector(t *testing.T, handler http.HandlerFunc) Collector {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Scraper.BaseURL = srv.URL
	cfg.Scraper.APIKey = "test-key"
	cfg.Scraper.Timeout = 2 * time.Second
	cfg.Scraper.RetryCount = 0

	return NewProviderCollector(cfg)
}

func TestScrapeSuccess(t *testing.T) {
	collector := newCollector(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/metrics", r.URL.Path)
		require.Equal(t, "https://clips.test/abc", r.URL.Query().Get("url"))
		require.Equal(t, "tiktok", r.URL.Query().Get("platform"))
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"views": 12345, "likes": 678, "shares": 90}`))
	})

	metrics, err := collector.Scrape(context.Background(), "https://clips.test/abc", "tiktok")
	require.NoError(t, err)
	require.Equal(t, int64(12345), metrics.Views)
	require.Equal(t, int64(678), metrics.Likes)
	require.Equal(t, int64(90), metrics.Shares)
}

func TestScrapeClassifiesProviderStatus(t *testing.T) {
	cases := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusGone, ErrNotFound},
		{http.StatusForbidden, ErrPrivate},
		{http.StatusUnprocessableEntity, ErrUnsupported},
		{http.StatusBadGateway, ErrProvider},
	}

	for _, tc := range cases {
		collector := newCollector(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		_, err := collector.Scrape(context.Background(), "https://clips.test/abc", "tiktok")
		require.Error(t, err)

		scrapeErr, ok := err.(*ScrapeError)
		require.True(t, ok, "status %d", tc.status)
		require.Equal(t, tc.code, scrapeErr.Code, "status %d", tc.status)
	}
}

func TestScrapeProviderLevelError(t *testing.T) {
	collector := newCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "content parser crashed"}`))
	})

	_, err := collector.Scrape(context.Background(), "https://clips.test/abc", "tiktok")
	require.Error(t, err)

	scrapeErr, ok := err.(*ScrapeError)
	require.True(t, ok)
	require.Equal(t, ErrProvider, scrapeErr.Code)
	require.Contains(t, scrapeErr.Message, "content parser crashed")
}

func TestScrapeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	cfg := &config.Config{}
	cfg.Scraper.BaseURL = srv.URL
	cfg.Scraper.Timeout = time.Second

	collector := NewProviderCollector(cfg)

	_, err := collector.Scrape(context.Background(), "https://clips.test/abc", "tiktok")
	require.Error(t, err)

	scrapeErr, ok := err.(*ScrapeError)
	require.True(t, ok)
	require.Equal(t, ErrNetwork, scrapeErr.Code)
}
