package scraper

import (
	"context"
	"net/http"
	"time"

	"clipfuel-platform/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scraper",
	fx.Provide(NewProviderCollector),
)

// ProviderCollector calls a third-party scraping API over HTTP. The provider
// owns its own timeout/retry policy per platform; we only bound the request.
type ProviderCollector struct {
	client *resty.Client
}

type providerResponse struct {
	Views  int64  `json:"views"`
	Likes  int64  `json:"likes"`
	Shares int64  `json:"shares"`
	Error  string `json:"error,omitempty"`
}

func NewProviderCollector(cfg *config.Config) Collector {
	client := resty.New().
		SetBaseURL(cfg.Scraper.BaseURL).
		SetTimeout(cfg.Scraper.Timeout).
		SetRetryCount(cfg.Scraper.RetryCount).
		SetRetryWaitTime(2 * time.Second).
		SetHeader("Authorization", "Bearer "+cfg.Scraper.APIKey).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 5xx from the provider is worth one more try inside this pass;
			// 429 is not, the provider window will still be exhausted.
			return err == nil && r.StatusCode() >= http.StatusInternalServerError
		})

	return &ProviderCollector{client: client}
}

func (c *ProviderCollector) Scrape(ctx context.Context, url, platform string) (*Metrics, error) {
	var out providerResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":      url,
			"platform": platform,
		}).
		SetResult(&out).
		Get("/v1/metrics")
	if err != nil {
		return nil, NewScrapeError(ErrNetwork, err.Error())
	}

	if resp.IsError() {
		code := classifyStatus(resp.StatusCode())
		zap.L().Debug("scrape provider returned error",
			zap.String("url", url),
			zap.String("platform", platform),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, NewScrapeError(code, resp.Status())
	}

	if out.Error != "" {
		return nil, NewScrapeError(ErrProvider, out.Error)
	}

	return &Metrics{Views: out.Views, Likes: out.Likes, Shares: out.Shares}, nil
}

func classifyStatus(status int) ErrorCode {
	switch status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotFound, http.StatusGone:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrPrivate
	case http.StatusUnprocessableEntity:
		return ErrUnsupported
	default:
		return ErrProvider
	}
}
