package scraper

import (
	"context"
	"fmt"
)

// Metrics is one point-in-time engagement reading for a piece of content.
type Metrics struct {
	Views  int64 `json:"views"`
	Likes  int64 `json:"likes"`
	Shares int64 `json:"shares"`
}

// Collector fetches current engagement counts for externally hosted content.
// Implementations report ordinary failure modes (rate limits, deleted or
// private content) as a *ScrapeError so callers can tell "no data" from a
// genuine crash.
type Collector interface {
	Scrape(ctx context.Context, url, platform string) (*Metrics, error)
}

type ErrorCode string

const (
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrPrivate       ErrorCode = "PRIVATE"
	ErrUnsupported   ErrorCode = "UNSUPPORTED_PLATFORM"
	ErrProvider      ErrorCode = "PROVIDER_ERROR"
	ErrNetwork       ErrorCode = "NETWORK"
)

// ScrapeError is the structured failure a provider returns for expected
// failure modes. Retryable errors are left for the next pass.
type ScrapeError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape failed [%s]: %s", e.Code, e.Message)
}

func NewScrapeError(code ErrorCode, message string) *ScrapeError {
	return &ScrapeError{Code: code, Message: message}
}
