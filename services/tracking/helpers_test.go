package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"clipfuel-platform/pkg/scraper"
	"clipfuel-platform/services/campaign"
	"clipfuel-platform/services/creator"
	"clipfuel-platform/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTrackingDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t,
		&campaign.Campaign{},
		&campaign.Submission{},
		&creator.Balance{},
		&Clip{},
		&TrackingRecord{},
		&Run{},
	)
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func seedCampaign(t *testing.T, db *gorm.DB, id string, status campaign.CampaignStatus, budget, rate string) *campaign.Campaign {
	t.Helper()
	c := &campaign.Campaign{
		ID:         id,
		Name:       "campaign " + id,
		Status:     status,
		Budget:     dec(t, budget),
		Spent:      decimal.Zero,
		PayoutRate: dec(t, rate),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedClip(t *testing.T, db *gorm.DB, id string, views int64, earnings string) *Clip {
	t.Helper()
	clip := &Clip{
		ID:       id,
		URL:      "https://clips.test/" + id,
		Platform: "tiktok",
		Views:    views,
		Earnings: dec(t, earnings),
		Status:   ClipStatusActive,
	}
	require.NoError(t, db.Create(clip).Error)
	return clip
}

func seedSubmission(t *testing.T, db *gorm.DB, id, campaignID, creatorID string, clipID *string, status campaign.SubmissionStatus, initialViews int64) *campaign.Submission {
	t.Helper()
	now := time.Now()
	sub := &campaign.Submission{
		ID:           id,
		CampaignID:   campaignID,
		CreatorID:    creatorID,
		ClipID:       clipID,
		ContentURL:   "https://clips.test/" + id,
		Platform:     "tiktok",
		Status:       status,
		InitialViews: initialViews,
	}
	if status == campaign.SubmissionStatusApproved {
		sub.ApprovedAt = &now
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func strPtr(s string) *string { return &s }

// fakeCollector returns canned metrics per URL and records call concurrency.
type fakeCollector struct {
	mu            sync.Mutex
	byURL         map[string]*scraper.Metrics
	errByURL      map[string]error
	calls         []string
	active        int
	maxActive     int
	onScrape      func(url string)
	scrapeLatency time.Duration
}

func (f *fakeCollector) Scrape(ctx context.Context, url, platform string) (*scraper.Metrics, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	onScrape := f.onScrape
	f.mu.Unlock()

	if onScrape != nil {
		onScrape(url)
	}
	if f.scrapeLatency > 0 {
		time.Sleep(f.scrapeLatency)
	}

	f.mu.Lock()
	f.active--
	metrics := f.byURL[url]
	err := f.errByURL[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if metrics == nil {
		return &scraper.Metrics{}, nil
	}
	return metrics, nil
}

func (f *fakeCollector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []string
}

func (f *fakeNotifier) CampaignCompleted(ctx context.Context, campaignID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, campaignID)
}

func testSettings() Settings {
	return Settings{
		RunItemLimit:    200,
		BatchSize:       5,
		BatchPause:      0,
		PerItemCapRatio: decimal.NewFromFloat(0.30),
	}
}

func newTestSettler(t *testing.T, db *gorm.DB) *Settler {
	t.Helper()
	return NewSettler(db, newNode(t), campaign.NewReconciler(), testSettings())
}

func newTestService(t *testing.T, db *gorm.DB, collector scraper.Collector, notifier Notifier) *Service {
	t.Helper()
	settings := testSettings()
	return NewService(ServiceParams{
		DB:       db,
		Node:     newNode(t),
		Settings: settings,
		Selector: NewSelector(db),
		Runner:   NewBatchRunner(collector, settings),
		Settler:  newTestSettler(t, db),
		Notifier: notifier,
	})
}
