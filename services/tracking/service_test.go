package tracking

import (
	"context"
	"encoding/json"
	"testing"

	"clipfuel-platform/pkg/scraper"
	"clipfuel-platform/services/campaign"

	"github.com/stretchr/testify/require"
)

func TestRunSettlementPass(t *testing.T) {
	db := newTrackingDB(t)

	c := seedCampaign(t, db, "cmp-1", campaign.CampaignStatusActive, "1000", "10")
	urls := map[string]*scraper.Metrics{}
	for _, id := range []string{"a", "b", "c", "d"} {
		clip := seedClip(t, db, "clip-"+id, 0, "0")
		seedSubmission(t, db, "sub-"+id, c.ID, "creator-"+id, strPtr(clip.ID), campaign.SubmissionStatusApproved, 0)
		urls[clip.URL] = &scraper.Metrics{Views: 5000}
	}

	// clip-d's scrape fails; the rest of the pass is unaffected.
	collector := &fakeCollector{
		byURL:    urls,
		errByURL: map[string]error{"https://clips.test/clip-d": scraper.NewScrapeError(scraper.ErrRateLimited, "slow down")},
	}

	notifier := &fakeNotifier{}
	svc := newTestService(t, db, collector, notifier)

	summary, err := svc.RunSettlementPass(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, summary.Processed)
	require.Equal(t, 3, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	// Three clips at 5k views and $10 per 1k is $150.
	require.True(t, summary.EarningsAdded.Equal(dec(t, "150")), "got %s", summary.EarningsAdded)
	require.Empty(t, summary.CampaignsCompleted)
	require.Empty(t, notifier.completed)

	var run Run
	require.NoError(t, db.First(&run, "id = ?", summary.RunID).Error)
	require.Equal(t, RunKindSettle, run.Kind)
	require.Equal(t, RunStatusSuccess, run.Status)
	require.Equal(t, 4, run.Processed)
	require.Equal(t, 1, run.Failed)
	require.NotNil(t, run.FinishedAt)

	var runErrors []RunError
	require.NoError(t, json.Unmarshal(run.Errors, &runErrors))
	require.Len(t, runErrors, 1)
	require.Equal(t, "clip-d", runErrors[0].ItemID)
}

func TestRunSettlementPassNotifiesCompletionOnce(t *testing.T) {
	db := newTrackingDB(t)

	// $100 budget; each clip is held to the $30 item cap, so the fourth
	// settlement exhausts the budget.
	c := seedCampaign(t, db, "cmp-1", campaign.CampaignStatusActive, "100", "10")
	urls := map[string]*scraper.Metrics{}
	for _, id := range []string{"a", "b", "c", "d"} {
		clip := seedClip(t, db, "clip-"+id, 0, "0")
		seedSubmission(t, db, "sub-"+id, c.ID, "creator-"+id, strPtr(clip.ID), campaign.SubmissionStatusApproved, 0)
		urls[clip.URL] = &scraper.Metrics{Views: 10000}
	}

	notifier := &fakeNotifier{}
	svc := newTestService(t, db, &fakeCollector{byURL: urls}, notifier)

	summary, err := svc.RunSettlementPass(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"cmp-1"}, summary.CampaignsCompleted)
	require.Equal(t, []string{"cmp-1"}, notifier.completed)

	var got campaign.Campaign
	require.NoError(t, db.First(&got, "id = ?", c.ID).Error)
	require.Equal(t, campaign.CampaignStatusCompleted, got.Status)
	require.True(t, got.Spent.Equal(dec(t, "100")), "got %s", got.Spent)

	// A re-run settles against a completed campaign without re-completing or
	// re-notifying it.
	notifier.completed = nil
	summary, err = svc.RunSettlementPass(context.Background())
	require.NoError(t, err)
	require.Empty(t, summary.CampaignsCompleted)
	require.Empty(t, notifier.completed)
	require.True(t, summary.EarningsAdded.IsZero())
}

func TestRunSettlementPassWithoutNotifier(t *testing.T) {
	db := newTrackingDB(t)

	// $90 of the $100 budget is already consumed by a sibling item.
	c := seedCampaign(t, db, "cmp-1", campaign.CampaignStatusActive, "100", "10")
	other := seedClip(t, db, "clip-other", 0, "90")
	seedSubmission(t, db, "sub-other", c.ID, "creator-b", strPtr(other.ID), campaign.SubmissionStatusApproved, 0)
	require.NoError(t, db.Model(&campaign.Campaign{}).Where("id = ?", c.ID).Update("spent", dec(t, "90")).Error)

	clip := seedClip(t, db, "clip-a", 0, "0")
	seedSubmission(t, db, "sub-a", c.ID, "creator-a", strPtr(clip.ID), campaign.SubmissionStatusApproved, 0)

	svc := newTestService(t, db, &fakeCollector{byURL: map[string]*scraper.Metrics{
		clip.URL: {Views: 50000},
	}}, nil)

	summary, err := svc.RunSettlementPass(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"cmp-1"}, summary.CampaignsCompleted)
}

func TestRunPendingPassUpdatesInitialViewsOnly(t *testing.T) {
	db := newTrackingDB(t)

	c := seedCampaign(t, db, "cmp-1", campaign.CampaignStatusActive, "1000", "10")
	pending := seedSubmission(t, db, "sub-pending", c.ID, "creator-1", nil, campaign.SubmissionStatusPending, 100)
	approvedClip := seedClip(t, db, "clip-approved", 0, "0")
	seedSubmission(t, db, "sub-approved", c.ID, "creator-2", strPtr(approvedClip.ID), campaign.SubmissionStatusApproved, 0)

	collector := &fakeCollector{byURL: map[string]*scraper.Metrics{
		pending.ContentURL: {Views: 7500},
	}}
	svc := newTestService(t, db, collector, nil)

	summary, err := svc.RunPendingPass(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)
	require.Equal(t, 1, summary.Succeeded)
	require.True(t, summary.EarningsAdded.IsZero())

	var got campaign.Submission
	require.NoError(t, db.First(&got, "id = ?", pending.ID).Error)
	require.Equal(t, int64(7500), got.InitialViews)
	require.Equal(t, campaign.SubmissionStatusPending, got.Status)

	// No tracking history and no money movement for pending content.
	var records int64
	require.NoError(t, db.Model(&TrackingRecord{}).Count(&records).Error)
	require.Equal(t, int64(0), records)

	var run Run
	require.NoError(t, db.First(&run, "id = ?", summary.RunID).Error)
	require.Equal(t, RunKindPending, run.Kind)
	require.Equal(t, RunStatusSuccess, run.Status)
}
