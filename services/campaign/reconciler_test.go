package campaign_test

import (
	"context"
	"testing"

	"clipfuel-platform/services/campaign"
	"clipfuel-platform/services/testutil"
	"clipfuel-platform/services/tracking"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newCampaignDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t,
		&campaign.Campaign{},
		&campaign.Submission{},
		&tracking.Clip{},
	)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func seed(t *testing.T, db *gorm.DB, budget string, earnings map[string]string, statuses map[string]campaign.SubmissionStatus) *campaign.Campaign {
	t.Helper()

	c := &campaign.Campaign{
		ID:         "cmp-1",
		Name:       "launch push",
		Status:     campaign.CampaignStatusActive,
		Budget:     dec(t, budget),
		Spent:      decimal.Zero,
		PayoutRate: dec(t, "10"),
	}
	require.NoError(t, db.Create(c).Error)

	for id, amount := range earnings {
		clipID := "clip-" + id
		require.NoError(t, db.Create(&tracking.Clip{
			ID:       clipID,
			URL:      "https://clips.test/" + id,
			Platform: "tiktok",
			Earnings: dec(t, amount),
			Status:   tracking.ClipStatusActive,
		}).Error)

		status := campaign.SubmissionStatusApproved
		if s, ok := statuses[id]; ok {
			status = s
		}
		require.NoError(t, db.Create(&campaign.Submission{
			ID:         "sub-" + id,
			CampaignID: c.ID,
			CreatorID:  "creator-" + id,
			ClipID:     &clipID,
			ContentURL: "https://clips.test/" + id,
			Platform:   "tiktok",
			Status:     status,
		}).Error)
	}

	return c
}

func TestReconcileDerivesSpentFromClipEarnings(t *testing.T) {
	db := newCampaignDB(t)
	c := seed(t, db, "1000", map[string]string{"a": "120.5", "b": "79.5"}, nil)

	// Stale counter; the reconciler overwrites rather than increments it.
	require.NoError(t, db.Model(&campaign.Campaign{}).Where("id = ?", c.ID).Update("spent", dec(t, "9999")).Error)

	rec := campaign.NewReconciler()
	res, err := rec.Reconcile(context.Background(), db, c.ID)
	require.NoError(t, err)
	require.True(t, res.Spent.Equal(dec(t, "200")), "got %s", res.Spent)
	require.False(t, res.CompletedNow)

	var got campaign.Campaign
	require.NoError(t, db.First(&got, "id = ?", c.ID).Error)
	require.True(t, got.Spent.Equal(dec(t, "200")))
	require.Equal(t, campaign.CampaignStatusActive, got.Status)
}

func TestReconcileIgnoresUnapprovedSubmissions(t *testing.T) {
	db := newCampaignDB(t)
	c := seed(t, db, "1000",
		map[string]string{"a": "100", "b": "50", "c": "25"},
		map[string]campaign.SubmissionStatus{
			"b": campaign.SubmissionStatusRejected,
			"c": campaign.SubmissionStatusPending,
		})

	rec := campaign.NewReconciler()
	res, err := rec.Reconcile(context.Background(), db, c.ID)
	require.NoError(t, err)
	require.True(t, res.Spent.Equal(dec(t, "100")), "got %s", res.Spent)
}

func TestReconcileCompletesOnBudgetExhaustion(t *testing.T) {
	db := newCampaignDB(t)
	c := seed(t, db, "500", map[string]string{"a": "300", "b": "200"}, nil)

	rec := campaign.NewReconciler()
	res, err := rec.Reconcile(context.Background(), db, c.ID)
	require.NoError(t, err)
	require.True(t, res.CompletedNow)

	var got campaign.Campaign
	require.NoError(t, db.First(&got, "id = ?", c.ID).Error)
	require.Equal(t, campaign.CampaignStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.Equal(t, "budget exhausted", got.CompletionReason)

	var subs []*campaign.Submission
	require.NoError(t, db.Where("campaign_id = ?", c.ID).Find(&subs).Error)
	require.Len(t, subs, 2)
	for _, sub := range subs {
		require.True(t, sub.FinalEarnings.Valid)
	}
}

func TestReconcileCompletionIsOneWay(t *testing.T) {
	db := newCampaignDB(t)
	c := seed(t, db, "500", map[string]string{"a": "500"}, nil)

	rec := campaign.NewReconciler()
	res, err := rec.Reconcile(context.Background(), db, c.ID)
	require.NoError(t, err)
	require.True(t, res.CompletedNow)

	var first campaign.Campaign
	require.NoError(t, db.First(&first, "id = ?", c.ID).Error)

	// Clip keeps growing after completion; the snapshot must not move.
	require.NoError(t, db.Model(&tracking.Clip{}).Where("id = ?", "clip-a").Update("earnings", dec(t, "800")).Error)

	res, err = rec.Reconcile(context.Background(), db, c.ID)
	require.NoError(t, err)
	require.False(t, res.CompletedNow)

	var second campaign.Campaign
	require.NoError(t, db.First(&second, "id = ?", c.ID).Error)
	require.Equal(t, campaign.CampaignStatusCompleted, second.Status)
	require.True(t, first.CompletedAt.Equal(*second.CompletedAt))

	var sub campaign.Submission
	require.NoError(t, db.First(&sub, "id = ?", "sub-a").Error)
	require.True(t, sub.FinalEarnings.Valid)
	require.True(t, sub.FinalEarnings.Decimal.Equal(dec(t, "500")), "got %s", sub.FinalEarnings.Decimal)
}
