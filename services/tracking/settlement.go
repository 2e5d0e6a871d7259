package tracking

import (
	"context"
	"time"

	"clipfuel-platform/pkg/scraper"
	"clipfuel-platform/services/campaign"
	"clipfuel-platform/services/creator"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settler converts a fresh scrape into tracking history and, for approved
// submissions, an earnings delta. All mutation for one item happens in a
// single transaction: tracking record, clip counters, clip earnings, creator
// balance and campaign reconciliation commit or roll back together.
type Settler struct {
	db         *gorm.DB
	node       *snowflake.Node
	reconciler *campaign.Reconciler
	capRatio   decimal.Decimal
}

func NewSettler(db *gorm.DB, node *snowflake.Node, reconciler *campaign.Reconciler, settings Settings) *Settler {
	return &Settler{
		db:         db,
		node:       node,
		reconciler: reconciler,
		capRatio:   settings.PerItemCapRatio,
	}
}

type SettleResult struct {
	ViewDelta         int64
	EarningsDelta     decimal.Decimal
	CampaignCompleted bool
}

// Settle applies one scrape result to one candidate.
//
// Earnings are computed from total view growth since the submission baseline,
// then capped twice: no item may earn more than capRatio of the campaign
// budget, and no delta may exceed the campaign's remaining budget. Earnings
// are monotonic; a lower scrape never reduces what was already credited.
func (s *Settler) Settle(ctx context.Context, cand Candidate, m *scraper.Metrics) (*SettleResult, error) {
	res := &SettleResult{EarningsDelta: decimal.Zero}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		record := &TrackingRecord{
			ID:        s.node.Generate().String(),
			ClipID:    cand.Clip.ID,
			Views:     m.Views,
			Likes:     m.Likes,
			Shares:    m.Shares,
			ScrapedAt: now,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		viewDelta := m.Views - cand.Clip.Views
		if viewDelta < 0 {
			viewDelta = 0
		}

		if err := tx.Model(&Clip{}).Where("id = ?", cand.Clip.ID).
			Updates(map[string]any{
				"views":           m.Views,
				"likes":           m.Likes,
				"shares":          m.Shares,
				"last_tracked_at": now,
			}).Error; err != nil {
			return err
		}

		res.ViewDelta = viewDelta

		// Pending items are tracked for visibility but never earn.
		if !cand.Submission.IsApproved() {
			return nil
		}

		// Re-read the shared rows inside the transaction; the cached
		// candidate may be stale by the time this item settles.
		var c campaign.Campaign
		if err := tx.First(&c, "id = ?", cand.Campaign.ID).Error; err != nil {
			return err
		}
		var clip Clip
		if err := tx.First(&clip, "id = ?", cand.Clip.ID).Error; err != nil {
			return err
		}

		delta := s.earningsDelta(&c, &clip, cand.Submission, m.Views)
		if !delta.IsPositive() {
			return nil
		}

		newEarnings := clip.Earnings.Add(delta)
		if err := tx.Model(&Clip{}).Where("id = ?", clip.ID).
			Update("earnings", newEarnings).Error; err != nil {
			return err
		}

		if err := s.creditCreator(tx, cand.Submission.CreatorID, delta, viewDelta); err != nil {
			return err
		}

		rec, err := s.reconciler.Reconcile(ctx, tx, c.ID)
		if err != nil {
			return err
		}

		res.EarningsDelta = delta
		res.CampaignCompleted = rec.CompletedNow
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// earningsDelta applies the payout model and both caps.
func (s *Settler) earningsDelta(c *campaign.Campaign, clip *Clip, sub *campaign.Submission, currentViews int64) decimal.Decimal {
	growth := currentViews - sub.InitialViews
	if growth <= 0 {
		return decimal.Zero
	}

	nominal := c.PayoutRate.
		Mul(decimal.NewFromInt(growth)).
		Div(decimal.NewFromInt(viewsPerPayout))

	// Per-item cap: one viral clip must not capture the whole budget.
	itemCap := c.Budget.Mul(s.capRatio)
	capped := decimal.Min(nominal, itemCap)

	delta := capped.Sub(clip.Earnings)
	if !delta.IsPositive() {
		return decimal.Zero
	}

	remaining := c.Budget.Sub(c.Spent)
	if !remaining.IsPositive() {
		return decimal.Zero
	}

	return decimal.Min(delta, remaining)
}

func (s *Settler) creditCreator(tx *gorm.DB, creatorID string, earnings decimal.Decimal, views int64) error {
	var balance creator.Balance
	if err := tx.Where(creator.Balance{CreatorID: creatorID}).
		Attrs(creator.Balance{TotalEarnings: decimal.Zero}).
		FirstOrCreate(&balance).Error; err != nil {
		return err
	}

	return tx.Model(&creator.Balance{}).Where("creator_id = ?", creatorID).
		Updates(map[string]any{
			"total_earnings": balance.TotalEarnings.Add(earnings),
			"total_views":    balance.TotalViews + views,
		}).Error
}
