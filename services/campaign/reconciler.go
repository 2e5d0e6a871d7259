package campaign

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler re-derives a campaign's authoritative spend from the sum of its
// items' earnings and performs the one-way completion transition when the
// budget is exhausted. It must run inside the caller's transaction so that an
// item's earnings increment and the recomputed spend commit together.
type Reconciler struct{}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

type ReconcileResult struct {
	Spent        decimal.Decimal
	CompletedNow bool
}

// Reconcile recomputes spent from source-of-truth clip earnings rather than
// incrementing a counter; scrape runs can fail partway and be retried, and a
// full recomputation is self-healing across those retries.
func (r *Reconciler) Reconcile(ctx context.Context, tx *gorm.DB, campaignID string) (*ReconcileResult, error) {
	var c Campaign
	if err := tx.WithContext(ctx).First(&c, "id = ?", campaignID).Error; err != nil {
		return nil, err
	}

	spent, err := r.recomputeSpent(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&Campaign{}).
		Where("id = ?", campaignID).
		Update("spent", spent).Error; err != nil {
		return nil, err
	}

	res := &ReconcileResult{Spent: spent}

	if spent.GreaterThanOrEqual(c.Budget) && !c.IsCompleted() {
		if err := r.complete(ctx, tx, &c, spent); err != nil {
			return nil, err
		}
		res.CompletedNow = true
	}

	return res, nil
}

func (r *Reconciler) recomputeSpent(ctx context.Context, tx *gorm.DB, campaignID string) (decimal.Decimal, error) {
	earnings := make([]decimal.Decimal, 0)
	err := tx.WithContext(ctx).Table("submissions").
		Joins("JOIN clips ON clips.id = submissions.clip_id").
		Where("submissions.campaign_id = ? AND submissions.status = ?", campaignID, SubmissionStatusApproved).
		Pluck("clips.earnings", &earnings).Error
	if err != nil {
		return decimal.Zero, err
	}

	spent := decimal.Zero
	for _, e := range earnings {
		spent = spent.Add(e)
	}
	return spent, nil
}

// complete flips the campaign to COMPLETED and snapshots final earnings on
// every approved submission in the same transaction, so a later settlement
// pass can never alter earnings after a partial snapshot.
func (r *Reconciler) complete(ctx context.Context, tx *gorm.DB, c *Campaign, spent decimal.Decimal) error {
	now := time.Now()

	result := tx.WithContext(ctx).Model(&Campaign{}).
		Where("id = ? AND status <> ?", c.ID, CampaignStatusCompleted).
		Updates(map[string]any{
			"status":            CampaignStatusCompleted,
			"completed_at":      now,
			"completion_reason": "budget exhausted",
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Another writer completed it first; snapshots are theirs.
		return nil
	}

	type snapshotRow struct {
		ID       string
		Earnings decimal.Decimal
	}

	rows := make([]snapshotRow, 0)
	err := tx.WithContext(ctx).Table("submissions").
		Select("submissions.id AS id, clips.earnings AS earnings").
		Joins("JOIN clips ON clips.id = submissions.clip_id").
		Where("submissions.campaign_id = ? AND submissions.status = ?", c.ID, SubmissionStatusApproved).
		Where("submissions.final_earnings IS NULL").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := tx.WithContext(ctx).Model(&Submission{}).
			Where("id = ? AND final_earnings IS NULL", row.ID).
			Update("final_earnings", row.Earnings).Error; err != nil {
			return err
		}
	}

	zap.L().Info("campaign completed",
		zap.String("campaign_id", c.ID),
		zap.String("spent", spent.String()),
		zap.String("budget", c.Budget.String()),
		zap.Int("final_snapshots", len(rows)),
	)

	return nil
}
