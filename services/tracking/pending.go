package tracking

import (
	"context"

	"clipfuel-platform/services/campaign"

	"gorm.io/gorm"
)

// pendingSubmissions lists submissions awaiting review that have no attached
// clip yet. Their URLs are scraped directly so reviewers can see live growth
// before approving; only initial_views is updated, nothing else.
func pendingSubmissions(ctx context.Context, db *gorm.DB) ([]*campaign.Submission, error) {
	subs := make([]*campaign.Submission, 0)
	err := db.WithContext(ctx).
		Where("status = ? AND clip_id IS NULL", campaign.SubmissionStatusPending).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func updatePendingViews(ctx context.Context, db *gorm.DB, submissionID string, views int64) error {
	return db.WithContext(ctx).Model(&campaign.Submission{}).
		Where("id = ? AND status = ?", submissionID, campaign.SubmissionStatusPending).
		Update("initial_views", views).Error
}
