package notification

import (
	"context"
	"time"

	"clipfuel-platform/pkg/rabbitmq"
	"clipfuel-platform/services/campaign"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const routingKeyCampaignCompleted = "campaign.completed"

// CampaignCompletedEvent is published once per creator holding an approved
// submission in the completed campaign. Delivery is handled downstream.
type CampaignCompletedEvent struct {
	CampaignID    string    `json:"campaign_id"`
	CampaignName  string    `json:"campaign_name"`
	CreatorID     string    `json:"creator_id"`
	FinalEarnings string    `json:"final_earnings"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Notifier announces campaign completion to affected creators. Best-effort:
// a publish failure is logged and dropped, never propagated — the completion
// transition has already committed.
type Notifier struct {
	db       *gorm.DB
	producer *rabbitmq.EventProducer
}

func NewNotifier(db *gorm.DB, producer *rabbitmq.EventProducer) *Notifier {
	return &Notifier{db: db, producer: producer}
}

func (n *Notifier) CampaignCompleted(ctx context.Context, campaignID string) {
	var c campaign.Campaign
	if err := n.db.WithContext(ctx).First(&c, "id = ?", campaignID).Error; err != nil {
		zap.L().Error("completion notify: campaign lookup failed",
			zap.String("campaign_id", campaignID), zap.Error(err))
		return
	}

	subs := make([]*campaign.Submission, 0)
	err := n.db.WithContext(ctx).
		Where("campaign_id = ? AND status = ?", campaignID, campaign.SubmissionStatusApproved).
		Find(&subs).Error
	if err != nil {
		zap.L().Error("completion notify: submission lookup failed",
			zap.String("campaign_id", campaignID), zap.Error(err))
		return
	}

	completedAt := time.Now()
	if c.CompletedAt != nil {
		completedAt = *c.CompletedAt
	}

	notified := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		if _, seen := notified[sub.CreatorID]; seen {
			continue
		}
		notified[sub.CreatorID] = struct{}{}

		event := CampaignCompletedEvent{
			CampaignID:   c.ID,
			CampaignName: c.Name,
			CreatorID:    sub.CreatorID,
			CompletedAt:  completedAt,
		}
		if sub.FinalEarnings.Valid {
			event.FinalEarnings = sub.FinalEarnings.Decimal.String()
		}

		if err := n.producer.Publish(ctx, routingKeyCampaignCompleted, event); err != nil {
			zap.L().Error("completion notify: publish failed",
				zap.String("campaign_id", campaignID),
				zap.String("creator_id", sub.CreatorID),
				zap.Error(err),
			)
			continue
		}
	}

	zap.L().Info("campaign completion notifications dispatched",
		zap.String("campaign_id", campaignID),
		zap.Int("creators", len(notified)),
	)
}
