package campaign

import (
	"time"

	"github.com/shopspring/decimal"
)

type CampaignStatus string
type SubmissionStatus string

const (
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusArchived  CampaignStatus = "ARCHIVED"

	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusApproved SubmissionStatus = "APPROVED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
	SubmissionStatusPaid     SubmissionStatus = "PAID"
)

// Campaign is a budgeted creator engagement paying out per tracked views.
// Spent is a derived value: it is recomputed from clip earnings by the
// reconciler on every settlement and never incremented independently.
type Campaign struct {
	ID               string          `gorm:"column:id;primaryKey"`
	Name             string          `gorm:"column:name;type:varchar(255);not null"`
	Status           CampaignStatus  `gorm:"column:status;type:varchar(50);not null;default:'ACTIVE';index"`
	Budget           decimal.Decimal `gorm:"column:budget;type:numeric(18,4);not null"`
	Spent            decimal.Decimal `gorm:"column:spent;type:numeric(18,4);not null"`
	PayoutRate       decimal.Decimal `gorm:"column:payout_rate;type:numeric(18,4);not null"`
	CompletedAt      *time.Time      `gorm:"column:completed_at"`
	CompletionReason string          `gorm:"column:completion_reason"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Campaign) TableName() string { return "campaigns" }

// Trackable reports whether the campaign's content should still be scraped.
// Completed campaigns keep tracking for analytics, archived ones do not.
func (c *Campaign) Trackable() bool {
	return c.Status != CampaignStatusArchived
}

func (c *Campaign) IsCompleted() bool {
	return c.Status == CampaignStatusCompleted
}

// Submission links a creator's content to a campaign. ClipID is nil until the
// submission is approved into trackable content. FinalEarnings is written at
// most once, when the owning campaign completes.
type Submission struct {
	ID            string              `gorm:"column:id;primaryKey"`
	CampaignID    string              `gorm:"column:campaign_id;index;not null"`
	CreatorID     string              `gorm:"column:creator_id;index;not null"`
	ClipID        *string             `gorm:"column:clip_id;uniqueIndex"`
	ContentURL    string              `gorm:"column:content_url;not null"`
	Platform      string              `gorm:"column:platform;type:varchar(50);not null"`
	Status        SubmissionStatus    `gorm:"column:status;type:varchar(50);not null;default:'PENDING';index"`
	InitialViews  int64               `gorm:"column:initial_views;not null"`
	FinalEarnings decimal.NullDecimal `gorm:"column:final_earnings;type:numeric(18,4)"`
	ApprovedAt    *time.Time          `gorm:"column:approved_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Submission) TableName() string { return "submissions" }

func (s *Submission) IsApproved() bool {
	return s.Status == SubmissionStatusApproved
}
