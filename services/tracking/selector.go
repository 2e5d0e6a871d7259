package tracking

import (
	"context"
	"sort"
	"time"

	"clipfuel-platform/services/campaign"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Candidate is one clip due for a scrape, tagged with its owners.
type Candidate struct {
	Clip       *Clip
	Submission *campaign.Submission
	Campaign   *campaign.Campaign
}

// Selector decides which clips to scrape this run. Selection is
// all-or-nothing per campaign: earnings fairness within a campaign depends on
// every item's growth being measured at comparable points in time, so a
// campaign's items are never split across runs.
type Selector struct {
	db *gorm.DB
}

func NewSelector(db *gorm.DB) *Selector {
	return &Selector{db: db}
}

const (
	// Priority score for a campaign with a never-scraped clip.
	neverTrackedHours = 24 * 365

	youngCampaignAge   = 7 * 24 * time.Hour
	youngCampaignBoost = 1.5
	completedPenalty   = 0.3
)

type campaignGroup struct {
	campaign *campaign.Campaign
	items    []Candidate
	priority float64
}

// Select returns up to limit candidates, grouped by campaign in priority
// order. A single campaign holding more than limit items is returned alone,
// in full, and everything else is deferred to the next run.
func (s *Selector) Select(ctx context.Context, limit int) ([]Candidate, error) {
	campaigns := make([]*campaign.Campaign, 0)
	err := s.db.WithContext(ctx).
		Where("status IN ?", []campaign.CampaignStatus{
			campaign.CampaignStatusActive,
			campaign.CampaignStatusPaused,
			campaign.CampaignStatusCompleted,
		}).
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	groups := make([]campaignGroup, 0, len(campaigns))

	for _, c := range campaigns {
		items, err := s.trackableItems(ctx, c)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			continue
		}

		groups = append(groups, campaignGroup{
			campaign: c,
			items:    items,
			priority: priorityScore(c, items, now),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].priority > groups[j].priority
	})

	selected := make([]Candidate, 0, limit)

	for _, g := range groups {
		if len(selected) == 0 && len(g.items) > limit {
			// Oversized campaign: process alone, defer everything else.
			zap.L().Info("oversized campaign selected alone",
				zap.String("campaign_id", g.campaign.ID),
				zap.Int("items", len(g.items)),
				zap.Int("limit", limit),
			)
			return g.items, nil
		}
		if len(selected)+len(g.items) > limit {
			break
		}
		selected = append(selected, g.items...)
	}

	return selected, nil
}

// trackableItems loads the campaign's clips whose submissions are approved or
// pending. Pending items are tracked for visibility but never earn.
func (s *Selector) trackableItems(ctx context.Context, c *campaign.Campaign) ([]Candidate, error) {
	subs := make([]*campaign.Submission, 0)
	err := s.db.WithContext(ctx).
		Where("campaign_id = ? AND clip_id IS NOT NULL AND status IN ?",
			c.ID,
			[]campaign.SubmissionStatus{campaign.SubmissionStatusApproved, campaign.SubmissionStatusPending},
		).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}

	if len(subs) == 0 {
		return nil, nil
	}

	clipIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		clipIDs = append(clipIDs, *sub.ClipID)
	}

	clips := make([]*Clip, 0, len(clipIDs))
	if err := s.db.WithContext(ctx).Where("id IN ?", clipIDs).Find(&clips).Error; err != nil {
		return nil, err
	}

	clipByID := make(map[string]*Clip, len(clips))
	for _, clip := range clips {
		clipByID[clip.ID] = clip
	}

	items := make([]Candidate, 0, len(subs))
	for _, sub := range subs {
		clip, ok := clipByID[*sub.ClipID]
		if !ok {
			continue
		}
		items = append(items, Candidate{Clip: clip, Submission: sub, Campaign: c})
	}

	return items, nil
}

// priorityScore ranks campaigns by how stale their least-recently-scraped
// clip is, boosted for young campaigns and discounted for completed ones
// (analytics-only tracking).
func priorityScore(c *campaign.Campaign, items []Candidate, now time.Time) float64 {
	score := float64(neverTrackedHours)

	oldest := time.Time{}
	allTracked := true
	for _, item := range items {
		if item.Clip.LastTrackedAt == nil {
			allTracked = false
			break
		}
		if oldest.IsZero() || item.Clip.LastTrackedAt.Before(oldest) {
			oldest = *item.Clip.LastTrackedAt
		}
	}

	if allTracked && !oldest.IsZero() {
		score = now.Sub(oldest).Hours()
	}

	if now.Sub(c.CreatedAt) < youngCampaignAge {
		score *= youngCampaignBoost
	}
	if c.IsCompleted() {
		score *= completedPenalty
	}

	return score
}
