package tracking

import (
	"context"
	"encoding/json"
	"time"

	"clipfuel-platform/pkg/repository"
	"clipfuel-platform/pkg/task"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier dispatches best-effort completion notifications. A failure here
// never rolls back a completion transition.
type Notifier interface {
	CampaignCompleted(ctx context.Context, campaignID string)
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	settings Settings

	selector *Selector
	runner   *BatchRunner
	settler  *Settler
	notifier Notifier
	enqueuer task.Enqueuer

	runs repository.Repository[Run]
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Settings Settings
	Selector *Selector
	Runner   *BatchRunner
	Settler  *Settler
	Notifier Notifier        `optional:"true"`
	Enqueuer task.Enqueuer   `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		settings: p.Settings,
		selector: p.Selector,
		runner:   p.Runner,
		settler:  p.Settler,
		notifier: p.Notifier,
		enqueuer: p.Enqueuer,
		runs:     repository.ProvideStore[Run](p.DB),
	}
}

// RunSummary is the in-memory result of one pass; it is also persisted as a
// Run row for the dashboard.
type RunSummary struct {
	RunID              string
	Processed          int
	Succeeded          int
	Failed             int
	EarningsAdded      decimal.Decimal
	CampaignsCompleted []string
	Errors             []RunError
}

// RunSettlementPass executes one full settlement pass: candidate selection,
// batched scraping, per-item settlement, reconciliation and notification.
// Item-level failures are isolated and reported in the summary; only a
// selection failure aborts the pass.
func (s *Service) RunSettlementPass(ctx context.Context) (*RunSummary, error) {
	run, err := s.startRun(ctx, RunKindSettle)
	if err != nil {
		return nil, err
	}

	candidates, err := s.selector.Select(ctx, s.settings.RunItemLimit)
	if err != nil {
		zap.L().Error("candidate selection failed, aborting pass", zap.String("run_id", run.ID), zap.Error(err))
		s.finishRun(ctx, run, RunStatusFailed, &RunSummary{})
		return nil, err
	}

	byItem := make(map[string]Candidate, len(candidates))
	requests := make([]ScrapeRequest, 0, len(candidates))
	for _, cand := range candidates {
		byItem[cand.Clip.ID] = cand
		requests = append(requests, ScrapeRequest{
			ItemID:   cand.Clip.ID,
			URL:      cand.Clip.URL,
			Platform: cand.Clip.Platform,
		})
	}

	outcomes := s.runner.Run(ctx, requests)

	summary := &RunSummary{
		RunID:         run.ID,
		Processed:     len(outcomes),
		EarningsAdded: decimal.Zero,
	}
	completed := make(map[string]struct{})

	for _, outcome := range outcomes {
		cand := byItem[outcome.Request.ItemID]

		if outcome.Err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RunError{
				ItemID:  outcome.Request.ItemID,
				URL:     outcome.Request.URL,
				Message: outcome.Err.Error(),
			})
			zap.L().Warn("scrape failed",
				zap.String("run_id", run.ID),
				zap.String("clip_id", outcome.Request.ItemID),
				zap.Error(outcome.Err),
			)
			continue
		}

		res, err := s.settler.Settle(ctx, cand, outcome.Metrics)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RunError{
				ItemID:  outcome.Request.ItemID,
				URL:     outcome.Request.URL,
				Message: err.Error(),
			})
			zap.L().Error("settlement failed",
				zap.String("run_id", run.ID),
				zap.String("clip_id", outcome.Request.ItemID),
				zap.Error(err),
			)
			continue
		}

		summary.Succeeded++
		summary.EarningsAdded = summary.EarningsAdded.Add(res.EarningsDelta)

		if res.CampaignCompleted {
			if _, seen := completed[cand.Campaign.ID]; !seen {
				completed[cand.Campaign.ID] = struct{}{}
				summary.CampaignsCompleted = append(summary.CampaignsCompleted, cand.Campaign.ID)
			}
		}
	}

	for _, campaignID := range summary.CampaignsCompleted {
		if s.notifier != nil {
			s.notifier.CampaignCompleted(ctx, campaignID)
		}
	}

	s.finishRun(ctx, run, RunStatusSuccess, summary)

	zap.L().Info("settlement pass finished",
		zap.String("run_id", run.ID),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.String("earnings_added", summary.EarningsAdded.String()),
		zap.Strings("campaigns_completed", summary.CampaignsCompleted),
	)

	return summary, nil
}

// RunPendingPass refreshes initial_views on not-yet-approved submissions.
// No tracking records, no earnings, no campaign interaction.
func (s *Service) RunPendingPass(ctx context.Context) (*RunSummary, error) {
	run, err := s.startRun(ctx, RunKindPending)
	if err != nil {
		return nil, err
	}

	subs, err := pendingSubmissions(ctx, s.db)
	if err != nil {
		zap.L().Error("pending enumeration failed, aborting pass", zap.String("run_id", run.ID), zap.Error(err))
		s.finishRun(ctx, run, RunStatusFailed, &RunSummary{})
		return nil, err
	}

	requests := make([]ScrapeRequest, 0, len(subs))
	for _, sub := range subs {
		requests = append(requests, ScrapeRequest{
			ItemID:   sub.ID,
			URL:      sub.ContentURL,
			Platform: sub.Platform,
		})
	}

	outcomes := s.runner.Run(ctx, requests)

	summary := &RunSummary{
		RunID:         run.ID,
		Processed:     len(outcomes),
		EarningsAdded: decimal.Zero,
	}

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RunError{
				ItemID:  outcome.Request.ItemID,
				URL:     outcome.Request.URL,
				Message: outcome.Err.Error(),
			})
			continue
		}

		if err := updatePendingViews(ctx, s.db, outcome.Request.ItemID, outcome.Metrics.Views); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RunError{
				ItemID:  outcome.Request.ItemID,
				URL:     outcome.Request.URL,
				Message: err.Error(),
			})
			continue
		}

		summary.Succeeded++
	}

	s.finishRun(ctx, run, RunStatusSuccess, summary)

	zap.L().Info("pending analytics pass finished",
		zap.String("run_id", run.ID),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

func (s *Service) startRun(ctx context.Context, kind RunKind) (*Run, error) {
	run := &Run{
		ID:            s.node.Generate().String(),
		Kind:          kind,
		Status:        RunStatusRunning,
		EarningsAdded: decimal.Zero,
		StartedAt:     time.Now(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Service) finishRun(ctx context.Context, run *Run, status RunStatus, summary *RunSummary) {
	now := time.Now()

	var errorsJSON datatypes.JSON
	if len(summary.Errors) > 0 {
		if raw, err := json.Marshal(summary.Errors); err == nil {
			errorsJSON = raw
		}
	}

	update := map[string]any{
		"status":              status,
		"processed":           summary.Processed,
		"succeeded":           summary.Succeeded,
		"failed":              summary.Failed,
		"earnings_added":      summary.EarningsAdded,
		"campaigns_completed": len(summary.CampaignsCompleted),
		"errors":              errorsJSON,
		"finished_at":         now,
	}

	if err := s.runs.Update(ctx, run.ID, update); err != nil {
		zap.L().Error("failed to persist run summary", zap.String("run_id", run.ID), zap.Error(err))
	}
}
