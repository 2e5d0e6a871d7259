package tracking

import (
	"time"

	"clipfuel-platform/pkg/config"

	"github.com/shopspring/decimal"
)

// Settings carries the tracking tunables out of config. Payout math divides
// view growth by ViewsPerPayout before applying the campaign rate.
type Settings struct {
	RunItemLimit    int
	BatchSize       int
	BatchPause      time.Duration
	PerItemCapRatio decimal.Decimal
	SettleSchedule  string
	PendingSchedule string
}

const viewsPerPayout = 1000

func NewSettings(cfg *config.Config) Settings {
	return Settings{
		RunItemLimit:    cfg.Tracking.RunItemLimit,
		BatchSize:       cfg.Tracking.BatchSize,
		BatchPause:      cfg.Tracking.BatchPause,
		PerItemCapRatio: decimal.NewFromFloat(cfg.Tracking.PerItemCapRatio),
		SettleSchedule:  cfg.Tracking.SettleSchedule,
		PendingSchedule: cfg.Tracking.PendingSchedule,
	}
}
