package creator

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the per-creator aggregate across all campaigns. Both fields are
// monotonically non-decreasing; they are only ever incremented inside a
// settlement transaction.
type Balance struct {
	CreatorID     string          `gorm:"column:creator_id;primaryKey"`
	TotalEarnings decimal.Decimal `gorm:"column:total_earnings;type:numeric(18,4);not null"`
	TotalViews    int64           `gorm:"column:total_views;not null"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Balance) TableName() string { return "creator_balances" }
