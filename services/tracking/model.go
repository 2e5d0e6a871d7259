package tracking

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ClipStatus string

const (
	ClipStatusActive   ClipStatus = "ACTIVE"
	ClipStatusPending  ClipStatus = "PENDING"
	ClipStatusInactive ClipStatus = "INACTIVE"
)

// Clip is one piece of creator content tracked at a URL on one platform.
// Earnings never decrease once credited; there is no claw-back path.
type Clip struct {
	ID            string          `gorm:"column:id;primaryKey"`
	URL           string          `gorm:"column:url;not null"`
	Platform      string          `gorm:"column:platform;type:varchar(50);not null"`
	Views         int64           `gorm:"column:views;not null"`
	Likes         int64           `gorm:"column:likes;not null"`
	Shares        int64           `gorm:"column:shares;not null"`
	Earnings      decimal.Decimal `gorm:"column:earnings;type:numeric(18,4);not null"`
	Status        ClipStatus      `gorm:"column:status;type:varchar(50);not null;default:'ACTIVE'"`
	LastTrackedAt *time.Time      `gorm:"column:last_tracked_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Clip) TableName() string { return "clips" }

// TrackingRecord is an immutable snapshot of a clip's counts at the moment of
// one scrape. Append-only; one record per successful scrape.
type TrackingRecord struct {
	ID        string    `gorm:"column:id;primaryKey"`
	ClipID    string    `gorm:"column:clip_id;index;not null"`
	Views     int64     `gorm:"column:views;not null"`
	Likes     int64     `gorm:"column:likes;not null"`
	Shares    int64     `gorm:"column:shares;not null"`
	ScrapedAt time.Time `gorm:"column:scraped_at;not null"`
}

func (TrackingRecord) TableName() string { return "tracking_records" }

type RunKind string
type RunStatus string

const (
	RunKindSettle  RunKind = "SETTLE"
	RunKindPending RunKind = "PENDING"

	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// Run is the persisted summary of one pass, consumed by the admin dashboard.
type Run struct {
	ID                 string          `gorm:"column:id;primaryKey"`
	Kind               RunKind         `gorm:"column:kind;type:varchar(20);not null;index"`
	Status             RunStatus       `gorm:"column:status;type:varchar(20);not null"`
	Processed          int             `gorm:"column:processed;not null"`
	Succeeded          int             `gorm:"column:succeeded;not null"`
	Failed             int             `gorm:"column:failed;not null"`
	EarningsAdded      decimal.Decimal `gorm:"column:earnings_added;type:numeric(18,4);not null"`
	CampaignsCompleted int             `gorm:"column:campaigns_completed;not null"`
	Errors             datatypes.JSON  `gorm:"column:errors"`
	StartedAt          time.Time       `gorm:"column:started_at;not null"`
	FinishedAt         *time.Time      `gorm:"column:finished_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Run) TableName() string { return "tracking_runs" }

// RunError is one per-item failure inside a pass, serialized into Run.Errors.
type RunError struct {
	ItemID  string `json:"item_id"`
	URL     string `json:"url"`
	Message string `json:"message"`
}
