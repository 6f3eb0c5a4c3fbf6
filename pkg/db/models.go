package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	NotificationPriceDrop     = "price_drop"
	NotificationPriceIncrease = "price_increase"
)

// MaxDeliveryAttempts caps email retries for a single notification so a
// permanently undeliverable address cannot be retried forever.
const MaxDeliveryAttempts = 5

type TrackedProduct struct {
	ID            uint                `gorm:"primaryKey"`
	ASIN          string              `gorm:"size:10;not null;index:idx_asin_email"`
	Title         string              `gorm:"not null"`
	ImageURL      string
	CurrentPrice  decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	TargetPrice   decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	OriginalPrice decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	ProductURL    string              `gorm:"not null"`
	UserEmail     string              `gorm:"not null;index;index:idx_asin_email"`
	IsActive      bool                `gorm:"not null;default:true"`
	LastChecked   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PriceHistory rows are append-only; one per successful check.
type PriceHistory struct {
	ID         uint            `gorm:"primaryKey"`
	ProductID  uint            `gorm:"not null;index"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	RecordedAt time.Time       `gorm:"not null;index"`
}

type Notification struct {
	ID        uint            `gorm:"primaryKey"`
	ProductID uint            `gorm:"not null;index"`
	Kind      string          `gorm:"not null"`
	OldPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	NewPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	EmailSent bool            `gorm:"not null;default:false;index"`
	Attempts  int             `gorm:"not null;default:0"`
	CreatedAt time.Time
}

type UserSettings struct {
	ID                 uint            `gorm:"primaryKey"`
	UserEmail          string          `gorm:"not null;uniqueIndex"`
	EmailPriceDrops    bool            `gorm:"not null;default:true"`
	EmailWeeklySummary bool            `gorm:"not null;default:false"`
	CheckFrequency     int             `gorm:"not null;default:24"`
	PriceThreshold     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:1.00"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CheckRun is the audit record of one catalog sweep.
type CheckRun struct {
	ID         uint           `gorm:"primaryKey"`
	RunID      string         `gorm:"size:36;not null;uniqueIndex"`
	StartedAt  time.Time      `gorm:"not null"`
	FinishedAt *time.Time
	Checked    int            `gorm:"not null;default:0"`
	Updated    int            `gorm:"not null;default:0"`
	Notified   int            `gorm:"not null;default:0"`
	Errors     datatypes.JSON
}
