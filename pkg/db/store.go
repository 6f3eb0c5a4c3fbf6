package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned by direct lookups for ids that do not exist.
var ErrNotFound = errors.New("record not found")

// Store owns all persistence for tracked products, price history,
// notifications, and user settings.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// ProductUpdate carries a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Title        *string
	ImageURL     *string
	CurrentPrice *decimal.Decimal
	TargetPrice  *decimal.Decimal
	LastChecked  *time.Time
}

// ListActive returns active tracked products, scoped to one user when email
// is non-empty.
func (s *Store) ListActive(email string) ([]TrackedProduct, error) {
	query := s.db.Where("is_active = ?", true)
	if email != "" {
		query = query.Where("user_email = ?", email)
	}
	var products []TrackedProduct
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) Get(id uint) (*TrackedProduct, error) {
	var product TrackedProduct
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tracked product %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &product, nil
}

// FindByASIN returns the active tracking record for asin+email, or nil when
// the user is not tracking that product.
func (s *Store) FindByASIN(asin, email string) (*TrackedProduct, error) {
	var product TrackedProduct
	err := s.db.
		Where("asin = ? AND user_email = ? AND is_active = ?", asin, email, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) Create(product *TrackedProduct) error {
	return s.db.Create(product).Error
}

func (s *Store) Update(id uint, upd ProductUpdate) (*TrackedProduct, error) {
	product, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if upd.Title != nil {
		updates["title"] = *upd.Title
	}
	if upd.ImageURL != nil {
		updates["image_url"] = *upd.ImageURL
	}
	if upd.CurrentPrice != nil {
		updates["current_price"] = *upd.CurrentPrice
	}
	if upd.TargetPrice != nil {
		updates["target_price"] = *upd.TargetPrice
	}
	if upd.LastChecked != nil {
		updates["last_checked"] = *upd.LastChecked
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.Model(product).Updates(updates).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDelete flips the active flag. History and notifications keep referring
// to the row, so it is never hard-deleted.
func (s *Store) SoftDelete(id uint) error {
	res := s.db.Model(&TrackedProduct{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("tracked product %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) AppendHistory(productID uint, price decimal.Decimal, at time.Time) (*PriceHistory, error) {
	entry := PriceHistory{
		ProductID:  productID,
		Price:      price,
		RecordedAt: at,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListHistory returns history entries newest first.
func (s *Store) ListHistory(productID uint) ([]PriceHistory, error) {
	var entries []PriceHistory
	err := s.db.
		Where("product_id = ?", productID).
		Order("recorded_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CreateNotification(n *Notification) error {
	return s.db.Create(n).Error
}

// PendingNotification pairs an unsent notification with its product so the
// delivery consumer can compose a message without extra lookups.
type PendingNotification struct {
	Notification
	Product TrackedProduct
}

// ListPending returns unsent notifications that are still within the
// delivery attempt cap, oldest first, each enriched with its product.
// Notifications whose product has vanished are skipped.
func (s *Store) ListPending() ([]PendingNotification, error) {
	var notifications []Notification
	err := s.db.
		Where("email_sent = ? AND attempts < ?", false, MaxDeliveryAttempts).
		Order("created_at ASC, id ASC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	pending := make([]PendingNotification, 0, len(notifications))
	for _, n := range notifications {
		var product TrackedProduct
		if err := s.db.First(&product, n.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		pending = append(pending, PendingNotification{Notification: n, Product: product})
	}
	return pending, nil
}

// MarkSent idempotently flags a notification as sent. Calling it twice, or
// with an unknown id, is a no-op.
func (s *Store) MarkSent(id uint) error {
	return s.db.Model(&Notification{}).Where("id = ?", id).Update("email_sent", true).Error
}

func (s *Store) IncrementAttempts(id uint) error {
	return s.db.Model(&Notification{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

// GetSettings returns the settings for email, or nil when none exist.
func (s *Store) GetSettings(email string) (*UserSettings, error) {
	var settings UserSettings
	err := s.db.Where("user_email = ?", email).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) ListAllSettings() ([]UserSettings, error) {
	var settings []UserSettings
	if err := s.db.Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// UpsertSettings creates or updates the one settings row per email.
func (s *Store) UpsertSettings(settings UserSettings) (*UserSettings, error) {
	assign := map[string]interface{}{
		"email_price_drops":    settings.EmailPriceDrops,
		"email_weekly_summary": settings.EmailWeeklySummary,
		"check_frequency":      settings.CheckFrequency,
		"price_threshold":      settings.PriceThreshold,
	}
	var out UserSettings
	err := s.db.
		Where("user_email = ?", settings.UserEmail).
		Assign(assign).
		FirstOrCreate(&out, UserSettings{UserEmail: settings.UserEmail}).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats summarizes one user's catalog for the dashboard caller.
type Stats struct {
	TrackedCount     int
	BelowTarget      int
	PotentialSavings decimal.Decimal
	LastCheck        *time.Time
}

func (s *Store) Stats(email string) (*Stats, error) {
	products, err := s.ListActive(email)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		TrackedCount:     len(products),
		PotentialSavings: decimal.Zero,
	}
	for _, p := range products {
		if p.CurrentPrice.LessThan(p.TargetPrice) {
			stats.BelowTarget++
			stats.PotentialSavings = stats.PotentialSavings.Add(p.TargetPrice.Sub(p.CurrentPrice))
		}
		if p.LastChecked != nil && (stats.LastCheck == nil || p.LastChecked.After(*stats.LastCheck)) {
			stats.LastCheck = p.LastChecked
		}
	}
	return &stats, nil
}

func (s *Store) CreateCheckRun(run *CheckRun) error {
	return s.db.Create(run).Error
}

// FinishCheckRun closes a sweep audit row with its counters and the per-item
// error list serialized as JSON.
func (s *Store) FinishCheckRun(run *CheckRun, checked, updated, notified int, itemErrors []string, finishedAt time.Time) error {
	raw, err := json.Marshal(itemErrors)
	if err != nil {
		return err
	}
	run.Checked = checked
	run.Updated = updated
	run.Notified = notified
	run.Errors = datatypes.JSON(raw)
	run.FinishedAt = &finishedAt
	return s.db.Model(run).Updates(map[string]interface{}{
		"checked":     checked,
		"updated":     updated,
		"notified":    notified,
		"errors":      run.Errors,
		"finished_at": finishedAt,
	}).Error
}
