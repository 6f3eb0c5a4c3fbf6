// Package tracker is the application service for tracking products: it
// resolves user-supplied identifiers, fetches initial product data, and owns
// the lifecycle of tracked products.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/asin"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/db"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/extract"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateTracking = errors.New("product is already tracked for this user")
	ErrInvalidRequest    = errors.New("invalid tracking request")
)

// Extractor is satisfied by extract.Extractor.
type Extractor interface {
	Extract(ctx context.Context, productASIN string) (*extract.ProductSnapshot, error)
}

type Service struct {
	store     *db.Store
	extractor Extractor
}

func New(store *db.Store, extractor Extractor) *Service {
	return &Service{store: store, extractor: extractor}
}

// Lookup resolves an ASIN or product URL and fetches current product data.
// When every acquisition strategy fails it returns the manual-entry
// placeholder rather than an error, so callers can still offer tracking.
func (s *Service) Lookup(ctx context.Context, input string) (*extract.ProductSnapshot, error) {
	productASIN, err := asin.Parse(input)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.extractor.Extract(ctx, productASIN)
	if errors.Is(err, extract.ErrExtractionFailed) {
		logger.Warn("falling back to manual entry", "asin", productASIN)
		return extract.Placeholder(productASIN), nil
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

type TrackRequest struct {
	Input       string
	UserEmail   string
	TargetPrice decimal.Decimal
	// Title and CurrentPrice override the fetched snapshot; both are
	// required when extraction returned the manual-entry placeholder.
	Title        string
	CurrentPrice decimal.Decimal
}

// Track starts tracking a product for a user. The same ASIN may be tracked
// by different users, but only once per user.
func (s *Service) Track(ctx context.Context, req TrackRequest) (*db.TrackedProduct, error) {
	if req.UserEmail == "" {
		return nil, fmt.Errorf("%w: user email is required", ErrInvalidRequest)
	}
	if !req.TargetPrice.IsPositive() {
		return nil, fmt.Errorf("%w: target price must be positive", ErrInvalidRequest)
	}

	productASIN, err := asin.Parse(req.Input)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindByASIN(productASIN, req.UserEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateTracking
	}

	snapshot, err := s.Lookup(ctx, req.Input)
	if err != nil {
		return nil, err
	}
	if req.Title != "" {
		snapshot.Title = req.Title
		snapshot.NeedsManualEntry = false
	}
	if req.CurrentPrice.IsPositive() {
		snapshot.Price = req.CurrentPrice
		snapshot.NeedsManualEntry = false
	}
	if snapshot.NeedsManualEntry {
		return nil, fmt.Errorf("%w: product data unavailable, title and current price are required", ErrInvalidRequest)
	}

	now := time.Now()
	product := &db.TrackedProduct{
		ASIN:         snapshot.ASIN,
		Title:        snapshot.Title,
		ImageURL:     snapshot.ImageURL,
		CurrentPrice: snapshot.Price,
		TargetPrice:  req.TargetPrice,
		ProductURL:   snapshot.URL,
		UserEmail:    req.UserEmail,
		IsActive:     true,
		LastChecked:  &now,
	}
	if snapshot.Price.IsPositive() {
		product.OriginalPrice = decimal.NewNullDecimal(snapshot.Price)
	}
	if err := s.store.Create(product); err != nil {
		return nil, err
	}
	if snapshot.Price.IsPositive() {
		if _, err := s.store.AppendHistory(product.ID, snapshot.Price, now); err != nil {
			logger.Error("failed to record initial price", "product_id", product.ID, "error", err)
		}
	}
	if err := s.ensureSettings(req.UserEmail); err != nil {
		logger.Error("failed to create default settings", "email", req.UserEmail, "error", err)
	}

	logger.Info("tracking product", "asin", product.ASIN, "email", product.UserEmail, "target", product.TargetPrice)
	return product, nil
}

// ensureSettings gives first-time users a settings row with defaults so the
// scheduler and notifier have explicit preferences to consult.
func (s *Service) ensureSettings(email string) error {
	settings, err := s.store.GetSettings(email)
	if err != nil {
		return err
	}
	if settings != nil {
		return nil
	}
	_, err = s.store.UpsertSettings(db.UserSettings{
		UserEmail:       email,
		EmailPriceDrops: true,
		CheckFrequency:  24,
		PriceThreshold:  decimal.NewFromInt(1),
	})
	return err
}

// Update adjusts the mutable fields of a tracked product.
func (s *Service) Update(id uint, upd db.ProductUpdate) (*db.TrackedProduct, error) {
	if upd.TargetPrice != nil && !upd.TargetPrice.IsPositive() {
		return nil, fmt.Errorf("%w: target price must be positive", ErrInvalidRequest)
	}
	return s.store.Update(id, upd)
}

// Untrack deactivates a product; history and notifications stay behind.
func (s *Service) Untrack(id uint) error {
	return s.store.SoftDelete(id)
}

func (s *Service) List(email string) ([]db.TrackedProduct, error) {
	return s.store.ListActive(email)
}

func (s *Service) Get(id uint) (*db.TrackedProduct, error) {
	return s.store.Get(id)
}

func (s *Service) History(productID uint) ([]db.PriceHistory, error) {
	return s.store.ListHistory(productID)
}

func (s *Service) Stats(email string) (*db.Stats, error) {
	return s.store.Stats(email)
}
