// Package extract produces best-effort product snapshots by trying several
// independent acquisition strategies against Amazon's public surface in
// priority order.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/asin"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
	"github.com/shopspring/decimal"
)

// ErrExtractionFailed is returned only after every strategy has been tried.
var ErrExtractionFailed = errors.New("unable to fetch product data automatically")

// maxSanePrice rejects parses that grabbed an order total or a review count.
var maxSanePrice = decimal.NewFromInt(10000)

const minTitleLength = 5

type ProductSnapshot struct {
	ASIN             string
	Title            string
	Price            decimal.Decimal
	ImageURL         string
	Availability     bool
	URL              string
	NeedsManualEntry bool
}

// Strategy attempts to produce a snapshot for an ASIN. A (nil, nil) return
// means "no result"; errors are treated the same way by the chain and exist
// only for logging.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, productASIN string) (*ProductSnapshot, error)
}

type Extractor struct {
	strategies []Strategy
}

// New builds the default chain: product API (when a key is configured),
// storefront pages, then existence probes.
func New(client *http.Client, apiKey string) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	strategies := []Strategy{}
	if apiKey != "" {
		strategies = append(strategies, &apiStrategy{client: client, apiKey: apiKey})
	}
	strategies = append(strategies,
		&pageStrategy{client: client},
		&probeStrategy{client: client},
	)
	return &Extractor{strategies: strategies}
}

func NewWithStrategies(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies}
}

// Extract tries each strategy in order and returns the first structurally
// valid snapshot, or ErrExtractionFailed once the chain is exhausted.
func (e *Extractor) Extract(ctx context.Context, productASIN string) (*ProductSnapshot, error) {
	for _, strategy := range e.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snapshot, err := strategy.Fetch(ctx, productASIN)
		if err != nil {
			logger.Debug("extraction strategy failed", "strategy", strategy.Name(), "asin", productASIN, "error", err)
			continue
		}
		if snapshot == nil {
			continue
		}
		if !ValidSnapshot(snapshot) {
			logger.Debug("extraction strategy returned unusable snapshot", "strategy", strategy.Name(), "asin", productASIN, "title", snapshot.Title)
			continue
		}
		logger.Debug("extraction succeeded", "strategy", strategy.Name(), "asin", productASIN)
		return snapshot, nil
	}
	return nil, fmt.Errorf("asin %s: %w", productASIN, ErrExtractionFailed)
}

// Markers that show up in titles when an endpoint served an error page or a
// generated placeholder instead of a product.
var placeholderMarkers = []string{
	"Service Unavailable",
	"404",
	"Error",
	"Amazon Product",
}

func ValidSnapshot(s *ProductSnapshot) bool {
	if s == nil {
		return false
	}
	if len(s.Title) <= minTitleLength {
		return false
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(s.Title, marker) {
			return false
		}
	}
	if strings.Contains(strings.ToLower(s.Title), "page not found") {
		return false
	}
	if s.Price.IsNegative() || s.Price.GreaterThanOrEqual(maxSanePrice) {
		return false
	}
	return true
}

// Placeholder is the deterministic manual-entry fallback used when the whole
// chain fails; callers must not silently track it as real data.
func Placeholder(productASIN string) *ProductSnapshot {
	return &ProductSnapshot{
		ASIN:             productASIN,
		Title:            fmt.Sprintf("Amazon Product %s - Please update title manually", productASIN),
		Price:            decimal.Zero,
		ImageURL:         asin.FallbackImageURL(productASIN),
		Availability:     true,
		URL:              asin.ProductURL(productASIN),
		NeedsManualEntry: true,
	}
}
