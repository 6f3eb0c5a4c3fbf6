// Package sweep periodically re-checks every actively tracked product,
// records price history, and enqueues notifications for qualifying drops.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/classify"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/config"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/db"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/extract"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrSweepRunning is returned when a sweep is requested while another one is
// still in flight. Overlapping sweeps would double-count history and
// notifications.
var ErrSweepRunning = errors.New("a sweep is already in progress")

type Extractor interface {
	Extract(ctx context.Context, productASIN string) (*extract.ProductSnapshot, error)
}

type Checker struct {
	store            *db.Store
	extractor        Extractor
	itemDelay        time.Duration
	defaultFrequency time.Duration
	notifyDrop       decimal.Decimal

	running atomic.Bool
}

func New(store *db.Store, extractor Extractor, cfg config.CheckerConfig) *Checker {
	return &Checker{
		store:            store,
		extractor:        extractor,
		itemDelay:        cfg.ItemDelay(),
		defaultFrequency: time.Duration(cfg.DefaultFrequencyHours) * time.Hour,
		notifyDrop:       decimal.NewFromFloat(cfg.NotifyThreshold),
	}
}

// Start blocks, sweeping on the tightest check frequency any user has
// configured, until the context is done. The interval is recomputed after
// every sweep so settings changes take effect without a restart.
func (c *Checker) Start(ctx context.Context) {
	logger.Info("price checker started", "default_frequency", c.defaultFrequency)
	for {
		interval := c.sweepInterval()
		select {
		case <-ctx.Done():
			logger.Info("price checker stopped")
			return
		case <-time.After(interval):
		}

		if run, err := c.RunSweep(ctx); err != nil {
			logger.Error("sweep failed", "error", err)
		} else {
			logger.Info("sweep finished", "run_id", run.RunID, "checked", run.Checked, "updated", run.Updated, "notified", run.Notified)
		}
	}
}

func (c *Checker) sweepInterval() time.Duration {
	interval := c.defaultFrequency
	settings, err := c.store.ListAllSettings()
	if err != nil {
		logger.Error("failed to load user settings", "error", err)
		return interval
	}
	for _, s := range settings {
		if s.CheckFrequency > 0 {
			if d := time.Duration(s.CheckFrequency) * time.Hour; d < interval {
				interval = d
			}
		}
	}
	return interval
}

// RunSweep checks every active product once. Only one sweep runs at a time;
// concurrent calls fail fast with ErrSweepRunning.
func (c *Checker) RunSweep(ctx context.Context) (*db.CheckRun, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrSweepRunning
	}
	defer c.running.Store(false)

	run := &db.CheckRun{RunID: uuid.NewString(), StartedAt: time.Now()}
	if err := c.store.CreateCheckRun(run); err != nil {
		return nil, err
	}

	products, err := c.store.ListActive("")
	if err != nil {
		return nil, err
	}
	logger.Info("sweep started", "run_id", run.RunID, "products", len(products))

	thresholds := c.thresholdCache()
	var checked, updated, notified int
	var itemErrors []string

	for i := range products {
		if err := ctx.Err(); err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("sweep interrupted: %v", err))
			break
		}
		if i > 0 && c.itemDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(c.itemDelay):
			}
		}

		product := &products[i]
		checked++
		outcome, err := c.CheckProduct(ctx, product, thresholds(product.UserEmail))
		if err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("%s (%s): %v", product.ASIN, product.UserEmail, err))
			continue
		}
		if outcome.Updated {
			updated++
		}
		if outcome.Notified {
			notified++
		}
	}

	if err := c.store.FinishCheckRun(run, checked, updated, notified, itemErrors, time.Now()); err != nil {
		logger.Error("failed to finalize check run", "run_id", run.RunID, "error", err)
	}
	return run, nil
}

// thresholdCache loads each user's minimum-change preference once per sweep.
func (c *Checker) thresholdCache() func(email string) classify.Thresholds {
	cache := map[string]classify.Thresholds{}
	return func(email string) classify.Thresholds {
		if t, ok := cache[email]; ok {
			return t
		}
		t := classify.Thresholds{MinChange: decimal.NewFromInt(1), NotifyDrop: c.notifyDrop}
		if settings, err := c.store.GetSettings(email); err == nil && settings != nil && settings.PriceThreshold.IsPositive() {
			t.MinChange = settings.PriceThreshold
		}
		cache[email] = t
		return t
	}
}

type Outcome struct {
	Updated  bool
	Notified bool
}

// CheckProduct re-fetches one product, applies the observed price, and
// appends a history point for every successful check with a usable price,
// whether or not the move counts as a change. Price increases are recorded
// as notifications but never trigger email on their own; the delivery side
// filters by kind.
func (c *Checker) CheckProduct(ctx context.Context, product *db.TrackedProduct, thresholds classify.Thresholds) (Outcome, error) {
	now := time.Now()
	snapshot, err := c.extractor.Extract(ctx, product.ASIN)
	if err != nil {
		// The product stays tracked; mark the attempt so stale items are
		// visible.
		if _, updErr := c.store.Update(product.ID, db.ProductUpdate{LastChecked: &now}); updErr != nil {
			logger.Error("failed to mark check attempt", "product_id", product.ID, "error", updErr)
		}
		return Outcome{}, err
	}

	decision := classify.Classify(product.CurrentPrice, snapshot.Price, product.TargetPrice, thresholds)

	upd := db.ProductUpdate{LastChecked: &now}
	if snapshot.Title != "" && snapshot.Title != product.Title {
		upd.Title = &snapshot.Title
	}
	if snapshot.ImageURL != "" && snapshot.ImageURL != product.ImageURL {
		upd.ImageURL = &snapshot.ImageURL
	}
	outcome := Outcome{}
	if snapshot.Price.IsPositive() {
		upd.CurrentPrice = &snapshot.Price
		if !snapshot.Price.Equal(product.CurrentPrice) {
			outcome.Updated = true
		}
	}
	if _, err := c.store.Update(product.ID, upd); err != nil {
		return Outcome{}, err
	}
	if snapshot.Price.IsPositive() {
		if _, err := c.store.AppendHistory(product.ID, snapshot.Price, now); err != nil {
			return outcome, err
		}
	}
	if decision.Kind == classify.ChangeNone {
		return outcome, nil
	}

	logger.Info("price change", "asin", product.ASIN, "email", product.UserEmail,
		"kind", decision.Kind, "old", product.CurrentPrice, "new", snapshot.Price, "notify", decision.Notify)

	if decision.Kind == classify.ChangeIncrease || decision.Notify {
		notification := &db.Notification{
			ProductID: product.ID,
			Kind:      string(decision.Kind),
			OldPrice:  product.CurrentPrice,
			NewPrice:  snapshot.Price,
			CreatedAt: now,
		}
		if err := c.store.CreateNotification(notification); err != nil {
			return outcome, err
		}
		if decision.Notify {
			outcome.Notified = true
		}
	}
	return outcome, nil
}
