// Package notify drains the pending-notification queue into email. Delivery
// is at-least-once: a notification is marked sent only after the transport
// accepts it, and failures are retried on later passes up to the attempt cap.
package notify

import (
	"context"
	"time"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/db"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/mailer"
)

type Consumer struct {
	store  *db.Store
	mailer mailer.Mailer
}

func New(store *db.Store, m mailer.Mailer) *Consumer {
	return &Consumer{store: store, mailer: m}
}

// Start polls for pending notifications until the context is done.
func (c *Consumer) Start(ctx context.Context, interval time.Duration) {
	logger.Info("notification consumer started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification consumer stopped")
			return
		case <-ticker.C:
			if err := c.DeliverPending(); err != nil {
				logger.Error("delivery pass failed", "error", err)
			}
		}
	}
}

// DeliverPending walks the queue oldest-first. Non-drop notifications and
// notifications for users who opted out of drop emails are consumed without
// sending; they exist as records, not as mail.
func (c *Consumer) DeliverPending() error {
	pending, err := c.store.ListPending()
	if err != nil {
		return err
	}

	for _, item := range pending {
		if item.Kind != db.NotificationPriceDrop {
			if err := c.store.MarkSent(item.ID); err != nil {
				return err
			}
			continue
		}

		settings, err := c.store.GetSettings(item.Product.UserEmail)
		if err != nil {
			return err
		}
		if settings != nil && !settings.EmailPriceDrops {
			logger.Debug("drop email suppressed by user settings", "email", item.Product.UserEmail, "notification_id", item.ID)
			if err := c.store.MarkSent(item.ID); err != nil {
				return err
			}
			continue
		}

		msg, err := mailer.PriceDropAlert(item.Product.UserEmail, mailer.DropAlert{
			Title:       item.Product.Title,
			ImageURL:    item.Product.ImageURL,
			ProductURL:  item.Product.ProductURL,
			OldPrice:    item.OldPrice,
			NewPrice:    item.NewPrice,
			TargetPrice: item.Product.TargetPrice,
		})
		if err != nil {
			return err
		}

		if err := c.mailer.Send(msg); err != nil {
			logger.Error("notification delivery failed", "notification_id", item.ID, "email", item.Product.UserEmail, "error", err)
			if err := c.store.IncrementAttempts(item.ID); err != nil {
				return err
			}
			continue
		}
		if err := c.store.MarkSent(item.ID); err != nil {
			return err
		}
	}
	return nil
}

// StartWeekly sends summary digests every Sunday at 09:00 local time. The
// fire time is absolute, so restarts between Sundays do not skip or
// duplicate a digest window.
func (c *Consumer) StartWeekly(ctx context.Context) {
	for {
		next := nextSummaryTime(time.Now())
		logger.Debug("weekly summary scheduled", "at", next)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		if err := c.SendWeeklySummaries(); err != nil {
			logger.Error("weekly summary pass failed", "error", err)
		}
	}
}

// nextSummaryTime returns the first Sunday 09:00 strictly after now.
func nextSummaryTime(now time.Time) time.Time {
	days := (int(time.Sunday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, now.Location()).AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// SendWeeklySummaries emails each opted-in user a digest of everything they
// track. Summary failures are logged and skipped; there is no retry queue
// for digests.
func (c *Consumer) SendWeeklySummaries() error {
	products, err := c.store.ListActive("")
	if err != nil {
		return err
	}

	byUser := map[string][]mailer.SummaryItem{}
	for _, p := range products {
		byUser[p.UserEmail] = append(byUser[p.UserEmail], mailer.SummaryItem{
			Title:        p.Title,
			ProductURL:   p.ProductURL,
			CurrentPrice: p.CurrentPrice,
			TargetPrice:  p.TargetPrice,
		})
	}

	for email, items := range byUser {
		settings, err := c.store.GetSettings(email)
		if err != nil {
			return err
		}
		if settings == nil || !settings.EmailWeeklySummary {
			continue
		}

		msg, err := mailer.WeeklySummary(email, items)
		if err != nil {
			return err
		}
		if err := c.mailer.Send(msg); err != nil {
			logger.Error("weekly summary delivery failed", "email", email, "error", err)
			continue
		}
	}
	return nil
}
