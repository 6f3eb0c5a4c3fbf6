// Package classify turns an observed price movement into a recorded change
// kind and a notification decision.
package classify

import "github.com/shopspring/decimal"

type ChangeKind string

const (
	ChangeNone     ChangeKind = "none"
	ChangeDrop     ChangeKind = "price_drop"
	ChangeIncrease ChangeKind = "price_increase"
)

// Thresholds control how much movement is worth recording and how much of a
// drop is worth an email on its own.
type Thresholds struct {
	// MinChange is the smallest absolute move, in either direction, that
	// counts as a change at all.
	MinChange decimal.Decimal
	// NotifyDrop is the absolute drop that triggers an email even when the
	// new price is still above the buyer's target.
	NotifyDrop decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinChange:  decimal.NewFromInt(1),
		NotifyDrop: decimal.NewFromInt(5),
	}
}

type Decision struct {
	Kind  ChangeKind
	Delta decimal.Decimal
	// Notify is only ever true for drops: either the price fell to the
	// target or below, or the drop alone was large enough.
	Notify bool
}

// Classify compares the previously stored price with a freshly observed one.
// A zero observed price means extraction produced no usable figure and is
// never a change.
func Classify(oldPrice, newPrice, targetPrice decimal.Decimal, t Thresholds) Decision {
	if newPrice.IsZero() {
		return Decision{Kind: ChangeNone, Delta: decimal.Zero}
	}

	delta := newPrice.Sub(oldPrice)
	if delta.Abs().LessThan(t.MinChange) {
		return Decision{Kind: ChangeNone, Delta: delta}
	}

	if delta.IsNegative() {
		drop := delta.Neg()
		notify := newPrice.LessThanOrEqual(targetPrice) || drop.GreaterThanOrEqual(t.NotifyDrop)
		return Decision{Kind: ChangeDrop, Delta: delta, Notify: notify}
	}
	return Decision{Kind: ChangeIncrease, Delta: delta}
}
