package evaluator

import (
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/shopspring/decimal"
)

var defaultBandWidth = decimal.RequireFromString("0.03")

// crossingEvaluator fires a threshold event only when price has moved
// strictly further past the threshold than the last notified price in
// the same direction. Direction-agnostic: works whether the alert sits
// below or above the target.
type crossingEvaluator struct {
	bandWidth decimal.Decimal
}

// NewCrossing builds the symmetric crossing evaluator. bandWidth is the
// proximity band as a fraction of the threshold; zero selects the
// default 3%.
func NewCrossing(bandWidth decimal.Decimal) Evaluator {
	if bandWidth.IsZero() {
		bandWidth = defaultBandWidth
	}
	return &crossingEvaluator{bandWidth: bandWidth}
}

func (e *crossingEvaluator) Evaluate(entry entity.Entry, current decimal.Decimal, now time.Time) (entity.Entry, []Event) {
	if !now.After(entry.CreatedAt) {
		return entry, nil
	}
	// Closed is terminal: the entry stays inert once the target has
	// been reached.
	if entry.IsClosed() {
		return entry, nil
	}

	var events []Event

	// Target first: reaching the target closes the entry and
	// suppresses the rest of this evaluation.
	if entry.TargetPrice.IsPositive() &&
		crossedFurther(current, entry.TargetPrice, entry.LastNotifiedTargetPrice) {
		entry.LastNotifiedTargetPrice = current
		entry.Status = entity.StatusClosed
		if entry.TargetTriggeredAt.IsZero() {
			entry.TargetTriggeredAt = now
		}
		events = append(events, Event{
			Kind:           KindTarget,
			Symbol:         entry.Symbol,
			Strategy:       entry.Strategy,
			ThresholdPrice: entry.TargetPrice,
			CurrentPrice:   current,
			Timestamp:      now,
		})
		return entry, events
	}

	if entry.AlertPrice.IsPositive() && crossedFurther(current, entry.AlertPrice, entry.LastNotifiedAlertPrice) {
		entry.LastNotifiedAlertPrice = current
		if entry.AlertTriggeredAt.IsZero() {
			entry.AlertTriggeredAt = now
		}
		events = append(events, Event{
			Kind:           KindAlert,
			Symbol:         entry.Symbol,
			Strategy:       entry.Strategy,
			ThresholdPrice: entry.AlertPrice,
			CurrentPrice:   current,
			Timestamp:      now,
		})
	}

	// Proximity pre-events run independently of the crossing checks.
	// Dedup is by exact price: two distinct prices inside the same band
	// each notify once, a price already notified never re-fires.
	if entry.AlertPrice.IsPositive() && e.insideBand(current, entry.AlertPrice) &&
		!entry.PreAlertNotified.Contains(current) {
		entry.PreAlertNotified = entry.PreAlertNotified.Append(current)
		events = append(events, Event{
			Kind:           KindPreAlert,
			Symbol:         entry.Symbol,
			Strategy:       entry.Strategy,
			ThresholdPrice: entry.AlertPrice,
			CurrentPrice:   current,
			Timestamp:      now,
		})
	}

	if entry.TargetPrice.IsPositive() && e.insideBand(current, entry.TargetPrice) &&
		!entry.PreTargetNotified.Contains(current) {
		entry.PreTargetNotified = entry.PreTargetNotified.Append(current)
		events = append(events, Event{
			Kind:           KindPreTarget,
			Symbol:         entry.Symbol,
			Strategy:       entry.Strategy,
			ThresholdPrice: entry.TargetPrice,
			CurrentPrice:   current,
			Timestamp:      now,
		})
	}

	return entry, events
}

// crossedFurther reports whether current sits past the threshold and
// strictly beyond the last notified price in the crossing direction.
func crossedFurther(current, threshold, lastNotified decimal.Decimal) bool {
	if current.LessThanOrEqual(threshold) && current.LessThan(lastNotified) {
		return true
	}
	if current.GreaterThanOrEqual(threshold) && current.GreaterThan(lastNotified) {
		return true
	}
	return false
}

func (e *crossingEvaluator) insideBand(current, threshold decimal.Decimal) bool {
	width := threshold.Mul(e.bandWidth)
	lower := threshold.Sub(width)
	upper := threshold.Add(width)
	return current.GreaterThanOrEqual(lower) && current.LessThanOrEqual(upper)
}
