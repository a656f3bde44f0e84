package evaluator

import (
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/shopspring/decimal"
)

var (
	// epsilon matches the rounding of the source quote feed, an
	// absolute tolerance rather than a percentage.
	epsilon = decimal.RequireFromString("0.01")

	creationGuardWindow    = time.Minute
	creationGuardTolerance = decimal.RequireFromString("0.01")
)

// cooldownEvaluator fires a one-shot buy alert when price reaches the
// alert threshold, then a sell alert once price reaches the target.
// Repeat notifications of the same kind are gated by the entry's
// cooldown. The buy trigger never resets, so the target may re-notify
// after the cooldown elapses.
type cooldownEvaluator struct{}

func NewCooldown() Evaluator {
	return &cooldownEvaluator{}
}

func (e *cooldownEvaluator) Evaluate(entry entity.Entry, current decimal.Decimal, now time.Time) (entity.Entry, []Event) {
	// Right after creation a derived threshold may sit on top of the
	// live price; suppress the tick so the entry does not fire on the
	// price it was created from.
	if entry.AlertPrice.IsPositive() && !entry.AlertTriggered &&
		now.Sub(entry.CreatedAt) < creationGuardWindow {
		drift := current.Sub(entry.AlertPrice).Abs().Div(entry.AlertPrice)
		if drift.LessThanOrEqual(creationGuardTolerance) {
			return entry, nil
		}
	}

	var events []Event
	wasTriggered := entry.AlertTriggered

	if entry.AlertPrice.IsPositive() && !entry.AlertTriggered {
		lastAlert := entry.AlertTriggeredAt
		if lastAlert.IsZero() {
			lastAlert = entry.CreatedAt
		}
		if now.Sub(lastAlert) >= entry.Cooldown() &&
			current.LessThanOrEqual(entry.AlertPrice.Add(epsilon)) {
			entry.AlertTriggered = true
			entry.AlertTriggeredAt = now
			entry.Status = entity.StatusAlertTriggered
			events = append(events, Event{
				Kind:           KindBuyAlert,
				Symbol:         entry.Symbol,
				Strategy:       entry.Strategy,
				ThresholdPrice: entry.AlertPrice,
				CurrentPrice:   current,
				Timestamp:      now,
			})
		}
	}

	// Sell checks see the trigger state from the start of the tick, so
	// a buy and a sell never fire on the same evaluation.
	if entry.TargetPrice.IsPositive() && wasTriggered {
		lastTarget := entry.TargetTriggeredAt
		if lastTarget.IsZero() {
			lastTarget = entry.CreatedAt
		}
		if now.Sub(lastTarget) >= entry.Cooldown() &&
			current.GreaterThanOrEqual(entry.TargetPrice.Sub(epsilon)) {
			entry.TargetTriggeredAt = now
			events = append(events, Event{
				Kind:           KindSellAlert,
				Symbol:         entry.Symbol,
				Strategy:       entry.Strategy,
				ThresholdPrice: entry.TargetPrice,
				CurrentPrice:   current,
				Timestamp:      now,
			})
		}
	}

	return entry, events
}
