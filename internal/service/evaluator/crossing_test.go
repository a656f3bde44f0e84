package evaluator

import (
	"testing"
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCrossingEntry(alert, target string) entity.Entry {
	return entity.Entry{
		Id:          "e1",
		Symbol:      "BTCUSDT",
		Strategy:    "Buy",
		Policy:      entity.PolicyCrossing,
		AlertPrice:  dec(alert),
		TargetPrice: dec(target),
		Enabled:     true,
		Status:      entity.StatusOpen,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

// Each tick must move strictly further past the threshold than the last
// notified price before the alert fires again.
func TestCrossing_AlertMonotonicProgress(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "0")
	now := entry.CreatedAt.Add(time.Minute)

	steps := []struct {
		price string
		fires bool
	}{
		{"105", true},  // crossed above, last was 0
		{"95", true},   // crossed below, further than 105
		{"90", true},   // further below
		{"92", false},  // retreat toward threshold
		{"90", false},  // same as last notified
		{"89", true},   // further below again
	}

	for _, step := range steps {
		now = now.Add(time.Minute)
		var events []Event
		entry, events = eval.Evaluate(entry, dec(step.price), now)

		fired := false
		for _, e := range events {
			if e.Kind == KindAlert {
				fired = true
				assert.True(t, e.CurrentPrice.Equal(dec(step.price)))
				assert.True(t, e.ThresholdPrice.Equal(dec("100")))
			}
		}
		assert.Equal(t, step.fires, fired, "price %s", step.price)
	}

	assert.True(t, entry.LastNotifiedAlertPrice.Equal(dec("89")))
	assert.Equal(t, entity.StatusOpen, entry.Status)
}

func TestCrossing_RetreatOutsideBandFiresNothing(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "0")
	entry.LastNotifiedAlertPrice = dec("105")
	now := entry.CreatedAt.Add(time.Minute)

	updated, events := eval.Evaluate(entry, dec("104"), now)
	assert.Empty(t, events)
	assert.True(t, updated.LastNotifiedAlertPrice.Equal(dec("105")))
}

func TestCrossing_TargetClosesEntry(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "120")
	now := entry.CreatedAt.Add(time.Minute)

	entry, events := eval.Evaluate(entry, dec("100"), now)
	require.Contains(t, kinds(events), KindAlert)
	assert.NotContains(t, kinds(events), KindTarget)
	assert.Equal(t, entity.StatusOpen, entry.Status)
	assert.Equal(t, now, entry.AlertTriggeredAt)

	now = now.Add(time.Minute)
	entry, events = eval.Evaluate(entry, dec("120"), now)
	assert.Equal(t, []EventKind{KindTarget}, kinds(events))
	assert.Equal(t, entity.StatusClosed, entry.Status)
	assert.Equal(t, now, entry.TargetTriggeredAt)

	// closed entries are inert, even further past the target
	now = now.Add(time.Minute)
	entry, events = eval.Evaluate(entry, dec("125"), now)
	assert.Empty(t, events)
	assert.Equal(t, entity.StatusClosed, entry.Status)
}

func TestCrossing_ClosedEntryStaysUntouched(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "120")
	entry.Status = entity.StatusClosed
	entry.LastNotifiedTargetPrice = dec("121")
	now := entry.CreatedAt.Add(time.Minute)

	updated, events := eval.Evaluate(entry, dec("130"), now)
	assert.Empty(t, events)
	assert.Equal(t, entry, updated)
}

// Two distinct prices inside the band each notify once; a price that
// already notified never re-fires.
func TestCrossing_ProximityBandDedup(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "0")
	now := entry.CreatedAt.Add(time.Minute)

	entry, events := eval.Evaluate(entry, dec("98"), now)
	assert.Equal(t, []EventKind{KindPreAlert}, kinds(events))

	now = now.Add(time.Minute)
	entry, events = eval.Evaluate(entry, dec("99"), now)
	assert.Equal(t, []EventKind{KindPreAlert}, kinds(events))

	// back to a price that already notified
	now = now.Add(time.Minute)
	entry, events = eval.Evaluate(entry, dec("98"), now)
	assert.Empty(t, events)

	// outside the 3% band nothing fires
	now = now.Add(time.Minute)
	_, events = eval.Evaluate(entry, dec("96"), now)
	assert.Empty(t, events)
}

func TestCrossing_PreTargetNearTarget(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "200")
	entry.LastNotifiedAlertPrice = dec("196")
	now := entry.CreatedAt.Add(time.Minute)

	_, events := eval.Evaluate(entry, dec("195"), now)
	assert.Equal(t, []EventKind{KindPreTarget}, kinds(events))
}

func TestCrossing_SkipsUntilAfterCreation(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "0")

	updated, events := eval.Evaluate(entry, dec("105"), entry.CreatedAt)
	assert.Empty(t, events)
	assert.Equal(t, entry, updated)

	_, events = eval.Evaluate(entry, dec("105"), entry.CreatedAt.Add(time.Second))
	assert.Equal(t, []EventKind{KindAlert}, kinds(events))
}

// Re-evaluating the already-updated entry at the same price produces no
// further events, so a retried save never double-notifies.
func TestCrossing_IdempotentAtSamePrice(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("100", "0")
	now := entry.CreatedAt.Add(time.Minute)

	entry, events := eval.Evaluate(entry, dec("105"), now)
	require.NotEmpty(t, events)

	updated, events := eval.Evaluate(entry, dec("105"), now.Add(time.Minute))
	assert.Empty(t, events)
	assert.True(t, updated.LastNotifiedAlertPrice.Equal(dec("105")))
}

func TestCrossing_ZeroThresholdsInert(t *testing.T) {
	eval := NewCrossing(decimal.Zero)
	entry := newCrossingEntry("0", "0")
	now := entry.CreatedAt.Add(time.Minute)

	_, events := eval.Evaluate(entry, dec("50"), now)
	assert.Empty(t, events)
}
