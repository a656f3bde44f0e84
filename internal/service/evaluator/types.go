package evaluator

import (
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	KindPreAlert  EventKind = "pre_alert"
	KindAlert     EventKind = "alert"
	KindPreTarget EventKind = "pre_target"
	KindTarget    EventKind = "target"
	KindBuyAlert  EventKind = "buy_alert"
	KindSellAlert EventKind = "sell_alert"
)

// Event is one notification produced by evaluating an entry against a
// fresh price. The caller owns delivery and persistence.
type Event struct {
	Kind           EventKind
	Symbol         string
	Strategy       string
	ThresholdPrice decimal.Decimal
	CurrentPrice   decimal.Decimal
	Timestamp      time.Time
}

// Evaluator turns an entry and a fresh price into updated entry state
// and zero or more events. Implementations are deterministic and do no
// I/O.
type Evaluator interface {
	Evaluate(entry entity.Entry, current decimal.Decimal, now time.Time) (entity.Entry, []Event)
}

// ForPolicy selects the evaluator for an entry's policy label. Unknown
// labels fall back to the crossing policy.
func ForPolicy(policy string) Evaluator {
	switch policy {
	case entity.PolicyCooldown:
		return NewCooldown()
	default:
		return NewCrossing(decimal.Zero)
	}
}
