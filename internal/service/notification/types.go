package notification

import (
	"context"
	"fmt"

	"github.com/KNICEX/price-sentinel/internal/service/evaluator"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Notifier delivers one evaluator event to the user. Delivery is
// best-effort: a failed send is logged by the caller and never retried.
type Notifier interface {
	Notify(ctx context.Context, event evaluator.Event) error
}

// FormatEvent renders the user-facing message for an event.
func FormatEvent(e evaluator.Event) string {
	threshold := formatPrice(e.ThresholdPrice)
	current := formatPrice(e.CurrentPrice)

	switch e.Kind {
	case evaluator.KindPreAlert:
		return fmt.Sprintf("⚠️ Pre-Alert: %s is near alert price %s! Current: %s", e.Symbol, threshold, current)
	case evaluator.KindAlert:
		return fmt.Sprintf("🚨 Alert: %s hit alert price %s! Current: %s", e.Symbol, threshold, current)
	case evaluator.KindPreTarget:
		return fmt.Sprintf("⚠️ Pre-Target: %s is near target price %s! Current: %s", e.Symbol, threshold, current)
	case evaluator.KindTarget:
		return fmt.Sprintf("🎯 Target: %s hit target price %s! Current: %s", e.Symbol, threshold, current)
	case evaluator.KindBuyAlert:
		return fmt.Sprintf("🚨 %s Buy Alert: %s hit buy price %s! Current: %s", e.Strategy, e.Symbol, threshold, current)
	case evaluator.KindSellAlert:
		return fmt.Sprintf("🎯 %s Sell Alert: %s hit target price %s! Current: %s", e.Strategy, e.Symbol, threshold, current)
	default:
		return fmt.Sprintf("%s: %s at %s", e.Kind, e.Symbol, current)
	}
}

func formatPrice(d decimal.Decimal) string {
	return humanize.CommafWithDigits(d.InexactFloat64(), 2)
}
