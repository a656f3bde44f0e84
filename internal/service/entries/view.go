package entries

import (
	"context"
	"log/slog"
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EntryView is an entry decorated with display metrics for listing.
type EntryView struct {
	entity.Entry

	CurrentPrice           decimal.Decimal
	PriceAvailable         bool
	TargetPercent          decimal.Decimal
	RemainingTargetPercent decimal.Decimal
	// Duration between the alert trigger and the target trigger, zero
	// until both have fired.
	Duration time.Duration
}

// List returns all entries with best-effort live metrics. A missing
// quote leaves PriceAvailable false and never fails the listing.
func (s *Service) List(ctx context.Context) ([]EntryView, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]EntryView, 0, len(all))
	for _, entry := range all {
		view := EntryView{Entry: entry}

		current, err := s.quoteSvc.CurrentPrice(ctx, entry.Symbol)
		if err != nil {
			slog.Debug("no live price for listing", "symbol", entry.Symbol, "error", err)
		} else {
			view.CurrentPrice = current
			view.PriceAvailable = true
		}

		if entry.AlertPrice.IsPositive() {
			view.TargetPercent = entry.TargetPrice.Sub(entry.AlertPrice).Abs().
				Div(entry.AlertPrice).Mul(hundred)
			if entry.Status == entity.StatusOpen && view.PriceAvailable {
				view.RemainingTargetPercent = entry.TargetPrice.Sub(current).Abs().
					Div(entry.AlertPrice).Mul(hundred)
			}
		}

		if !entry.AlertTriggeredAt.IsZero() && !entry.TargetTriggeredAt.IsZero() {
			view.Duration = entry.TargetTriggeredAt.Sub(entry.AlertTriggeredAt)
		}

		views = append(views, view)
	}
	return views, nil
}
