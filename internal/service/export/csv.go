package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/KNICEX/price-sentinel/internal/repo"
	"github.com/KNICEX/price-sentinel/internal/service/market"
	"github.com/samber/lo"
)

const timeLayout = "2006-01-02 15:04:05"

var header = []string{
	"symbol", "initial_price", "alert_price", "target_price",
	"alert_triggered", "created_at", "current_price", "days_to_target",
}

type Service struct {
	repo     repo.EntryRepo
	quoteSvc market.QuoteService
}

func NewService(entryRepo repo.EntryRepo, quoteSvc market.QuoteService) *Service {
	return &Service{
		repo:     entryRepo,
		quoteSvc: quoteSvc,
	}
}

// WriteCSV streams all entries, with best-effort live prices, as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	entries, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(header); err != nil {
		return err
	}

	rows := lo.Map(entries, func(entry entity.Entry, index int) []string {
		return s.row(ctx, entry)
	})
	for _, row := range rows {
		if err = cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (s *Service) row(ctx context.Context, entry entity.Entry) []string {
	current := ""
	price, err := s.quoteSvc.CurrentPrice(ctx, entry.Symbol)
	if err != nil {
		slog.Debug("no live price for export", "symbol", entry.Symbol, "error", err)
	} else {
		current = price.String()
	}

	daysToTarget := 0
	if !entry.AlertTriggeredAt.IsZero() && !entry.TargetTriggeredAt.IsZero() {
		daysToTarget = int(entry.TargetTriggeredAt.Sub(entry.AlertTriggeredAt) / (24 * time.Hour))
	}

	return []string{
		entry.Symbol,
		entry.InitialPrice.String(),
		entry.AlertPrice.String(),
		entry.TargetPrice.String(),
		strconv.FormatBool(entry.AlertTriggered),
		entry.CreatedAt.Format(timeLayout),
		current,
		fmt.Sprintf("%d", daysToTarget),
	}
}
