package entries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/KNICEX/price-sentinel/internal/repo"
	"github.com/KNICEX/price-sentinel/internal/service/detector"
	"github.com/KNICEX/price-sentinel/internal/service/market"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidEntry rejects bad input at creation time, before the
	// entry can ever reach the scheduler.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrNoRange reports that history produced no qualifying range.
	ErrNoRange = errors.New("no qualifying range in history")
)

const (
	momentumLookback = 14 * 30 * 24 * time.Hour // ~1y2mo of daily candles
	bullishLookback  = 20 * 24 * time.Hour
)

var gainMultiplier = decimal.RequireFromString("1.2")

type CreateEntryReq struct {
	Symbol      string
	Strategy    string
	Policy      string
	Detection   string
	AlertPrice  decimal.Decimal
	TargetPrice decimal.Decimal
	CooldownSec int64
}

// Service is the command layer behind the interactive dashboard. It
// owns entry CRUD and creation-time threshold derivation; it never runs
// the evaluator.
type Service struct {
	repo        repo.EntryRepo
	strategies  repo.StrategyRepo
	quoteSvc    market.QuoteService
	momentumDet detector.Detector
	bullishDet  detector.Detector
}

func NewService(entryRepo repo.EntryRepo, strategyRepo repo.StrategyRepo, quoteSvc market.QuoteService) *Service {
	return &Service{
		repo:        entryRepo,
		strategies:  strategyRepo,
		quoteSvc:    quoteSvc,
		momentumDet: detector.NewMomentumRun(decimal.Zero),
		bullishDet:  detector.NewLatestBullish(),
	}
}

func (s *Service) Create(ctx context.Context, req CreateEntryReq) (entity.Entry, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return entity.Entry{}, fmt.Errorf("%w: empty symbol", ErrInvalidEntry)
	}
	if req.AlertPrice.IsNegative() || req.TargetPrice.IsNegative() {
		return entity.Entry{}, fmt.Errorf("%w: negative threshold", ErrInvalidEntry)
	}
	policy := req.Policy
	if policy == "" {
		policy = entity.PolicyCrossing
	}
	if policy != entity.PolicyCrossing && policy != entity.PolicyCooldown {
		return entity.Entry{}, fmt.Errorf("%w: unknown policy %q", ErrInvalidEntry, req.Policy)
	}
	detection := req.Detection
	if detection == "" {
		detection = entity.DetectionManual
	}

	current, err := s.quoteSvc.CurrentPrice(ctx, symbol)
	if err != nil {
		return entity.Entry{}, fmt.Errorf("%w: no price data for %s", ErrInvalidEntry, symbol)
	}

	entry := entity.Entry{
		Id:           uuid.NewString(),
		Symbol:       symbol,
		Strategy:     req.Strategy,
		Policy:       policy,
		Detection:    detection,
		AlertPrice:   req.AlertPrice,
		TargetPrice:  req.TargetPrice,
		InitialPrice: current,
		Enabled:      true,
		Status:       entity.StatusOpen,
		CooldownSec:  req.CooldownSec,
		CreatedAt:    time.Now(),
	}
	if entry.CooldownSec <= 0 {
		entry.CooldownSec = entity.DefaultCooldownSec
	}

	if detection != entity.DetectionManual {
		if err = s.deriveThresholds(ctx, &entry, current); err != nil {
			return entity.Entry{}, err
		}
	}

	if _, err = s.repo.Create(ctx, entry); err != nil {
		return entity.Entry{}, err
	}
	slog.Info("entry created",
		"symbol", entry.Symbol, "strategy", entry.Strategy, "policy", entry.Policy,
		"alert", entry.AlertPrice, "target", entry.TargetPrice, "initial", entry.InitialPrice)
	return entry, nil
}

// deriveThresholds fills alert/target from recent history according to
// the entry's detection policy. Malformed or missing history is treated
// as "no range detected".
func (s *Service) deriveThresholds(ctx context.Context, entry *entity.Entry, current decimal.Decimal) error {
	switch entry.Detection {
	case entity.DetectionMomentum:
		candles, err := s.quoteSvc.History(ctx, entry.Symbol, momentumLookback, market.Interval1d)
		if err != nil {
			slog.Warn("history unavailable, treating as no range", "symbol", entry.Symbol, "error", err)
			return ErrNoRange
		}
		r, ok := s.momentumDet.Detect(candles)
		if !ok {
			return ErrNoRange
		}
		entry.AlertPrice = r.Support
		entry.TargetPrice = r.Resistance
	case entity.DetectionLastBullish:
		candles, err := s.quoteSvc.History(ctx, entry.Symbol, bullishLookback, market.Interval1d)
		if err != nil {
			slog.Warn("history unavailable, treating as no range", "symbol", entry.Symbol, "error", err)
			return ErrNoRange
		}
		r, ok := s.bullishDet.Detect(candles)
		if !ok {
			return ErrNoRange
		}
		// alert = 20% above current, snapped to the green candle low
		// when the two are within 1% of each other
		entry.AlertPrice = detector.SnapToSupport(current.Mul(gainMultiplier), r.Support)
		if !entry.TargetPrice.IsPositive() {
			entry.TargetPrice = r.Resistance
		}
	default:
		return fmt.Errorf("%w: unknown detection policy %q", ErrInvalidEntry, entry.Detection)
	}
	return nil
}

// RefreshRange re-derives thresholds for a non-manual entry on demand.
func (s *Service) RefreshRange(ctx context.Context, id string) (entity.Entry, error) {
	entry, err := s.repo.FindById(ctx, id)
	if err != nil {
		return entity.Entry{}, err
	}
	if entry.Detection == entity.DetectionManual {
		return entity.Entry{}, fmt.Errorf("%w: entry has manual thresholds", ErrInvalidEntry)
	}
	current, err := s.quoteSvc.CurrentPrice(ctx, entry.Symbol)
	if err != nil {
		return entity.Entry{}, err
	}
	if err = s.deriveThresholds(ctx, &entry, current); err != nil {
		return entity.Entry{}, err
	}
	if err = s.repo.Save(ctx, entry); err != nil {
		return entity.Entry{}, err
	}
	return entry, nil
}

func (s *Service) Update(ctx context.Context, id string, alert, target decimal.Decimal, strategy string) error {
	if alert.IsNegative() || target.IsNegative() {
		return fmt.Errorf("%w: negative threshold", ErrInvalidEntry)
	}
	return s.repo.UpdateThresholds(ctx, id, alert.String(), target.String(), strategy)
}

func (s *Service) Toggle(ctx context.Context, id string, enabled bool) error {
	return s.repo.SetEnabled(ctx, id, enabled)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddStrategy(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty strategy name", ErrInvalidEntry)
	}
	return s.strategies.Create(ctx, name)
}

func (s *Service) ListStrategies(ctx context.Context) ([]entity.Strategy, error) {
	return s.strategies.FindAll(ctx)
}
