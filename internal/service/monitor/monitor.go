package monitor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/KNICEX/price-sentinel/internal/repo"
	"github.com/KNICEX/price-sentinel/internal/service/evaluator"
	"github.com/KNICEX/price-sentinel/internal/service/market"
	"github.com/KNICEX/price-sentinel/internal/service/notification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

// EntryService drives one evaluation pass over all enabled entries.
type EntryService interface {
	Scan(ctx context.Context) error
}

type EntryMonitor struct {
	repo     repo.EntryRepo
	quoteSvc market.QuoteService
	notifier notification.Notifier
	metrics  *Metrics

	workers     int
	callTimeout time.Duration

	now func() time.Time
}

type Option func(m *EntryMonitor)

func WithNotifier(notifier notification.Notifier) Option {
	return func(m *EntryMonitor) {
		m.notifier = notifier
	}
}

func WithWorkers(n int) Option {
	return func(m *EntryMonitor) {
		if n > 0 {
			m.workers = n
		}
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(m *EntryMonitor) {
		if d > 0 {
			m.callTimeout = d
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *EntryMonitor) {
		m.metrics = metrics
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *EntryMonitor) {
		m.now = now
	}
}

func NewEntryMonitor(entryRepo repo.EntryRepo, quoteSvc market.QuoteService, opts ...Option) EntryService {
	monitor := &EntryMonitor{
		repo:        entryRepo,
		quoteSvc:    quoteSvc,
		notifier:    notification.NewConsoleNotifier(),
		workers:     4,
		callTimeout: 10 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(monitor)
	}
	if monitor.metrics == nil {
		monitor.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return monitor
}

// Scan evaluates every enabled entry once. Per-entry failures are
// logged and skipped; they never abort the rest of the pass.
func (m *EntryMonitor) Scan(ctx context.Context) error {
	entries, err := m.repo.FindEnabled(ctx)
	if err != nil {
		return err
	}

	entries = lo.Filter(entries, func(item entity.Entry, index int) bool {
		return strings.TrimSpace(item.Symbol) != ""
	})

	jobs := make(chan entity.Entry, len(entries))
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				m.checkEntry(ctx, entry)
			}
		}()
	}
	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()

	m.metrics.TicksTotal.Inc()
	return nil
}

func (m *EntryMonitor) checkEntry(ctx context.Context, entry entity.Entry) {
	quoteCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	current, err := m.quoteSvc.CurrentPrice(quoteCtx, entry.Symbol)
	cancel()
	if err != nil {
		slog.Warn("skip entry, quote unavailable", "symbol", entry.Symbol, "strategy", entry.Strategy, "error", err)
		m.metrics.EntriesSkipped.WithLabelValues(SkipQuoteUnavailable).Inc()
		return
	}

	updated, events := evaluator.ForPolicy(entry.Policy).Evaluate(entry, current, m.now())

	if err = m.repo.Save(ctx, updated); errors.Is(err, repo.ErrVersionConflict) {
		// a user edit landed between load and save; redo the
		// read-modify-write once on the fresh row
		fresh, findErr := m.repo.FindById(ctx, entry.Id)
		if findErr != nil {
			slog.Warn("skip entry, gone after conflict", "symbol", entry.Symbol, "error", findErr)
			m.metrics.EntriesSkipped.WithLabelValues(SkipEntryGone).Inc()
			return
		}
		if !fresh.Enabled {
			return
		}
		updated, events = evaluator.ForPolicy(fresh.Policy).Evaluate(fresh, current, m.now())
		err = m.repo.Save(ctx, updated)
	}
	if err != nil {
		slog.Error("failed to persist entry state", "symbol", entry.Symbol, "strategy", entry.Strategy, "error", err)
		m.metrics.EntriesSkipped.WithLabelValues(SkipPersistConflict).Inc()
		return
	}
	m.metrics.EntriesEvaluated.Inc()

	// State is already persisted: a failed delivery is logged and never
	// recomputed, otherwise the same event would fire every tick.
	for _, event := range events {
		notifyCtx, cancelNotify := context.WithTimeout(ctx, m.callTimeout)
		err = m.notifier.Notify(notifyCtx, event)
		cancelNotify()
		if err != nil {
			slog.Error("failed to deliver notification", "symbol", event.Symbol, "kind", event.Kind, "error", err)
			m.metrics.DeliveryFailures.Inc()
			continue
		}
		m.metrics.EventsDispatched.WithLabelValues(string(event.Kind)).Inc()
	}
}
