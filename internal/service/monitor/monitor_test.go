package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/KNICEX/price-sentinel/internal/repo"
	"github.com/KNICEX/price-sentinel/internal/service/evaluator"
	"github.com/KNICEX/price-sentinel/internal/service/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries map[string]entity.Entry

	// when set, the next Save fails once with a version conflict
	conflictNextSave bool
}

func newFakeEntryRepo(entries ...entity.Entry) *fakeEntryRepo {
	f := &fakeEntryRepo{entries: make(map[string]entity.Entry)}
	for _, e := range entries {
		f.entries[e.Id] = e
	}
	return f
}

func (f *fakeEntryRepo) Create(ctx context.Context, entry entity.Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.Id] = entry
	return entry.Id, nil
}

func (f *fakeEntryRepo) FindById(ctx context.Context, id string) (entity.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return entity.Entry{}, repo.ErrEntryNotFound
	}
	return entry, nil
}

func (f *fakeEntryRepo) FindAll(ctx context.Context) ([]entity.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEntryRepo) FindEnabled(ctx context.Context) ([]entity.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryRepo) Save(ctx context.Context, entry entity.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.entries[entry.Id]
	if !ok {
		return repo.ErrEntryNotFound
	}
	if f.conflictNextSave {
		f.conflictNextSave = false
		return repo.ErrVersionConflict
	}
	if stored.Version != entry.Version {
		return repo.ErrVersionConflict
	}
	entry.Version++
	f.entries[entry.Id] = entry
	return nil
}

func (f *fakeEntryRepo) UpdateThresholds(ctx context.Context, id string, alert, target, strategy string) error {
	return nil
}

func (f *fakeEntryRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return repo.ErrEntryNotFound
	}
	entry.Enabled = enabled
	entry.Version++
	f.entries[id] = entry
	return nil
}

func (f *fakeEntryRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func (f *fakeEntryRepo) get(t *testing.T, id string) entity.Entry {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	require.True(t, ok)
	return entry
}

type fakeQuoteService struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	calls  int
}

func (f *fakeQuoteService) setPrice(symbol, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prices == nil {
		f.prices = make(map[string]decimal.Decimal)
	}
	f.prices[symbol] = decimal.RequireFromString(price)
}

func (f *fakeQuoteService) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	price, ok := f.prices[symbol]
	if !ok {
		return decimal.Decimal{}, market.ErrUnavailable
	}
	return price, nil
}

func (f *fakeQuoteService) History(ctx context.Context, symbol string, lookback time.Duration, interval market.Interval) ([]market.Candle, error) {
	return nil, market.ErrUnavailable
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []evaluator.Event
	err    error
}

func (f *fakeNotifier) Notify(ctx context.Context, event evaluator.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeNotifier) kinds() []evaluator.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]evaluator.EventKind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

func testEntry() entity.Entry {
	return entity.Entry{
		Id:          "e1",
		Symbol:      "BTCUSDT",
		Strategy:    "Buy",
		Policy:      entity.PolicyCrossing,
		AlertPrice:  decimal.RequireFromString("100"),
		TargetPrice: decimal.RequireFromString("120"),
		Enabled:     true,
		Status:      entity.StatusOpen,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestMonitor(entryRepo repo.EntryRepo, quoteSvc market.QuoteService, notifier *fakeNotifier, now time.Time) EntryService {
	return NewEntryMonitor(entryRepo, quoteSvc,
		WithNotifier(notifier),
		WithWorkers(1),
		WithClock(func() time.Time { return now }),
	)
}

func TestEntryMonitor_AlertThenTargetThenClosed(t *testing.T) {
	entryRepo := newFakeEntryRepo(testEntry())
	quoteSvc := &fakeQuoteService{}
	notifier := &fakeNotifier{}
	now := testEntry().CreatedAt.Add(time.Minute)
	ctx := context.Background()

	quoteSvc.setPrice("BTCUSDT", "100")
	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now).Scan(ctx))
	assert.Contains(t, notifier.kinds(), evaluator.KindAlert)
	assert.NotContains(t, notifier.kinds(), evaluator.KindTarget)

	stored := entryRepo.get(t, "e1")
	assert.True(t, stored.LastNotifiedAlertPrice.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, entity.StatusOpen, stored.Status)
	assert.Equal(t, int64(1), stored.Version)

	quoteSvc.setPrice("BTCUSDT", "120")
	notifier.events = nil
	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now.Add(time.Minute)).Scan(ctx))
	assert.Equal(t, []evaluator.EventKind{evaluator.KindTarget}, notifier.kinds())
	assert.Equal(t, entity.StatusClosed, entryRepo.get(t, "e1").Status)

	// past the target on a closed entry, nothing fires
	quoteSvc.setPrice("BTCUSDT", "125")
	notifier.events = nil
	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now.Add(2*time.Minute)).Scan(ctx))
	assert.Empty(t, notifier.kinds())
}

func TestEntryMonitor_SkipsWhenQuoteUnavailable(t *testing.T) {
	entryRepo := newFakeEntryRepo(testEntry())
	quoteSvc := &fakeQuoteService{} // no price set
	notifier := &fakeNotifier{}
	now := testEntry().CreatedAt.Add(time.Minute)

	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now).Scan(context.Background()))
	assert.Empty(t, notifier.kinds())
	assert.Equal(t, int64(0), entryRepo.get(t, "e1").Version)
}

// State is persisted before delivery, so a failed notification is never
// recomputed on the next tick.
func TestEntryMonitor_PersistsBeforeDeliveryFailure(t *testing.T) {
	entryRepo := newFakeEntryRepo(testEntry())
	quoteSvc := &fakeQuoteService{}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	now := testEntry().CreatedAt.Add(time.Minute)
	ctx := context.Background()

	quoteSvc.setPrice("BTCUSDT", "105")
	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now).Scan(ctx))
	assert.Equal(t, []evaluator.EventKind{evaluator.KindAlert}, notifier.kinds())
	assert.True(t, entryRepo.get(t, "e1").LastNotifiedAlertPrice.Equal(decimal.RequireFromString("105")))

	// same price again: the event is gone for good
	notifier.events = nil
	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now.Add(time.Minute)).Scan(ctx))
	assert.Empty(t, notifier.kinds())
}

func TestEntryMonitor_RetriesOnceOnVersionConflict(t *testing.T) {
	entryRepo := newFakeEntryRepo(testEntry())
	entryRepo.conflictNextSave = true
	quoteSvc := &fakeQuoteService{}
	notifier := &fakeNotifier{}
	now := testEntry().CreatedAt.Add(time.Minute)

	quoteSvc.setPrice("BTCUSDT", "105")
	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now).Scan(context.Background()))

	// the retry re-read the fresh row, re-evaluated, and saved
	assert.Equal(t, []evaluator.EventKind{evaluator.KindAlert}, notifier.kinds())
	stored := entryRepo.get(t, "e1")
	assert.True(t, stored.LastNotifiedAlertPrice.Equal(decimal.RequireFromString("105")))
	assert.Equal(t, int64(1), stored.Version)
}

func TestEntryMonitor_DropsEntryDisabledAfterConflict(t *testing.T) {
	entry := testEntry()
	entry.Enabled = false
	entryRepo := newFakeEntryRepo(entry)
	// simulate the race: conflict on save, then the fresh read shows
	// the entry was disabled in the meantime
	entryRepo.conflictNextSave = true
	quoteSvc := &fakeQuoteService{}
	notifier := &fakeNotifier{}
	now := entry.CreatedAt.Add(time.Minute)

	quoteSvc.setPrice("BTCUSDT", "105")
	m := newTestMonitor(entryRepo, quoteSvc, notifier, now).(*EntryMonitor)
	m.checkEntry(context.Background(), testEntry())

	assert.Empty(t, notifier.kinds())
	assert.True(t, entryRepo.get(t, "e1").LastNotifiedAlertPrice.IsZero())
}

func TestEntryMonitor_SkipsBlankSymbols(t *testing.T) {
	entry := testEntry()
	entry.Symbol = "  "
	entryRepo := newFakeEntryRepo(entry)
	quoteSvc := &fakeQuoteService{}
	notifier := &fakeNotifier{}
	now := entry.CreatedAt.Add(time.Minute)

	require.NoError(t, newTestMonitor(entryRepo, quoteSvc, notifier, now).Scan(context.Background()))
	assert.Equal(t, 0, quoteSvc.calls)
}
