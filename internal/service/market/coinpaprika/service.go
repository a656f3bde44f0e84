package coinpaprika

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KNICEX/price-sentinel/internal/service/market"
	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/shopspring/decimal"
)

var _ market.QuoteService = (*QuoteService)(nil)

// QuoteService resolves prices through the CoinPaprika public API. The
// paprika historical endpoint returns price points rather than OHLC
// candles, so History always reports ErrUnavailable; entries that need
// range detection should use a candle-capable provider.
type QuoteService struct {
	cli *coinpaprika.Client

	mu      sync.Mutex
	coinIds map[string]string // symbol -> coin id
}

func NewQuoteService(cli *coinpaprika.Client) *QuoteService {
	return &QuoteService{
		cli:     cli,
		coinIds: make(map[string]string),
	}
}

func (svc *QuoteService) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	coinId, err := svc.resolveCoinId(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	ticker, err := svc.cli.Tickers.GetByID(coinId, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		slog.Error("coinpaprika ticker lookup failed", "symbol", symbol, "coin_id", coinId, "error", err)
		return decimal.Zero, fmt.Errorf("%w: %v", market.ErrUnavailable, err)
	}
	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return decimal.Zero, fmt.Errorf("%w: no USD quote for %s", market.ErrUnavailable, symbol)
	}
	return decimal.NewFromFloat(*usd.Price), nil
}

func (svc *QuoteService) History(ctx context.Context, symbol string, lookback time.Duration, interval market.Interval) ([]market.Candle, error) {
	return nil, fmt.Errorf("%w: coinpaprika provides no OHLC history", market.ErrUnavailable)
}

func (svc *QuoteService) resolveCoinId(symbol string) (string, error) {
	symbol = strings.ToUpper(symbol)

	svc.mu.Lock()
	coinId, ok := svc.coinIds[symbol]
	svc.mu.Unlock()
	if ok {
		return coinId, nil
	}

	result, err := svc.cli.Search.Search(&coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil || len(result.Currencies) == 0 {
		return "", fmt.Errorf("%w: unknown symbol %s", market.ErrUnavailable, symbol)
	}
	if result.Currencies[0].ID == nil {
		return "", fmt.Errorf("%w: unknown symbol %s", market.ErrUnavailable, symbol)
	}
	coinId = *result.Currencies[0].ID

	svc.mu.Lock()
	svc.coinIds[symbol] = coinId
	svc.mu.Unlock()
	return coinId, nil
}
