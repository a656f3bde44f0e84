package binance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/price-sentinel/internal/service/market"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

var _ market.QuoteService = (*QuoteService)(nil)

type QuoteService struct {
	cli *binance.Client
}

func NewQuoteService(cli *binance.Client) *QuoteService {
	return &QuoteService{cli: cli}
}

func (svc *QuoteService) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := svc.cli.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		slog.Error("binance price lookup failed", "symbol", symbol, "error", err)
		return decimal.Zero, fmt.Errorf("%w: %v", market.ErrUnavailable, err)
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("%w: symbol %s not found", market.ErrUnavailable, symbol)
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad price %q", market.ErrUnavailable, prices[0].Price)
	}
	return price, nil
}

func (svc *QuoteService) History(ctx context.Context, symbol string, lookback time.Duration, interval market.Interval) ([]market.Candle, error) {
	end := time.Now()
	start := end.Add(-lookback)
	klines, err := svc.cli.NewKlinesService().
		Symbol(symbol).
		Interval(interval.ToString()).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Do(ctx)
	if err != nil {
		slog.Error("binance kline fetch failed", "symbol", symbol, "error", err)
		return nil, fmt.Errorf("%w: %v", market.ErrUnavailable, err)
	}
	return convertKlines(klines)
}

func convertKlines(klines []*binance.Kline) ([]market.Candle, error) {
	candles := make([]market.Candle, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, fmt.Errorf("%w: bad open %q", market.ErrUnavailable, k.Open)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, fmt.Errorf("%w: bad high %q", market.ErrUnavailable, k.High)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, fmt.Errorf("%w: bad low %q", market.ErrUnavailable, k.Low)
		}
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, fmt.Errorf("%w: bad close %q", market.ErrUnavailable, k.Close)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, fmt.Errorf("%w: bad volume %q", market.ErrUnavailable, k.Volume)
		}
		candles[i] = market.Candle{
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		}
	}
	return candles, nil
}
