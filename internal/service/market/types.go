package market

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable reports that a quote source could not produce data for
// a symbol. Callers skip the symbol for the current pass.
var ErrUnavailable = errors.New("quote unavailable")

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

const (
	Interval1h Interval = "1h"
	Interval4h Interval = "4h"
	Interval1d Interval = "1d"
	Interval1w Interval = "1w"
)

type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

func (c Candle) IsBullish() bool {
	return c.Close.GreaterThan(c.Open)
}

func (c Candle) IsBearish() bool {
	return c.Close.LessThan(c.Open)
}

type QuoteService interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// History returns candles ordered oldest to newest covering the
	// lookback window ending now.
	History(ctx context.Context, symbol string, lookback time.Duration, interval Interval) ([]Candle, error)
}
