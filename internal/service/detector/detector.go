package detector

import (
	"github.com/KNICEX/price-sentinel/internal/service/market"
	"github.com/shopspring/decimal"
)

// Range is a detected support/resistance pair derived from history.
type Range struct {
	Support    decimal.Decimal
	Resistance decimal.Decimal
}

type Detector interface {
	// Detect scans candles ordered oldest to newest and reports the
	// most recent qualifying range, or false when none exists.
	Detect(candles []market.Candle) (Range, bool)
}

var defaultMinGain = decimal.RequireFromString("0.2")

type momentumRun struct {
	minGain decimal.Decimal
}

// NewMomentumRun detects the most recent uninterrupted bullish run whose
// low-to-high gain reaches minGain (0.20 = 20%). Zero minGain selects
// the default 20%.
func NewMomentumRun(minGain decimal.Decimal) Detector {
	if minGain.IsZero() {
		minGain = defaultMinGain
	}
	return &momentumRun{minGain: minGain}
}

func (d *momentumRun) Detect(candles []market.Candle) (Range, bool) {
	// Newest bullish candle first, then widen backward toward the
	// start. The first qualifying pair wins; this is intentionally not
	// a search for the globally largest gain window.
	for i := len(candles) - 1; i >= 0; i-- {
		if !candles[i].IsBullish() {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if candles[j].Low.IsZero() {
				continue
			}
			gain := candles[i].High.Sub(candles[j].Low).Div(candles[j].Low)
			if gain.LessThan(d.minGain) {
				continue
			}
			if momentumBroken(candles[j+1 : i+1]) {
				continue
			}
			return Range{Support: candles[j].Low, Resistance: candles[i].High}, true
		}
	}
	return Range{}, false
}

func momentumBroken(candles []market.Candle) bool {
	for _, c := range candles {
		if c.IsBearish() {
			return true
		}
	}
	return false
}

type latestBullish struct{}

// NewLatestBullish returns the low/high of the most recent green candle,
// used with short lookback windows.
func NewLatestBullish() Detector {
	return &latestBullish{}
}

func (d *latestBullish) Detect(candles []market.Candle) (Range, bool) {
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].IsBullish() {
			return Range{Support: candles[i].Low, Resistance: candles[i].High}, true
		}
	}
	return Range{}, false
}

var snapTolerance = decimal.RequireFromString("0.01")

// SnapToSupport aligns a computed alert price with a detected support
// when the two are within 1% of each other.
func SnapToSupport(price, support decimal.Decimal) decimal.Decimal {
	if price.IsZero() {
		return price
	}
	diff := price.Sub(support).Abs().Div(price)
	if diff.LessThanOrEqual(snapTolerance) {
		return support
	}
	return price
}
