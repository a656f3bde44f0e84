package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one tracked instrument + strategy combination with its
// thresholds and notification markers.
type Entry struct {
	Id        string `gorm:"primaryKey"`
	Symbol    string `gorm:"uniqueIndex:symbol_strategy_idx"`
	Strategy  string `gorm:"uniqueIndex:symbol_strategy_idx"`
	Policy    string `gorm:"index"`
	Detection string

	AlertPrice   decimal.Decimal
	TargetPrice  decimal.Decimal
	InitialPrice decimal.Decimal

	Enabled bool   `gorm:"index"`
	Status  string `gorm:"index"`

	// crossing policy markers
	LastNotifiedAlertPrice  decimal.Decimal
	LastNotifiedTargetPrice decimal.Decimal
	PreAlertNotified        PriceList `gorm:"serializer:json"`
	PreTargetNotified       PriceList `gorm:"serializer:json"`

	// cooldown policy markers
	AlertTriggered    bool
	AlertTriggeredAt  time.Time
	TargetTriggeredAt time.Time
	CooldownSec       int64

	Version   int64 `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	StatusOpen           = "Open"
	StatusAlertTriggered = "AlertTriggered"
	StatusClosed         = "Closed"
)

const (
	PolicyCrossing = "crossing"
	PolicyCooldown = "cooldown"
)

const (
	DetectionManual      = "manual"
	DetectionMomentum    = "momentum"
	DetectionLastBullish = "bullish"
)

const DefaultCooldownSec = 600

// PriceList records exact prices that already produced a proximity
// notification. Dedup is by exact value, not by band.
type PriceList []string

func (l PriceList) Contains(price decimal.Decimal) bool {
	for _, p := range l {
		if d, err := decimal.NewFromString(p); err == nil && d.Equal(price) {
			return true
		}
	}
	return false
}

func (l PriceList) Append(price decimal.Decimal) PriceList {
	return append(l, price.String())
}

func (e *Entry) Cooldown() time.Duration {
	return time.Duration(e.CooldownSec) * time.Second
}

// Closed entries are terminal for target evaluation.
func (e *Entry) IsClosed() bool {
	return e.Status == StatusClosed
}
