package entity

import (
	"time"
)

// Strategy is a user-extensible tag used to group entries.
type Strategy struct {
	Id        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

var DefaultStrategies = []string{"Buy", "Sell", "Hold", "V20"}
