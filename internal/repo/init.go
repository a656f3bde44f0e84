package repo

import (
	"github.com/KNICEX/price-sentinel/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Entry{}, &entity.Strategy{})
}
