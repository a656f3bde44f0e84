package repo

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicateStrategy = errors.New("strategy already exists")

type StrategyRepo interface {
	Create(ctx context.Context, name string) (string, error)
	FindAll(ctx context.Context) ([]entity.Strategy, error)
	// SeedDefaults inserts the built-in strategy tags, ignoring ones
	// the user already created.
	SeedDefaults(ctx context.Context) error
}

type strategyRepo struct {
	db *gorm.DB
}

func NewStrategyRepo(db *gorm.DB) StrategyRepo {
	return &strategyRepo{
		db: db,
	}
}

func (r *strategyRepo) Create(ctx context.Context, name string) (string, error) {
	strategy := entity.Strategy{
		Id:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Create(&strategy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateStrategy
		}
		return "", err
	}
	return strategy.Id, nil
}

func (r *strategyRepo) FindAll(ctx context.Context) ([]entity.Strategy, error) {
	var strategies []entity.Strategy
	err := r.db.WithContext(ctx).Order("created_at").Find(&strategies).Error
	if err != nil {
		return nil, err
	}
	return strategies, nil
}

func (r *strategyRepo) SeedDefaults(ctx context.Context) error {
	for _, name := range entity.DefaultStrategies {
		strategy := entity.Strategy{
			Id:        uuid.NewString(),
			Name:      name,
			CreatedAt: time.Now(),
		}
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&strategy).Error
		if err != nil {
			return err
		}
	}
	return nil
}
