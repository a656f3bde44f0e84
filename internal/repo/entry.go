package repo

import (
	"context"
	"errors"

	"github.com/KNICEX/price-sentinel/internal/entity"
	"gorm.io/gorm"
)

var (
	ErrDuplicateEntry  = errors.New("entry already exists for symbol and strategy")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrVersionConflict = errors.New("entry was modified concurrently")
)

type EntryRepo interface {
	Create(ctx context.Context, entry entity.Entry) (string, error)
	FindById(ctx context.Context, id string) (entity.Entry, error)
	FindAll(ctx context.Context) ([]entity.Entry, error)
	FindEnabled(ctx context.Context) ([]entity.Entry, error)
	// Save persists the full row iff the stored version still matches
	// entry.Version, then bumps the version.
	Save(ctx context.Context, entry entity.Entry) error
	UpdateThresholds(ctx context.Context, id string, alert, target, strategy string) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
}

type entryRepo struct {
	db *gorm.DB
}

func NewEntryRepo(db *gorm.DB) EntryRepo {
	return &entryRepo{
		db: db,
	}
}

func (r *entryRepo) Create(ctx context.Context, entry entity.Entry) (string, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Entry{}).
		Where("symbol = ? AND strategy = ?", entry.Symbol, entry.Strategy).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrDuplicateEntry
	}

	if err = r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateEntry
		}
		return "", err
	}
	return entry.Id, nil
}

func (r *entryRepo) FindById(ctx context.Context, id string) (entity.Entry, error) {
	var entry entity.Entry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Entry{}, ErrEntryNotFound
		}
		return entity.Entry{}, err
	}
	return entry, nil
}

func (r *entryRepo) FindAll(ctx context.Context) ([]entity.Entry, error) {
	var entries []entity.Entry
	err := r.db.WithContext(ctx).Order("created_at").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepo) FindEnabled(ctx context.Context) ([]entity.Entry, error) {
	var entries []entity.Entry
	err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("created_at").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepo) Save(ctx context.Context, entry entity.Entry) error {
	version := entry.Version
	entry.Version = version + 1
	res := r.db.WithContext(ctx).Model(&entity.Entry{}).
		Where("id = ? AND version = ?", entry.Id, version).
		Select("*").Omit("created_at").Updates(&entry)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// either gone or touched by a concurrent writer
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Entry{}).Where("id = ?", entry.Id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrEntryNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *entryRepo) UpdateThresholds(ctx context.Context, id string, alert, target, strategy string) error {
	res := r.db.WithContext(ctx).Model(&entity.Entry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"alert_price":  alert,
			"target_price": target,
			"strategy":     strategy,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *entryRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	res := r.db.WithContext(ctx).Model(&entity.Entry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"enabled": enabled,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *entryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Entry{}).Error
}
