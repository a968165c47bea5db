package repository

import (
	"context"
	"errors"
	"fmt"

	"amexing/internal/apierror"
	"amexing/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RateRepository defines data access for pricing tiers.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type RateRepository interface {
	ListActive(ctx context.Context) ([]model.Rate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Rate, error)
	Create(ctx context.Context, r *model.Rate) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type rateRepo struct{ db *gorm.DB }

func NewRateRepository(db *gorm.DB) RateRepository { return &rateRepo{db: db} }

func (r *rateRepo) ListActive(ctx context.Context) ([]model.Rate, error) {
	var rates []model.Rate
	err := r.db.WithContext(ctx).
		Where("exists = true AND active = true").
		Order("name ASC").
		Find(&rates).Error
	return rates, err
}

func (r *rateRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Rate, error) {
	var rate model.Rate
	err := r.db.WithContext(ctx).
		Where("id = ? AND exists = true", id).
		First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("rate %s: %w", id, apierror.ErrNotFound)
	}
	return &rate, err
}

// Create enforces the case-insensitive name uniqueness invariant across
// active rates before inserting.
func (r *rateRepo) Create(ctx context.Context, rate *model.Rate) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Rate{}).
		Where("LOWER(name) = LOWER(?) AND exists = true AND active = true", rate.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("rate %q ya existe: %w", rate.Name, apierror.ErrConflict)
	}
	return r.db.WithContext(ctx).Create(rate).Error
}

// SoftDelete flips exists and active off. Deletion is never physical.
func (r *rateRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Rate{}).
		Where("id = ? AND exists = true", id).
		Updates(map[string]interface{}{"exists": false, "active": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("rate %s: %w", id, apierror.ErrNotFound)
	}
	return nil
}
