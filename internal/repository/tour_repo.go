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

// TourRepository defines data access for excursions.
type TourRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tour, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Tour, error)
	Create(ctx context.Context, t *model.Tour) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type tourRepo struct{ db *gorm.DB }

func NewTourRepository(db *gorm.DB) TourRepository { return &tourRepo{db: db} }

func (r *tourRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	var t model.Tour
	err := r.db.WithContext(ctx).
		Preload("Destination").
		Where("id = ? AND exists = true", id).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("tour %s: %w", id, apierror.ErrNotFound)
	}
	return &t, err
}

func (r *tourRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Tour, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tours []model.Tour
	err := r.db.WithContext(ctx).
		Preload("Destination").
		Where("id IN ? AND exists = true AND active = true", ids).
		Find(&tours).Error
	return tours, err
}

func (r *tourRepo) Create(ctx context.Context, t *model.Tour) error {
	if t.DurationMinutes <= 0 {
		return fmt.Errorf("duration debe ser > 0: %w", apierror.ErrInvalidArgument)
	}
	t.Availability.Sort()
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tourRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Tour{}).
		Where("id = ? AND exists = true", id).
		Updates(map[string]interface{}{"exists": false, "active": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("tour %s: %w", id, apierror.ErrNotFound)
	}
	return nil
}
