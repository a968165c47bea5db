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

// ExperienceRepository defines data access for bookable extras.
type ExperienceRepository interface {
	ListByType(ctx context.Context, expType string, limit int) ([]model.Experience, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Experience, error)
}

type experienceRepo struct{ db *gorm.DB }

func NewExperienceRepository(db *gorm.DB) ExperienceRepository {
	return &experienceRepo{db: db}
}

func (r *experienceRepo) ListByType(ctx context.Context, expType string, limit int) ([]model.Experience, error) {
	q := r.db.WithContext(ctx).
		Where("type = ? AND exists = true AND active = true", expType).
		Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var exps []model.Experience
	err := q.Find(&exps).Error
	return exps, err
}

func (r *experienceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Experience, error) {
	var e model.Experience
	err := r.db.WithContext(ctx).
		Where("id = ? AND exists = true", id).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("experience %s: %w", id, apierror.ErrNotFound)
	}
	return &e, err
}
