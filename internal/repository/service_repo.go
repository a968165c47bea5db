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

// ServiceRepository defines data access for rate-agnostic routes.
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Service, error)
	Create(ctx context.Context, s *model.Service) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type serviceRepo struct{ db *gorm.DB }

func NewServiceRepository(db *gorm.DB) ServiceRepository { return &serviceRepo{db: db} }

func (r *serviceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	err := r.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").
		Where("id = ? AND exists = true", id).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("service %s: %w", id, apierror.ErrNotFound)
	}
	return &s, err
}

func (r *serviceRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var services []model.Service
	err := r.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").
		Where("id IN ? AND exists = true AND active = true", ids).
		Find(&services).Error
	return services, err
}

// Create enforces the (origin, destination) uniqueness invariant across active
// services, NULL origin being its own key class. Availability is sorted
// chronologically before persisting.
func (r *serviceRepo) Create(ctx context.Context, s *model.Service) error {
	q := r.db.WithContext(ctx).Model(&model.Service{}).
		Where("destination_poi_id = ? AND exists = true AND active = true", s.DestinationPOIID)
	if s.OriginPOIID == nil {
		q = q.Where("origin_poi_id IS NULL")
	} else {
		q = q.Where("origin_poi_id = ?", *s.OriginPOIID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("ya existe un servicio activo para ese par origen/destino: %w", apierror.ErrConflict)
	}
	s.Availability.Sort()
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *serviceRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Service{}).
		Where("id = ? AND exists = true", id).
		Updates(map[string]interface{}{"exists": false, "active": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("service %s: %w", id, apierror.ErrNotFound)
	}
	return nil
}
