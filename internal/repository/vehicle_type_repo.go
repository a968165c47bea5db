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

// VehicleTypeRepository defines data access for vehicle classes.
type VehicleTypeRepository interface {
	ListActive(ctx context.Context) ([]model.VehicleType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.VehicleType, error)
	Create(ctx context.Context, v *model.VehicleType) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type vehicleTypeRepo struct{ db *gorm.DB }

func NewVehicleTypeRepository(db *gorm.DB) VehicleTypeRepository {
	return &vehicleTypeRepo{db: db}
}

func (r *vehicleTypeRepo) ListActive(ctx context.Context) ([]model.VehicleType, error) {
	var vts []model.VehicleType
	err := r.db.WithContext(ctx).
		Where("exists = true AND active = true").
		Order("default_capacity ASC").
		Find(&vts).Error
	return vts, err
}

func (r *vehicleTypeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.VehicleType, error) {
	var vt model.VehicleType
	err := r.db.WithContext(ctx).
		Where("id = ? AND exists = true", id).
		First(&vt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("vehicle type %s: %w", id, apierror.ErrNotFound)
	}
	return &vt, err
}

// Create enforces case-insensitive code uniqueness and the capacity floor.
func (r *vehicleTypeRepo) Create(ctx context.Context, v *model.VehicleType) error {
	if v.DefaultCapacity < 1 {
		return fmt.Errorf("default_capacity debe ser >= 1: %w", apierror.ErrInvalidArgument)
	}
	if v.TrunkCapacity < 0 {
		return fmt.Errorf("trunk_capacity debe ser >= 0: %w", apierror.ErrInvalidArgument)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.VehicleType{}).
		Where("LOWER(code) = LOWER(?) AND exists = true AND active = true", v.Code).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("vehicle code %q ya existe: %w", v.Code, apierror.ErrConflict)
	}
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vehicleTypeRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.VehicleType{}).
		Where("id = ? AND exists = true", id).
		Updates(map[string]interface{}{"exists": false, "active": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("vehicle type %s: %w", id, apierror.ErrNotFound)
	}
	return nil
}
