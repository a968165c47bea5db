package repository

import (
	"context"
	"errors"

	"amexing/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RatePriceRepository defines data access for base service prices.
type RatePriceRepository interface {
	// FindByKey returns the active base price for (service, rate, vehicle),
	// or nil when no such row exists.
	FindByKey(ctx context.Context, serviceID, rateID, vehicleTypeID uuid.UUID) (*model.RatePrice, error)
	// ListByRate returns all active base prices for a rate, vehicle preloaded.
	ListByRate(ctx context.Context, rateID uuid.UUID) ([]model.RatePrice, error)
	// ListByService returns all active base prices for a service.
	ListByService(ctx context.Context, serviceID uuid.UUID) ([]model.RatePrice, error)
	Create(ctx context.Context, p *model.RatePrice) error
}

type ratePriceRepo struct{ db *gorm.DB }

func NewRatePriceRepository(db *gorm.DB) RatePriceRepository { return &ratePriceRepo{db: db} }

func (r *ratePriceRepo) FindByKey(ctx context.Context, serviceID, rateID, vehicleTypeID uuid.UUID) (*model.RatePrice, error) {
	var p model.RatePrice
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND rate_id = ? AND vehicle_type_id = ? AND exists = true AND active = true",
			serviceID, rateID, vehicleTypeID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ratePriceRepo) ListByRate(ctx context.Context, rateID uuid.UUID) ([]model.RatePrice, error) {
	var rows []model.RatePrice
	err := r.db.WithContext(ctx).
		Preload("VehicleType").
		Where("rate_id = ? AND exists = true AND active = true", rateID).
		Find(&rows).Error
	return rows, err
}

func (r *ratePriceRepo) ListByService(ctx context.Context, serviceID uuid.UUID) ([]model.RatePrice, error) {
	var rows []model.RatePrice
	err := r.db.WithContext(ctx).
		Preload("VehicleType").
		Where("service_id = ? AND exists = true AND active = true", serviceID).
		Find(&rows).Error
	return rows, err
}

func (r *ratePriceRepo) Create(ctx context.Context, p *model.RatePrice) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// TourPriceRepository defines data access for base tour prices.
type TourPriceRepository interface {
	FindByKey(ctx context.Context, tourID, rateID, vehicleTypeID uuid.UUID) (*model.TourPrice, error)
	ListByRate(ctx context.Context, rateID uuid.UUID) ([]model.TourPrice, error)
	// ListByRateAndDestination joins tours to filter prices to one destination.
	ListByRateAndDestination(ctx context.Context, rateID, destinationPOIID uuid.UUID) ([]model.TourPrice, error)
	ListByTour(ctx context.Context, tourID uuid.UUID) ([]model.TourPrice, error)
	Create(ctx context.Context, p *model.TourPrice) error
}

type tourPriceRepo struct{ db *gorm.DB }

func NewTourPriceRepository(db *gorm.DB) TourPriceRepository { return &tourPriceRepo{db: db} }

func (r *tourPriceRepo) FindByKey(ctx context.Context, tourID, rateID, vehicleTypeID uuid.UUID) (*model.TourPrice, error) {
	var p model.TourPrice
	err := r.db.WithContext(ctx).
		Where("tour_id = ? AND rate_id = ? AND vehicle_type_id = ? AND exists = true AND active = true",
			tourID, rateID, vehicleTypeID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *tourPriceRepo) ListByRate(ctx context.Context, rateID uuid.UUID) ([]model.TourPrice, error) {
	var rows []model.TourPrice
	err := r.db.WithContext(ctx).
		Preload("VehicleType").
		Where("rate_id = ? AND exists = true AND active = true", rateID).
		Find(&rows).Error
	return rows, err
}

func (r *tourPriceRepo) ListByRateAndDestination(ctx context.Context, rateID, destinationPOIID uuid.UUID) ([]model.TourPrice, error) {
	var rows []model.TourPrice
	err := r.db.WithContext(ctx).
		Preload("VehicleType").
		Joins("JOIN tours ON tours.id = tour_prices.tour_id").
		Where("tour_prices.rate_id = ? AND tour_prices.exists = true AND tour_prices.active = true", rateID).
		Where("tours.destination_poi_id = ? AND tours.exists = true AND tours.active = true", destinationPOIID).
		Find(&rows).Error
	return rows, err
}

func (r *tourPriceRepo) ListByTour(ctx context.Context, tourID uuid.UUID) ([]model.TourPrice, error) {
	var rows []model.TourPrice
	err := r.db.WithContext(ctx).
		Preload("VehicleType").
		Where("tour_id = ? AND exists = true AND active = true", tourID).
		Find(&rows).Error
	return rows, err
}

func (r *tourPriceRepo) Create(ctx context.Context, p *model.TourPrice) error {
	return r.db.WithContext(ctx).Create(p).Error
}
