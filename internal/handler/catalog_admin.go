package handler

import (
	"context"
	"net/http"

	"amexing/internal/apierror"
	"amexing/internal/dto"
	"amexing/internal/model"
	"amexing/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CatalogAdminHandler owns the write side of the catalog. Uniqueness
// invariants (case-insensitive rate name / vehicle code, one active service
// per origin-destination pair) are enforced by the repositories.
type CatalogAdminHandler struct {
	rates    repository.RateRepository
	vehicles repository.VehicleTypeRepository
	services repository.ServiceRepository
	tours    repository.TourRepository
	rdb      *redis.Client
}

func NewCatalogAdminHandler(
	rates repository.RateRepository,
	vehicles repository.VehicleTypeRepository,
	services repository.ServiceRepository,
	tours repository.TourRepository,
	rdb *redis.Client,
) *CatalogAdminHandler {
	return &CatalogAdminHandler{
		rates:    rates,
		vehicles: vehicles,
		services: services,
		tours:    tours,
		rdb:      rdb,
	}
}

// invalidateCatalogCache drops every server-side catalog cache entry after a
// write. Best effort: a failed invalidation only shortens cache accuracy, the
// TTL still bounds staleness.
func (h *CatalogAdminHandler) invalidateCatalogCache(ctx context.Context) {
	iter := h.rdb.Scan(ctx, 0, catalogCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := h.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Str("key", iter.Val()).Err(err).Msg("catalog cache invalidation failed")
		}
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("catalog cache scan failed")
	}
}

// CreateRate handles POST /v1/rates.
func (h *CatalogAdminHandler) CreateRate(c *gin.Context) {
	var req dto.CreateRateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	rate := &model.Rate{Name: req.Name, Color: req.Color, Active: true, Exists: true}
	if err := h.rates.Create(c.Request.Context(), rate); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())

	c.JSON(http.StatusCreated, dto.RateResponse{ID: rate.ID.String(), Name: rate.Name, Color: rate.Color})
}

// DeleteRate handles DELETE /v1/rates/:id (soft delete).
func (h *CatalogAdminHandler) DeleteRate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.rates.SoftDelete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// CreateVehicleType handles POST /v1/vehicle-types.
func (h *CatalogAdminHandler) CreateVehicleType(c *gin.Context) {
	var req dto.CreateVehicleTypeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	v := &model.VehicleType{
		Code:            req.Code,
		Name:            req.Name,
		DefaultCapacity: req.DefaultCapacity,
		TrunkCapacity:   req.TrunkCapacity,
		Active:          true,
		Exists:          true,
	}
	if err := h.vehicles.Create(c.Request.Context(), v); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())

	c.JSON(http.StatusCreated, dto.VehicleTypeResponse{
		ID:              v.ID.String(),
		Code:            v.Code,
		Name:            v.Name,
		DefaultCapacity: v.DefaultCapacity,
		TrunkCapacity:   v.TrunkCapacity,
	})
}

// DeleteVehicleType handles DELETE /v1/vehicle-types/:id.
func (h *CatalogAdminHandler) DeleteVehicleType(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.vehicles.SoftDelete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// CreateService handles POST /v1/services.
func (h *CatalogAdminHandler) CreateService(c *gin.Context) {
	var req dto.CreateServiceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	destID, err := uuid.Parse(req.DestinationPOIID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Destino invalido"))
		return
	}

	svc := &model.Service{
		DestinationPOIID: destID,
		Note:             req.Note,
		Availability:     toSchedules(req.Availability),
		Active:           true,
		Exists:           true,
	}
	if req.OriginPOIID != nil {
		originID, err := uuid.Parse(*req.OriginPOIID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Origen invalido"))
			return
		}
		svc.OriginPOIID = &originID
	}

	if err := h.services.Create(c.Request.Context(), svc); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{"id": svc.ID.String()})
}

// DeleteService handles DELETE /v1/services/:id.
func (h *CatalogAdminHandler) DeleteService(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.services.SoftDelete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// CreateTour handles POST /v1/tours.
func (h *CatalogAdminHandler) CreateTour(c *gin.Context) {
	var req dto.CreateTourRequest
	if !bindAndValidate(c, &req) {
		return
	}

	destID, err := uuid.Parse(req.DestinationPOIID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Destino invalido"))
		return
	}

	tour := &model.Tour{
		DestinationPOIID: destID,
		DurationMinutes:  req.DurationMinutes,
		Availability:     toSchedules(req.Availability),
		Active:           true,
		Exists:           true,
	}
	if err := h.tours.Create(c.Request.Context(), tour); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{"id": tour.ID.String()})
}

// DeleteTour handles DELETE /v1/tours/:id.
func (h *CatalogAdminHandler) DeleteTour(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.tours.SoftDelete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.invalidateCatalogCache(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func toSchedules(entries []dto.ScheduleEntryRequest) model.DaySchedules {
	out := make(model.DaySchedules, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.DaySchedule{
			Weekday:   e.Weekday,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
		})
	}
	return out
}
