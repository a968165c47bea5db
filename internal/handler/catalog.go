package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"amexing/internal/dto"
	"amexing/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// catalogCacheTTL guards the server-side read-through cache on the hottest
// lookups. Catalog writes invalidate the whole prefix.
const catalogCacheTTL = 4 * time.Hour

const catalogCachePrefix = "catalog:"

// CatalogHandler serves the read side of the catalog: rates, services, tour
// destinations and vehicles, experiences.
type CatalogHandler struct {
	svc service.CatalogService
	rdb *redis.Client
}

func NewCatalogHandler(svc service.CatalogService, rdb *redis.Client) *CatalogHandler {
	return &CatalogHandler{svc: svc, rdb: rdb}
}

// ListRates handles GET /v1/rates/active.
func (h *CatalogHandler) ListRates(c *gin.Context) {
	ctx := c.Request.Context()
	cacheKey := catalogCachePrefix + "rates_active"

	// Try Redis first — rates are the hottest catalog lookup.
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp []dto.RateResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	rates, err := h.svc.ListRates(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(rates); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, catalogCacheTTL).Err()
	}

	c.JSON(http.StatusOK, rates)
}

// ListServicesByRate handles GET /v1/services/by-rate/:rateId.
func (h *CatalogHandler) ListServicesByRate(c *gin.Context) {
	rateID, ok := pathUUID(c, "rateId")
	if !ok {
		return
	}
	var filter dto.CatalogFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}

	items, err := h.svc.ListServicesByRate(c.Request.Context(), rateID, filter.NumberOfPeople)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListTourDestinations handles GET /v1/tours/destinations/by-rate/:rateId.
func (h *CatalogHandler) ListTourDestinations(c *gin.Context) {
	rateID, ok := pathUUID(c, "rateId")
	if !ok {
		return
	}
	var filter dto.CatalogFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}

	ctx := c.Request.Context()
	day := filter.DayDate
	if day == "" {
		day = "all"
	}
	cacheKey := catalogCachePrefix + "tour_destinations:" + rateID.String() + ":" + day

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp []dto.POIResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	pois, err := h.svc.ListTourDestinations(ctx, rateID, filter.DayDate)
	if err != nil {
		fail(c, err)
		return
	}

	if b, jsonErr := json.Marshal(pois); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, catalogCacheTTL).Err()
	}

	c.JSON(http.StatusOK, pois)
}

// ListTourVehicles handles GET /v1/tours/vehicles/by-rate-destination/:rateId/:destId.
func (h *CatalogHandler) ListTourVehicles(c *gin.Context) {
	rateID, ok := pathUUID(c, "rateId")
	if !ok {
		return
	}
	destID, ok := pathUUID(c, "destId")
	if !ok {
		return
	}
	var filter dto.CatalogFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}

	items, err := h.svc.ListTourVehicles(c.Request.Context(), rateID, destID, filter.NumberOfPeople, filter.DayDate)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListExperiences handles GET /v1/experiences.
func (h *CatalogHandler) ListExperiences(c *gin.Context) {
	var filter dto.ExperienceFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}

	items, err := h.svc.ListExperiences(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
