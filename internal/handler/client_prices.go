package handler

import (
	"net/http"

	"amexing/internal/apierror"
	"amexing/internal/dto"
	"amexing/internal/middleware"
	"amexing/internal/model"
	"amexing/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClientPricesHandler serves the override layer: versioned per-client price
// submissions and the composed pricing matrix.
type ClientPricesHandler struct {
	pricing service.PricingService
}

func NewClientPricesHandler(pricing service.PricingService) *ClientPricesHandler {
	return &ClientPricesHandler{pricing: pricing}
}

// SubmitServicePrices handles POST /v1/services/client-prices.
func (h *ClientPricesHandler) SubmitServicePrices(c *gin.Context) {
	var req dto.SubmitClientPricesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.ServiceID == nil {
		c.JSON(http.StatusBadRequest, apierror.New("serviceId requerido"))
		return
	}

	actor := actorFrom(c)
	if err := h.pricing.SubmitClientPrices(c.Request.Context(), actor, model.ItemTypeServices, req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitTourPrices handles POST /v1/tours/client-prices.
func (h *ClientPricesHandler) SubmitTourPrices(c *gin.Context) {
	var req dto.SubmitClientPricesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.TourID == nil {
		c.JSON(http.StatusBadRequest, apierror.New("tourId requerido"))
		return
	}

	actor := actorFrom(c)
	if err := h.pricing.SubmitClientPrices(c.Request.Context(), actor, model.ItemTypeTour, req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Matrix handles GET /v1/client-prices/matrix.
func (h *ClientPricesHandler) Matrix(c *gin.Context) {
	var filter dto.PriceMatrixFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}

	itemID, err := uuid.Parse(filter.ItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("itemId invalido"))
		return
	}

	matrix, err := h.pricing.PriceMatrix(c.Request.Context(), filter.ClientID, filter.ItemType, itemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

// actorFrom resolves the audit identity from the JWT claims.
func actorFrom(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil {
		return claims.Username
	}
	return "desconocido"
}
