package dto

import "github.com/shopspring/decimal"

// ─── Client price submission ─────────────────────────────────────────────────

// ClientPriceEntry is one changed (rate, vehicle) cell. Clients send only the
// cells they actually modified — unmodified keys are never touched.
// Wire names keep the legacy ratePtr/vehiclePtr contract.
type ClientPriceEntry struct {
	RateID    string          `json:"ratePtr"    validate:"required,uuid"`
	VehicleID string          `json:"vehiclePtr" validate:"required,uuid"`
	Precio    decimal.Decimal `json:"precio"     validate:"min=0"`
	// BasePrice is the base price observed by the client when the override was
	// authored. Defaults to 0 when absent.
	BasePrice decimal.Decimal `json:"basePrice"`
}

// SubmitClientPricesRequest is the body of POST /v1/services/client-prices and
// POST /v1/tours/client-prices. Exactly one of ServiceID/TourID is set,
// matching the endpoint used.
type SubmitClientPricesRequest struct {
	ClientID  string             `json:"clientId"  validate:"required"`
	ServiceID *string            `json:"serviceId" validate:"omitempty,uuid"`
	TourID    *string            `json:"tourId"    validate:"omitempty,uuid"`
	Prices    []ClientPriceEntry `json:"prices"    validate:"required,min=1,dive"`
}

// ─── Price matrix ────────────────────────────────────────────────────────────

// PriceMatrixCell is one (rate, vehicle) cell of the pricing matrix for an
// item and client. Cells present only as overrides carry basePrice = 0 and
// isClientPrice = true.
type PriceMatrixCell struct {
	RateID        string          `json:"rateId"`
	VehicleID     string          `json:"vehicleId"`
	Price         decimal.Decimal `json:"price"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	Currency      string          `json:"currency"`
	IsClientPrice bool            `json:"isClientPrice"`
}

type PriceMatrixResponse struct {
	ItemType string            `json:"itemType"`
	ItemID   string            `json:"itemId"`
	ClientID string            `json:"clientId"`
	Cells    []PriceMatrixCell `json:"cells"`
}

// PriceMatrixFilter is bound from the query string of GET /v1/client-prices/matrix.
type PriceMatrixFilter struct {
	ClientID string `form:"clientId" validate:"required"`
	ItemType string `form:"itemType" validate:"required,oneof=SERVICES TOUR"`
	ItemID   string `form:"itemId"   validate:"required,uuid"`
}
