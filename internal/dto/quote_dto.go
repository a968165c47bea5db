package dto

import "amexing/internal/model"

// QuoteResponse is returned by GET /v1/quotes/:id.
type QuoteResponse struct {
	ID             string             `json:"id"`
	ClientID       *string            `json:"clientId,omitempty"`
	RateID         *string            `json:"rateId,omitempty"`
	RateName       string             `json:"rateName,omitempty"`
	NumberOfPeople int                `json:"numberOfPeople"`
	Currency       string             `json:"currency"`
	ServiceItems   model.ServiceItems `json:"serviceItems"`
	UpdatedAt      string             `json:"updated_at"`
}

// UpdateServiceItemsRequest is the body of PUT /v1/quotes/:id/service-items.
// Totals are recomputed and prices re-pinned server-side; client totals are
// accepted only as a hint.
type UpdateServiceItemsRequest struct {
	ServiceItems model.ServiceItems `json:"serviceItems" validate:"required"`
}
