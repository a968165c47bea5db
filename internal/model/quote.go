package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subconcept is one purchasable item inside a Day of a Quote. Prices are
// pinned at save time by the resolver; BasePrice keeps the underlying base
// for audit and IsClientPrice marks override-sourced prices.
type Subconcept struct {
	Type           string          `json:"type"` // traslado | tour | experiencia
	ItemID         string          `json:"itemId"`
	RateID         string          `json:"rateId"`
	VehicleID      string          `json:"vehicleId"`
	DestinationID  string          `json:"destinationPoiId,omitempty"` // tours only
	NumberOfPeople int             `json:"numberOfPeople"`
	Price          decimal.Decimal `json:"price"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	IsClientPrice  bool            `json:"isClientPrice"`
}

// Day is one calendar day of a quote. DayNumber is 1-based and contiguous;
// removing a day renumbers the remainder.
type Day struct {
	DayNumber   int             `json:"dayNumber"`
	DayTitle    string          `json:"dayTitle"`
	DayDate     string          `json:"dayDate"` // YYYY-MM-DD
	Subconcepts []Subconcept    `json:"subconcepts"`
	DayTotal    decimal.Decimal `json:"dayTotal"`
}

// ServiceItems is the priced body of a quote.
type ServiceItems struct {
	Days     []Day           `json:"days"`
	Subtotal decimal.Decimal `json:"subtotal"`
	IVA      decimal.Decimal `json:"iva"`
	Total    decimal.Decimal `json:"total"`
}

// Quote is a user-edited multi-day document. ServiceItems persists as JSONB.
type Quote struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientRef      *string      `gorm:"index"`
	RateID         *uuid.UUID   `gorm:"type:uuid;index"`
	NumberOfPeople int          `gorm:"not null;default:1"`
	Currency       string       `gorm:"not null;default:'MXN'"`
	ServiceItems   ServiceItems `gorm:"serializer:json"`
	Active         bool         `gorm:"not null;default:true"`
	Exists         bool         `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// QuoteRevision is an immutable snapshot of a quote taken on every save,
// persisted asynchronously by the worker pool.
type QuoteRevision struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Snapshot  json.RawMessage `gorm:"type:jsonb;not null"`
	SavedBy   string          `gorm:"not null"`
	CreatedAt time.Time
}
