package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item types a price row can belong to.
const (
	ItemTypeServices = "SERVICES"
	ItemTypeTour     = "TOUR"
)

// RatePrice is the base unit price for a (service, rate, vehicle type) key.
// At most one active row exists per key.
type RatePrice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ServiceID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_rate_price_key"`
	RateID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_rate_price_key"`
	VehicleTypeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_rate_price_key"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Active        bool            `gorm:"not null;default:true"`
	Exists        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	VehicleType VehicleType `gorm:"foreignKey:VehicleTypeID"`
}

// TourPrice is the base unit price for a (tour, rate, vehicle type) key.
type TourPrice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TourID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_tour_price_key"`
	RateID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_tour_price_key"`
	VehicleTypeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_tour_price_key"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Active        bool            `gorm:"not null;default:true"`
	Exists        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	VehicleType VehicleType `gorm:"foreignKey:VehicleTypeID"`
}

// ClientPrice is a per-client override of a base price, versioned by ValidUntil.
// Rows are append-only from a history viewpoint: an edit terminates the prior
// row (sets valid_until) and inserts a new one with valid_until = NULL. For any
// key at most one row has valid_until = NULL — the *current* override. History
// rows are never deleted and never modified.
type ClientPrice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientRef      string          `gorm:"index:idx_client_price_key;not null"` // opaque client identifier
	ItemType       string          `gorm:"index:idx_client_price_key;not null"` // SERVICES | TOUR
	ItemID         uuid.UUID       `gorm:"type:uuid;index:idx_client_price_key;not null"`
	RateID         uuid.UUID       `gorm:"type:uuid;index:idx_client_price_key;not null"`
	VehicleTypeID  uuid.UUID       `gorm:"type:uuid;index:idx_client_price_key;not null"`
	Precio         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	BasePrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"` // base price at override creation, audit only
	Currency       string          `gorm:"not null;default:'MXN'"`     // ISO-4217
	ValidUntil     *time.Time      `gorm:"index"`                      // NULL = current row
	CreatedBy      string          `gorm:"not null"`
	LastModifiedBy string          `gorm:"not null"`
	Active         bool            `gorm:"not null;default:true"`
	Exists         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCurrent reports whether this row is the current override for its key.
func (c *ClientPrice) IsCurrent() bool { return c.ValidUntil == nil }
