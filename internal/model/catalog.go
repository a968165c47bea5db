package model

import (
	"time"

	"github.com/google/uuid"
)

// Service types a POI can participate in.
const (
	POITypeAeropuerto   = "Aeropuerto"
	POITypePuntoAPunto  = "Punto a Punto"
	POITypeLocal        = "Local"
	POITypeCiudad       = "Ciudad"
)

// POI is a named place services and tours reference.
type POI struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	ServiceType string    `gorm:"not null"` // Aeropuerto | Punto a Punto | Local | Ciudad
	Active      bool      `gorm:"not null;default:true"`
	Exists      bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Rate is a pricing tier (Premium, Economico, Green Class, ...).
// Name is unique case-insensitive across active rates.
type Rate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Color     string
	Active    bool `gorm:"not null;default:true"`
	Exists    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VehicleType is a class of vehicle. Code is unique case-insensitive.
// A vehicle type is admissible for a party of N when DefaultCapacity >= N.
type VehicleType struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code            string    `gorm:"not null"`
	Name            string    `gorm:"not null"`
	DefaultCapacity int       `gorm:"not null"` // >= 1
	TrunkCapacity   int       `gorm:"not null;default:0"`
	Active          bool      `gorm:"not null;default:true"`
	Exists          bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Service is a rate-agnostic route. OriginPOI is nullable (airport-return and
// local services have no fixed origin). At most one active Service exists per
// (origin, destination) pair, NULL origin being its own key class.
type Service struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OriginPOIID      *uuid.UUID `gorm:"type:uuid;index"`
	DestinationPOIID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Note             string
	Availability     DaySchedules `gorm:"serializer:json"`
	Active           bool         `gorm:"not null;default:true"`
	Exists           bool         `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Origin      *POI `gorm:"foreignKey:OriginPOIID"`
	Destination POI  `gorm:"foreignKey:DestinationPOIID"`
}

// Tour is a half/whole-day excursion to a destination POI.
type Tour struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DestinationPOIID uuid.UUID    `gorm:"type:uuid;not null;index"`
	DurationMinutes  int          `gorm:"not null"` // > 0
	Availability     DaySchedules `gorm:"serializer:json"`
	Active           bool         `gorm:"not null;default:true"`
	Exists           bool         `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Destination POI `gorm:"foreignKey:DestinationPOIID"`
}

// Experience is a bookable extra (shows, dinners, etc.) filtered by type and
// optionally by day-of-week availability.
type Experience struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string       `gorm:"not null"`
	Type         string       `gorm:"index;not null"`
	Availability DaySchedules `gorm:"serializer:json"`
	Active       bool         `gorm:"not null;default:true"`
	Exists       bool         `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
