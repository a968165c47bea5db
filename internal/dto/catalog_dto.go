package dto

import "github.com/shopspring/decimal"

// ─── Query filters ───────────────────────────────────────────────────────────

// CatalogFilter is bound from the query string of the catalog list endpoints.
// NumberOfPeople = 0 means unfiltered; DayDate empty means any day.
type CatalogFilter struct {
	NumberOfPeople int    `form:"numberOfPeople,default=0" validate:"min=0"`
	DayDate        string `form:"dayDate" validate:"omitempty,datetime=2006-01-02"`
}

// ExperienceFilter is bound from the query string of GET /v1/experiences.
type ExperienceFilter struct {
	Type    string `form:"type" validate:"required"`
	DayDate string `form:"dayDate" validate:"omitempty,datetime=2006-01-02"`
	Length  int    `form:"length,default=0" validate:"min=0"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type RateResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type POIResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ServiceType string `json:"serviceType"`
}

type VehicleTypeResponse struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	DefaultCapacity int    `json:"defaultCapacity"`
	TrunkCapacity   int    `json:"trunkCapacity"`
}

type ServiceResponse struct {
	ID               string  `json:"id"`
	OriginPOIID      *string `json:"originPoiId,omitempty"`
	OriginName       *string `json:"originName,omitempty"`
	DestinationPOIID string  `json:"destinationPoiId"`
	DestinationName  string  `json:"destinationName"`
	Note             string  `json:"note,omitempty"`
}

// ServiceByRateItem pairs a service with the vehicle types admissible for the
// requested party size under the requested rate.
type ServiceByRateItem struct {
	Service            ServiceResponse       `json:"service"`
	AdmissibleVehicles []VehicleTypeResponse `json:"admissibleVehicles"`
}

type TourResponse struct {
	ID               string `json:"id"`
	DestinationPOIID string `json:"destinationPoiId"`
	DestinationName  string `json:"destinationName"`
	DurationMinutes  int    `json:"durationMinutes"`
}

// TourVehicleItem is one (tour, vehicle) combination with its base price.
type TourVehicleItem struct {
	Tour        TourResponse        `json:"tour"`
	VehicleType VehicleTypeResponse `json:"vehicleType"`
	BasePrice   decimal.Decimal     `json:"basePrice"`
}

type ExperienceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ─── Admin catalog writes ────────────────────────────────────────────────────

// ScheduleEntryRequest is one availability entry of a service or tour.
// Time windows are advisory; the weekday alone gates availability.
type ScheduleEntryRequest struct {
	Weekday   string `json:"weekday"   validate:"required,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	StartTime string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"endTime"   validate:"omitempty,datetime=15:04"`
}

type CreateRateRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

type CreateVehicleTypeRequest struct {
	Code            string `json:"code" validate:"required"`
	Name            string `json:"name" validate:"required"`
	DefaultCapacity int    `json:"defaultCapacity" validate:"required,min=1"`
	TrunkCapacity   int    `json:"trunkCapacity" validate:"min=0"`
}

type CreateServiceRequest struct {
	OriginPOIID      *string                `json:"originPoiId" validate:"omitempty,uuid"`
	DestinationPOIID string                 `json:"destinationPoiId" validate:"required,uuid"`
	Note             string                 `json:"note"`
	Availability     []ScheduleEntryRequest `json:"availability" validate:"dive"`
}

type CreateTourRequest struct {
	DestinationPOIID string                 `json:"destinationPoiId" validate:"required,uuid"`
	DurationMinutes  int                    `json:"durationMinutes" validate:"required,gt=0"`
	Availability     []ScheduleEntryRequest `json:"availability" validate:"dive"`
}
