package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"amexing/internal/apierror"
	"amexing/internal/dto"
	"amexing/internal/model"
	"amexing/internal/repository"

	"github.com/google/uuid"
)

// CatalogService exposes the filtered read operations of the catalog store.
// Every query sees only exists = true rows; lists also require active = true.
type CatalogService interface {
	ListRates(ctx context.Context) ([]dto.RateResponse, error)
	// ListServicesByRate returns services that have at least one base price for
	// the rate with a vehicle admitting the party size (0 = unfiltered).
	ListServicesByRate(ctx context.Context, rateID uuid.UUID, numberOfPeople int) ([]dto.ServiceByRateItem, error)
	// ListTourDestinations returns destination POIs reachable under the rate,
	// optionally restricted to tours available on dayDate's weekday.
	ListTourDestinations(ctx context.Context, rateID uuid.UUID, dayDate string) ([]dto.POIResponse, error)
	// ListTourVehicles returns the (tour, vehicle, base price) combinations for
	// one destination under the rate, capacity- and weekday-filtered.
	ListTourVehicles(ctx context.Context, rateID, destinationID uuid.UUID, numberOfPeople int, dayDate string) ([]dto.TourVehicleItem, error)
	ListExperiences(ctx context.Context, filter dto.ExperienceFilter) ([]dto.ExperienceResponse, error)

	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	GetTour(ctx context.Context, id uuid.UUID) (*model.Tour, error)
	GetRate(ctx context.Context, id uuid.UUID) (*model.Rate, error)
	GetVehicleType(ctx context.Context, id uuid.UUID) (*model.VehicleType, error)
}

type catalogService struct {
	rates       repository.RateRepository
	vehicles    repository.VehicleTypeRepository
	services    repository.ServiceRepository
	tours       repository.TourRepository
	experiences repository.ExperienceRepository
	ratePrices  repository.RatePriceRepository
	tourPrices  repository.TourPriceRepository
}

func NewCatalogService(
	rates repository.RateRepository,
	vehicles repository.VehicleTypeRepository,
	services repository.ServiceRepository,
	tours repository.TourRepository,
	experiences repository.ExperienceRepository,
	ratePrices repository.RatePriceRepository,
	tourPrices repository.TourPriceRepository,
) CatalogService {
	return &catalogService{
		rates:       rates,
		vehicles:    vehicles,
		services:    services,
		tours:       tours,
		experiences: experiences,
		ratePrices:  ratePrices,
		tourPrices:  tourPrices,
	}
}

// parseDayDate validates an optional YYYY-MM-DD filter.
// Returns nil when the filter is absent.
func parseDayDate(dayDate string) (*time.Time, error) {
	if dayDate == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", dayDate)
	if err != nil {
		return nil, fmt.Errorf("dayDate %q: %w", dayDate, apierror.ErrInvalidArgument)
	}
	return &t, nil
}

// admits reports whether a vehicle fits the party. A vehicle with capacity
// exactly equal to the party size is admissible; 0 people means unfiltered.
func admits(v *model.VehicleType, numberOfPeople int) bool {
	return numberOfPeople <= 0 || v.DefaultCapacity >= numberOfPeople
}

func (s *catalogService) ListRates(ctx context.Context) ([]dto.RateResponse, error) {
	rates, err := s.rates.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, dto.RateResponse{ID: r.ID.String(), Name: r.Name, Color: r.Color})
	}
	return out, nil
}

func (s *catalogService) ListServicesByRate(ctx context.Context, rateID uuid.UUID, numberOfPeople int) ([]dto.ServiceByRateItem, error) {
	if _, err := s.rates.FindByID(ctx, rateID); err != nil {
		return nil, err
	}

	prices, err := s.ratePrices.ListByRate(ctx, rateID)
	if err != nil {
		return nil, err
	}

	// Group admissible vehicles by service; a service without any admissible
	// vehicle drops out entirely.
	vehiclesByService := make(map[uuid.UUID][]model.VehicleType)
	for _, p := range prices {
		if !p.VehicleType.Active || !p.VehicleType.Exists {
			continue
		}
		if !admits(&p.VehicleType, numberOfPeople) {
			continue
		}
		vehiclesByService[p.ServiceID] = append(vehiclesByService[p.ServiceID], p.VehicleType)
	}

	ids := make([]uuid.UUID, 0, len(vehiclesByService))
	for id := range vehiclesByService {
		ids = append(ids, id)
	}
	services, err := s.services.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ServiceByRateItem, 0, len(services))
	for _, svc := range services {
		item := dto.ServiceByRateItem{Service: serviceToResponse(&svc)}
		for _, v := range vehiclesByService[svc.ID] {
			item.AdmissibleVehicles = append(item.AdmissibleVehicles, vehicleToResponse(&v))
		}
		sort.Slice(item.AdmissibleVehicles, func(i, j int) bool {
			return item.AdmissibleVehicles[i].DefaultCapacity < item.AdmissibleVehicles[j].DefaultCapacity
		})
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service.DestinationName < out[j].Service.DestinationName })
	return out, nil
}

func (s *catalogService) ListTourDestinations(ctx context.Context, rateID uuid.UUID, dayDate string) ([]dto.POIResponse, error) {
	if _, err := s.rates.FindByID(ctx, rateID); err != nil {
		return nil, err
	}
	date, err := parseDayDate(dayDate)
	if err != nil {
		return nil, err
	}

	prices, err := s.tourPrices.ListByRate(ctx, rateID)
	if err != nil {
		return nil, err
	}
	tourIDs := make([]uuid.UUID, 0, len(prices))
	seen := make(map[uuid.UUID]bool)
	for _, p := range prices {
		if !seen[p.TourID] {
			seen[p.TourID] = true
			tourIDs = append(tourIDs, p.TourID)
		}
	}

	tours, err := s.tours.FindByIDs(ctx, tourIDs)
	if err != nil {
		return nil, err
	}

	byPOI := make(map[uuid.UUID]dto.POIResponse)
	for _, t := range tours {
		if date != nil && !t.Availability.CoversDate(*date) {
			continue
		}
		byPOI[t.DestinationPOIID] = dto.POIResponse{
			ID:          t.Destination.ID.String(),
			Name:        t.Destination.Name,
			ServiceType: t.Destination.ServiceType,
		}
	}

	out := make([]dto.POIResponse, 0, len(byPOI))
	for _, poi := range byPOI {
		out = append(out, poi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *catalogService) ListTourVehicles(ctx context.Context, rateID, destinationID uuid.UUID, numberOfPeople int, dayDate string) ([]dto.TourVehicleItem, error) {
	if _, err := s.rates.FindByID(ctx, rateID); err != nil {
		return nil, err
	}
	date, err := parseDayDate(dayDate)
	if err != nil {
		return nil, err
	}

	prices, err := s.tourPrices.ListByRateAndDestination(ctx, rateID, destinationID)
	if err != nil {
		return nil, err
	}

	tourIDs := make([]uuid.UUID, 0, len(prices))
	seen := make(map[uuid.UUID]bool)
	for _, p := range prices {
		if !seen[p.TourID] {
			seen[p.TourID] = true
			tourIDs = append(tourIDs, p.TourID)
		}
	}
	tours, err := s.tours.FindByIDs(ctx, tourIDs)
	if err != nil {
		return nil, err
	}
	tourByID := make(map[uuid.UUID]*model.Tour, len(tours))
	for i := range tours {
		tourByID[tours[i].ID] = &tours[i]
	}

	out := make([]dto.TourVehicleItem, 0, len(prices))
	for _, p := range prices {
		tour, ok := tourByID[p.TourID]
		if !ok {
			continue
		}
		if date != nil && !tour.Availability.CoversDate(*date) {
			continue
		}
		if !p.VehicleType.Active || !p.VehicleType.Exists || !admits(&p.VehicleType, numberOfPeople) {
			continue
		}
		out = append(out, dto.TourVehicleItem{
			Tour: dto.TourResponse{
				ID:               tour.ID.String(),
				DestinationPOIID: tour.DestinationPOIID.String(),
				DestinationName:  tour.Destination.Name,
				DurationMinutes:  tour.DurationMinutes,
			},
			VehicleType: vehicleToResponse(&p.VehicleType),
			BasePrice:   p.Price,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tour.ID != out[j].Tour.ID {
			return out[i].Tour.ID < out[j].Tour.ID
		}
		return out[i].VehicleType.DefaultCapacity < out[j].VehicleType.DefaultCapacity
	})
	return out, nil
}

func (s *catalogService) ListExperiences(ctx context.Context, filter dto.ExperienceFilter) ([]dto.ExperienceResponse, error) {
	date, err := parseDayDate(filter.DayDate)
	if err != nil {
		return nil, err
	}
	exps, err := s.experiences.ListByType(ctx, filter.Type, filter.Length)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExperienceResponse, 0, len(exps))
	for _, e := range exps {
		if date != nil && !e.Availability.CoversDate(*date) {
			continue
		}
		out = append(out, dto.ExperienceResponse{ID: e.ID.String(), Name: e.Name, Type: e.Type})
	}
	return out, nil
}

func (s *catalogService) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return s.services.FindByID(ctx, id)
}

func (s *catalogService) GetTour(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	return s.tours.FindByID(ctx, id)
}

func (s *catalogService) GetRate(ctx context.Context, id uuid.UUID) (*model.Rate, error) {
	return s.rates.FindByID(ctx, id)
}

func (s *catalogService) GetVehicleType(ctx context.Context, id uuid.UUID) (*model.VehicleType, error) {
	return s.vehicles.FindByID(ctx, id)
}

// ── DTO mapping ──────────────────────────────────────────────────────────────

func serviceToResponse(svc *model.Service) dto.ServiceResponse {
	resp := dto.ServiceResponse{
		ID:               svc.ID.String(),
		DestinationPOIID: svc.DestinationPOIID.String(),
		DestinationName:  svc.Destination.Name,
		Note:             svc.Note,
	}
	if svc.OriginPOIID != nil {
		id := svc.OriginPOIID.String()
		resp.OriginPOIID = &id
		if svc.Origin != nil {
			resp.OriginName = &svc.Origin.Name
		}
	}
	return resp
}

func vehicleToResponse(v *model.VehicleType) dto.VehicleTypeResponse {
	return dto.VehicleTypeResponse{
		ID:              v.ID.String(),
		Code:            v.Code,
		Name:            v.Name,
		DefaultCapacity: v.DefaultCapacity,
		TrunkCapacity:   v.TrunkCapacity,
	}
}
