package service

import (
	"context"
	"fmt"
	"testing"

	"amexing/internal/apierror"
	"amexing/internal/dto"
	"amexing/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Catalog repository stubs ─────────────────────────────────────────────────

type stubVehicleRepo struct {
	vehicles map[uuid.UUID]model.VehicleType
}

func (r *stubVehicleRepo) ListActive(_ context.Context) ([]model.VehicleType, error) {
	var out []model.VehicleType
	for _, v := range r.vehicles {
		if v.Active && v.Exists {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *stubVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.VehicleType, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle type %s: %w", id, apierror.ErrNotFound)
	}
	return &v, nil
}

func (r *stubVehicleRepo) Create(_ context.Context, v *model.VehicleType) error {
	r.vehicles[v.ID] = *v
	return nil
}

func (r *stubVehicleRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(r.vehicles, id)
	return nil
}

type stubServiceRepo struct {
	services map[uuid.UUID]model.Service
}

func (r *stubServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, fmt.Errorf("service %s: %w", id, apierror.ErrNotFound)
	}
	return &s, nil
}

func (r *stubServiceRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Service, error) {
	var out []model.Service
	for _, id := range ids {
		if s, ok := r.services[id]; ok && s.Active && s.Exists {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubServiceRepo) Create(_ context.Context, s *model.Service) error {
	r.services[s.ID] = *s
	return nil
}

func (r *stubServiceRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(r.services, id)
	return nil
}

type stubTourRepo struct {
	tours map[uuid.UUID]model.Tour
}

func (r *stubTourRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tour, error) {
	t, ok := r.tours[id]
	if !ok {
		return nil, fmt.Errorf("tour %s: %w", id, apierror.ErrNotFound)
	}
	return &t, nil
}

func (r *stubTourRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Tour, error) {
	var out []model.Tour
	for _, id := range ids {
		if t, ok := r.tours[id]; ok && t.Active && t.Exists {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *stubTourRepo) Create(_ context.Context, t *model.Tour) error {
	r.tours[t.ID] = *t
	return nil
}

func (r *stubTourRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(r.tours, id)
	return nil
}

type stubExperienceRepo struct {
	experiences []model.Experience
}

func (r *stubExperienceRepo) ListByType(_ context.Context, expType string, limit int) ([]model.Experience, error) {
	var out []model.Experience
	for _, e := range r.experiences {
		if e.Type != expType || !e.Active || !e.Exists {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubExperienceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Experience, error) {
	for _, e := range r.experiences {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("experience %s: %w", id, apierror.ErrNotFound)
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type catalogFixture struct {
	svc         CatalogService
	rates       *stubRateRepo
	vehicles    *stubVehicleRepo
	services    *stubServiceRepo
	tours       *stubTourRepo
	experiences *stubExperienceRepo
	ratePrices  *stubRatePriceRepo
	tourPrices  *stubTourPriceRepo

	rateID uuid.UUID
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		rates:       &stubRateRepo{rates: make(map[uuid.UUID]model.Rate)},
		vehicles:    &stubVehicleRepo{vehicles: make(map[uuid.UUID]model.VehicleType)},
		services:    &stubServiceRepo{services: make(map[uuid.UUID]model.Service)},
		tours:       &stubTourRepo{tours: make(map[uuid.UUID]model.Tour)},
		experiences: &stubExperienceRepo{},
		ratePrices:  &stubRatePriceRepo{},
		tourPrices:  &stubTourPriceRepo{},
		rateID:      uuid.New(),
	}
	f.rates.rates[f.rateID] = model.Rate{ID: f.rateID, Name: "Premium", Active: true, Exists: true}
	f.svc = NewCatalogService(f.rates, f.vehicles, f.services, f.tours, f.experiences, f.ratePrices, f.tourPrices)
	return f
}

func (f *catalogFixture) addVehicle(code string, capacity int) model.VehicleType {
	v := model.VehicleType{
		ID: uuid.New(), Code: code, Name: code,
		DefaultCapacity: capacity, Active: true, Exists: true,
	}
	f.vehicles.vehicles[v.ID] = v
	return v
}

func (f *catalogFixture) addService(destName string) model.Service {
	s := model.Service{
		ID:               uuid.New(),
		DestinationPOIID: uuid.New(),
		Active:           true,
		Exists:           true,
	}
	s.Destination = model.POI{ID: s.DestinationPOIID, Name: destName, ServiceType: model.POITypeCiudad}
	f.services.services[s.ID] = s
	return s
}

func (f *catalogFixture) priceService(serviceID uuid.UUID, v model.VehicleType, price string) {
	f.ratePrices.rows = append(f.ratePrices.rows, model.RatePrice{
		ID: uuid.New(), ServiceID: serviceID, RateID: f.rateID, VehicleTypeID: v.ID,
		Price: decimal.RequireFromString(price), Active: true, Exists: true,
		VehicleType: v,
	})
}

func (f *catalogFixture) addTour(destName string, availability model.DaySchedules) model.Tour {
	t := model.Tour{
		ID:               uuid.New(),
		DestinationPOIID: uuid.New(),
		DurationMinutes:  240,
		Availability:     availability,
		Active:           true,
		Exists:           true,
	}
	t.Destination = model.POI{ID: t.DestinationPOIID, Name: destName, ServiceType: model.POITypeCiudad}
	f.tours.tours[t.ID] = t
	return t
}

func (f *catalogFixture) priceTour(tourID uuid.UUID, v model.VehicleType, price string) {
	f.tourPrices.rows = append(f.tourPrices.rows, model.TourPrice{
		ID: uuid.New(), TourID: tourID, RateID: f.rateID, VehicleTypeID: v.ID,
		Price: decimal.RequireFromString(price), Active: true, Exists: true,
		VehicleType: v,
	})
}

// ── Services by rate ─────────────────────────────────────────────────────────

func TestListServicesByRateUnfiltered(t *testing.T) {
	f := newCatalogFixture()
	sedan := f.addVehicle("SEDAN", 3)
	van := f.addVehicle("VAN", 8)
	svc := f.addService("Centro Historico")
	f.priceService(svc.ID, sedan, "900.00")
	f.priceService(svc.ID, van, "1500.00")

	// numberOfPeople = 0 means no capacity filter
	out, err := f.svc.ListServicesByRate(context.Background(), f.rateID, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].AdmissibleVehicles, 2)
}

func TestListServicesByRateCapacityBoundary(t *testing.T) {
	f := newCatalogFixture()
	sedan := f.addVehicle("SEDAN", 3)
	exact := f.addVehicle("SUV", 4)
	van := f.addVehicle("VAN", 8)
	svc := f.addService("Centro Historico")
	f.priceService(svc.ID, sedan, "900.00")
	f.priceService(svc.ID, exact, "1100.00")
	f.priceService(svc.ID, van, "1500.00")

	out, err := f.svc.ListServicesByRate(context.Background(), f.rateID, 4)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// capacity == party size is admissible, smaller is not
	codes := make([]string, 0, len(out[0].AdmissibleVehicles))
	for _, v := range out[0].AdmissibleVehicles {
		codes = append(codes, v.Code)
	}
	assert.ElementsMatch(t, []string{"SUV", "VAN"}, codes)
}

func TestListServicesByRateDropsServiceWithoutVehicle(t *testing.T) {
	f := newCatalogFixture()
	sedan := f.addVehicle("SEDAN", 3)
	svc := f.addService("Centro Historico")
	f.priceService(svc.ID, sedan, "900.00")

	out, err := f.svc.ListServicesByRate(context.Background(), f.rateID, 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListServicesByRateUnknownRate(t *testing.T) {
	f := newCatalogFixture()
	_, err := f.svc.ListServicesByRate(context.Background(), uuid.New(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

// ── Tour destinations ────────────────────────────────────────────────────────

func TestListTourDestinationsDedupesPOIs(t *testing.T) {
	f := newCatalogFixture()
	van := f.addVehicle("VAN", 8)
	teotihuacan := f.addTour("Teotihuacan", nil)
	f.priceTour(teotihuacan.ID, van, "3000.00")
	f.priceTour(teotihuacan.ID, f.addVehicle("SPRINTER", 14), "4200.00")

	out, err := f.svc.ListTourDestinations(context.Background(), f.rateID, "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Teotihuacan", out[0].Name)
}

func TestListTourDestinationsWeekdayFilter(t *testing.T) {
	f := newCatalogFixture()
	van := f.addVehicle("VAN", 8)

	// Tuesday-only tour plus an unrestricted one.
	tuesdaysOnly := f.addTour("Xochimilco", model.DaySchedules{{Weekday: "Tue"}})
	always := f.addTour("Teotihuacan", nil)
	f.priceTour(tuesdaysOnly.ID, van, "2500.00")
	f.priceTour(always.ID, van, "3000.00")

	// 2026-09-01 is a Tuesday, 2026-09-02 a Wednesday.
	out, err := f.svc.ListTourDestinations(context.Background(), f.rateID, "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = f.svc.ListTourDestinations(context.Background(), f.rateID, "2026-09-02")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Teotihuacan", out[0].Name)
}

func TestListTourDestinationsBadDate(t *testing.T) {
	f := newCatalogFixture()
	_, err := f.svc.ListTourDestinations(context.Background(), f.rateID, "01/09/2026")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument)
}

// ── Tour vehicles ────────────────────────────────────────────────────────────

func TestListTourVehiclesCapacityAndPrice(t *testing.T) {
	f := newCatalogFixture()
	van := f.addVehicle("VAN", 8)
	sedan := f.addVehicle("SEDAN", 3)
	tour := f.addTour("Teotihuacan", nil)
	f.priceTour(tour.ID, van, "3000.00")
	f.priceTour(tour.ID, sedan, "1800.00")

	out, err := f.svc.ListTourVehicles(context.Background(), f.rateID, tour.DestinationPOIID, 6, "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "VAN", out[0].VehicleType.Code)
	assert.True(t, out[0].BasePrice.Equal(decimal.RequireFromString("3000.00")))
	assert.Equal(t, tour.ID.String(), out[0].Tour.ID)
	assert.Equal(t, "Teotihuacan", out[0].Tour.DestinationName)
}

func TestListTourVehiclesWeekdayFilter(t *testing.T) {
	f := newCatalogFixture()
	van := f.addVehicle("VAN", 8)
	tour := f.addTour("Xochimilco", model.DaySchedules{{Weekday: "Tue", StartTime: "09:00", EndTime: "14:00"}})
	f.priceTour(tour.ID, van, "2500.00")

	out, err := f.svc.ListTourVehicles(context.Background(), f.rateID, tour.DestinationPOIID, 0, "2026-09-02")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = f.svc.ListTourVehicles(context.Background(), f.rateID, tour.DestinationPOIID, 0, "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

// ── Experiences ──────────────────────────────────────────────────────────────

func TestListExperiencesTypeAndDate(t *testing.T) {
	f := newCatalogFixture()
	f.experiences.experiences = []model.Experience{
		{ID: uuid.New(), Name: "Cena Show", Type: "gastronomia", Availability: model.DaySchedules{{Weekday: "Fri"}, {Weekday: "Sat"}}, Active: true, Exists: true},
		{ID: uuid.New(), Name: "Lucha Libre", Type: "espectaculo", Active: true, Exists: true},
	}

	out, err := f.svc.ListExperiences(context.Background(), dto.ExperienceFilter{Type: "gastronomia"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Cena Show", out[0].Name)

	// 2026-09-01 is a Tuesday — the Fri/Sat show is out.
	out, err = f.svc.ListExperiences(context.Background(), dto.ExperienceFilter{Type: "gastronomia", DayDate: "2026-09-01"})
	require.NoError(t, err)
	assert.Empty(t, out)

	// The unrestricted experience survives any date.
	out, err = f.svc.ListExperiences(context.Background(), dto.ExperienceFilter{Type: "espectaculo", DayDate: "2026-09-01"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

// ── DaySchedules ─────────────────────────────────────────────────────────────

func TestDaySchedulesSortOrder(t *testing.T) {
	s := model.DaySchedules{
		{Weekday: "Sun", StartTime: "08:00"},
		{Weekday: "Mon", StartTime: "14:00"},
		{Weekday: "Mon", StartTime: "09:00"},
	}
	s.Sort()
	assert.Equal(t, "Mon", s[0].Weekday)
	assert.Equal(t, "09:00", s[0].StartTime)
	assert.Equal(t, "14:00", s[1].StartTime)
	assert.Equal(t, "Sun", s[2].Weekday)
}
