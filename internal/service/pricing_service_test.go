package service

import (
	"context"
	"testing"
	"time"

	"amexing/internal/apierror"
	"amexing/internal/dto"
	"amexing/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory price repository stubs ─────────────────────────────────────────

type stubRatePriceRepo struct {
	rows []model.RatePrice
}

func (r *stubRatePriceRepo) FindByKey(_ context.Context, serviceID, rateID, vehicleTypeID uuid.UUID) (*model.RatePrice, error) {
	for i := range r.rows {
		row := &r.rows[i]
		if row.ServiceID == serviceID && row.RateID == rateID && row.VehicleTypeID == vehicleTypeID {
			return row, nil
		}
	}
	return nil, nil
}

func (r *stubRatePriceRepo) ListByRate(_ context.Context, rateID uuid.UUID) ([]model.RatePrice, error) {
	var out []model.RatePrice
	for _, row := range r.rows {
		if row.RateID == rateID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubRatePriceRepo) ListByService(_ context.Context, serviceID uuid.UUID) ([]model.RatePrice, error) {
	var out []model.RatePrice
	for _, row := range r.rows {
		if row.ServiceID == serviceID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubRatePriceRepo) Create(_ context.Context, p *model.RatePrice) error {
	r.rows = append(r.rows, *p)
	return nil
}

type stubTourPriceRepo struct {
	rows []model.TourPrice
}

func (r *stubTourPriceRepo) FindByKey(_ context.Context, tourID, rateID, vehicleTypeID uuid.UUID) (*model.TourPrice, error) {
	for i := range r.rows {
		row := &r.rows[i]
		if row.TourID == tourID && row.RateID == rateID && row.VehicleTypeID == vehicleTypeID {
			return row, nil
		}
	}
	return nil, nil
}

func (r *stubTourPriceRepo) ListByRate(_ context.Context, rateID uuid.UUID) ([]model.TourPrice, error) {
	var out []model.TourPrice
	for _, row := range r.rows {
		if row.RateID == rateID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubTourPriceRepo) ListByRateAndDestination(_ context.Context, rateID, _ uuid.UUID) ([]model.TourPrice, error) {
	return r.ListByRate(context.Background(), rateID)
}

func (r *stubTourPriceRepo) ListByTour(_ context.Context, tourID uuid.UUID) ([]model.TourPrice, error) {
	var out []model.TourPrice
	for _, row := range r.rows {
		if row.TourID == tourID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubTourPriceRepo) Create(_ context.Context, p *model.TourPrice) error {
	r.rows = append(r.rows, *p)
	return nil
}

// stubClientPriceRepo mimics the versioning table: ApplyOverrides terminates
// the current row per key and inserts the new one, all-or-nothing.
type stubClientPriceRepo struct {
	rows       []model.ClientPrice
	failInsert bool
}

func (r *stubClientPriceRepo) DB() *gorm.DB { return nil }

func sameKey(a *model.ClientPrice, clientRef, itemType string, itemID, rateID, vehicleTypeID uuid.UUID) bool {
	return a.ClientRef == clientRef && a.ItemType == itemType &&
		a.ItemID == itemID && a.RateID == rateID && a.VehicleTypeID == vehicleTypeID
}

func (r *stubClientPriceRepo) FindCurrent(_ context.Context, clientRef, itemType string, itemID, rateID, vehicleTypeID uuid.UUID, asOf *time.Time) ([]model.ClientPrice, error) {
	var out []model.ClientPrice
	if asOf == nil {
		for _, row := range r.rows {
			if sameKey(&row, clientRef, itemType, itemID, rateID, vehicleTypeID) && row.Exists && row.ValidUntil == nil {
				out = append(out, row)
			}
		}
		return out, nil
	}

	// Historical: the earliest row terminated after asOf, NULL as infinity.
	var effective *model.ClientPrice
	for i := range r.rows {
		row := &r.rows[i]
		if !sameKey(row, clientRef, itemType, itemID, rateID, vehicleTypeID) || !row.Exists {
			continue
		}
		if row.ValidUntil != nil && !row.ValidUntil.After(*asOf) {
			continue
		}
		if effective == nil ||
			(row.ValidUntil != nil && (effective.ValidUntil == nil || row.ValidUntil.Before(*effective.ValidUntil))) {
			effective = row
		}
	}
	if effective != nil {
		out = append(out, *effective)
	}
	return out, nil
}

func (r *stubClientPriceRepo) ListCurrentByItem(_ context.Context, clientRef, itemType string, itemID uuid.UUID) ([]model.ClientPrice, error) {
	var out []model.ClientPrice
	for _, row := range r.rows {
		if row.ClientRef == clientRef && row.ItemType == itemType && row.ItemID == itemID &&
			row.Exists && row.ValidUntil == nil {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubClientPriceRepo) ListHistory(_ context.Context, clientRef, itemType string, itemID, rateID, vehicleTypeID uuid.UUID) ([]model.ClientPrice, error) {
	var out []model.ClientPrice
	for _, row := range r.rows {
		if sameKey(&row, clientRef, itemType, itemID, rateID, vehicleTypeID) && row.ValidUntil != nil {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubClientPriceRepo) ApplyOverrides(_ context.Context, actor string, rows []model.ClientPrice) error {
	// Snapshot for rollback — the real repo runs inside one transaction.
	backup := make([]model.ClientPrice, len(r.rows))
	copy(backup, r.rows)

	now := time.Now().UTC()
	for _, newRow := range rows {
		for i := range r.rows {
			existing := &r.rows[i]
			if sameKey(existing, newRow.ClientRef, newRow.ItemType, newRow.ItemID, newRow.RateID, newRow.VehicleTypeID) &&
				existing.Exists && existing.ValidUntil == nil {
				until := now
				existing.ValidUntil = &until
				existing.LastModifiedBy = actor
			}
		}
		if r.failInsert {
			r.rows = backup
			return gorm.ErrInvalidTransaction
		}
		newRow.ID = uuid.New()
		newRow.ValidUntil = nil
		newRow.CreatedBy = actor
		newRow.LastModifiedBy = actor
		newRow.Active = true
		newRow.Exists = true
		r.rows = append(r.rows, newRow)
	}
	return nil
}

// ── Fixtures ─────────────────────────────────────────────────────────────────

type pricingFixture struct {
	svc          PricingService
	ratePrices   *stubRatePriceRepo
	tourPrices   *stubTourPriceRepo
	clientPrices *stubClientPriceRepo

	serviceID uuid.UUID
	rateID    uuid.UUID
	vehicleID uuid.UUID
}

func newPricingFixture() *pricingFixture {
	f := &pricingFixture{
		ratePrices:   &stubRatePriceRepo{},
		tourPrices:   &stubTourPriceRepo{},
		clientPrices: &stubClientPriceRepo{},
		serviceID:    uuid.New(),
		rateID:       uuid.New(),
		vehicleID:    uuid.New(),
	}
	f.svc = NewPricingService(f.ratePrices, f.tourPrices, f.clientPrices, "MXN")
	return f
}

func (f *pricingFixture) addBase(price string) {
	f.ratePrices.rows = append(f.ratePrices.rows, model.RatePrice{
		ID:            uuid.New(),
		ServiceID:     f.serviceID,
		RateID:        f.rateID,
		VehicleTypeID: f.vehicleID,
		Price:         decimal.RequireFromString(price),
		Active:        true,
		Exists:        true,
	})
}

func (f *pricingFixture) addOverride(clientRef, price, currency string) {
	f.clientPrices.rows = append(f.clientPrices.rows, model.ClientPrice{
		ID:            uuid.New(),
		ClientRef:     clientRef,
		ItemType:      model.ItemTypeServices,
		ItemID:        f.serviceID,
		RateID:        f.rateID,
		VehicleTypeID: f.vehicleID,
		Precio:        decimal.RequireFromString(price),
		Currency:      currency,
		Active:        true,
		Exists:        true,
	})
}

func (f *pricingFixture) resolve(clientRef *string) (*ResolvedPrice, error) {
	return f.svc.Resolve(context.Background(), ResolvePriceRequest{
		ItemType:         model.ItemTypeServices,
		ItemID:           f.serviceID,
		RateID:           f.rateID,
		VehicleTypeID:    f.vehicleID,
		ClientRef:        clientRef,
		ExpectedCurrency: "MXN",
	})
}

func strPtr(s string) *string { return &s }

// ── Resolve ──────────────────────────────────────────────────────────────────

func TestResolveOverrideBeatsBase(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")
	f.addOverride("C1", "2500.00", "MXN")

	got, err := f.resolve(strPtr("C1"))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, got.IsClientPrice())
}

func TestResolveBaseWhenNoOverride(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")
	f.addOverride("C1", "2500.00", "MXN")

	// A different client never sees C1's override.
	got, err := f.resolve(strPtr("C2"))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1800.00")))
	assert.False(t, got.IsClientPrice())
	assert.Equal(t, "MXN", got.Currency)
}

func TestResolveOverrideScopedToVehicle(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")
	f.addOverride("C1", "2500.00", "MXN")

	otherVehicle := uuid.New()
	f.ratePrices.rows = append(f.ratePrices.rows, model.RatePrice{
		ID:            uuid.New(),
		ServiceID:     f.serviceID,
		RateID:        f.rateID,
		VehicleTypeID: otherVehicle,
		Price:         decimal.RequireFromString("3200.00"),
		Active:        true,
		Exists:        true,
	})

	got, err := f.svc.Resolve(context.Background(), ResolvePriceRequest{
		ItemType:      model.ItemTypeServices,
		ItemID:        f.serviceID,
		RateID:        f.rateID,
		VehicleTypeID: otherVehicle,
		ClientRef:     strPtr("C1"),
	})
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("3200.00")))
	assert.False(t, got.IsClientPrice())
}

func TestResolveNoPrice(t *testing.T) {
	f := newPricingFixture()
	// No base row, no override: the key S77/R-Green/V-SprinterXL case.
	_, err := f.resolve(strPtr("C1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrNoPrice)
}

func TestResolveConflictOnDuplicateCurrentRows(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")
	f.addOverride("C1", "2500.00", "MXN")
	f.addOverride("C1", "2600.00", "MXN") // corrupted: two current rows

	_, err := f.resolve(strPtr("C1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrConflict)
}

func TestResolveCurrencyMismatch(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")
	f.addOverride("C1", "130.00", "USD")

	_, err := f.resolve(strPtr("C1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrCurrencyMismatch)
}

func TestResolveInvalidItemType(t *testing.T) {
	f := newPricingFixture()
	_, err := f.svc.Resolve(context.Background(), ResolvePriceRequest{ItemType: "HOTEL"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument)
}

func TestResolveHistoricalAsOf(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")

	terminated := time.Now().UTC().Add(time.Hour)
	f.clientPrices.rows = append(f.clientPrices.rows, model.ClientPrice{
		ID:            uuid.New(),
		ClientRef:     "C1",
		ItemType:      model.ItemTypeServices,
		ItemID:        f.serviceID,
		RateID:        f.rateID,
		VehicleTypeID: f.vehicleID,
		Precio:        decimal.RequireFromString("2500.00"),
		Currency:      "MXN",
		ValidUntil:    &terminated,
		Active:        true,
		Exists:        true,
	})

	asOf := time.Now().UTC()
	got, err := f.svc.Resolve(context.Background(), ResolvePriceRequest{
		ItemType:      model.ItemTypeServices,
		ItemID:        f.serviceID,
		RateID:        f.rateID,
		VehicleTypeID: f.vehicleID,
		ClientRef:     strPtr("C1"),
		AsOf:          &asOf,
	})
	require.NoError(t, err)
	// The row is still valid at asOf (valid_until > asOf).
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2500.00")))
}

func TestResolveHistoricalAsOfMultiVersionChain(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")

	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	chain := []struct {
		price      string
		validUntil *time.Time
	}{
		{"2500.00", &t1},
		{"2600.00", &t2},
		{"2700.00", nil},
	}
	for _, row := range chain {
		f.clientPrices.rows = append(f.clientPrices.rows, model.ClientPrice{
			ID:            uuid.New(),
			ClientRef:     "C1",
			ItemType:      model.ItemTypeServices,
			ItemID:        f.serviceID,
			RateID:        f.rateID,
			VehicleTypeID: f.vehicleID,
			Precio:        decimal.RequireFromString(row.price),
			Currency:      "MXN",
			ValidUntil:    row.validUntil,
			Active:        true,
			Exists:        true,
		})
	}

	resolveAt := func(asOf time.Time) (*ResolvedPrice, error) {
		return f.svc.Resolve(context.Background(), ResolvePriceRequest{
			ItemType:      model.ItemTypeServices,
			ItemID:        f.serviceID,
			RateID:        f.rateID,
			VehicleTypeID: f.vehicleID,
			ClientRef:     strPtr("C1"),
			AsOf:          &asOf,
		})
	}

	// Each instant resolves to exactly the row whose window covered it;
	// older superseded rows never pile up into a conflict.
	got, err := resolveAt(t1.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2500.00")))

	got, err = resolveAt(t1.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2600.00")))

	got, err = resolveAt(t2.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2700.00")))
	assert.True(t, got.IsClientPrice())
}

// ── Versioning write protocol ────────────────────────────────────────────────

func (f *pricingFixture) submit(price string) error {
	serviceID := f.serviceID.String()
	return f.svc.SubmitClientPrices(context.Background(), "ana", model.ItemTypeServices, dto.SubmitClientPricesRequest{
		ClientID:  "C1",
		ServiceID: &serviceID,
		Prices: []dto.ClientPriceEntry{{
			RateID:    f.rateID.String(),
			VehicleID: f.vehicleID.String(),
			Precio:    decimal.RequireFromString(price),
			BasePrice: decimal.RequireFromString("1800.00"),
		}},
	})
}

func TestSubmitClientPricesVersioning(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")

	require.NoError(t, f.submit("2500.00"))
	require.NoError(t, f.submit("2700.00"))

	current, err := f.clientPrices.FindCurrent(context.Background(), "C1",
		model.ItemTypeServices, f.serviceID, f.rateID, f.vehicleID, nil)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.True(t, current[0].Precio.Equal(decimal.RequireFromString("2700.00")))

	history, err := f.clientPrices.ListHistory(context.Background(), "C1",
		model.ItemTypeServices, f.serviceID, f.rateID, f.vehicleID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Precio.Equal(decimal.RequireFromString("2500.00")))
	assert.NotNil(t, history[0].ValidUntil)

	got, err := f.resolve(strPtr("C1"))
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2700.00")))
}

func TestSubmitIdenticalPayloadTwice(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")

	require.NoError(t, f.submit("2500.00"))
	require.NoError(t, f.submit("2500.00"))
	require.NoError(t, f.submit("2500.00"))

	current, _ := f.clientPrices.FindCurrent(context.Background(), "C1",
		model.ItemTypeServices, f.serviceID, f.rateID, f.vehicleID, nil)
	history, _ := f.clientPrices.ListHistory(context.Background(), "C1",
		model.ItemTypeServices, f.serviceID, f.rateID, f.vehicleID)

	// Each write supersedes the prior row even with an identical price.
	assert.Len(t, current, 1)
	assert.Len(t, history, 2)
}

func TestSubmitRollsBackOnInsertFailure(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")
	require.NoError(t, f.submit("2500.00"))

	f.clientPrices.failInsert = true
	require.Error(t, f.submit("2700.00"))

	// The prior current row must survive untouched; no half-applied key.
	current, _ := f.clientPrices.FindCurrent(context.Background(), "C1",
		model.ItemTypeServices, f.serviceID, f.rateID, f.vehicleID, nil)
	require.Len(t, current, 1)
	assert.True(t, current[0].Precio.Equal(decimal.RequireFromString("2500.00")))
}

func TestSubmitRejectsMalformedIDs(t *testing.T) {
	f := newPricingFixture()
	serviceID := f.serviceID.String()
	err := f.svc.SubmitClientPrices(context.Background(), "ana", model.ItemTypeServices, dto.SubmitClientPricesRequest{
		ClientID:  "C1",
		ServiceID: &serviceID,
		Prices: []dto.ClientPriceEntry{{
			RateID:    "not-a-uuid",
			VehicleID: f.vehicleID.String(),
			Precio:    decimal.RequireFromString("100.00"),
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument)
}

func TestSubmitRequiresItemID(t *testing.T) {
	f := newPricingFixture()
	err := f.svc.SubmitClientPrices(context.Background(), "ana", model.ItemTypeServices, dto.SubmitClientPricesRequest{
		ClientID: "C1",
		Prices: []dto.ClientPriceEntry{{
			RateID:    f.rateID.String(),
			VehicleID: f.vehicleID.String(),
			Precio:    decimal.RequireFromString("100.00"),
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument)
}

// ── Matrix ───────────────────────────────────────────────────────────────────

func TestPriceMatrixComposition(t *testing.T) {
	f := newPricingFixture()
	f.addBase("1800.00")
	require.NoError(t, f.submit("2500.00"))

	// An override with no base row (new vehicle) must still surface.
	orphanVehicle := uuid.New()
	f.clientPrices.rows = append(f.clientPrices.rows, model.ClientPrice{
		ID:            uuid.New(),
		ClientRef:     "C1",
		ItemType:      model.ItemTypeServices,
		ItemID:        f.serviceID,
		RateID:        f.rateID,
		VehicleTypeID: orphanVehicle,
		Precio:        decimal.RequireFromString("999.00"),
		Currency:      "MXN",
		Active:        true,
		Exists:        true,
	})

	matrix, err := f.svc.PriceMatrix(context.Background(), "C1", model.ItemTypeServices, f.serviceID)
	require.NoError(t, err)
	require.Len(t, matrix.Cells, 2)

	byVehicle := make(map[string]dto.PriceMatrixCell)
	for _, cell := range matrix.Cells {
		byVehicle[cell.VehicleID] = cell
	}

	overridden := byVehicle[f.vehicleID.String()]
	assert.True(t, overridden.Price.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, overridden.BasePrice.Equal(decimal.RequireFromString("1800.00")))
	assert.True(t, overridden.IsClientPrice)

	orphan := byVehicle[orphanVehicle.String()]
	assert.True(t, orphan.Price.Equal(decimal.RequireFromString("999.00")))
	assert.True(t, orphan.BasePrice.IsZero())
	assert.True(t, orphan.IsClientPrice)
}
