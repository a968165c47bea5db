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
	"github.com/shopspring/decimal"
)

// PriceSource tells which layer produced a resolved price.
type PriceSource string

const (
	SourceOverride PriceSource = "override"
	SourceBase     PriceSource = "base"
)

// ResolvePriceRequest identifies one priceable key.
// ClientRef = nil skips the override layer. AsOf = nil means "now".
// ExpectedCurrency, when set, rejects overrides in a different currency.
type ResolvePriceRequest struct {
	ItemType         string // SERVICES | TOUR
	ItemID           uuid.UUID
	RateID           uuid.UUID
	VehicleTypeID    uuid.UUID
	ClientRef        *string
	AsOf             *time.Time
	ExpectedCurrency string
}

// ResolvedPrice is the effective unit price for a key.
type ResolvedPrice struct {
	Price     decimal.Decimal
	BasePrice decimal.Decimal
	Currency  string
	Source    PriceSource
}

// IsClientPrice reports whether the price came from a per-client override.
func (p *ResolvedPrice) IsClientPrice() bool { return p.Source == SourceOverride }

// PricingService resolves effective prices across the layered pricing model
// and owns the override versioning write protocol.
type PricingService interface {
	Resolve(ctx context.Context, req ResolvePriceRequest) (*ResolvedPrice, error)
	// SubmitClientPrices applies the versioning write protocol for the changed
	// cells of one (client, item). itemType selects the base table semantics.
	SubmitClientPrices(ctx context.Context, actor, itemType string, req dto.SubmitClientPricesRequest) error
	// PriceMatrix composes every (rate, vehicle) cell present in either the
	// base layer or the current-override layer for an item and client.
	PriceMatrix(ctx context.Context, clientRef, itemType string, itemID uuid.UUID) (*dto.PriceMatrixResponse, error)
}

type pricingService struct {
	ratePrices      repository.RatePriceRepository
	tourPrices      repository.TourPriceRepository
	clientPrices    repository.ClientPriceRepository
	defaultCurrency string
}

func NewPricingService(
	ratePrices repository.RatePriceRepository,
	tourPrices repository.TourPriceRepository,
	clientPrices repository.ClientPriceRepository,
	defaultCurrency string,
) PricingService {
	return &pricingService{
		ratePrices:      ratePrices,
		tourPrices:      tourPrices,
		clientPrices:    clientPrices,
		defaultCurrency: defaultCurrency,
	}
}

// Resolve walks the layers: client override first, base price second.
// The resolver never invents prices — a full miss is ErrNoPrice.
func (s *pricingService) Resolve(ctx context.Context, req ResolvePriceRequest) (*ResolvedPrice, error) {
	if req.ItemType != model.ItemTypeServices && req.ItemType != model.ItemTypeTour {
		return nil, fmt.Errorf("item type %q: %w", req.ItemType, apierror.ErrInvalidArgument)
	}

	// 1. Override layer
	if req.ClientRef != nil && *req.ClientRef != "" {
		rows, err := s.clientPrices.FindCurrent(ctx, *req.ClientRef, req.ItemType,
			req.ItemID, req.RateID, req.VehicleTypeID, req.AsOf)
		if err != nil {
			return nil, err
		}
		if len(rows) > 1 {
			// Two current rows for one key means the versioning batch was
			// bypassed somewhere. Refuse to pick one.
			return nil, fmt.Errorf("%d filas vigentes para la clave: %w", len(rows), apierror.ErrConflict)
		}
		if len(rows) == 1 {
			row := rows[0]
			if req.ExpectedCurrency != "" && row.Currency != req.ExpectedCurrency {
				return nil, fmt.Errorf("override en %s, cotizacion en %s: %w",
					row.Currency, req.ExpectedCurrency, apierror.ErrCurrencyMismatch)
			}
			return &ResolvedPrice{
				Price:     row.Precio,
				BasePrice: row.BasePrice,
				Currency:  row.Currency,
				Source:    SourceOverride,
			}, nil
		}
	}

	// 2. Base layer
	price, err := s.findBase(ctx, req.ItemType, req.ItemID, req.RateID, req.VehicleTypeID)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, fmt.Errorf("%s %s rate=%s vehicle=%s: %w",
			req.ItemType, req.ItemID, req.RateID, req.VehicleTypeID, apierror.ErrNoPrice)
	}
	return &ResolvedPrice{
		Price:     *price,
		BasePrice: *price,
		Currency:  s.defaultCurrency,
		Source:    SourceBase,
	}, nil
}

func (s *pricingService) findBase(ctx context.Context, itemType string, itemID, rateID, vehicleTypeID uuid.UUID) (*decimal.Decimal, error) {
	switch itemType {
	case model.ItemTypeServices:
		row, err := s.ratePrices.FindByKey(ctx, itemID, rateID, vehicleTypeID)
		if err != nil || row == nil {
			return nil, err
		}
		return &row.Price, nil
	default: // model.ItemTypeTour
		row, err := s.tourPrices.FindByKey(ctx, itemID, rateID, vehicleTypeID)
		if err != nil || row == nil {
			return nil, err
		}
		return &row.Price, nil
	}
}

func (s *pricingService) SubmitClientPrices(ctx context.Context, actor, itemType string, req dto.SubmitClientPricesRequest) error {
	var itemIDStr *string
	switch itemType {
	case model.ItemTypeServices:
		itemIDStr = req.ServiceID
	case model.ItemTypeTour:
		itemIDStr = req.TourID
	default:
		return fmt.Errorf("item type %q: %w", itemType, apierror.ErrInvalidArgument)
	}
	if itemIDStr == nil {
		return fmt.Errorf("falta el identificador del item: %w", apierror.ErrInvalidArgument)
	}
	itemID, err := uuid.Parse(*itemIDStr)
	if err != nil {
		return fmt.Errorf("item id %q: %w", *itemIDStr, apierror.ErrInvalidArgument)
	}

	rows := make([]model.ClientPrice, 0, len(req.Prices))
	for _, entry := range req.Prices {
		rateID, err := uuid.Parse(entry.RateID)
		if err != nil {
			return fmt.Errorf("rate id %q: %w", entry.RateID, apierror.ErrInvalidArgument)
		}
		vehicleID, err := uuid.Parse(entry.VehicleID)
		if err != nil {
			return fmt.Errorf("vehicle id %q: %w", entry.VehicleID, apierror.ErrInvalidArgument)
		}
		rows = append(rows, model.ClientPrice{
			ClientRef:     req.ClientID,
			ItemType:      itemType,
			ItemID:        itemID,
			RateID:        rateID,
			VehicleTypeID: vehicleID,
			Precio:        entry.Precio,
			BasePrice:     entry.BasePrice, // zero when the client omitted it
			Currency:      s.defaultCurrency,
		})
	}

	return s.clientPrices.ApplyOverrides(ctx, actor, rows)
}

func (s *pricingService) PriceMatrix(ctx context.Context, clientRef, itemType string, itemID uuid.UUID) (*dto.PriceMatrixResponse, error) {
	type cellKey struct{ rate, vehicle uuid.UUID }
	cells := make(map[cellKey]*dto.PriceMatrixCell)

	switch itemType {
	case model.ItemTypeServices:
		base, err := s.ratePrices.ListByService(ctx, itemID)
		if err != nil {
			return nil, err
		}
		for _, row := range base {
			cells[cellKey{row.RateID, row.VehicleTypeID}] = &dto.PriceMatrixCell{
				RateID:    row.RateID.String(),
				VehicleID: row.VehicleTypeID.String(),
				Price:     row.Price,
				BasePrice: row.Price,
				Currency:  s.defaultCurrency,
			}
		}
	case model.ItemTypeTour:
		base, err := s.tourPrices.ListByTour(ctx, itemID)
		if err != nil {
			return nil, err
		}
		for _, row := range base {
			cells[cellKey{row.RateID, row.VehicleTypeID}] = &dto.PriceMatrixCell{
				RateID:    row.RateID.String(),
				VehicleID: row.VehicleTypeID.String(),
				Price:     row.Price,
				BasePrice: row.Price,
				Currency:  s.defaultCurrency,
			}
		}
	default:
		return nil, fmt.Errorf("item type %q: %w", itemType, apierror.ErrInvalidArgument)
	}

	overrides, err := s.clientPrices.ListCurrentByItem(ctx, clientRef, itemType, itemID)
	if err != nil {
		return nil, err
	}
	for _, ov := range overrides {
		key := cellKey{ov.RateID, ov.VehicleTypeID}
		if cell, ok := cells[key]; ok {
			cell.Price = ov.Precio
			cell.Currency = ov.Currency
			cell.IsClientPrice = true
		} else {
			// Override without a base row: surfaced with basePrice 0.
			cells[key] = &dto.PriceMatrixCell{
				RateID:        ov.RateID.String(),
				VehicleID:     ov.VehicleTypeID.String(),
				Price:         ov.Precio,
				BasePrice:     decimal.Zero,
				Currency:      ov.Currency,
				IsClientPrice: true,
			}
		}
	}

	out := make([]dto.PriceMatrixCell, 0, len(cells))
	for _, cell := range cells {
		out = append(out, *cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RateID != out[j].RateID {
			return out[i].RateID < out[j].RateID
		}
		return out[i].VehicleID < out[j].VehicleID
	})

	return &dto.PriceMatrixResponse{
		ItemType: itemType,
		ItemID:   itemID.String(),
		ClientID: clientRef,
		Cells:    out,
	}, nil
}
