package service

import (
	"context"
	"fmt"

	"amexing/internal/apierror"
	"amexing/internal/dto"
	"amexing/internal/model"
	"amexing/internal/repository"
	"amexing/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subconcept types carried inside quote days.
const (
	SubconceptTraslado    = "traslado"
	SubconceptTour        = "tour"
	SubconceptExperiencia = "experiencia"
)

// QuoteService owns quote reads and the save path: prices are re-pinned
// through the resolver and totals recomputed server-side before persisting.
type QuoteService interface {
	GetQuote(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error)
	// UpdateServiceItems pins effective prices into every priceable subconcept,
	// renumbers days, recalculates totals, persists, and enqueues a revision
	// snapshot (best-effort).
	UpdateServiceItems(ctx context.Context, actor string, id uuid.UUID, items model.ServiceItems) (*dto.QuoteResponse, error)
}

type quoteService struct {
	quotes     repository.QuoteRepository
	rates      repository.RateRepository
	pricing    PricingService
	dispatcher *worker.Dispatcher
	ivaRate    decimal.Decimal
}

func NewQuoteService(
	quotes repository.QuoteRepository,
	rates repository.RateRepository,
	pricing PricingService,
	dispatcher *worker.Dispatcher,
	ivaRate float64,
) QuoteService {
	return &quoteService{
		quotes:     quotes,
		rates:      rates,
		pricing:    pricing,
		dispatcher: dispatcher,
		ivaRate:    decimal.NewFromFloat(ivaRate),
	}
}

func (s *quoteService) GetQuote(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error) {
	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.quoteToResponse(ctx, q), nil
}

func (s *quoteService) UpdateServiceItems(ctx context.Context, actor string, id uuid.UUID, items model.ServiceItems) (*dto.QuoteResponse, error) {
	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for d := range items.Days {
		items.Days[d].DayNumber = d + 1
		for i := range items.Days[d].Subconcepts {
			if err := s.pinPrice(ctx, q, &items.Days[d].Subconcepts[i]); err != nil {
				return nil, err
			}
		}
	}
	RecalculateServiceItems(&items, s.ivaRate)

	if err := s.quotes.UpdateServiceItems(ctx, id, items); err != nil {
		return nil, err
	}
	q.ServiceItems = items

	// Async revision snapshot — fire & forget
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueQuoteRevision(ctx, worker.QuoteRevisionPayload{
			QuoteID: q.ID.String(),
			SavedBy: actor,
		})
	}

	return s.quoteToResponse(ctx, q), nil
}

// pinPrice resolves the effective unit price for a priceable subconcept and
// writes it into the quote. Subconcept types without a base layer (e.g.
// experiencia) keep the price the editor sent.
func (s *quoteService) pinPrice(ctx context.Context, q *model.Quote, sc *model.Subconcept) error {
	var itemType string
	switch sc.Type {
	case SubconceptTraslado:
		itemType = model.ItemTypeServices
	case SubconceptTour:
		itemType = model.ItemTypeTour
	default:
		return nil
	}

	itemID, err := uuid.Parse(sc.ItemID)
	if err != nil {
		return fmt.Errorf("subconcept item id %q: %w", sc.ItemID, apierror.ErrInvalidArgument)
	}
	rateID, err := uuid.Parse(sc.RateID)
	if err != nil {
		return fmt.Errorf("subconcept rate id %q: %w", sc.RateID, apierror.ErrInvalidArgument)
	}
	vehicleID, err := uuid.Parse(sc.VehicleID)
	if err != nil {
		return fmt.Errorf("subconcept vehicle id %q: %w", sc.VehicleID, apierror.ErrInvalidArgument)
	}

	resolved, err := s.pricing.Resolve(ctx, ResolvePriceRequest{
		ItemType:         itemType,
		ItemID:           itemID,
		RateID:           rateID,
		VehicleTypeID:    vehicleID,
		ClientRef:        q.ClientRef,
		ExpectedCurrency: q.Currency,
	})
	if err != nil {
		return err
	}

	sc.Price = resolved.Price
	sc.BasePrice = resolved.BasePrice
	sc.IsClientPrice = resolved.IsClientPrice()
	return nil
}

// RecalculateServiceItems re-derives day totals, subtotal, IVA and total.
// Every monetary value lands rounded to two decimals (half away from zero).
// The derivation is idempotent: recomputing an already-computed body yields
// identical numbers.
func RecalculateServiceItems(items *model.ServiceItems, ivaRate decimal.Decimal) {
	subtotal := decimal.Zero
	for d := range items.Days {
		dayTotal := decimal.Zero
		for _, sc := range items.Days[d].Subconcepts {
			dayTotal = dayTotal.Add(sc.Price)
		}
		items.Days[d].DayTotal = dayTotal.Round(2)
		subtotal = subtotal.Add(items.Days[d].DayTotal)
	}
	items.Subtotal = subtotal.Round(2)
	items.IVA = items.Subtotal.Mul(ivaRate).Round(2)
	items.Total = items.Subtotal.Add(items.IVA).Round(2)
}

func (s *quoteService) quoteToResponse(ctx context.Context, q *model.Quote) *dto.QuoteResponse {
	resp := &dto.QuoteResponse{
		ID:             q.ID.String(),
		ClientID:       q.ClientRef,
		NumberOfPeople: q.NumberOfPeople,
		Currency:       q.Currency,
		ServiceItems:   q.ServiceItems,
		UpdatedAt:      q.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if q.RateID != nil {
		id := q.RateID.String()
		resp.RateID = &id
		if rate, err := s.rates.FindByID(ctx, *q.RateID); err == nil {
			resp.RateName = rate.Name
		}
	}
	return resp
}
