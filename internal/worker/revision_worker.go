package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"amexing/internal/model"
	"amexing/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// QuoteRevisionWorker persists an immutable snapshot of a quote after each
// save. Snapshots carry the full priced body, so the back office can show
// who changed a quote and what it looked like before.
type QuoteRevisionWorker struct {
	quotes repository.QuoteRepository
}

func NewQuoteRevisionWorker(quotes repository.QuoteRepository) *QuoteRevisionWorker {
	return &QuoteRevisionWorker{quotes: quotes}
}

func (w *QuoteRevisionWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload QuoteRevisionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("quote_revision: unmarshal payload: %w", err)
	}

	quoteID, err := uuid.Parse(payload.QuoteID)
	if err != nil {
		return fmt.Errorf("quote_revision: quote id %q: %w", payload.QuoteID, err)
	}

	quote, err := w.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return fmt.Errorf("quote_revision: load quote: %w", err)
	}

	snapshot, err := json.Marshal(quote.ServiceItems)
	if err != nil {
		return fmt.Errorf("quote_revision: marshal snapshot: %w", err)
	}

	rev := &model.QuoteRevision{
		QuoteID:  quoteID,
		Snapshot: snapshot,
		SavedBy:  payload.SavedBy,
	}
	if err := w.quotes.CreateRevision(ctx, rev); err != nil {
		return fmt.Errorf("quote_revision: persist: %w", err)
	}

	log.Info().
		Str("quote_id", payload.QuoteID).
		Str("saved_by", payload.SavedBy).
		Msg("quote revision persisted")
	return nil
}
