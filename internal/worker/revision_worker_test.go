package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"amexing/internal/apierror"
	"amexing/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQuoteRepo struct {
	quotes    map[uuid.UUID]*model.Quote
	revisions []model.QuoteRevision
}

func (r *memQuoteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", id, apierror.ErrNotFound)
	}
	return q, nil
}

func (r *memQuoteRepo) Create(_ context.Context, q *model.Quote) error {
	r.quotes[q.ID] = q
	return nil
}

func (r *memQuoteRepo) UpdateServiceItems(_ context.Context, id uuid.UUID, items model.ServiceItems) error {
	q, ok := r.quotes[id]
	if !ok {
		return fmt.Errorf("quote %s: %w", id, apierror.ErrNotFound)
	}
	q.ServiceItems = items
	return nil
}

func (r *memQuoteRepo) CreateRevision(_ context.Context, rev *model.QuoteRevision) error {
	r.revisions = append(r.revisions, *rev)
	return nil
}

func (r *memQuoteRepo) ListRevisions(_ context.Context, quoteID uuid.UUID, limit int) ([]model.QuoteRevision, error) {
	var out []model.QuoteRevision
	for _, rev := range r.revisions {
		if rev.QuoteID == quoteID && len(out) < limit {
			out = append(out, rev)
		}
	}
	return out, nil
}

func TestQuoteRevisionWorkerPersistsSnapshot(t *testing.T) {
	quoteID := uuid.New()
	repo := &memQuoteRepo{quotes: map[uuid.UUID]*model.Quote{
		quoteID: {
			ID:       quoteID,
			Currency: "MXN",
			ServiceItems: model.ServiceItems{
				Days:     []model.Day{{DayNumber: 1, DayTotal: decimal.RequireFromString("1000.00")}},
				Subtotal: decimal.RequireFromString("1000.00"),
				IVA:      decimal.RequireFromString("160.00"),
				Total:    decimal.RequireFromString("1160.00"),
			},
		},
	}}
	w := NewQuoteRevisionWorker(repo)

	payload, err := json.Marshal(QuoteRevisionPayload{QuoteID: quoteID.String(), SavedBy: "ana"})
	require.NoError(t, err)
	require.NoError(t, w.Process(context.Background(), payload))

	require.Len(t, repo.revisions, 1)
	rev := repo.revisions[0]
	assert.Equal(t, quoteID, rev.QuoteID)
	assert.Equal(t, "ana", rev.SavedBy)

	var snapshot model.ServiceItems
	require.NoError(t, json.Unmarshal(rev.Snapshot, &snapshot))
	assert.True(t, snapshot.Total.Equal(decimal.RequireFromString("1160.00")))
}

func TestQuoteRevisionWorkerRejectsBadPayload(t *testing.T) {
	w := NewQuoteRevisionWorker(&memQuoteRepo{quotes: map[uuid.UUID]*model.Quote{}})

	assert.Error(t, w.Process(context.Background(), json.RawMessage(`{`)))
	assert.Error(t, w.Process(context.Background(), json.RawMessage(`{"quote_id":"no-uuid","saved_by":"ana"}`)))
}

func TestQuoteRevisionWorkerUnknownQuote(t *testing.T) {
	w := NewQuoteRevisionWorker(&memQuoteRepo{quotes: map[uuid.UUID]*model.Quote{}})

	payload, _ := json.Marshal(QuoteRevisionPayload{QuoteID: uuid.NewString(), SavedBy: "ana"})
	err := w.Process(context.Background(), payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
