package repository

import (
	"context"
	"errors"
	"fmt"

	"amexing/internal/apierror"
	"amexing/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuoteRepository defines data access for quotes and their revision trail.
type QuoteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	Create(ctx context.Context, q *model.Quote) error
	// UpdateServiceItems replaces the priced body of a quote.
	UpdateServiceItems(ctx context.Context, id uuid.UUID, items model.ServiceItems) error
	CreateRevision(ctx context.Context, rev *model.QuoteRevision) error
	ListRevisions(ctx context.Context, quoteID uuid.UUID, limit int) ([]model.QuoteRevision, error)
}

type quoteRepo struct{ db *gorm.DB }

func NewQuoteRepository(db *gorm.DB) QuoteRepository { return &quoteRepo{db: db} }

func (r *quoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var q model.Quote
	err := r.db.WithContext(ctx).
		Where("id = ? AND exists = true", id).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("quote %s: %w", id, apierror.ErrNotFound)
	}
	return &q, err
}

func (r *quoteRepo) Create(ctx context.Context, q *model.Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *quoteRepo) UpdateServiceItems(ctx context.Context, id uuid.UUID, items model.ServiceItems) error {
	res := r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("id = ? AND exists = true", id).
		Update("service_items", items)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("quote %s: %w", id, apierror.ErrNotFound)
	}
	return nil
}

func (r *quoteRepo) CreateRevision(ctx context.Context, rev *model.QuoteRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *quoteRepo) ListRevisions(ctx context.Context, quoteID uuid.UUID, limit int) ([]model.QuoteRevision, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var revs []model.QuoteRevision
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at DESC").
		Limit(limit).
		Find(&revs).Error
	return revs, err
}
