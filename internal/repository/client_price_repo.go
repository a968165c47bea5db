package repository

import (
	"context"
	"time"

	"amexing/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientPriceRepository defines data access for per-client price overrides.
//
// The table is append-only from a history viewpoint. Current rows have
// valid_until = NULL; superseded rows keep the instant they were terminated.
// History rows are never updated or deleted here.
type ClientPriceRepository interface {
	// FindCurrent returns the row(s) effective for the key as of asOf.
	// asOf = nil means "now": every valid_until IS NULL row is returned, and
	// more than one is data corruption the resolver surfaces. A historical
	// asOf returns at most one row — the one whose validity window covered
	// that instant (smallest valid_until > asOf, NULL counting as infinity).
	FindCurrent(ctx context.Context, clientRef, itemType string, itemID, rateID, vehicleTypeID uuid.UUID, asOf *time.Time) ([]model.ClientPrice, error)
	// ListCurrentByItem returns all current overrides a client holds for one item.
	ListCurrentByItem(ctx context.Context, clientRef, itemType string, itemID uuid.UUID) ([]model.ClientPrice, error)
	// ListHistory returns every superseded row for a key, newest first.
	ListHistory(ctx context.Context, clientRef, itemType string, itemID, rateID, vehicleTypeID uuid.UUID) ([]model.ClientPrice, error)
	// ApplyOverrides runs the versioning write protocol for a batch of new
	// override rows in ONE transaction: each key's current row (when present)
	// is terminated with valid_until = now and lastModifiedBy = actor, then the
	// new row is inserted with valid_until = NULL. If any step fails the whole
	// batch rolls back — a reader can never observe a half-applied key.
	ApplyOverrides(ctx context.Context, actor string, rows []model.ClientPrice) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type clientPriceRepo struct{ db *gorm.DB }

func NewClientPriceRepository(db *gorm.DB) ClientPriceRepository {
	return &clientPriceRepo{db: db}
}

func (r *clientPriceRepo) DB() *gorm.DB { return r.db }

func (r *clientPriceRepo) FindCurrent(
	ctx context.Context,
	clientRef, itemType string,
	itemID, rateID, vehicleTypeID uuid.UUID,
	asOf *time.Time,
) ([]model.ClientPrice, error) {
	q := r.db.WithContext(ctx).
		Where("client_ref = ? AND item_type = ? AND item_id = ? AND rate_id = ? AND vehicle_type_id = ?",
			clientRef, itemType, itemID, rateID, vehicleTypeID).
		Where("exists = true AND active = true")
	if asOf == nil {
		q = q.Where("valid_until IS NULL")
	} else {
		// The row effective at asOf is the earliest one terminated after it;
		// the current row (NULL) acts as the open-ended tail of the chain.
		q = q.Where("valid_until IS NULL OR valid_until > ?", *asOf).
			Order("valid_until ASC NULLS LAST").
			Limit(1)
	}
	var rows []model.ClientPrice
	err := q.Find(&rows).Error
	return rows, err
}

func (r *clientPriceRepo) ListCurrentByItem(
	ctx context.Context,
	clientRef, itemType string,
	itemID uuid.UUID,
) ([]model.ClientPrice, error) {
	var rows []model.ClientPrice
	err := r.db.WithContext(ctx).
		Where("client_ref = ? AND item_type = ? AND item_id = ?", clientRef, itemType, itemID).
		Where("exists = true AND active = true AND valid_until IS NULL").
		Find(&rows).Error
	return rows, err
}

func (r *clientPriceRepo) ListHistory(
	ctx context.Context,
	clientRef, itemType string,
	itemID, rateID, vehicleTypeID uuid.UUID,
) ([]model.ClientPrice, error) {
	var rows []model.ClientPrice
	err := r.db.WithContext(ctx).
		Where("client_ref = ? AND item_type = ? AND item_id = ? AND rate_id = ? AND vehicle_type_id = ?",
			clientRef, itemType, itemID, rateID, vehicleTypeID).
		Where("exists = true AND valid_until IS NOT NULL").
		Order("valid_until DESC").
		Find(&rows).Error
	return rows, err
}

func (r *clientPriceRepo) ApplyOverrides(ctx context.Context, actor string, rows []model.ClientPrice) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := &rows[i]

			// Terminate the current row for the key, when one exists. The
			// valid_until IS NULL guard is the compare-and-set that keeps two
			// concurrent writers from both terminating the same row twice.
			if err := tx.Model(&model.ClientPrice{}).
				Where("client_ref = ? AND item_type = ? AND item_id = ? AND rate_id = ? AND vehicle_type_id = ?",
					row.ClientRef, row.ItemType, row.ItemID, row.RateID, row.VehicleTypeID).
				Where("exists = true AND valid_until IS NULL").
				Updates(map[string]interface{}{
					"valid_until":      now,
					"last_modified_by": actor,
					"updated_at":       now,
				}).Error; err != nil {
				return err
			}

			row.ValidUntil = nil
			row.CreatedBy = actor
			row.LastModifiedBy = actor
			row.Active = true
			row.Exists = true
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
