package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/audit"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// ListFilter narrows quote listings.
type ListFilter struct {
	ClientID *uuid.UUID
	SellerID *uuid.UUID
	Status   *lifecycle.Status
}

// Repository is the quote store. SaveWithAudit commits the transition and
// its audit record atomically under an optimistic-concurrency check.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	List(ctx context.Context, filter ListFilter) ([]Quote, error)
	SaveWithAudit(ctx context.Context, q *Quote, rec *audit.Record) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed quote repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, q *Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	var q Quote
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]Quote, error) {
	q := r.db.WithContext(ctx).Model(&Quote{})
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	var list []Quote
	err := q.Order("created_at desc").Find(&list).Error
	return list, err
}

// SaveWithAudit writes the transitioned quote and appends the audit record
// in one transaction. The version guard makes the second of two concurrent
// transitions fail with ConcurrentModificationError instead of silently
// overwriting the first.
func (r *gormRepository) SaveWithAudit(ctx context.Context, q *Quote, rec *audit.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Quote{}).
			Where("id = ? AND version = ?", q.ID, q.Version).
			Updates(map[string]interface{}{
				"status":            q.Status,
				"status_changed_at": q.StatusChangedAt,
				"rejection_reason":  q.RejectionReason,
				"version":           q.Version + 1,
				"updated_at":        time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &lifecycle.ConcurrentModificationError{Kind: lifecycle.KindQuote, ID: q.ID}
		}
		q.Version++
		return audit.AppendTx(tx, rec)
	})
}
