package opportunities

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/audit"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// ListFilter narrows pipeline listings.
type ListFilter struct {
	SellerID *uuid.UUID
	ClientID *uuid.UUID
	Status   *lifecycle.Status
	OpenOnly bool
}

// Repository is the opportunity store.
type Repository interface {
	Create(ctx context.Context, o *Opportunity) error
	GetByID(ctx context.Context, id uuid.UUID) (*Opportunity, error)
	List(ctx context.Context, filter ListFilter) ([]Opportunity, error)
	SaveWithAudit(ctx context.Context, o *Opportunity, rec *audit.Record) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed opportunity repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, o *Opportunity) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Opportunity, error) {
	var o Opportunity
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]Opportunity, error) {
	q := r.db.WithContext(ctx).Model(&Opportunity{})
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.OpenOnly {
		q = q.Where("status NOT IN ?", []lifecycle.Status{lifecycle.OpportunityWon, lifecycle.OpportunityLost})
	}
	var list []Opportunity
	err := q.Order("created_at desc").Find(&list).Error
	return list, err
}

// SaveWithAudit commits the transition and audit record atomically under
// the version guard.
func (r *gormRepository) SaveWithAudit(ctx context.Context, o *Opportunity, rec *audit.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Opportunity{}).
			Where("id = ? AND version = ?", o.ID, o.Version).
			Updates(map[string]interface{}{
				"status":            o.Status,
				"status_changed_at": o.StatusChangedAt,
				"closed_date":       o.ClosedDate,
				"closed_amount":     o.ClosedAmount,
				"loss_reason":       o.LossReason,
				"version":           o.Version + 1,
				"updated_at":        time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &lifecycle.ConcurrentModificationError{Kind: lifecycle.KindOpportunity, ID: o.ID}
		}
		o.Version++
		return audit.AppendTx(tx, rec)
	})
}
