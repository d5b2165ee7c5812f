package collections

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/audit"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// ListFilter narrows case listings.
type ListFilter struct {
	CollectorID *uuid.UUID
	ClientID    *uuid.UUID
	Status      *lifecycle.Status
	OpenOnly    bool
}

// Repository is the collections store. Gestion records are append-only.
type Repository interface {
	Create(ctx context.Context, cc *CollectionsCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*CollectionsCase, error)
	List(ctx context.Context, filter ListFilter) ([]CollectionsCase, error)
	SaveWithAudit(ctx context.Context, cc *CollectionsCase, rec *audit.Record) error

	AppendGestion(ctx context.Context, g *GestionRecord) error
	GestionesFor(ctx context.Context, caseID uuid.UUID) ([]GestionRecord, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed collections repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, cc *CollectionsCase) error {
	return r.db.WithContext(ctx).Create(cc).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*CollectionsCase, error) {
	var cc CollectionsCase
	if err := r.db.WithContext(ctx).Preload("Invoice").First(&cc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]CollectionsCase, error) {
	q := r.db.WithContext(ctx).Model(&CollectionsCase{}).Preload("Invoice")
	if filter.CollectorID != nil {
		q = q.Where("assigned_collector_id = ?", *filter.CollectorID)
	}
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.OpenOnly {
		q = q.Where("status IN ?", []lifecycle.Status{lifecycle.CasePending, lifecycle.CaseManaging})
	}
	var list []CollectionsCase
	err := q.Order("created_at asc").Find(&list).Error
	return list, err
}

// SaveWithAudit commits the transition and audit record atomically under
// the version guard.
func (r *gormRepository) SaveWithAudit(ctx context.Context, cc *CollectionsCase, rec *audit.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&CollectionsCase{}).
			Where("id = ? AND version = ?", cc.ID, cc.Version).
			Updates(map[string]interface{}{
				"status":            cc.Status,
				"status_changed_at": cc.StatusChangedAt,
				"write_off_reason":  cc.WriteOffReason,
				"payment_reference": cc.PaymentReference,
				"version":           cc.Version + 1,
				"updated_at":        time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &lifecycle.ConcurrentModificationError{Kind: lifecycle.KindCollectionsCase, ID: cc.ID}
		}
		cc.Version++
		return audit.AppendTx(tx, rec)
	})
}

func (r *gormRepository) AppendGestion(ctx context.Context, g *GestionRecord) error {
	return r.db.WithContext(ctx).Create(g).Error
}

// GestionesFor lists the case's contact attempts newest first, for display.
func (r *gormRepository) GestionesFor(ctx context.Context, caseID uuid.UUID) ([]GestionRecord, error) {
	var list []GestionRecord
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at desc").
		Find(&list).Error
	return list, err
}
