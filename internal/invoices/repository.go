package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the invoice store. UpdateStatus is the surface the
// side-effect dispatcher cascades into.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	UpdateStatus(ctx context.Context, invoiceID uuid.UUID, status string) error
	ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed invoice repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, inv *Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv Invoice
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, invoiceID uuid.UUID, status string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == StatusPaid {
		updates["paid_at"] = time.Now()
	}
	return r.db.WithContext(ctx).
		Model(&Invoice{}).
		Where("id = ?", invoiceID).
		Updates(updates).Error
}

func (r *gormRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	var list []Invoice
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", StatusPending, asOf).
		Order("due_date asc").
		Find(&list).Error
	return list, err
}
