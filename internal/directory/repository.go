package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the read-only directory lookup. Account management lives
// elsewhere; the engine's collaborators only resolve actors and assignees.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListActive(ctx context.Context, role string) ([]User, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed directory.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) ListActive(ctx context.Context, role string) ([]User, error) {
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var list []User
	err := q.Order("name asc").Find(&list).Error
	return list, err
}
