package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Repository stores follow-up tasks. It implements the dispatcher's
// TaskStore contract.
type Repository interface {
	CreateFollowUpTask(ctx context.Context, intent lifecycle.CreateFollowUpTask) error
	GetByID(ctx context.Context, id uuid.UUID) (*FollowUpTask, error)
	ListOpen(ctx context.Context, assigneeID *uuid.UUID) ([]FollowUpTask, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed task repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateFollowUpTask inserts the task for the intent. A task already keyed
// by the same (entity, transition) pair means this is a redispatch, which
// must not create a second task.
func (r *gormRepository) CreateFollowUpTask(ctx context.Context, intent lifecycle.CreateFollowUpTask) error {
	var existing FollowUpTask
	err := r.db.WithContext(ctx).
		Where("related_entity_id = ? AND transition_id = ?", intent.RelatedEntityID, intent.TransitionID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	task := &FollowUpTask{
		RelatedEntityKind: string(intent.RelatedEntityKind),
		RelatedEntityID:   intent.RelatedEntityID,
		TransitionID:      intent.TransitionID,
		AssigneeID:        intent.Assignee,
		Description:       intent.Description,
		DueDate:           intent.DueDate,
		Status:            StatusOpen,
	}
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*FollowUpTask, error) {
	var task FollowUpTask
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *gormRepository) ListOpen(ctx context.Context, assigneeID *uuid.UUID) ([]FollowUpTask, error) {
	q := r.db.WithContext(ctx).Where("status = ?", StatusOpen)
	if assigneeID != nil {
		q = q.Where("assignee_id = ?", *assigneeID)
	}
	var list []FollowUpTask
	err := q.Order("due_date asc").Find(&list).Error
	return list, err
}

func (r *gormRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&FollowUpTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": StatusDone, "updated_at": time.Now()}).Error
}
