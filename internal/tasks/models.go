package tasks

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses
const (
	StatusOpen = "OPEN"
	StatusDone = "DONE"
)

// FollowUpTask is a task opened by a lifecycle transition (post-sale
// follow-up after a won opportunity, loss review, next collection action).
// The unique (related_entity_id, transition_id) pair makes duplicate
// dispatch a no-op.
type FollowUpTask struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RelatedEntityKind string     `gorm:"not null" json:"related_entity_kind"`
	RelatedEntityID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_task_dedup,priority:1" json:"related_entity_id"`
	TransitionID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_task_dedup,priority:2" json:"transition_id"`
	AssigneeID        *uuid.UUID `gorm:"type:uuid" json:"assignee_id,omitempty"`
	Description       string     `gorm:"not null" json:"description"`
	DueDate           time.Time  `gorm:"not null" json:"due_date"`
	Status            string     `gorm:"not null;default:'OPEN'" json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
