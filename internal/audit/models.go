package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Record is one append-only entry in the transition history. Corrections
// are made by appending a compensating transition, never by editing.
type Record struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id" db:"id"`
	EntityKind string            `gorm:"not null;index:idx_audit_entity,priority:1" json:"entity_kind" db:"entity_kind"`
	EntityID   uuid.UUID         `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2" json:"entity_id" db:"entity_id"`
	FromStatus string            `gorm:"not null" json:"from_status" db:"from_status"`
	ToStatus   string            `gorm:"not null" json:"to_status" db:"to_status"`
	Payload    datatypes.JSONMap `json:"payload" db:"payload"`
	Actor      string            `gorm:"not null" json:"actor" db:"actor"`
	OccurredAt time.Time         `gorm:"not null" json:"occurred_at" db:"occurred_at"`
}

// TableName keeps the table name explicit; the sqlx read side queries it
// directly.
func (Record) TableName() string {
	return "transition_audit_records"
}
