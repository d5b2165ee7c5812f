package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// History is the read side of the audit log, newest first. It feeds the
// "historial de gestión" views.
type History interface {
	HistoryFor(ctx context.Context, entityID uuid.UUID) ([]Record, error)
}

// AppendTx inserts a record inside the caller's transaction so the status
// write and its audit entry commit atomically. There is no update or delete
// counterpart.
func AppendTx(tx *gorm.DB, rec *Record) error {
	if err := tx.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// SQLHistory implements History over PostgreSQL.
type SQLHistory struct {
	db *sqlx.DB
}

// NewSQLHistory creates the read-side repository.
func NewSQLHistory(db *sqlx.DB) *SQLHistory {
	return &SQLHistory{db: db}
}

func (r *SQLHistory) HistoryFor(ctx context.Context, entityID uuid.UUID) ([]Record, error) {
	query := `
		SELECT id, entity_kind, entity_id, from_status, to_status, payload, actor, occurred_at
		FROM transition_audit_records
		WHERE entity_id = $1
		ORDER BY occurred_at DESC, id DESC
	`

	records := []Record{}
	if err := r.db.SelectContext(ctx, &records, query, entityID); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return records, nil
}
