// Package notifications records the engine's "prompt outbound contact"
// signals. Actual delivery (email, WhatsApp link composition) belongs to an
// external channel that drains the outbox; this package only signals.
package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Outbox statuses
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
)

// OutboxEntry is one queued notification signal, deduped on the intent key.
type OutboxEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntityKind string    `gorm:"not null" json:"entity_kind"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null" json:"entity_id"`
	Reason     string    `gorm:"not null" json:"reason"`
	DedupKey   string    `gorm:"not null;uniqueIndex" json:"dedup_key"`
	Status     string    `gorm:"not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// OutboxSender implements the dispatcher's Sender contract by appending
// outbox rows.
type OutboxSender struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOutboxSender creates the outbox-backed sender.
func NewOutboxSender(db *gorm.DB, logger *zap.Logger) *OutboxSender {
	return &OutboxSender{db: db, logger: logger}
}

// Notify enqueues the signal. A replayed intent finds its dedup key already
// present and is a no-op.
func (s *OutboxSender) Notify(ctx context.Context, intent lifecycle.NotifyContact) error {
	var existing OutboxEntry
	err := s.db.WithContext(ctx).
		Where("dedup_key = ?", intent.DedupKey()).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	entry := &OutboxEntry{
		EntityKind: string(intent.EntityKind),
		EntityID:   intent.EntityID,
		Reason:     intent.Reason,
		DedupKey:   intent.DedupKey(),
		Status:     StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}

	s.logger.Info("Notification queued",
		zap.String("entity_kind", entry.EntityKind),
		zap.String("entity_id", entry.EntityID.String()),
		zap.String("reason", entry.Reason))
	return nil
}

// ListPending returns queued signals for an external channel to drain.
func (s *OutboxSender) ListPending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	var list []OutboxEntry
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&list).Error
	return list, err
}
