package quotes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Quote is a priced proposal tracked through DRAFT -> SENT -> terminal.
type Quote struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Folio           string           `gorm:"not null;uniqueIndex" json:"folio"`
	ClientID        uuid.UUID        `gorm:"type:uuid;not null" json:"client_id"`
	SellerID        uuid.UUID        `gorm:"type:uuid;not null" json:"seller_id"`
	Total           float64          `gorm:"not null" json:"total"`
	Status          lifecycle.Status `gorm:"not null;default:'DRAFT'" json:"status"`
	StatusChangedAt time.Time        `gorm:"not null" json:"status_changed_at"`
	ExpirationDate  time.Time        `gorm:"not null" json:"expiration_date"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	Version         int              `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (q *Quote) EntityID() uuid.UUID             { return q.ID }
func (q *Quote) EntityKind() lifecycle.Kind      { return lifecycle.KindQuote }
func (q *Quote) CurrentStatus() lifecycle.Status { return q.Status }

// ApplyTransition merges the transition into the quote. Only called by the
// engine after validation.
func (q *Quote) ApplyTransition(to lifecycle.Status, at time.Time, p lifecycle.Payload) {
	q.Status = to
	q.StatusChangedAt = at
	if to == lifecycle.QuoteRejected {
		reason := p.String("rejectionReason")
		q.RejectionReason = &reason
	}
}

// TransitionIntents emits the quote's side effects: prompt the outbound
// send when the quote goes out, open a hand-off task when it is accepted.
func (q *Quote) TransitionIntents(to lifecycle.Status, transitionID uuid.UUID, at time.Time) []lifecycle.Intent {
	switch to {
	case lifecycle.QuoteSent:
		return []lifecycle.Intent{
			lifecycle.NotifyContact{
				EntityKind: lifecycle.KindQuote,
				EntityID:   q.ID,
				Reason:     "quote_sent",
				Reference:  transitionID.String(),
			},
		}
	case lifecycle.QuoteAccepted:
		seller := q.SellerID
		return []lifecycle.Intent{
			lifecycle.CreateFollowUpTask{
				RelatedEntityKind: lifecycle.KindQuote,
				RelatedEntityID:   q.ID,
				TransitionID:      transitionID,
				Assignee:          &seller,
				DueDate:           at.AddDate(0, 0, 2),
				Description:       "Prepare order and invoicing for accepted quote " + q.Folio,
			},
		}
	}
	return nil
}

// EffectiveStatus is the read-time view: a SENT quote past its expiration
// date reads as EXPIRED even before an explicit re-save commits it.
func (q *Quote) EffectiveStatus(now time.Time) lifecycle.Status {
	if q.Status == lifecycle.QuoteSent && q.ExpirationDate.Before(now) {
		return lifecycle.QuoteExpired
	}
	return q.Status
}
