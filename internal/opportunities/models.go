package opportunities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Opportunity is a pipeline record ("seguimiento") moving forward through
// PROSPECTING -> PROPOSAL -> NEGOTIATION -> WON | LOST. Stages may skip
// forward, never backward.
type Opportunity struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string           `gorm:"not null" json:"name"`
	ClientID        uuid.UUID        `gorm:"type:uuid;not null" json:"client_id"`
	SellerID        uuid.UUID        `gorm:"type:uuid;not null" json:"seller_id"`
	EstimatedAmount float64          `gorm:"not null" json:"estimated_amount"`
	Status          lifecycle.Status `gorm:"not null;default:'PROSPECTING'" json:"status"`
	StatusChangedAt time.Time        `gorm:"not null" json:"status_changed_at"`
	ExpectedCloseAt time.Time        `gorm:"not null" json:"expected_close_at"`
	ClosedDate      *time.Time       `json:"closed_date,omitempty"`
	ClosedAmount    *float64         `json:"closed_amount,omitempty"`
	LossReason      *string          `json:"loss_reason,omitempty"`
	Version         int              `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (o *Opportunity) EntityID() uuid.UUID             { return o.ID }
func (o *Opportunity) EntityKind() lifecycle.Kind      { return lifecycle.KindOpportunity }
func (o *Opportunity) CurrentStatus() lifecycle.Status { return o.Status }

// ApplyTransition merges the transition into the opportunity. A won deal
// without an explicit closedDate closes now; an omitted closedAmount stays
// absent, never zero.
func (o *Opportunity) ApplyTransition(to lifecycle.Status, at time.Time, p lifecycle.Payload) {
	o.Status = to
	o.StatusChangedAt = at
	switch to {
	case lifecycle.OpportunityWon:
		closed := at
		if t, ok := p.Time("closedDate"); ok {
			closed = t
		}
		o.ClosedDate = &closed
		if amount, ok := p.Float("closedAmount"); ok {
			o.ClosedAmount = &amount
		}
	case lifecycle.OpportunityLost:
		reason := p.String("lossReason")
		o.LossReason = &reason
		closed := at
		o.ClosedDate = &closed
	}
}

// TransitionIntents opens follow-up work when the deal closes either way.
func (o *Opportunity) TransitionIntents(to lifecycle.Status, transitionID uuid.UUID, at time.Time) []lifecycle.Intent {
	seller := o.SellerID
	switch to {
	case lifecycle.OpportunityWon:
		return []lifecycle.Intent{
			lifecycle.CreateFollowUpTask{
				RelatedEntityKind: lifecycle.KindOpportunity,
				RelatedEntityID:   o.ID,
				TransitionID:      transitionID,
				Assignee:          &seller,
				DueDate:           at.AddDate(0, 0, 3),
				Description:       "Kick off delivery and post-sale follow-up for " + o.Name,
			},
		}
	case lifecycle.OpportunityLost:
		return []lifecycle.Intent{
			lifecycle.CreateFollowUpTask{
				RelatedEntityKind: lifecycle.KindOpportunity,
				RelatedEntityID:   o.ID,
				TransitionID:      transitionID,
				Assignee:          &seller,
				DueDate:           at.AddDate(0, 0, 7),
				Description:       "Review loss and schedule future contact for " + o.Name,
			},
		}
	}
	return nil
}
