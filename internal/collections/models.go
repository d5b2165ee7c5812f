package collections

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/aging"
	"github.com/grupoventia/crm-comercial/internal/invoices"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Gestion channels
const (
	ChannelCall     = "call"
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
	ChannelVisit    = "visit"
	ChannelLetter   = "letter"
)

// Gestion results
const (
	ResultNoAnswer         = "no_answer"
	ResultPromisedPayment  = "promised_payment"
	ResultPaymentConfirmed = "payment_confirmed"
	ResultDispute          = "dispute"
	ResultOther            = "other"
)

// CollectionsCase tracks the effort to recover payment on an overdue
// invoice. Days overdue is never stored; it derives from the linked
// invoice's due date at read time.
type CollectionsCase struct {
	ID                  uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"invoice_id"`
	ClientID            uuid.UUID        `gorm:"type:uuid;not null" json:"client_id"`
	AssignedCollectorID *uuid.UUID       `gorm:"type:uuid" json:"assigned_collector_id,omitempty"`
	Status              lifecycle.Status `gorm:"not null;default:'PENDING'" json:"status"`
	StatusChangedAt     time.Time        `gorm:"not null" json:"status_changed_at"`
	WriteOffReason      *string          `json:"write_off_reason,omitempty"`
	PaymentReference    *string          `json:"payment_reference,omitempty"`
	Version             int              `gorm:"not null;default:1" json:"version"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
	Invoice             invoices.Invoice `gorm:"foreignKey:InvoiceID" json:"invoice"`
}

func (cc *CollectionsCase) EntityID() uuid.UUID             { return cc.ID }
func (cc *CollectionsCase) EntityKind() lifecycle.Kind      { return lifecycle.KindCollectionsCase }
func (cc *CollectionsCase) CurrentStatus() lifecycle.Status { return cc.Status }

// ApplyTransition merges the transition into the case.
func (cc *CollectionsCase) ApplyTransition(to lifecycle.Status, at time.Time, p lifecycle.Payload) {
	cc.Status = to
	cc.StatusChangedAt = at
	switch to {
	case lifecycle.CaseUncollectible:
		reason := p.String("writeOffReason")
		cc.WriteOffReason = &reason
	case lifecycle.CasePaid:
		if ref := p.String("paymentReference"); ref != "" {
			cc.PaymentReference = &ref
		}
	}
}

// TransitionIntents cascades the linked invoice when the case resolves.
func (cc *CollectionsCase) TransitionIntents(to lifecycle.Status, transitionID uuid.UUID, at time.Time) []lifecycle.Intent {
	switch to {
	case lifecycle.CasePaid:
		return []lifecycle.Intent{
			lifecycle.CascadeInvoiceStatus{
				InvoiceID:    cc.InvoiceID,
				NewStatus:    invoices.StatusPaid,
				TransitionID: transitionID,
			},
		}
	case lifecycle.CaseUncollectible:
		return []lifecycle.Intent{
			lifecycle.CascadeInvoiceStatus{
				InvoiceID:    cc.InvoiceID,
				NewStatus:    invoices.StatusUncollectible,
				TransitionID: transitionID,
			},
		}
	}
	return nil
}

// GestionRecord is one logged contact attempt against a case. Append-only:
// no update or delete path exists anywhere in the package.
type GestionRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"case_id"`
	Channel      string     `gorm:"not null" json:"channel"`
	Result       string     `gorm:"not null" json:"result"`
	Comment      string     `json:"comment"`
	NextActionAt *time.Time `json:"next_action_at,omitempty"`
	CreatedBy    string     `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CaseView is a case with its read-time aging attributes.
type CaseView struct {
	CollectionsCase
	DaysOverdue int                  `json:"days_overdue"`
	Urgency     aging.Classification `json:"urgency"`
}

func validChannel(ch string) bool {
	switch ch {
	case ChannelCall, ChannelEmail, ChannelWhatsApp, ChannelVisit, ChannelLetter:
		return true
	}
	return false
}

func validResult(res string) bool {
	switch res {
	case ResultNoAnswer, ResultPromisedPayment, ResultPaymentConfirmed, ResultDispute, ResultOther:
		return true
	}
	return false
}
