package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Intent is a declarative side-effect instruction emitted by a transition.
// The engine never executes these; the dispatcher does, at least once, so
// every intent carries a stable dedup key.
type Intent interface {
	IntentName() string
	DedupKey() string
}

// CreateFollowUpTask asks the task store to open a follow-up task tied to
// the transition that produced it.
type CreateFollowUpTask struct {
	RelatedEntityKind Kind
	RelatedEntityID   uuid.UUID
	TransitionID      uuid.UUID
	DueDate           time.Time
	Assignee          *uuid.UUID
	Description       string
}

func (i CreateFollowUpTask) IntentName() string { return "create_follow_up_task" }

func (i CreateFollowUpTask) DedupKey() string {
	return fmt.Sprintf("%s:%s", i.RelatedEntityID, i.TransitionID)
}

// CascadeInvoiceStatus flips the linked invoice alongside a resolved
// collections case.
type CascadeInvoiceStatus struct {
	InvoiceID    uuid.UUID
	NewStatus    string
	TransitionID uuid.UUID
}

func (i CascadeInvoiceStatus) IntentName() string { return "cascade_invoice_status" }

func (i CascadeInvoiceStatus) DedupKey() string {
	return fmt.Sprintf("%s:%s", i.InvoiceID, i.TransitionID)
}

// NotifyContact signals that outbound contact should be prompted. Message
// composition and delivery are entirely the sender's concern. Reference
// makes the key stable: transition ID for transition-driven notifications,
// a date stamp for scheduled reminders.
type NotifyContact struct {
	EntityKind Kind
	EntityID   uuid.UUID
	Reason     string
	Reference  string
}

func (i NotifyContact) IntentName() string { return "notify_contact" }

func (i NotifyContact) DedupKey() string {
	return fmt.Sprintf("%s:%s:%s", i.EntityID, i.Reason, i.Reference)
}

// ConfirmCasePayment is the synthetic-transition trigger: a gestion record
// logged a confirmed payment, so the dispatcher must drive the case to PAID
// through the regular transition entry point.
type ConfirmCasePayment struct {
	CaseID    uuid.UUID
	GestionID uuid.UUID
}

func (i ConfirmCasePayment) IntentName() string { return "confirm_case_payment" }

func (i ConfirmCasePayment) DedupKey() string {
	return fmt.Sprintf("%s:%s", i.CaseID, i.GestionID)
}
