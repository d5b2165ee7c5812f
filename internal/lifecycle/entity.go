package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies which state machine governs an entity.
type Kind string

const (
	KindQuote           Kind = "QUOTE"
	KindOpportunity     Kind = "OPPORTUNITY"
	KindCollectionsCase Kind = "COLLECTIONS_CASE"
)

// Status is a state within a kind's finite state set.
type Status string

// Quote statuses
const (
	QuoteDraft     Status = "DRAFT"
	QuoteSent      Status = "SENT"
	QuoteAccepted  Status = "ACCEPTED"
	QuoteRejected  Status = "REJECTED"
	QuoteExpired   Status = "EXPIRED"
	QuoteCancelled Status = "CANCELLED"
)

// Opportunity stages
const (
	OpportunityProspecting Status = "PROSPECTING"
	OpportunityProposal    Status = "PROPOSAL"
	OpportunityNegotiation Status = "NEGOTIATION"
	OpportunityWon         Status = "WON"
	OpportunityLost        Status = "LOST"
)

// Collections case statuses
const (
	CasePending       Status = "PENDING"
	CaseManaging      Status = "MANAGING"
	CasePaid          Status = "PAID"
	CaseUncollectible Status = "UNCOLLECTIBLE"
)

// Entity is the capability every lifecycle-managed record implements.
// The engine only sees this surface; persistence stays with the caller.
type Entity interface {
	EntityID() uuid.UUID
	EntityKind() Kind
	CurrentStatus() Status

	// ApplyTransition moves the entity to the target status and merges the
	// kind-specific payload fields in. Called only after the registry and
	// payload checks have passed.
	ApplyTransition(to Status, at time.Time, p Payload)

	// TransitionIntents returns the declarative side effects this entity
	// emits when entering the target status. transitionID is the audit
	// record ID, used as the idempotency key for dispatch.
	TransitionIntents(to Status, transitionID uuid.UUID, at time.Time) []Intent
}
