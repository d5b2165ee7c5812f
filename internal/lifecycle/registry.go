package lifecycle

// Registry is the static transition table for every entity kind: which
// (from, to) edges exist and what payload each edge requires. Unknown
// combinations are always forbidden.
type Registry struct {
	transitions map[Kind]map[Status][]Status
	payloads    map[Kind]map[Status][]Field
}

// NewRegistry builds the registry with the three commercial state machines.
func NewRegistry() *Registry {
	return &Registry{
		transitions: map[Kind]map[Status][]Status{
			KindQuote: {
				QuoteDraft:     {QuoteSent},
				QuoteSent:      {QuoteAccepted, QuoteRejected, QuoteExpired, QuoteCancelled},
				QuoteAccepted:  {},
				QuoteRejected:  {},
				QuoteExpired:   {},
				QuoteCancelled: {},
			},
			KindOpportunity: {
				// Forward skips allowed, backward moves never.
				OpportunityProspecting: {OpportunityProposal, OpportunityNegotiation, OpportunityWon, OpportunityLost},
				OpportunityProposal:    {OpportunityNegotiation, OpportunityWon, OpportunityLost},
				OpportunityNegotiation: {OpportunityWon, OpportunityLost},
				OpportunityWon:         {},
				OpportunityLost:        {},
			},
			KindCollectionsCase: {
				CasePending:       {CaseManaging},
				CaseManaging:      {CasePaid, CaseUncollectible},
				CasePaid:          {},
				CaseUncollectible: {},
			},
		},
		payloads: map[Kind]map[Status][]Field{
			KindQuote: {
				QuoteRejected: {
					{Name: "rejectionReason", Type: FieldString, Required: true, Validate: nonEmptyString},
				},
			},
			KindOpportunity: {
				OpportunityWon: {
					{Name: "closedDate", Type: FieldTime, Required: false, Validate: validTimestamp},
					{Name: "closedAmount", Type: FieldNumber, Required: false, Validate: nonNegativeNumber},
				},
				OpportunityLost: {
					{Name: "lossReason", Type: FieldString, Required: true, Validate: nonEmptyString},
				},
			},
			KindCollectionsCase: {
				CaseUncollectible: {
					{Name: "writeOffReason", Type: FieldString, Required: true, Validate: nonEmptyString},
				},
				CasePaid: {
					{Name: "paymentReference", Type: FieldString, Required: false, Validate: nonEmptyString},
				},
			},
		},
	}
}

// IsAllowed checks whether the (kind, from, to) edge exists.
func (r *Registry) IsAllowed(kind Kind, from, to Status) bool {
	states, ok := r.transitions[kind]
	if !ok {
		return false
	}
	allowed, ok := states[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing edges for the kind.
func (r *Registry) IsTerminal(kind Kind, status Status) bool {
	states, ok := r.transitions[kind]
	if !ok {
		return false
	}
	allowed, ok := states[status]
	if !ok {
		return false
	}
	return len(allowed) == 0
}

// AllowedTransitions returns the statuses reachable from the given one.
func (r *Registry) AllowedTransitions(kind Kind, from Status) []Status {
	states, ok := r.transitions[kind]
	if !ok {
		return []Status{}
	}
	allowed, ok := states[from]
	if !ok {
		return []Status{}
	}
	return allowed
}

// RequiredPayloadFields returns the payload schema for entering the target
// status. Empty when the edge carries no payload.
func (r *Registry) RequiredPayloadFields(kind Kind, to Status) []Field {
	byStatus, ok := r.payloads[kind]
	if !ok {
		return nil
	}
	return byStatus[to]
}

// Statuses returns every known status for the kind, for enumeration in
// validation and tests.
func (r *Registry) Statuses(kind Kind) []Status {
	states, ok := r.transitions[kind]
	if !ok {
		return nil
	}
	out := make([]Status, 0, len(states))
	for s := range states {
		out = append(out, s)
	}
	return out
}
