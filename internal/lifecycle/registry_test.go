package lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// allowedEdges is the full closed-world expectation: any triple not listed
// here must be forbidden.
var allowedEdges = map[Kind]map[Status][]Status{
	KindQuote: {
		QuoteDraft: {QuoteSent},
		QuoteSent:  {QuoteAccepted, QuoteRejected, QuoteExpired, QuoteCancelled},
	},
	KindOpportunity: {
		OpportunityProspecting: {OpportunityProposal, OpportunityNegotiation, OpportunityWon, OpportunityLost},
		OpportunityProposal:    {OpportunityNegotiation, OpportunityWon, OpportunityLost},
		OpportunityNegotiation: {OpportunityWon, OpportunityLost},
	},
	KindCollectionsCase: {
		CasePending:  {CaseManaging},
		CaseManaging: {CasePaid, CaseUncollectible},
	},
}

var allStatuses = map[Kind][]Status{
	KindQuote:           {QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected, QuoteExpired, QuoteCancelled},
	KindOpportunity:     {OpportunityProspecting, OpportunityProposal, OpportunityNegotiation, OpportunityWon, OpportunityLost},
	KindCollectionsCase: {CasePending, CaseManaging, CasePaid, CaseUncollectible},
}

func edgeAllowed(kind Kind, from, to Status) bool {
	for _, s := range allowedEdges[kind][from] {
		if s == to {
			return true
		}
	}
	return false
}

func TestRegistryEnumeratesEveryTriple(t *testing.T) {
	registry := NewRegistry()

	for kind, statuses := range allStatuses {
		for _, from := range statuses {
			for _, to := range statuses {
				name := fmt.Sprintf("%s/%s->%s", kind, from, to)
				assert.Equal(t, edgeAllowed(kind, from, to), registry.IsAllowed(kind, from, to), name)
			}
		}
	}
}

func TestRegistryUnknownCombinationsForbidden(t *testing.T) {
	registry := NewRegistry()

	assert.False(t, registry.IsAllowed("INVOICE", QuoteDraft, QuoteSent))
	assert.False(t, registry.IsAllowed(KindQuote, "UNKNOWN", QuoteSent))
	assert.False(t, registry.IsAllowed(KindQuote, QuoteDraft, "UNKNOWN"))
	// Cross-kind statuses never leak between machines
	assert.False(t, registry.IsAllowed(KindQuote, CasePending, CaseManaging))
	assert.False(t, registry.IsAllowed(KindCollectionsCase, QuoteDraft, QuoteSent))
}

func TestRegistryTerminalStates(t *testing.T) {
	registry := NewRegistry()

	terminal := map[Kind][]Status{
		KindQuote:           {QuoteAccepted, QuoteRejected, QuoteExpired, QuoteCancelled},
		KindOpportunity:     {OpportunityWon, OpportunityLost},
		KindCollectionsCase: {CasePaid, CaseUncollectible},
	}
	open := map[Kind][]Status{
		KindQuote:           {QuoteDraft, QuoteSent},
		KindOpportunity:     {OpportunityProspecting, OpportunityProposal, OpportunityNegotiation},
		KindCollectionsCase: {CasePending, CaseManaging},
	}

	for kind, statuses := range terminal {
		for _, s := range statuses {
			assert.True(t, registry.IsTerminal(kind, s), "%s %s should be terminal", kind, s)
		}
	}
	for kind, statuses := range open {
		for _, s := range statuses {
			assert.False(t, registry.IsTerminal(kind, s), "%s %s should not be terminal", kind, s)
		}
	}
}

func TestRegistryNoBackwardOpportunityMoves(t *testing.T) {
	registry := NewRegistry()

	assert.False(t, registry.IsAllowed(KindOpportunity, OpportunityProposal, OpportunityProspecting))
	assert.False(t, registry.IsAllowed(KindOpportunity, OpportunityNegotiation, OpportunityProposal))
	assert.False(t, registry.IsAllowed(KindOpportunity, OpportunityNegotiation, OpportunityProspecting))
}

func TestRegistryRequiredPayloadFields(t *testing.T) {
	registry := NewRegistry()

	rejected := registry.RequiredPayloadFields(KindQuote, QuoteRejected)
	assert.Len(t, rejected, 1)
	assert.Equal(t, "rejectionReason", rejected[0].Name)
	assert.True(t, rejected[0].Required)

	won := registry.RequiredPayloadFields(KindOpportunity, OpportunityWon)
	assert.Len(t, won, 2)
	for _, f := range won {
		assert.False(t, f.Required, "field %s on WON is optional", f.Name)
	}

	lost := registry.RequiredPayloadFields(KindOpportunity, OpportunityLost)
	assert.Len(t, lost, 1)
	assert.Equal(t, "lossReason", lost[0].Name)

	assert.Empty(t, registry.RequiredPayloadFields(KindQuote, QuoteSent))
	assert.Empty(t, registry.RequiredPayloadFields("UNKNOWN", QuoteSent))
}
