package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    domain.QuoteState
		to      domain.QuoteState
		allowed bool
	}{
		{"draft to active", domain.QuoteStateDraft, domain.QuoteStateActive, true},
		{"draft to closed", domain.QuoteStateDraft, domain.QuoteStateClosed, true},
		{"draft to won", domain.QuoteStateDraft, domain.QuoteStateWon, false},
		{"active to won", domain.QuoteStateActive, domain.QuoteStateWon, true},
		{"active to closed", domain.QuoteStateActive, domain.QuoteStateClosed, true},
		{"active to draft", domain.QuoteStateActive, domain.QuoteStateDraft, true},
		{"won to draft", domain.QuoteStateWon, domain.QuoteStateDraft, false},
		{"won to closed", domain.QuoteStateWon, domain.QuoteStateClosed, false},
		{"won to active", domain.QuoteStateWon, domain.QuoteStateActive, false},
		{"draft to draft", domain.QuoteStateDraft, domain.QuoteStateDraft, false},
		{"closed to closed", domain.QuoteStateClosed, domain.QuoteStateClosed, true},
		{"closed back to draft", domain.QuoteStateClosed, domain.QuoteStateDraft, true},
		{"closed to active", domain.QuoteStateClosed, domain.QuoteStateActive, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, domain.CanTransition(tc.from, tc.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, domain.QuoteStateWon.IsTerminal())
	assert.False(t, domain.QuoteStateDraft.IsTerminal())
	assert.False(t, domain.QuoteStateActive.IsTerminal())
	// closed quotes can still be revised or canceled
	assert.False(t, domain.QuoteStateClosed.IsTerminal())
}

func TestAllowsMutation(t *testing.T) {
	assert.True(t, domain.QuoteStateDraft.AllowsMutation())
	assert.False(t, domain.QuoteStateActive.AllowsMutation())
	assert.False(t, domain.QuoteStateWon.AllowsMutation())
	assert.False(t, domain.QuoteStateClosed.AllowsMutation())
}

func TestReachableFrom(t *testing.T) {
	assert.ElementsMatch(t,
		[]domain.QuoteState{domain.QuoteStateWon, domain.QuoteStateClosed, domain.QuoteStateDraft},
		domain.ReachableFrom(domain.QuoteStateActive))
	assert.Empty(t, domain.ReachableFrom(domain.QuoteStateWon))
}

func TestDefaultSubState(t *testing.T) {
	assert.Equal(t, domain.SubStateInReview, domain.DefaultSubState(domain.QuoteStateDraft))
	assert.Equal(t, domain.SubStateInProgress, domain.DefaultSubState(domain.QuoteStateActive))
	assert.Equal(t, domain.SubStateWon, domain.DefaultSubState(domain.QuoteStateWon))
	assert.Equal(t, domain.SubStateLost, domain.DefaultSubState(domain.QuoteStateClosed))
}

func TestStateIsValid(t *testing.T) {
	assert.True(t, domain.QuoteStateDraft.IsValid())
	assert.False(t, domain.QuoteState("pending").IsValid())
}
