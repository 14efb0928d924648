package domain

// QuoteState represents the lifecycle stage of a quote.
// State is authoritative for transition legality; SubState is informational.
type QuoteState string

const (
	QuoteStateDraft  QuoteState = "draft"
	QuoteStateActive QuoteState = "active"
	QuoteStateWon    QuoteState = "won"
	QuoteStateClosed QuoteState = "closed"
)

// IsValid checks if the QuoteState is a valid enum value
func (s QuoteState) IsValid() bool {
	switch s {
	case QuoteStateDraft, QuoteStateActive, QuoteStateWon, QuoteStateClosed:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves the state.
// Closed is not terminal: a closed quote can still be revised or canceled.
func (s QuoteState) IsTerminal() bool {
	return s == QuoteStateWon
}

// AllowsMutation reports whether line CRUD and quote field updates are legal.
func (s QuoteState) AllowsMutation() bool {
	return s == QuoteStateDraft
}

// QuoteSubState carries the finer status shown in the UI timeline.
type QuoteSubState string

const (
	SubStateInReview   QuoteSubState = "in_review"
	SubStateInProgress QuoteSubState = "in_progress"
	SubStateWon        QuoteSubState = "won"
	SubStateLost       QuoteSubState = "lost"
	SubStateCanceled   QuoteSubState = "canceled"
	SubStateRevised    QuoteSubState = "revised"
)

// transitions is the full legality table of the quote state machine.
// Guards beyond pure state membership (validity window on activate, the
// won-state carve-outs for cancel and revise) live in the lifecycle service.
var transitions = map[QuoteState][]QuoteState{
	QuoteStateDraft:  {QuoteStateActive, QuoteStateClosed},
	QuoteStateActive: {QuoteStateWon, QuoteStateClosed, QuoteStateDraft},
	QuoteStateWon:    {},
	QuoteStateClosed: {QuoteStateDraft, QuoteStateClosed},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to QuoteState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReachableFrom returns the states reachable from a state in one transition.
func ReachableFrom(from QuoteState) []QuoteState {
	out := make([]QuoteState, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// DefaultSubState returns the sub-state a quote enters together with a state
// when the caller does not pick a more specific one.
func DefaultSubState(s QuoteState) QuoteSubState {
	switch s {
	case QuoteStateDraft:
		return SubStateInReview
	case QuoteStateActive:
		return SubStateInProgress
	case QuoteStateWon:
		return SubStateWon
	case QuoteStateClosed:
		return SubStateLost
	}
	return SubStateInReview
}
