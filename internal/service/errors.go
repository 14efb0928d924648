package service

import "errors"

// Common service errors
var (
	// ErrQuoteNotFound is returned when a quote id does not resolve
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrLineNotFound is returned when a quote line id does not resolve
	ErrLineNotFound = errors.New("quote line not found")

	// ErrVersionNotFound is returned when a version id does not resolve
	ErrVersionNotFound = errors.New("quote version not found")

	// ErrOpportunityNotFound is returned when an opportunity id does not resolve
	ErrOpportunityNotFound = errors.New("opportunity not found")

	// ErrQuoteNotDraft is returned when a mutation is attempted outside Draft
	ErrQuoteNotDraft = errors.New("quote is not in draft state: content can only be modified while drafting")

	// ErrIllegalTransition is returned when the state machine forbids a transition
	ErrIllegalTransition = errors.New("illegal quote state transition")

	// ErrQuoteWon is returned when cancel or revise is attempted on a won quote
	ErrQuoteWon = errors.New("quote is won: won quotes cannot be canceled or revised")

	// ErrUnauthorized is returned when no actor context is present
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLineQuoteMismatch is returned when a bulk operation names a line
	// belonging to a different quote
	ErrLineQuoteMismatch = errors.New("quote line belongs to a different quote")

	// ErrAggregateMismatch indicates stored aggregates diverged from the sum
	// of current lines. This is a programming error, not caller input.
	ErrAggregateMismatch = errors.New("quote aggregates diverged from line totals")
)
