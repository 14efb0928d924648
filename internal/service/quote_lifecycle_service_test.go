package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/service"
)

// fakeCloser records close calls and can be told to fail.
type fakeCloser struct {
	err    error
	calls  int
	lastID uuid.UUID
	lastRevenue decimal.Decimal
}

func (f *fakeCloser) CloseAsWon(ctx context.Context, opportunityID uuid.UUID, actualRevenue decimal.Decimal, closeDate time.Time) error {
	f.calls++
	f.lastID = opportunityID
	f.lastRevenue = actualRevenue
	return f.err
}

func TestQuoteLifecycleService_Activate(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("activates a draft with lines", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Activate")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)

		result, err := svcs.lifecycle.Activate(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateActive, result.Quote.State)
		assert.Equal(t, domain.SubStateInProgress, result.Quote.SubState)
		assert.Empty(t, result.Warnings)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		last := versions[len(versions)-1]
		assert.Equal(t, domain.ChangeTypeActivated, last.ChangeType)
	})

	t.Run("activating an empty quote warns but succeeds", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Activate Empty")

		result, err := svcs.lifecycle.Activate(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateActive, result.Quote.State)
		assert.Contains(t, result.Warnings, "quote has no lines")
		assert.Contains(t, result.Warnings, "quote total amount is not positive")
	})

	t.Run("requires a complete effective window", func(t *testing.T) {
		noWindow, err := svcs.quotes.Create(ctx, domain.CreateQuoteRequest{Name: "Test Activate No Window"})
		require.NoError(t, err)

		_, err = svcs.lifecycle.Activate(ctx, noWindow.ID)

		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "effectiveFrom", vErr.Field)

		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		halfWindow, err := svcs.quotes.Create(ctx, domain.CreateQuoteRequest{
			Name:          "Test Activate Half Window",
			EffectiveFrom: &from,
		})
		require.NoError(t, err)

		_, err = svcs.lifecycle.Activate(ctx, halfWindow.ID)
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "effectiveTo", vErr.Field)
	})

	t.Run("rejects activating an already active quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Activate Twice")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 1, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		_, err := svcs.lifecycle.Activate(ctx, quote.ID)
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})

	t.Run("unknown quote", func(t *testing.T) {
		_, err := svcs.lifecycle.Activate(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrQuoteNotFound)
	})
}

func TestQuoteLifecycleService_Win(t *testing.T) {
	t.Run("wins an active quote without an opportunity", func(t *testing.T) {
		closer := &fakeCloser{}
		svcs := setupServices(t, closer)
		ctx := testContext()

		quote := svcs.createDraftQuote(t, ctx, "Test Win")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		result, err := svcs.lifecycle.Win(ctx, quote.ID, domain.WinQuoteRequest{ClosureReason: "signed"})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateWon, result.Quote.State)
		assert.Equal(t, domain.SubStateWon, result.Quote.SubState)
		assert.Equal(t, "signed", result.Quote.ClosureReason)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, 0, closer.calls)
	})

	t.Run("closes the linked opportunity with the quote total", func(t *testing.T) {
		closer := &fakeCloser{}
		svcs := setupServices(t, closer)
		ctx := testContext()

		oppID := uuid.New()
		quote := svcs.createDraftQuote(t, ctx, "Test Win Opportunity")
		_, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{OpportunityID: &oppID})
		require.NoError(t, err)
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		result, err := svcs.lifecycle.Win(ctx, quote.ID, domain.WinQuoteRequest{})
		require.NoError(t, err)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, 1, closer.calls)
		assert.Equal(t, oppID, closer.lastID)
		assert.True(t, decimal.NewFromInt(500).Equal(closer.lastRevenue))
	})

	t.Run("a failing close surfaces as a warning, the win stands", func(t *testing.T) {
		closer := &fakeCloser{err: errors.New("backend unavailable")}
		svcs := setupServices(t, closer)
		ctx := testContext()

		oppID := uuid.New()
		quote := svcs.createDraftQuote(t, ctx, "Test Win Close Failure")
		_, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{OpportunityID: &oppID})
		require.NoError(t, err)
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		result, err := svcs.lifecycle.Win(ctx, quote.ID, domain.WinQuoteRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateWon, result.Quote.State)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "closing opportunity")
		assert.Contains(t, result.Warnings[0], "backend unavailable")

		// the quote stayed won
		current, err := svcs.quotes.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateWon, current.State)
	})

	t.Run("cannot win a draft", func(t *testing.T) {
		svcs := setupServices(t, nil)
		ctx := testContext()

		quote := svcs.createDraftQuote(t, ctx, "Test Win Draft")

		_, err := svcs.lifecycle.Win(ctx, quote.ID, domain.WinQuoteRequest{})
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})
}

func TestQuoteLifecycleService_Lose(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("loses an active quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Lose")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 1, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		result, err := svcs.lifecycle.Lose(ctx, quote.ID, domain.LoseQuoteRequest{Reason: "competitor"})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateClosed, result.Quote.State)
		assert.Equal(t, domain.SubStateLost, result.Quote.SubState)
		assert.Equal(t, "competitor", result.Quote.ClosureReason)
	})

	t.Run("loses a draft without ever activating it", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Lose Draft")

		result, err := svcs.lifecycle.Lose(ctx, quote.ID, domain.LoseQuoteRequest{Reason: "budget cut"})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateClosed, result.Quote.State)
		assert.Equal(t, domain.SubStateLost, result.Quote.SubState)
		assert.Equal(t, "budget cut", result.Quote.ClosureReason)
	})

	t.Run("cannot lose an already closed quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Lose Closed")
		_, err := svcs.lifecycle.Cancel(ctx, quote.ID, domain.CancelQuoteRequest{})
		require.NoError(t, err)

		_, err = svcs.lifecycle.Lose(ctx, quote.ID, domain.LoseQuoteRequest{})
		assert.ErrorIs(t, err, service.ErrIllegalTransition)
	})

	t.Run("cannot lose a won quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Lose Won")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 1, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)
		_, err := svcs.lifecycle.Win(ctx, quote.ID, domain.WinQuoteRequest{})
		require.NoError(t, err)

		_, err = svcs.lifecycle.Lose(ctx, quote.ID, domain.LoseQuoteRequest{})
		assert.ErrorIs(t, err, service.ErrQuoteWon)
	})
}

func TestQuoteLifecycleService_Cancel(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("cancels a draft", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Cancel Draft")

		result, err := svcs.lifecycle.Cancel(ctx, quote.ID, domain.CancelQuoteRequest{Reason: "withdrawn"})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateClosed, result.Quote.State)
		assert.Equal(t, domain.SubStateCanceled, result.Quote.SubState)
	})

	t.Run("cancels an already closed quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Cancel Closed")
		_, err := svcs.lifecycle.Cancel(ctx, quote.ID, domain.CancelQuoteRequest{})
		require.NoError(t, err)

		result, err := svcs.lifecycle.Cancel(ctx, quote.ID, domain.CancelQuoteRequest{Reason: "again"})
		require.NoError(t, err)
		assert.Equal(t, domain.SubStateCanceled, result.Quote.SubState)
	})

	t.Run("cannot cancel a won quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Cancel Won")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 1, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)
		_, err := svcs.lifecycle.Win(ctx, quote.ID, domain.WinQuoteRequest{})
		require.NoError(t, err)

		_, err = svcs.lifecycle.Cancel(ctx, quote.ID, domain.CancelQuoteRequest{})
		assert.ErrorIs(t, err, service.ErrQuoteWon)
	})
}

func TestQuoteLifecycleService_Revise(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("revise reopens a closed quote and clears the closure reason", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Revise")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 1, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)
		_, err := svcs.lifecycle.Lose(ctx, quote.ID, domain.LoseQuoteRequest{Reason: "competitor"})
		require.NoError(t, err)

		result, err := svcs.lifecycle.Revise(ctx, quote.ID, domain.ReviseQuoteRequest{Reason: "new pricing"})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateDraft, result.Quote.State)
		assert.Equal(t, domain.SubStateRevised, result.Quote.SubState)
		assert.Empty(t, result.Quote.ClosureReason)

		// the quote accepts mutations again
		_, err = svcs.quotes.AddLine(ctx, quote.ID, domain.CreateQuoteLineRequest{
			Description: "Replacement beam",
			Quantity:    1,
			UnitPrice:   120,
		})
		assert.NoError(t, err)
	})

	t.Run("revise moves an active quote back to draft", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Revise Active")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 1, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		result, err := svcs.lifecycle.Revise(ctx, quote.ID, domain.ReviseQuoteRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStateDraft, result.Quote.State)
	})

	t.Run("cannot revise a won quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Revise Won")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 1, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)
		_, err := svcs.lifecycle.Win(ctx, quote.ID, domain.WinQuoteRequest{})
		require.NoError(t, err)

		_, err = svcs.lifecycle.Revise(ctx, quote.ID, domain.ReviseQuoteRequest{})
		assert.ErrorIs(t, err, service.ErrQuoteWon)
	})
}
