package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/service"
)

func TestQuoteService_Create(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("creates a draft with zeroed aggregates", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Create Quote")

		assert.Equal(t, domain.QuoteStateDraft, quote.State)
		assert.Equal(t, domain.SubStateInReview, quote.SubState)
		assert.Equal(t, 0.0, quote.TotalAmount)
		assert.Equal(t, 0.0, quote.TotalLineAmount)
		assert.Empty(t, quote.Lines)
	})

	t.Run("appends the initial version snapshot", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Create Snapshot")

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		require.Len(t, versions, 1)
		assert.Equal(t, 1, versions[0].VersionNumber)
		assert.Equal(t, domain.ChangeTypeCreated, versions[0].ChangeType)
	})

	t.Run("rejects a customer id without a kind", func(t *testing.T) {
		id := uuid.New()
		_, err := svcs.quotes.Create(ctx, domain.CreateQuoteRequest{
			Name:       "Test Customer Ref",
			CustomerID: &id,
		})

		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "customerId", vErr.Field)
	})

	t.Run("rejects an inverted effective window", func(t *testing.T) {
		from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		_, err := svcs.quotes.Create(ctx, domain.CreateQuoteRequest{
			Name:          "Test Window",
			EffectiveFrom: &from,
			EffectiveTo:   &to,
		})

		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "effectiveTo", vErr.Field)
	})
}

func TestQuoteService_GetByID(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	quote := svcs.createDraftQuote(t, ctx, "Test Get Quote")

	got, err := svcs.quotes.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, quote.ID, got.ID)
	assert.Equal(t, "Test Get Quote", got.Name)

	_, err = svcs.quotes.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrQuoteNotFound)
}

func TestQuoteService_Update(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("updates fields and records them in the snapshot", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Update Quote")

		updated, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{
			Name:        strPtr("Test Update Quote Renamed"),
			Description: strPtr("with a description"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Test Update Quote Renamed", updated.Name)
		assert.Equal(t, "with a description", updated.Description)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, domain.ChangeTypeUpdated, versions[1].ChangeType)
		assert.ElementsMatch(t, []string{"name", "description"}, versions[1].ChangedFields)
	})

	t.Run("no-op update appends no snapshot", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Update Noop")

		_, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{})
		require.NoError(t, err)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})

	t.Run("clears the opportunity link", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Update Clear Opp")
		oppID := uuid.New()

		updated, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{
			OpportunityID: &oppID,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.OpportunityID)

		updated, err = svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{
			ClearOpportunityID: true,
		})
		require.NoError(t, err)
		assert.Nil(t, updated.OpportunityID)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, []string{"opportunityId"}, versions[2].ChangedFields)

		// Clearing an already empty link is a no-op, not a new version.
		_, err = svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{
			ClearOpportunityID: true,
		})
		require.NoError(t, err)
		versions, err = svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		assert.Len(t, versions, 3)
	})

	t.Run("clears the effective window so activation requires it again", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Update Clear Window")

		updated, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{
			ClearEffectiveWindow: true,
		})
		require.NoError(t, err)
		assert.Nil(t, updated.EffectiveFrom)
		assert.Nil(t, updated.EffectiveTo)

		_, err = svcs.lifecycle.Activate(ctx, quote.ID)
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "effectiveFrom", vErr.Field)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.ElementsMatch(t, []string{"effectiveFrom", "effectiveTo"}, versions[1].ChangedFields)
	})

	t.Run("rejects updates outside draft", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Update Active")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		_, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{
			Name: strPtr("should not apply"),
		})
		assert.ErrorIs(t, err, service.ErrQuoteNotDraft)
	})
}

func TestQuoteService_Delete(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("deletes a draft together with lines and versions", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Delete Quote")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 2, 50, 0, 0)

		require.NoError(t, svcs.quotes.Delete(ctx, quote.ID))

		_, err := svcs.quotes.GetByID(ctx, quote.ID)
		assert.ErrorIs(t, err, service.ErrQuoteNotFound)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		assert.Empty(t, versions)
	})

	t.Run("rejects deleting a non-draft quote", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Delete Active")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 2, 50, 0, 0)
		svcs.activateQuote(t, ctx, quote.ID)

		err := svcs.quotes.Delete(ctx, quote.ID)
		assert.ErrorIs(t, err, service.ErrQuoteNotDraft)
	})
}

func TestQuoteService_List(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	for i := 0; i < 3; i++ {
		svcs.createDraftQuote(t, ctx, "Test List Quote")
	}

	result, err := svcs.quotes.List(ctx, 1, 2, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 2, result.PageSize)
}

func TestQuoteService_Search(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	svcs.createDraftQuote(t, ctx, "Warehouse Roofing")
	svcs.createDraftQuote(t, ctx, "Office Interior")

	results, err := svcs.quotes.Search(ctx, "roof", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Warehouse Roofing", results[0].Name)
}

func TestQuoteService_GetTotals(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	quote := svcs.createDraftQuote(t, ctx, "Test Totals Quote")
	svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 50, 21)
	svcs.addLine(t, ctx, quote.ID, "Bolts", 10, 50, 25, 10)

	totals, err := svcs.quotes.GetTotals(ctx, quote.ID)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, totals.TotalBaseAmount)
	assert.Equal(t, 956.0, totals.TotalLineAmount)
	assert.Equal(t, 75.0, totals.TotalDiscount)
	assert.Equal(t, 31.0, totals.TotalTax)
	assert.Equal(t, 956.0, totals.TotalAmount)
	assert.Equal(t, 2, totals.LineCount)
	assert.Equal(t, 15, totals.TotalQuantity)
	assert.InDelta(t, 66.67, totals.WeightedAveragePrice, 0.001)
}
