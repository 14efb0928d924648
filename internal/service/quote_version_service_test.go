package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/service"
)

func TestQuoteVersionService_Numbering(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	quote := svcs.createDraftQuote(t, ctx, "Test Version Numbering")
	svcs.addLine(t, ctx, quote.ID, "Line 1", 1, 100, 0, 0)
	svcs.addLine(t, ctx, quote.ID, "Line 2", 2, 100, 0, 0)

	versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, version := range versions {
		assert.Equal(t, i+1, version.VersionNumber)
		assert.Equal(t, quote.ID, version.QuoteID)
	}

	// independent quotes number independently
	other := svcs.createDraftQuote(t, ctx, "Test Version Numbering Other")
	otherVersions, err := svcs.versions.ListByQuote(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, otherVersions, 1)
	assert.Equal(t, 1, otherVersions[0].VersionNumber)
}

func TestQuoteVersionService_SnapshotContents(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	quote := svcs.createDraftQuote(t, ctx, "Test Snapshot Contents")
	svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 50, 21)

	versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	latest := versions[1]
	assert.Equal(t, domain.QuoteStateDraft, latest.State)
	assert.Equal(t, 471.0, latest.TotalAmount)
	require.Len(t, latest.Lines, 1)
	assert.Equal(t, "Steel beam", latest.Lines[0].Description)
	assert.Equal(t, 5, latest.Lines[0].Quantity)
}

func TestQuoteVersionService_SnapshotsAreImmutable(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	quote := svcs.createDraftQuote(t, ctx, "Test Snapshot Immutable")
	withLine := svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)

	versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
	require.NoError(t, err)
	versionID := versions[1].ID

	// later mutations must not touch the earlier snapshot
	_, err = svcs.quotes.UpdateLine(ctx, quote.ID, withLine.Lines[0].ID, domain.UpdateQuoteLineRequest{
		UnitPrice: floatPtr(200),
	})
	require.NoError(t, err)

	version, err := svcs.versions.GetByID(ctx, versionID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, version.TotalAmount)
	require.Len(t, version.Lines, 1)
	assert.Equal(t, 100.0, version.Lines[0].UnitPrice.InexactFloat64())
}

func TestQuoteVersionService_Compare(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	t.Run("comparing a version with itself yields no changes", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Compare Self")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		latest := versions[len(versions)-1]

		comparison, err := svcs.versions.Compare(ctx, latest.ID, latest.ID)
		require.NoError(t, err)
		assert.Empty(t, comparison.QuoteChanges)
		assert.Empty(t, comparison.LinesAdded)
		assert.Empty(t, comparison.LinesRemoved)
		assert.Empty(t, comparison.LinesModified)
		assert.Equal(t, 0, comparison.Summary.TotalChanges)
	})

	t.Run("detects quote-level and line-level changes", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Compare Changes")
		withLine := svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)

		_, err := svcs.quotes.Update(ctx, quote.ID, domain.UpdateQuoteRequest{
			Name: strPtr("Test Compare Changes Renamed"),
		})
		require.NoError(t, err)
		_, err = svcs.quotes.UpdateLine(ctx, quote.ID, withLine.Lines[0].ID, domain.UpdateQuoteLineRequest{
			UnitPrice: floatPtr(120),
		})
		require.NoError(t, err)
		_, err = svcs.quotes.AddLine(ctx, quote.ID, domain.CreateQuoteLineRequest{
			Description: "Bolts",
			Quantity:    10,
			UnitPrice:   5,
		})
		require.NoError(t, err)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		require.Len(t, versions, 5)

		// v2 has the original line, v5 has rename + reprice + added line
		comparison, err := svcs.versions.Compare(ctx, versions[1].ID, versions[4].ID)
		require.NoError(t, err)

		fieldNames := make([]string, 0, len(comparison.QuoteChanges))
		for _, change := range comparison.QuoteChanges {
			fieldNames = append(fieldNames, change.Field)
		}
		assert.Contains(t, fieldNames, "name")
		assert.Contains(t, fieldNames, "totalAmount")

		require.Len(t, comparison.LinesAdded, 1)
		assert.Equal(t, "Bolts", comparison.LinesAdded[0].Description)
		assert.Empty(t, comparison.LinesRemoved)

		require.Len(t, comparison.LinesModified, 1)
		modified := comparison.LinesModified[0]
		assert.Equal(t, withLine.Lines[0].ID, modified.LineID)
		require.NotEmpty(t, modified.Changes)
		var priceChange *domain.FieldChange
		for i := range modified.Changes {
			if modified.Changes[i].Field == "unitPrice" {
				priceChange = &modified.Changes[i]
			}
		}
		require.NotNil(t, priceChange)
		assert.Equal(t, "100.00", priceChange.OldValue)
		assert.Equal(t, "120.00", priceChange.NewValue)

		assert.Equal(t, comparison.Summary.QuoteFieldChanges+
			comparison.Summary.LinesAdded+
			comparison.Summary.LinesRemoved+
			comparison.Summary.LinesModified,
			comparison.Summary.TotalChanges)
	})

	t.Run("detects removed lines", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Compare Removed")
		withLine := svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)
		_, err := svcs.quotes.DeleteLine(ctx, quote.ID, withLine.Lines[0].ID)
		require.NoError(t, err)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)
		require.Len(t, versions, 3)

		comparison, err := svcs.versions.Compare(ctx, versions[1].ID, versions[2].ID)
		require.NoError(t, err)
		require.Len(t, comparison.LinesRemoved, 1)
		assert.Equal(t, "Steel beam", comparison.LinesRemoved[0].Description)
		assert.Empty(t, comparison.LinesAdded)
	})

	t.Run("comparison is symmetric on direction", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Compare Direction")
		svcs.addLine(t, ctx, quote.ID, "Steel beam", 5, 100, 0, 0)

		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)

		forward, err := svcs.versions.Compare(ctx, versions[0].ID, versions[1].ID)
		require.NoError(t, err)
		backward, err := svcs.versions.Compare(ctx, versions[1].ID, versions[0].ID)
		require.NoError(t, err)

		assert.Len(t, forward.LinesAdded, 1)
		assert.Empty(t, forward.LinesRemoved)
		assert.Len(t, backward.LinesRemoved, 1)
		assert.Empty(t, backward.LinesAdded)
	})

	t.Run("unknown version id", func(t *testing.T) {
		quote := svcs.createDraftQuote(t, ctx, "Test Compare Missing")
		versions, err := svcs.versions.ListByQuote(ctx, quote.ID)
		require.NoError(t, err)

		_, err = svcs.versions.Compare(ctx, versions[0].ID, uuid.New())
		assert.ErrorIs(t, err, service.ErrVersionNotFound)
	})
}

func TestQuoteVersionService_GetByID(t *testing.T) {
	svcs := setupServices(t, nil)
	ctx := testContext()

	_, err := svcs.versions.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrVersionNotFound)
}
