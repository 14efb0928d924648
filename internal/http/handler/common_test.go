package handler

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/service"
)

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) domain.APIError {
	t.Helper()

	var apiErr domain.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	return apiErr
}

func TestRespondServiceError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"quote not found", service.ErrQuoteNotFound, 404, domain.ErrorTypeNotFound},
		{"line not found", service.ErrLineNotFound, 404, domain.ErrorTypeNotFound},
		{"version not found", service.ErrVersionNotFound, 404, domain.ErrorTypeNotFound},
		{"not draft", service.ErrQuoteNotDraft, 409, domain.ErrorTypeConflict},
		{"won", service.ErrQuoteWon, 409, domain.ErrorTypeConflict},
		{"illegal transition", service.ErrIllegalTransition, 409, domain.ErrorTypeConflict},
		{"line quote mismatch", service.ErrLineQuoteMismatch, 409, domain.ErrorTypeConflict},
		{"unauthorized", service.ErrUnauthorized, 403, domain.ErrorTypeForbidden},
		{"unexpected", errors.New("exploded"), 500, domain.ErrorTypeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tc.err, "something went wrong")

			assert.Equal(t, tc.wantStatus, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, tc.wantType, apiErr.Type)
			assert.Equal(t, tc.wantStatus, apiErr.Status)
		})
	}

	t.Run("wrapped sentinels still map", func(t *testing.T) {
		rec := httptest.NewRecorder()
		respondServiceError(rec, errors.Join(errors.New("context"), service.ErrQuoteNotFound), "fallback")
		assert.Equal(t, 404, rec.Code)
	})

	t.Run("validation error carries the field map", func(t *testing.T) {
		rec := httptest.NewRecorder()
		respondServiceError(rec, domain.NewValidationError("effectiveTo", "must be after effectiveFrom"), "fallback")

		assert.Equal(t, 400, rec.Code)
		apiErr := decodeAPIError(t, rec)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Equal(t, "must be after effectiveFrom", apiErr.Errors["effectiveTo"])
	})

	t.Run("unmapped errors do not leak their message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		respondServiceError(rec, errors.New("pq: secret dsn details"), "failed to update quote")

		apiErr := decodeAPIError(t, rec)
		assert.Equal(t, "failed to update quote", apiErr.Detail)
	})
}

// An explicit zero discount value must get past struct validation so the
// caller sees the precise "must be greater than zero" constraint instead of
// a generic required-field message.
func TestBulkDiscountRequestZeroValuePassesStructValidation(t *testing.T) {
	req := domain.BulkDiscountRequest{
		LineIDs: []uuid.UUID{uuid.New()},
		Mode:    domain.DiscountModePercentage,
		Value:   0,
	}
	assert.NoError(t, validate.Struct(req))
}

func TestToJSONFieldName(t *testing.T) {
	assert.Equal(t, "effectiveFrom", toJSONFieldName("EffectiveFrom"))
	assert.Equal(t, "name", toJSONFieldName("Name"))
	assert.Equal(t, "", toJSONFieldName(""))
}
