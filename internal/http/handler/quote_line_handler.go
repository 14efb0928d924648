package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

// Line management endpoints live on QuoteHandler since every line operation
// is scoped to its quote and returns the updated quote aggregate.

// @Summary Add quote line
// @Description Adds a line to a draft quote and recomputes the quote totals.
// @Tags Quote Lines
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.CreateQuoteLineRequest true "Line data"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Quote is not in draft state"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines [post]
func (h *QuoteHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	var req domain.CreateQuoteLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.AddLine(r.Context(), quoteID, req)
	if err != nil {
		h.logger.Error("failed to add line", zap.String("quoteID", quoteID.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to add line")
		return
	}

	respondJSON(w, http.StatusCreated, quote)
}

// @Summary Update quote line
// @Tags Quote Lines
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param lineId path string true "Line ID"
// @Param request body domain.UpdateQuoteLineRequest true "Fields to update"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines/{lineId} [put]
func (h *QuoteHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid line ID")
		return
	}

	var req domain.UpdateQuoteLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.UpdateLine(r.Context(), quoteID, lineID, req)
	if err != nil {
		h.logger.Error("failed to update line",
			zap.String("quoteID", quoteID.String()),
			zap.String("lineID", lineID.String()),
			zap.Error(err))
		respondServiceError(w, err, "Failed to update line")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// @Summary Delete quote line
// @Tags Quote Lines
// @Produce json
// @Param id path string true "Quote ID"
// @Param lineId path string true "Line ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines/{lineId} [delete]
func (h *QuoteHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid line ID")
		return
	}

	quote, err := h.quoteService.DeleteLine(r.Context(), quoteID, lineID)
	if err != nil {
		h.logger.Error("failed to delete line",
			zap.String("quoteID", quoteID.String()),
			zap.String("lineID", lineID.String()),
			zap.Error(err))
		respondServiceError(w, err, "Failed to delete line")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// @Summary Bulk delete quote lines
// @Description Removes a set of lines in one all-or-nothing operation with a single version snapshot.
// @Tags Quote Lines
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.BulkDeleteLinesRequest true "Line IDs to delete"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines/bulk-delete [post]
func (h *QuoteHandler) BulkDeleteLines(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	var req domain.BulkDeleteLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.BulkDeleteLines(r.Context(), quoteID, req)
	if err != nil {
		h.logger.Error("failed to bulk delete lines", zap.String("quoteID", quoteID.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to bulk delete lines")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// @Summary Bulk apply discount
// @Description Applies a percentage or absolute discount to a set of lines. Discounts are clamped to each line's base amount. All-or-nothing with a single version snapshot.
// @Tags Quote Lines
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.BulkDiscountRequest true "Discount to apply"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines/bulk-discount [post]
func (h *QuoteHandler) BulkApplyDiscount(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	var req domain.BulkDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.BulkApplyDiscount(r.Context(), quoteID, req)
	if err != nil {
		h.logger.Error("failed to bulk apply discount", zap.String("quoteID", quoteID.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to apply discount")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}
