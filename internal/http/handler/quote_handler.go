package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/service"
)

type QuoteHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

func NewQuoteHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// @Summary List quotes
// @Tags Quotes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param customerId query string false "Filter by customer ID"
// @Param state query string false "Filter by state" Enums(draft, active, won, closed)
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	var customerID *uuid.UUID
	if cid := r.URL.Query().Get("customerId"); cid != "" {
		if id, err := uuid.Parse(cid); err == nil {
			customerID = &id
		}
	}

	var state *domain.QuoteState
	if s := r.URL.Query().Get("state"); s != "" {
		st := domain.QuoteState(s)
		if !st.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid state filter")
			return
		}
		state = &st
	}

	result, err := h.quoteService.List(r.Context(), page, pageSize, customerID, state)
	if err != nil {
		h.logger.Error("failed to list quotes", zap.Error(err))
		respondServiceError(w, err, "Failed to list quotes")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Search quotes
// @Tags Quotes
// @Produce json
// @Param q query string true "Search term"
// @Param limit query int false "Max results" default(20)
// @Success 200 {array} domain.QuoteDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/search [get]
func (h *QuoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Missing search term")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.quoteService.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search quotes", zap.Error(err))
		respondServiceError(w, err, "Failed to search quotes")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Create quote
// @Description Creates a new quote in draft state with zeroed totals.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body domain.CreateQuoteRequest true "Quote data"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create quote", zap.Error(err))
		respondServiceError(w, err, "Failed to create quote")
		return
	}

	respondJSON(w, http.StatusCreated, quote)
}

// @Summary Get quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	quote, err := h.quoteService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to get quote")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// @Summary Update quote
// @Description Updates a draft quote. Quotes outside draft reject changes.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.UpdateQuoteRequest true "Fields to update"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Quote is not in draft state"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	var req domain.UpdateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("failed to update quote", zap.String("quoteID", id.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to update quote")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// @Summary Delete quote
// @Description Deletes a draft quote together with its lines and version history.
// @Tags Quotes
// @Param id path string true "Quote ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Quote is not in draft state"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	if err := h.quoteService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete quote", zap.String("quoteID", id.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to delete quote")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// @Summary Get quote totals
// @Description Recomputes aggregate totals from the quote's current lines.
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteTotalsDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/totals [get]
func (h *QuoteHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	totals, err := h.quoteService.GetTotals(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to compute totals")
		return
	}

	respondJSON(w, http.StatusOK, totals)
}
