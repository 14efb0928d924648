package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcadia-crm/quote-api/internal/domain"
	"github.com/arcadia-crm/quote-api/internal/service"
)

type QuoteLifecycleHandler struct {
	lifecycleService *service.QuoteLifecycleService
	logger           *zap.Logger
}

func NewQuoteLifecycleHandler(lifecycleService *service.QuoteLifecycleService, logger *zap.Logger) *QuoteLifecycleHandler {
	return &QuoteLifecycleHandler{
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

func (h *QuoteLifecycleHandler) quoteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return uuid.Nil, false
	}
	return id, true
}

// @Summary Activate quote
// @Description Moves a draft quote to active. The effective window must be set and ordered; an empty or zero-valued quote activates with warnings.
// @Tags Quote Lifecycle
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.LifecycleResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Transition not allowed from current state"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/activate [post]
func (h *QuoteLifecycleHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	result, err := h.lifecycleService.Activate(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to activate quote", zap.String("quoteID", id.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to activate quote")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Win quote
// @Description Marks an active quote as won. When the quote references an opportunity, the opportunity is closed best effort; failures surface as warnings.
// @Tags Quote Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.WinQuoteRequest false "Optional closure reason"
// @Success 200 {object} domain.LifecycleResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/win [post]
func (h *QuoteLifecycleHandler) Win(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	var req domain.WinQuoteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	result, err := h.lifecycleService.Win(r.Context(), id, req)
	if err != nil {
		h.logger.Error("failed to win quote", zap.String("quoteID", id.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to win quote")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Lose quote
// @Description Closes a draft or active quote as lost.
// @Tags Quote Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.LoseQuoteRequest false "Optional reason"
// @Success 200 {object} domain.LifecycleResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lose [post]
func (h *QuoteLifecycleHandler) Lose(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	var req domain.LoseQuoteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	result, err := h.lifecycleService.Lose(r.Context(), id, req)
	if err != nil {
		h.logger.Error("failed to lose quote", zap.String("quoteID", id.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to lose quote")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Cancel quote
// @Description Closes a quote as canceled. Won quotes cannot be canceled.
// @Tags Quote Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.CancelQuoteRequest false "Optional reason"
// @Success 200 {object} domain.LifecycleResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/cancel [post]
func (h *QuoteLifecycleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	var req domain.CancelQuoteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	result, err := h.lifecycleService.Cancel(r.Context(), id, req)
	if err != nil {
		h.logger.Error("failed to cancel quote", zap.String("quoteID", id.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to cancel quote")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Revise quote
// @Description Reopens an active or closed quote for editing by moving it back to draft.
// @Tags Quote Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.ReviseQuoteRequest false "Optional reason"
// @Success 200 {object} domain.LifecycleResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/revise [post]
func (h *QuoteLifecycleHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	var req domain.ReviseQuoteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	result, err := h.lifecycleService.Revise(r.Context(), id, req)
	if err != nil {
		h.logger.Error("failed to revise quote", zap.String("quoteID", id.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to revise quote")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
