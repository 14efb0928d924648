package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcadia-crm/quote-api/internal/service"
)

type QuoteVersionHandler struct {
	versionService *service.QuoteVersionService
	logger         *zap.Logger
}

func NewQuoteVersionHandler(versionService *service.QuoteVersionService, logger *zap.Logger) *QuoteVersionHandler {
	return &QuoteVersionHandler{
		versionService: versionService,
		logger:         logger,
	}
}

// @Summary List quote versions
// @Description Returns the full version history of a quote, oldest first.
// @Tags Quote Versions
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {array} domain.QuoteVersionDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/versions [get]
func (h *QuoteVersionHandler) ListByQuote(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	versions, err := h.versionService.ListByQuote(r.Context(), quoteID)
	if err != nil {
		h.logger.Error("failed to list versions", zap.String("quoteID", quoteID.String()), zap.Error(err))
		respondServiceError(w, err, "Failed to list versions")
		return
	}

	respondJSON(w, http.StatusOK, versions)
}

// @Summary Get quote version
// @Tags Quote Versions
// @Produce json
// @Param id path string true "Quote ID"
// @Param versionId path string true "Version ID"
// @Success 200 {object} domain.QuoteVersionDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/versions/{versionId} [get]
func (h *QuoteVersionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuid.Parse(chi.URLParam(r, "versionId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}

	version, err := h.versionService.GetByID(r.Context(), versionID)
	if err != nil {
		respondServiceError(w, err, "Failed to get version")
		return
	}

	respondJSON(w, http.StatusOK, version)
}

// @Summary Compare quote versions
// @Description Computes the structured diff between two version snapshots of a quote.
// @Tags Quote Versions
// @Produce json
// @Param id path string true "Quote ID"
// @Param from query string true "From version ID"
// @Param to query string true "To version ID"
// @Success 200 {object} domain.VersionComparison
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/versions/compare [get]
func (h *QuoteVersionHandler) Compare(w http.ResponseWriter, r *http.Request) {
	fromID, err := uuid.Parse(r.URL.Query().Get("from"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid from version ID")
		return
	}
	toID, err := uuid.Parse(r.URL.Query().Get("to"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid to version ID")
		return
	}

	comparison, err := h.versionService.Compare(r.Context(), fromID, toID)
	if err != nil {
		h.logger.Error("failed to compare versions",
			zap.String("fromVersionID", fromID.String()),
			zap.String("toVersionID", toID.String()),
			zap.Error(err))
		respondServiceError(w, err, "Failed to compare versions")
		return
	}

	respondJSON(w, http.StatusOK, comparison)
}
