package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ImportHandler lets an operator trigger catalog imports over HTTP. Runs are
// synchronous; the response carries the counts.
type ImportHandler struct {
	importService *service.ImportService
	logger        *zap.Logger
}

func NewImportHandler(importService *service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{importService: importService, logger: logger.Named("import")}
}

func (h *ImportHandler) Expansions(w http.ResponseWriter, r *http.Request) {
	result, err := h.importService.ImportExpansions(r.Context())
	if err != nil {
		h.logger.Error("expansion import failed", zap.Error(err))
		http.Error(w, "Failed to import expansions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ImportHandler) ExpansionCards(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	result, err := h.importService.ImportCardsForExpansion(r.Context(), externalID, importOptions(r))
	if err != nil {
		if errors.Is(err, domain.ErrExpansionNotImported) {
			http.Error(w, "Expansion has not been imported", http.StatusNotFound)
			return
		}
		h.logger.Error("card import failed", zap.String("expansion", externalID), zap.Error(err))
		http.Error(w, "Failed to import cards", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ImportHandler) AllCards(w http.ResponseWriter, r *http.Request) {
	result, err := h.importService.ImportAllCards(r.Context(), importOptions(r))
	if err != nil {
		h.logger.Error("bulk card import failed", zap.Error(err))
		http.Error(w, "Failed to import cards", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// importOptions reads ?bulk=true.
func importOptions(r *http.Request) service.ImportOptions {
	bulk, _ := strconv.ParseBool(r.URL.Query().Get("bulk"))
	return service.ImportOptions{Bulk: bulk}
}
