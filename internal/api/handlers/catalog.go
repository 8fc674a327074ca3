package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, logger: logger.Named("catalog")}
}

const releaseDateLayout = "2006-01-02"

type ExpansionResponse struct {
	ID          uuid.UUID `json:"id"`
	APIID       string    `json:"api_id"`
	Name        string    `json:"name"`
	Series      string    `json:"series"`
	ReleaseDate *string   `json:"release_date"`
	TotalCards  *int      `json:"total_cards"`
	SymbolURL   string    `json:"symbol_url"`
	LogoURL     string    `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newExpansionResponse(e *domain.Expansion) ExpansionResponse {
	resp := ExpansionResponse{
		ID:         e.ID,
		APIID:      e.ExternalID,
		Name:       e.Name,
		Series:     e.Series,
		TotalCards: e.TotalCards,
		SymbolURL:  e.SymbolURL,
		LogoURL:    e.LogoURL,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.ReleaseDate != nil {
		date := time.Time(*e.ReleaseDate).Format(releaseDateLayout)
		resp.ReleaseDate = &date
	}
	return resp
}

// CardResponse is a card with its expansion's display name.
type CardResponse struct {
	*domain.Card
	ExpansionName string `json:"expansion_name"`
}

func newCardResponse(card *domain.Card) CardResponse {
	resp := CardResponse{Card: card}
	if card.Expansion != nil {
		resp.ExpansionName = card.Expansion.Name
	}
	return resp
}

func (h *CatalogHandler) ListExpansions(w http.ResponseWriter, r *http.Request) {
	expansions, err := h.catalogService.ListExpansions(r.Context())
	if err != nil {
		h.logger.Error("failed to list expansions", zap.Error(err))
		http.Error(w, "Failed to get expansions", http.StatusInternalServerError)
		return
	}

	resp := make([]ExpansionResponse, len(expansions))
	for i, e := range expansions {
		resp[i] = newExpansionResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	cards, err := h.catalogService.ListCardsByExpansion(r.Context(), externalID)
	if err != nil {
		h.logger.Error("failed to list cards", zap.String("expansion", externalID), zap.Error(err))
		http.Error(w, "Failed to get cards", http.StatusInternalServerError)
		return
	}

	resp := make([]CardResponse, len(cards))
	for i, c := range cards {
		resp[i] = newCardResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	card, err := h.catalogService.GetCardByExternalID(r.Context(), externalID)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get card", zap.String("card", externalID), zap.Error(err))
		http.Error(w, "Failed to get card", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, newCardResponse(card))
}
