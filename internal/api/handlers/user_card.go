package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dom/tcg-collection/internal/api/middleware"
	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserCardHandler struct {
	collectionService *service.CollectionService
	logger            *zap.Logger
}

func NewUserCardHandler(collectionService *service.CollectionService, logger *zap.Logger) *UserCardHandler {
	return &UserCardHandler{collectionService: collectionService, logger: logger.Named("user_cards")}
}

type CreateUserCardRequest struct {
	Card           uuid.UUID         `json:"card"`
	Quantity       *int              `json:"quantity"`
	Language       *domain.Language  `json:"language"`
	Condition      *domain.Condition `json:"condition"`
	IsHolographic  bool              `json:"is_holographic"`
	IsFirstEdition bool              `json:"is_first_edition"`
	IsSigned       bool              `json:"is_signed"`
	Grade          string            `json:"grade"`
	Notes          string            `json:"notes"`
	IsFavorite     bool              `json:"is_favorite"`
	OnConflict     string            `json:"on_conflict"`
}

type UpdateUserCardRequest struct {
	Card           *uuid.UUID        `json:"card"`
	Quantity       *int              `json:"quantity"`
	Language       *domain.Language  `json:"language"`
	Condition      *domain.Condition `json:"condition"`
	IsHolographic  *bool             `json:"is_holographic"`
	IsFirstEdition *bool             `json:"is_first_edition"`
	IsSigned       *bool             `json:"is_signed"`
	Grade          *string           `json:"grade"`
	Notes          *string           `json:"notes"`
	IsFavorite     *bool             `json:"is_favorite"`
}

type UserCardResponse struct {
	ID             uuid.UUID        `json:"id"`
	Card           uuid.UUID        `json:"card"`
	CardName       string           `json:"card_name"`
	ExpansionName  string           `json:"expansion_name"`
	ExpansionID    uuid.UUID        `json:"expansion_id"`
	CardImage      string           `json:"card_image"`
	Quantity       int              `json:"quantity"`
	Language       domain.Language  `json:"language"`
	IsHolographic  bool             `json:"is_holographic"`
	Condition      domain.Condition `json:"condition"`
	IsFirstEdition bool             `json:"is_first_edition"`
	IsSigned       bool             `json:"is_signed"`
	Grade          string           `json:"grade"`
	Notes          string           `json:"notes"`
	IsFavorite     bool             `json:"is_favorite"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type InstanceResponse struct {
	ID             uuid.UUID        `json:"id"`
	Quantity       int              `json:"quantity"`
	Language       domain.Language  `json:"language"`
	Condition      domain.Condition `json:"condition"`
	IsHolographic  bool             `json:"is_holographic"`
	IsFirstEdition bool             `json:"is_first_edition"`
	IsSigned       bool             `json:"is_signed"`
	Grade          string           `json:"grade"`
	Notes          string           `json:"notes"`
	IsFavorite     bool             `json:"is_favorite"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type CardGroupResponse struct {
	CardID         uuid.UUID          `json:"card_id"`
	CardName       string             `json:"card_name"`
	ExpansionName  string             `json:"expansion_name"`
	ExpansionID    uuid.UUID          `json:"expansion_id"`
	CardImage      string             `json:"card_image"`
	TotalQuantity  int                `json:"total_quantity"`
	InstancesCount int                `json:"instances_count"`
	IsAnyFavorite  bool               `json:"is_any_favorite"`
	Instances      []InstanceResponse `json:"instances"`
}

type OwnedExpansionResponse struct {
	ID             uuid.UUID `json:"id"`
	APIID          string    `json:"api_id"`
	Name           string    `json:"name"`
	Series         string    `json:"series"`
	SymbolURL      string    `json:"symbol_url"`
	UserCardsCount int64     `json:"user_cards_count"`
}

func newUserCardResponse(uc *domain.UserCard) UserCardResponse {
	resp := UserCardResponse{
		ID:             uc.ID,
		Card:           uc.CardID,
		Quantity:       uc.Quantity,
		Language:       uc.Language,
		IsHolographic:  uc.IsHolographic,
		Condition:      uc.Condition,
		IsFirstEdition: uc.IsFirstEdition,
		IsSigned:       uc.IsSigned,
		Grade:          uc.Grade,
		Notes:          uc.Notes,
		IsFavorite:     uc.IsFavorite,
		CreatedAt:      uc.CreatedAt,
		UpdatedAt:      uc.UpdatedAt,
	}
	if uc.Card != nil {
		resp.CardName = uc.Card.Name
		resp.CardImage = uc.Card.ImageURLSmall
		if uc.Card.Expansion != nil {
			resp.ExpansionName = uc.Card.Expansion.Name
			resp.ExpansionID = uc.Card.Expansion.ID
		}
	}
	return resp
}

func (h *UserCardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rows, err := h.collectionService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list user cards", zap.String("userID", userID.String()), zap.Error(err))
		http.Error(w, "Failed to get collection", http.StatusInternalServerError)
		return
	}

	resp := make([]UserCardResponse, len(rows))
	for i, uc := range rows {
		resp[i] = newUserCardResponse(uc)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create rejects a duplicate variant unless the body asks for increment.
func (h *UserCardHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, service.OnConflictReject)
}

// Add increments an existing variant unless the body asks for reject.
func (h *UserCardHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, service.OnConflictIncrement)
}

func (h *UserCardHandler) create(w http.ResponseWriter, r *http.Request, defaultPolicy service.OnConflict) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateUserCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	policy := defaultPolicy
	if req.OnConflict != "" {
		policy = service.OnConflict(req.OnConflict)
	}

	uc, created, err := h.collectionService.Add(r.Context(), userID, service.AddUserCardInput{
		CardID:         req.Card,
		Quantity:       req.Quantity,
		Language:       req.Language,
		Condition:      req.Condition,
		IsHolographic:  req.IsHolographic,
		IsFirstEdition: req.IsFirstEdition,
		IsSigned:       req.IsSigned,
		Grade:          req.Grade,
		Notes:          req.Notes,
		IsFavorite:     req.IsFavorite,
		OnConflict:     policy,
	})
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		h.logger.Error("failed to add user card",
			zap.String("userID", userID.String()), zap.String("card", req.Card.String()), zap.Error(err))
		http.Error(w, "Failed to add card", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, newUserCardResponse(uc))
}

func (h *UserCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	uc, err := h.collectionService.Get(r.Context(), userID, id)
	if err != nil {
		h.writeLookupError(w, err, "failed to get user card", id)
		return
	}

	writeJSON(w, http.StatusOK, newUserCardResponse(uc))
}

func (h *UserCardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req UpdateUserCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uc, err := h.collectionService.Update(r.Context(), userID, id, service.UpdateUserCardInput{
		CardID:         req.Card,
		Quantity:       req.Quantity,
		Language:       req.Language,
		Condition:      req.Condition,
		IsHolographic:  req.IsHolographic,
		IsFirstEdition: req.IsFirstEdition,
		IsSigned:       req.IsSigned,
		Grade:          req.Grade,
		Notes:          req.Notes,
		IsFavorite:     req.IsFavorite,
	})
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		h.writeLookupError(w, err, "failed to update user card", id)
		return
	}

	writeJSON(w, http.StatusOK, newUserCardResponse(uc))
}

func (h *UserCardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	if err := h.collectionService.Delete(r.Context(), userID, id); err != nil {
		h.writeLookupError(w, err, "failed to delete user card", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserCardHandler) Grouped(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groups, err := h.collectionService.Grouped(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to group user cards", zap.String("userID", userID.String()), zap.Error(err))
		http.Error(w, "Failed to get collection", http.StatusInternalServerError)
		return
	}

	resp := make([]CardGroupResponse, len(groups))
	for i, g := range groups {
		instances := make([]InstanceResponse, len(g.Instances))
		for j, uc := range g.Instances {
			instances[j] = InstanceResponse{
				ID:             uc.ID,
				Quantity:       uc.Quantity,
				Language:       uc.Language,
				Condition:      uc.Condition,
				IsHolographic:  uc.IsHolographic,
				IsFirstEdition: uc.IsFirstEdition,
				IsSigned:       uc.IsSigned,
				Grade:          uc.Grade,
				Notes:          uc.Notes,
				IsFavorite:     uc.IsFavorite,
				CreatedAt:      uc.CreatedAt,
				UpdatedAt:      uc.UpdatedAt,
			}
		}
		resp[i] = CardGroupResponse{
			CardID:         g.CardID,
			CardName:       g.CardName,
			ExpansionName:  g.ExpansionName,
			ExpansionID:    g.ExpansionID,
			CardImage:      g.CardImage,
			TotalQuantity:  g.TotalQuantity,
			InstancesCount: g.InstancesCount,
			IsAnyFavorite:  g.IsAnyFavorite,
			Instances:      instances,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserCardHandler) OwnedExpansions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	owned, err := h.collectionService.OwnedExpansions(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list owned expansions", zap.String("userID", userID.String()), zap.Error(err))
		http.Error(w, "Failed to get expansions", http.StatusInternalServerError)
		return
	}

	resp := make([]OwnedExpansionResponse, len(owned))
	for i, o := range owned {
		resp[i] = OwnedExpansionResponse{
			ID:             o.Expansion.ID,
			APIID:          o.Expansion.ExternalID,
			Name:           o.Expansion.Name,
			Series:         o.Expansion.Series,
			SymbolURL:      o.Expansion.SymbolURL,
			UserCardsCount: o.UserCardsCount,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// scope returns the caller and the row id from the path. An id that is not a
// UUID cannot name any row, so it is answered like any other missing row.
func (h *UserCardHandler) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "User card not found", http.StatusNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func (h *UserCardHandler) writeLookupError(w http.ResponseWriter, err error, msg string, id uuid.UUID) {
	if errors.Is(err, domain.ErrUserCardNotFound) {
		http.Error(w, "User card not found", http.StatusNotFound)
		return
	}
	h.logger.Error(msg, zap.String("id", id.String()), zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
