package service

import (
	"context"
	"errors"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/repository"
	"gorm.io/gorm"
)

// CatalogService serves the locally mirrored catalog.
type CatalogService struct {
	expansionRepo repository.ExpansionRepository
	cardRepo      repository.CardRepository
}

func NewCatalogService(expansionRepo repository.ExpansionRepository, cardRepo repository.CardRepository) *CatalogService {
	return &CatalogService{
		expansionRepo: expansionRepo,
		cardRepo:      cardRepo,
	}
}

func (s *CatalogService) ListExpansions(ctx context.Context) ([]*domain.Expansion, error) {
	return s.expansionRepo.GetAll(ctx)
}

// ListCardsByExpansion returns an empty list for an unknown expansion.
func (s *CatalogService) ListCardsByExpansion(ctx context.Context, expansionExternalID string) ([]*domain.Card, error) {
	return s.cardRepo.ListByExpansionExternalID(ctx, expansionExternalID)
}

func (s *CatalogService) GetCardByExternalID(ctx context.Context, externalID string) (*domain.Card, error) {
	card, err := s.cardRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}
