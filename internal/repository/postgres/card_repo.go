package postgres

import (
	"context"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const cardInsertBatchSize = 100

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *cardRepository {
	return &cardRepository{db: db}
}

// Upsert expects a zero ID; the stored row's ID is returned into it.
func (r *cardRepository) Upsert(ctx context.Context, card *domain.Card) error {
	return r.db.WithContext(ctx).Omit("Expansion").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "expansion_id", "number", "rarity", "image_url_small", "image_url_large",
			"hp", "types", "abilities", "attacks", "weaknesses", "resistances", "retreat_cost",
			"converted_retreat_cost", "artist", "flavor_text", "updated_at",
		}),
	}).Create(card).Error
}

func (r *cardRepository) CreateMissing(ctx context.Context, cards []*domain.Card) (int64, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Omit("Expansion").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).
		CreateInBatches(cards, cardInsertBatchSize)
	return result.RowsAffected, result.Error
}

func (r *cardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	var card domain.Card
	err := r.db.WithContext(ctx).Preload("Expansion").First(&card, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Card, error) {
	var card domain.Card
	err := r.db.WithContext(ctx).Preload("Expansion").First(&card, "external_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) ListByExpansionExternalID(ctx context.Context, expansionExternalID string) ([]*domain.Card, error) {
	var cards []*domain.Card
	err := r.db.WithContext(ctx).
		Preload("Expansion").
		Joins("JOIN expansions ON expansions.id = cards.expansion_id").
		Where("expansions.external_id = ?", expansionExternalID).
		Order("cards.name ASC, cards.external_id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *cardRepository) ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]struct{}, error) {
	return pluckExternalIDs(r.db.WithContext(ctx).Model(&domain.Card{}), externalIDs)
}

func (r *cardRepository) ExternalIDsByExpansion(ctx context.Context, expansionID uuid.UUID) (map[string]struct{}, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Card{}).
		Where("expansion_id = ?", expansionID).
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}
