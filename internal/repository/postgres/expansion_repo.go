package postgres

import (
	"context"
	"strings"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type expansionRepository struct {
	db *gorm.DB
}

func NewExpansionRepository(db *gorm.DB) *expansionRepository {
	return &expansionRepository{db: db}
}

// Upsert expects a zero ID; the stored row's ID is returned into it.
func (r *expansionRepository) Upsert(ctx context.Context, expansion *domain.Expansion) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "series", "release_date", "total_cards", "symbol_url", "logo_url", "updated_at",
		}),
	}).Create(expansion).Error
}

func (r *expansionRepository) GetAll(ctx context.Context) ([]*domain.Expansion, error) {
	var expansions []*domain.Expansion
	err := r.db.WithContext(ctx).Order("name ASC").Find(&expansions).Error
	if err != nil {
		return nil, err
	}
	return expansions, nil
}

func (r *expansionRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Expansion, error) {
	var expansion domain.Expansion
	err := r.db.WithContext(ctx).First(&expansion, "external_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &expansion, nil
}

func (r *expansionRepository) GetByNameFold(ctx context.Context, name string) (*domain.Expansion, error) {
	var expansion domain.Expansion
	err := r.db.WithContext(ctx).First(&expansion, "LOWER(name) = LOWER(?)", name).Error
	if err != nil {
		return nil, err
	}
	return &expansion, nil
}

func (r *expansionRepository) SearchByName(ctx context.Context, fragment string) ([]*domain.Expansion, error) {
	var expansions []*domain.Expansion
	err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+escapeLike(fragment)+"%").
		Order("name ASC").
		Find(&expansions).Error
	if err != nil {
		return nil, err
	}
	return expansions, nil
}

func (r *expansionRepository) ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]struct{}, error) {
	return pluckExternalIDs(r.db.WithContext(ctx).Model(&domain.Expansion{}), externalIDs)
}

func (r *expansionRepository) ListOwnedByUser(ctx context.Context, userID uuid.UUID) ([]*domain.OwnedExpansion, error) {
	var owned []*domain.OwnedExpansion
	err := r.db.WithContext(ctx).
		Model(&domain.Expansion{}).
		Select("expansions.*, COUNT(user_cards.id) AS user_cards_count").
		Joins("JOIN cards ON cards.expansion_id = expansions.id").
		Joins("JOIN user_cards ON user_cards.card_id = cards.id").
		Where("user_cards.user_id = ?", userID).
		Group("expansions.id").
		Order("expansions.name ASC").
		Scan(&owned).Error
	if err != nil {
		return nil, err
	}
	return owned, nil
}

// pluckExternalIDs returns which of externalIDs already exist in the table
// behind tx.
func pluckExternalIDs(tx *gorm.DB, externalIDs []string) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	if len(externalIDs) == 0 {
		return known, nil
	}

	var ids []string
	if err := tx.Where("external_id IN ?", externalIDs).Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
