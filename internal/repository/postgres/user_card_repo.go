package postgres

import (
	"context"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var variantKeyColumns = []clause.Column{
	{Name: "user_id"},
	{Name: "card_id"},
	{Name: "language"},
	{Name: "is_holographic"},
	{Name: "is_first_edition"},
	{Name: "condition"},
}

type userCardRepository struct {
	db *gorm.DB
}

func NewUserCardRepository(db *gorm.DB) *userCardRepository {
	return &userCardRepository{db: db}
}

func (r *userCardRepository) Create(ctx context.Context, userCard *domain.UserCard) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(userCard).Error
}

func (r *userCardRepository) CreateOrIncrement(ctx context.Context, userCard *domain.UserCard) (bool, error) {
	requested := userCard.Quantity

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: variantKeyColumns,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("user_cards.quantity + EXCLUDED.quantity"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).Create(userCard).Error
		if err != nil {
			return err
		}

		return tx.Where(&domain.UserCard{
			UserID:    userCard.UserID,
			CardID:    userCard.CardID,
			Language:  userCard.Language,
			Condition: userCard.Condition,
		}).
			Where("is_holographic = ? AND is_first_edition = ?", userCard.IsHolographic, userCard.IsFirstEdition).
			First(userCard).Error
	})
	if err != nil {
		return false, err
	}

	// A pre-existing row held at least one copy before the increment.
	return userCard.Quantity == requested, nil
}

func (r *userCardRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.UserCard, error) {
	var userCard domain.UserCard
	err := r.db.WithContext(ctx).
		Preload("Card.Expansion").
		First(&userCard, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &userCard, nil
}

func (r *userCardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserCard, error) {
	var userCards []*domain.UserCard
	err := r.db.WithContext(ctx).
		Preload("Card.Expansion").
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&userCards).Error
	if err != nil {
		return nil, err
	}
	return userCards, nil
}

func (r *userCardRepository) ListByUserInCardOrder(ctx context.Context, userID uuid.UUID) ([]*domain.UserCard, error) {
	var userCards []*domain.UserCard
	err := r.db.WithContext(ctx).
		Select("user_cards.*").
		Preload("Card.Expansion").
		Joins("JOIN cards ON cards.id = user_cards.card_id").
		Joins("JOIN expansions ON expansions.id = cards.expansion_id").
		Where("user_cards.user_id = ?", userID).
		Order("expansions.name ASC, cards.name ASC, cards.id ASC, user_cards.created_at ASC").
		Find(&userCards).Error
	if err != nil {
		return nil, err
	}
	return userCards, nil
}

func (r *userCardRepository) UpdateForUser(ctx context.Context, id, userID uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&domain.UserCard{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userCardRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.UserCard{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
