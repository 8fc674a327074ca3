package repository

import (
	"context"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	// Replace drops the user's sessions and stores session in one transaction.
	Replace(ctx context.Context, session *domain.UserSession) error
	// Rotate consumes the session oldID and stores its successor in one
	// transaction. It returns gorm.ErrRecordNotFound if oldID is already gone.
	Rotate(ctx context.Context, oldID uuid.UUID, session *domain.UserSession) error
}

type ExpansionRepository interface {
	// Upsert inserts or overwrites the expansion keyed by ExternalID and
	// loads the stored row's ID back into expansion.
	Upsert(ctx context.Context, expansion *domain.Expansion) error
	GetAll(ctx context.Context) ([]*domain.Expansion, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Expansion, error)
	GetByNameFold(ctx context.Context, name string) (*domain.Expansion, error)
	SearchByName(ctx context.Context, fragment string) ([]*domain.Expansion, error)
	ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]struct{}, error)
	ListOwnedByUser(ctx context.Context, userID uuid.UUID) ([]*domain.OwnedExpansion, error)
}

type CardRepository interface {
	Upsert(ctx context.Context, card *domain.Card) error
	// CreateMissing inserts cards whose external id is not stored yet and
	// leaves existing rows untouched. It returns the number of inserted rows.
	CreateMissing(ctx context.Context, cards []*domain.Card) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Card, error)
	ListByExpansionExternalID(ctx context.Context, expansionExternalID string) ([]*domain.Card, error)
	ExistingExternalIDs(ctx context.Context, externalIDs []string) (map[string]struct{}, error)
	ExternalIDsByExpansion(ctx context.Context, expansionID uuid.UUID) (map[string]struct{}, error)
}

type UserCardRepository interface {
	Create(ctx context.Context, userCard *domain.UserCard) error
	// CreateOrIncrement adds userCard.Quantity to the row with the same
	// variant key, creating it if absent. userCard is reloaded from storage.
	CreateOrIncrement(ctx context.Context, userCard *domain.UserCard) (created bool, err error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.UserCard, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserCard, error)
	ListByUserInCardOrder(ctx context.Context, userID uuid.UUID) ([]*domain.UserCard, error)
	UpdateForUser(ctx context.Context, id, userID uuid.UUID, updates map[string]interface{}) error
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error
}

type Repositories struct {
	User      UserRepository
	Session   SessionRepository
	Expansion ExpansionRepository
	Card      CardRepository
	UserCard  UserCardRepository
}
