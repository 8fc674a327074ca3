package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OnConflict decides what Add does when the caller already owns the variant.
type OnConflict string

const (
	OnConflictIncrement OnConflict = "increment"
	OnConflictReject    OnConflict = "reject"
)

func (p OnConflict) IsValid() bool {
	return p == OnConflictIncrement || p == OnConflictReject
}

const duplicateVariantMessage = "the fields user, card, language, is_holographic, is_first_edition, condition must make a unique set"

// CollectionService manages a user's ledger of owned card copies. Every
// operation is scoped to the calling user; other users' rows do not exist
// from its point of view.
type CollectionService struct {
	userCardRepo  repository.UserCardRepository
	cardRepo      repository.CardRepository
	expansionRepo repository.ExpansionRepository
}

func NewCollectionService(userCardRepo repository.UserCardRepository, cardRepo repository.CardRepository, expansionRepo repository.ExpansionRepository) *CollectionService {
	return &CollectionService{
		userCardRepo:  userCardRepo,
		cardRepo:      cardRepo,
		expansionRepo: expansionRepo,
	}
}

// AddUserCardInput describes a new ledger row. Nil pointers take the column
// defaults.
type AddUserCardInput struct {
	CardID         uuid.UUID
	Quantity       *int
	Language       *domain.Language
	Condition      *domain.Condition
	IsHolographic  bool
	IsFirstEdition bool
	IsSigned       bool
	Grade          string
	Notes          string
	IsFavorite     bool
	OnConflict     OnConflict
}

// UpdateUserCardInput is a partial update; nil fields are left unchanged.
// CardID may only repeat the current card.
type UpdateUserCardInput struct {
	CardID         *uuid.UUID
	Quantity       *int
	Language       *domain.Language
	Condition      *domain.Condition
	IsHolographic  *bool
	IsFirstEdition *bool
	IsSigned       *bool
	Grade          *string
	Notes          *string
	IsFavorite     *bool
}

func (s *CollectionService) List(ctx context.Context, userID uuid.UUID) ([]*domain.UserCard, error) {
	return s.userCardRepo.ListByUser(ctx, userID)
}

// Add records copies of a card. With OnConflictIncrement an existing row of
// the same variant absorbs the quantity; created reports whether a new row was
// inserted.
func (s *CollectionService) Add(ctx context.Context, userID uuid.UUID, input AddUserCardInput) (userCard *domain.UserCard, created bool, err error) {
	userCard = &domain.UserCard{
		UserID:         userID,
		CardID:         input.CardID,
		Quantity:       1,
		Language:       domain.LanguageEnglish,
		Condition:      domain.ConditionNearMint,
		IsHolographic:  input.IsHolographic,
		IsFirstEdition: input.IsFirstEdition,
		IsSigned:       input.IsSigned,
		Grade:          input.Grade,
		Notes:          input.Notes,
		IsFavorite:     input.IsFavorite,
	}
	if input.Quantity != nil {
		userCard.Quantity = *input.Quantity
	}
	if input.Language != nil {
		userCard.Language = *input.Language
	}
	if input.Condition != nil {
		userCard.Condition = *input.Condition
	}

	policy := input.OnConflict
	if policy == "" {
		policy = OnConflictReject
	}

	verr := &domain.ValidationError{}
	if err := userCard.Validate(); err != nil {
		var fieldErr *domain.ValidationError
		if !errors.As(err, &fieldErr) {
			return nil, false, err
		}
		verr = fieldErr
	}
	if !policy.IsValid() {
		verr.Add("on_conflict", fmt.Sprintf("%q is not a valid choice", policy))
	}
	if input.CardID != uuid.Nil {
		if _, err := s.cardRepo.GetByID(ctx, input.CardID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, err
			}
			verr.Add("card", "invalid pk - object does not exist")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}

	switch policy {
	case OnConflictIncrement:
		created, err = s.userCardRepo.CreateOrIncrement(ctx, userCard)
	default:
		err = s.userCardRepo.Create(ctx, userCard)
		created = err == nil
	}
	if err != nil {
		return nil, false, translateStoreError(err)
	}

	// Reload with the card and expansion for the response.
	stored, err := s.Get(ctx, userID, userCard.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (s *CollectionService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.UserCard, error) {
	userCard, err := s.userCardRepo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserCardNotFound
		}
		return nil, err
	}
	return userCard, nil
}

func (s *CollectionService) Update(ctx context.Context, userID, id uuid.UUID, input UpdateUserCardInput) (*domain.UserCard, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.CardID != nil && *input.CardID != current.CardID {
		return nil, domain.NewValidationError("card", "the card of an existing entry cannot be changed")
	}

	updates := make(map[string]interface{})
	if input.Quantity != nil {
		current.Quantity = *input.Quantity
		updates["quantity"] = *input.Quantity
	}
	if input.Language != nil {
		current.Language = *input.Language
		updates["language"] = *input.Language
	}
	if input.Condition != nil {
		current.Condition = *input.Condition
		updates["condition"] = *input.Condition
	}
	if input.IsHolographic != nil {
		updates["is_holographic"] = *input.IsHolographic
	}
	if input.IsFirstEdition != nil {
		updates["is_first_edition"] = *input.IsFirstEdition
	}
	if input.IsSigned != nil {
		updates["is_signed"] = *input.IsSigned
	}
	if input.Grade != nil {
		current.Grade = *input.Grade
		updates["grade"] = *input.Grade
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.IsFavorite != nil {
		updates["is_favorite"] = *input.IsFavorite
	}

	if err := current.Validate(); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return current, nil
	}

	if err := s.userCardRepo.UpdateForUser(ctx, id, userID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserCardNotFound
		}
		return nil, translateStoreError(err)
	}

	return s.Get(ctx, userID, id)
}

func (s *CollectionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.userCardRepo.DeleteForUser(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserCardNotFound
		}
		return err
	}
	return nil
}

// Grouped returns one group per owned card, ordered by expansion name then
// card name.
func (s *CollectionService) Grouped(ctx context.Context, userID uuid.UUID) ([]*domain.CardGroup, error) {
	rows, err := s.userCardRepo.ListByUserInCardOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.GroupByCard(rows), nil
}

func (s *CollectionService) OwnedExpansions(ctx context.Context, userID uuid.UUID) ([]*domain.OwnedExpansion, error) {
	return s.expansionRepo.ListOwnedByUser(ctx, userID)
}

// translateStoreError turns constraint violations into validation errors the
// client can act on.
func translateStoreError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.NewValidationError(domain.NonFieldErrors, duplicateVariantMessage)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.NewValidationError("card", "invalid pk - object does not exist")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return domain.NewValidationError("quantity", "ensure this value is greater than or equal to 1")
	default:
		return err
	}
}
