package domain

import (
	"time"

	"github.com/google/uuid"
)

// Language is the printing language of an owned copy.
type Language string

const (
	LanguageEnglish    Language = "EN"
	LanguageSpanish    Language = "ES"
	LanguageFrench     Language = "FR"
	LanguageGerman     Language = "DE"
	LanguageItalian    Language = "IT"
	LanguageJapanese   Language = "JP"
	LanguageKorean     Language = "KR"
	LanguagePortuguese Language = "PT"
	LanguageChinese    Language = "CH"
)

// AllLanguages lists every accepted language code.
var AllLanguages = []Language{
	LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman, LanguageItalian,
	LanguageJapanese, LanguageKorean, LanguagePortuguese, LanguageChinese,
}

func (l Language) IsValid() bool {
	for _, v := range AllLanguages {
		if l == v {
			return true
		}
	}
	return false
}

// Condition is the physical grading of an owned copy.
type Condition string

const (
	ConditionNearMint         Condition = "NM"
	ConditionLightlyPlayed    Condition = "LP"
	ConditionModeratelyPlayed Condition = "MP"
	ConditionHeavilyPlayed    Condition = "HP"
	ConditionDamaged          Condition = "DMG"
	ConditionVeryGood         Condition = "VG"
)

var AllConditions = []Condition{
	ConditionNearMint, ConditionLightlyPlayed, ConditionModeratelyPlayed,
	ConditionHeavilyPlayed, ConditionDamaged, ConditionVeryGood,
}

func (c Condition) IsValid() bool {
	for _, v := range AllConditions {
		if c == v {
			return true
		}
	}
	return false
}

// UserCard is one user's ledger row for one physical variant of a card.
// The variant key (user, card, language, holo, first edition, condition) is
// unique; more copies of the same variant raise Quantity instead.
type UserCard struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_cards_variant,priority:1"`
	CardID         uuid.UUID `json:"card_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_cards_variant,priority:2"`
	Quantity       int       `json:"quantity" gorm:"not null;default:1;check:chk_user_cards_quantity,quantity > 0"`
	Language       Language  `json:"language" gorm:"type:varchar(2);not null;default:'EN';uniqueIndex:idx_user_cards_variant,priority:3"`
	IsHolographic  bool      `json:"is_holographic" gorm:"not null;default:false;uniqueIndex:idx_user_cards_variant,priority:4"`
	IsFirstEdition bool      `json:"is_first_edition" gorm:"not null;default:false;uniqueIndex:idx_user_cards_variant,priority:5"`
	Condition      Condition `json:"condition" gorm:"type:varchar(3);not null;default:'NM';uniqueIndex:idx_user_cards_variant,priority:6"`
	IsSigned       bool      `json:"is_signed" gorm:"not null;default:false"`
	Grade          string    `json:"grade" gorm:"type:varchar(50)"`
	Notes          string    `json:"notes" gorm:"type:text"`
	IsFavorite     bool      `json:"is_favorite" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Card *Card `json:"-" gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (UserCard) TableName() string {
	return "user_cards"
}

// Validate checks the row's own attributes. Card existence is checked by the
// caller since it needs storage.
func (uc *UserCard) Validate() error {
	verr := &ValidationError{}
	if uc.CardID == uuid.Nil {
		verr.Add("card", "this field is required")
	}
	if uc.Quantity < 1 {
		verr.Add("quantity", "ensure this value is greater than or equal to 1")
	}
	if !uc.Language.IsValid() {
		verr.Add("language", "\""+string(uc.Language)+"\" is not a valid choice")
	}
	if !uc.Condition.IsValid() {
		verr.Add("condition", "\""+string(uc.Condition)+"\" is not a valid choice")
	}
	if len(uc.Grade) > 50 {
		verr.Add("grade", "ensure this field has no more than 50 characters")
	}
	return verr.OrNil()
}

// CardGroup summarizes every variant row a user owns of one card.
type CardGroup struct {
	CardID         uuid.UUID
	CardName       string
	ExpansionName  string
	ExpansionID    uuid.UUID
	CardImage      string
	TotalQuantity  int
	InstancesCount int
	IsAnyFavorite  bool
	Instances      []*UserCard
}

// GroupByCard folds rows that are already ordered by (expansion name, card
// name) into one group per card, keeping first-seen order. Rows must have Card
// and Card.Expansion loaded.
func GroupByCard(rows []*UserCard) []*CardGroup {
	groups := make([]*CardGroup, 0)
	index := make(map[uuid.UUID]*CardGroup)

	for _, row := range rows {
		g, ok := index[row.CardID]
		if !ok {
			g = &CardGroup{CardID: row.CardID}
			if row.Card != nil {
				g.CardName = row.Card.Name
				g.CardImage = row.Card.ImageURLSmall
				if row.Card.Expansion != nil {
					g.ExpansionName = row.Card.Expansion.Name
					g.ExpansionID = row.Card.Expansion.ID
				}
			}
			index[row.CardID] = g
			groups = append(groups, g)
		}
		g.TotalQuantity += row.Quantity
		g.InstancesCount++
		g.IsAnyFavorite = g.IsAnyFavorite || row.IsFavorite
		g.Instances = append(g.Instances, row)
	}

	return groups
}
