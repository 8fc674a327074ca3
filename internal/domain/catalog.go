package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Expansion is a released card set mirrored from the upstream catalog.
type Expansion struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ExternalID  string          `json:"api_id" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name        string          `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Series      string          `json:"series" gorm:"type:varchar(100)"`
	ReleaseDate *datatypes.Date `json:"release_date"`
	TotalCards  *int            `json:"total_cards"`
	SymbolURL   string          `json:"symbol_url" gorm:"type:varchar(500)"`
	LogoURL     string          `json:"logo_url" gorm:"type:varchar(500)"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Card is a single printed card. Gameplay attributes are stored as the
// catalog sent them; their shape is not validated locally.
type Card struct {
	ID                   uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ExternalID           string         `json:"api_id" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name                 string         `json:"name" gorm:"type:varchar(255);not null;index"`
	ExpansionID          uuid.UUID      `json:"expansion_id" gorm:"type:uuid;not null;index"`
	Number               string         `json:"number" gorm:"type:varchar(20)"`
	Rarity               string         `json:"rarity" gorm:"type:varchar(100)"`
	ImageURLSmall        string         `json:"image_url_small" gorm:"type:varchar(500)"`
	ImageURLLarge        string         `json:"image_url_large" gorm:"type:varchar(500)"`
	HP                   string         `json:"hp" gorm:"column:hp;type:varchar(10)"`
	Types                datatypes.JSON `json:"types" gorm:"type:jsonb;not null"`
	Abilities            datatypes.JSON `json:"abilities" gorm:"type:jsonb;not null"`
	Attacks              datatypes.JSON `json:"attacks" gorm:"type:jsonb;not null"`
	Weaknesses           datatypes.JSON `json:"weaknesses" gorm:"type:jsonb;not null"`
	Resistances          datatypes.JSON `json:"resistances" gorm:"type:jsonb;not null"`
	RetreatCost          datatypes.JSON `json:"retreat_cost" gorm:"type:jsonb;not null"`
	ConvertedRetreatCost *int           `json:"converted_retreat_cost"`
	Artist               string         `json:"artist" gorm:"type:varchar(255)"`
	FlavorText           string         `json:"flavor_text" gorm:"type:text"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`

	Expansion *Expansion `json:"-" gorm:"foreignKey:ExpansionID;constraint:OnDelete:CASCADE"`
}

var jsonNull = datatypes.JSON("null")

// BeforeSave stores absent gameplay attributes as JSON null.
func (c *Card) BeforeSave(tx *gorm.DB) error {
	for _, attr := range []*datatypes.JSON{&c.Types, &c.Abilities, &c.Attacks, &c.Weaknesses, &c.Resistances, &c.RetreatCost} {
		if len(*attr) == 0 {
			*attr = jsonNull
		}
	}
	return nil
}

// OwnedExpansion is an expansion annotated with how many ledger rows a user
// holds in it.
type OwnedExpansion struct {
	Expansion      Expansion `gorm:"embedded"`
	UserCardsCount int64
}
