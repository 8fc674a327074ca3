package catalog

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// ExpansionRecord is one entry of the catalog's /sets listing. Every field is
// optional on the wire; missing values decode to their zero value.
type ExpansionRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Series      string    `json:"series"`
	ReleaseDate string    `json:"releaseDate"`
	Total       *int      `json:"total"`
	Images      SetImages `json:"images"`
}

type SetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

// Valid reports whether the record carries the fields an upsert is keyed on.
func (r ExpansionRecord) Valid() bool {
	return strings.TrimSpace(r.ID) != "" && strings.TrimSpace(r.Name) != ""
}

// CardRecord is one entry of the catalog's /cards listing. Gameplay
// attributes are kept as raw JSON because their shape varies per card.
type CardRecord struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Number               string          `json:"number"`
	Rarity               string          `json:"rarity"`
	Images               CardImages      `json:"images"`
	HP                   string          `json:"hp"`
	Types                json.RawMessage `json:"types"`
	Abilities            json.RawMessage `json:"abilities"`
	Attacks              json.RawMessage `json:"attacks"`
	Weaknesses           json.RawMessage `json:"weaknesses"`
	Resistances          json.RawMessage `json:"resistances"`
	RetreatCost          json.RawMessage `json:"retreatCost"`
	ConvertedRetreatCost *int            `json:"convertedRetreatCost"`
	Artist               string          `json:"artist"`
	FlavorText           string          `json:"flavorText"`
}

type CardImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

func (r CardRecord) Valid() bool {
	return strings.TrimSpace(r.ID) != "" && strings.TrimSpace(r.Name) != ""
}

// Records are decoded one by one so a mistyped field only costs its own record.
type setsResponse struct {
	Data []json.RawMessage `json:"data"`
}

type cardsResponse struct {
	Data       []json.RawMessage `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Count      int               `json:"count"`
	TotalCount int               `json:"totalCount"`
}

// decodeRecords unmarshals each element separately. An element that does not
// decode is logged and left as a zero record, which Valid rejects, so it is
// counted as skipped downstream.
func decodeRecords[T any](raw []json.RawMessage, logger *zap.Logger, kind string) []T {
	out := make([]T, len(raw))
	for i, elem := range raw {
		if err := json.Unmarshal(elem, &out[i]); err != nil {
			var zero T
			out[i] = zero
			logger.Warn("skipping malformed catalog record",
				zap.String("kind", kind),
				zap.Int("index", i),
				zap.String("id", recordID(elem)),
				zap.Error(err))
		}
	}
	return out
}

// recordID digs the id out of a record that failed to decode, for logging.
func recordID(raw json.RawMessage) string {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return strings.Trim(string(head.ID), `"`)
}
