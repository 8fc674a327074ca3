package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/tcg-collection/internal/catalog"
	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// catalogDateLayout is the catalog's releaseDate format, e.g. "1999/01/09".
const catalogDateLayout = "2006/01/02"

// CatalogSource is the read side of the upstream catalog.
type CatalogSource interface {
	FetchExpansions(ctx context.Context) []catalog.ExpansionRecord
	FetchCards(ctx context.Context, expansionExternalID string) []catalog.CardRecord
}

type ImportOptions struct {
	// Bulk inserts only cards that are not stored yet and leaves existing
	// ones untouched.
	Bulk bool
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type BulkImportResult struct {
	Expansions int                      `json:"expansions"`
	Totals     ImportResult             `json:"totals"`
	Results    map[string]*ImportResult `json:"results"`
	Failures   map[string]string        `json:"failures"`
}

// ImportService mirrors the upstream catalog into local storage. Imports are
// keyed by the catalog's external ids, so running one twice changes nothing.
type ImportService struct {
	source        CatalogSource
	expansionRepo repository.ExpansionRepository
	cardRepo      repository.CardRepository
	logger        *zap.Logger
}

func NewImportService(source CatalogSource, expansionRepo repository.ExpansionRepository, cardRepo repository.CardRepository, logger *zap.Logger) *ImportService {
	return &ImportService{
		source:        source,
		expansionRepo: expansionRepo,
		cardRepo:      cardRepo,
		logger:        logger.Named("import"),
	}
}

func (s *ImportService) ImportExpansions(ctx context.Context) (*ImportResult, error) {
	result := &ImportResult{}

	records := s.source.FetchExpansions(ctx)
	if len(records) == 0 {
		s.logger.Warn("catalog returned no expansions")
		s.logSummary("expansions", "", result)
		return result, nil
	}

	known, err := s.expansionRepo.ExistingExternalIDs(ctx, expansionIDs(records))
	if err != nil {
		return nil, fmt.Errorf("failed to load known expansions: %w", err)
	}

	for _, rec := range records {
		if !rec.Valid() {
			s.logger.Warn("skipping expansion record without id or name",
				zap.String("id", rec.ID), zap.String("name", rec.Name))
			result.Skipped++
			continue
		}

		expansion := s.expansionFromRecord(rec)
		if err := s.expansionRepo.Upsert(ctx, expansion); err != nil {
			s.logger.Error("failed to store expansion",
				zap.String("id", rec.ID), zap.String("name", rec.Name), zap.Error(err))
			result.Failed++
			continue
		}

		if _, ok := known[expansion.ExternalID]; ok {
			result.Updated++
		} else {
			result.Created++
			known[expansion.ExternalID] = struct{}{}
		}
	}

	s.logSummary("expansions", "", result)
	return result, nil
}

func (s *ImportService) ImportCardsForExpansion(ctx context.Context, expansionExternalID string, opts ImportOptions) (*ImportResult, error) {
	expansion, err := s.expansionRepo.GetByExternalID(ctx, expansionExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrExpansionNotImported, expansionExternalID)
		}
		return nil, fmt.Errorf("failed to load expansion %s: %w", expansionExternalID, err)
	}

	records := s.source.FetchCards(ctx, expansionExternalID)
	if len(records) == 0 {
		s.logger.Warn("catalog returned no cards", zap.String("expansion", expansionExternalID))
		result := &ImportResult{}
		s.logSummary("cards", expansionExternalID, result)
		return result, nil
	}

	var result *ImportResult
	if opts.Bulk {
		result, err = s.bulkInsertCards(ctx, expansion, records)
	} else {
		result, err = s.upsertCards(ctx, expansion, records)
	}
	if err != nil {
		return nil, err
	}

	s.logSummary("cards", expansionExternalID, result)
	return result, nil
}

func (s *ImportService) upsertCards(ctx context.Context, expansion *domain.Expansion, records []catalog.CardRecord) (*ImportResult, error) {
	result := &ImportResult{}

	known, err := s.cardRepo.ExistingExternalIDs(ctx, cardIDs(records))
	if err != nil {
		return nil, fmt.Errorf("failed to load known cards: %w", err)
	}

	for _, rec := range records {
		if !rec.Valid() {
			s.logger.Warn("skipping card record without id or name",
				zap.String("expansion", expansion.ExternalID), zap.String("id", rec.ID))
			result.Skipped++
			continue
		}

		card := cardFromRecord(rec, expansion.ID)
		if err := s.cardRepo.Upsert(ctx, card); err != nil {
			s.logger.Error("failed to store card",
				zap.String("expansion", expansion.ExternalID), zap.String("id", rec.ID), zap.Error(err))
			result.Failed++
			continue
		}

		if _, ok := known[card.ExternalID]; ok {
			result.Updated++
		} else {
			result.Created++
			known[card.ExternalID] = struct{}{}
		}
	}

	return result, nil
}

func (s *ImportService) bulkInsertCards(ctx context.Context, expansion *domain.Expansion, records []catalog.CardRecord) (*ImportResult, error) {
	result := &ImportResult{}

	known, err := s.cardRepo.ExternalIDsByExpansion(ctx, expansion.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load known cards: %w", err)
	}

	pending := make([]*domain.Card, 0, len(records))
	for _, rec := range records {
		if !rec.Valid() {
			s.logger.Warn("skipping card record without id or name",
				zap.String("expansion", expansion.ExternalID), zap.String("id", rec.ID))
			result.Skipped++
			continue
		}
		card := cardFromRecord(rec, expansion.ID)
		if _, ok := known[card.ExternalID]; ok {
			result.Skipped++
			continue
		}
		known[card.ExternalID] = struct{}{}
		pending = append(pending, card)
	}

	inserted, err := s.cardRepo.CreateMissing(ctx, pending)
	if err != nil {
		s.logger.Error("bulk card insert failed",
			zap.String("expansion", expansion.ExternalID), zap.Int("pending", len(pending)), zap.Error(err))
		result.Failed += len(pending)
		return result, nil
	}

	result.Created = int(inserted)
	// Rows stored elsewhere under the same external id (another expansion or
	// a concurrent run) are left alone.
	result.Skipped += len(pending) - int(inserted)
	return result, nil
}

// ImportAllCards runs the per-expansion import for every stored expansion. A
// failing expansion is recorded and the run moves on.
func (s *ImportService) ImportAllCards(ctx context.Context, opts ImportOptions) (*BulkImportResult, error) {
	expansions, err := s.expansionRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expansions: %w", err)
	}

	bulk := &BulkImportResult{
		Expansions: len(expansions),
		Results:    make(map[string]*ImportResult, len(expansions)),
		Failures:   make(map[string]string),
	}

	for i, expansion := range expansions {
		s.logger.Info("importing cards for expansion",
			zap.Int("index", i+1),
			zap.Int("of", len(expansions)),
			zap.String("expansion", expansion.ExternalID),
			zap.String("name", expansion.Name))

		res, err := s.ImportCardsForExpansion(ctx, expansion.ExternalID, opts)
		if err != nil {
			s.logger.Error("card import failed for expansion",
				zap.String("expansion", expansion.ExternalID), zap.Error(err))
			bulk.Failures[expansion.ExternalID] = err.Error()
			continue
		}

		bulk.Results[expansion.ExternalID] = res
		bulk.Totals.Created += res.Created
		bulk.Totals.Updated += res.Updated
		bulk.Totals.Skipped += res.Skipped
		bulk.Totals.Failed += res.Failed
	}

	s.logger.Info("bulk card import finished",
		zap.Int("expansions", bulk.Expansions),
		zap.Int("failedExpansions", len(bulk.Failures)),
		zap.Int("created", bulk.Totals.Created),
		zap.Int("updated", bulk.Totals.Updated),
		zap.Int("skipped", bulk.Totals.Skipped),
		zap.Int("failed", bulk.Totals.Failed))
	return bulk, nil
}

// ResolveExpansion finds a stored expansion from an operator-supplied
// identifier: exact external id first, then exact name ignoring case, then a
// name fragment that matches exactly one expansion.
func (s *ImportService) ResolveExpansion(ctx context.Context, identifier string) (*domain.Expansion, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.ErrExpansionNotFound
	}

	expansion, err := s.expansionRepo.GetByExternalID(ctx, identifier)
	if err == nil {
		return expansion, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	expansion, err = s.expansionRepo.GetByNameFold(ctx, identifier)
	if err == nil {
		return expansion, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	matches, err := s.expansionRepo.SearchByName(ctx, identifier)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", domain.ErrExpansionNotFound, identifier)
	case 1:
		return matches[0], nil
	default:
		candidates := make([]string, len(matches))
		for i, m := range matches {
			candidates[i] = fmt.Sprintf("%s (%s)", m.Name, m.ExternalID)
		}
		return nil, fmt.Errorf("%w: %q matches %s", domain.ErrAmbiguousExpansion, identifier, strings.Join(candidates, ", "))
	}
}

func (s *ImportService) expansionFromRecord(rec catalog.ExpansionRecord) *domain.Expansion {
	return &domain.Expansion{
		ExternalID:  strings.TrimSpace(rec.ID),
		Name:        strings.TrimSpace(rec.Name),
		Series:      rec.Series,
		ReleaseDate: s.parseReleaseDate(rec),
		TotalCards:  rec.Total,
		SymbolURL:   rec.Images.Symbol,
		LogoURL:     rec.Images.Logo,
	}
}

// parseReleaseDate converts the catalog's YYYY/MM/DD date. Anything else is
// stored as NULL.
func (s *ImportService) parseReleaseDate(rec catalog.ExpansionRecord) *datatypes.Date {
	raw := strings.TrimSpace(rec.ReleaseDate)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(catalogDateLayout, raw)
	if err != nil {
		s.logger.Warn("invalid release date, storing none",
			zap.String("expansion", rec.ID), zap.String("releaseDate", raw))
		return nil
	}
	d := datatypes.Date(t)
	return &d
}

func cardFromRecord(rec catalog.CardRecord, expansionID uuid.UUID) *domain.Card {
	return &domain.Card{
		ExternalID:           strings.TrimSpace(rec.ID),
		Name:                 strings.TrimSpace(rec.Name),
		ExpansionID:          expansionID,
		Number:               rec.Number,
		Rarity:               rec.Rarity,
		ImageURLSmall:        rec.Images.Small,
		ImageURLLarge:        rec.Images.Large,
		HP:                   rec.HP,
		Types:                rawJSON(rec.Types),
		Abilities:            rawJSON(rec.Abilities),
		Attacks:              rawJSON(rec.Attacks),
		Weaknesses:           rawJSON(rec.Weaknesses),
		Resistances:          rawJSON(rec.Resistances),
		RetreatCost:          rawJSON(rec.RetreatCost),
		ConvertedRetreatCost: rec.ConvertedRetreatCost,
		Artist:               rec.Artist,
		FlavorText:           rec.FlavorText,
	}
}

// rawJSON drops absent attributes; Card.BeforeSave stores them as JSON null.
func rawJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

func (s *ImportService) logSummary(kind, expansion string, result *ImportResult) {
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	}
	if expansion != "" {
		fields = append(fields, zap.String("expansion", expansion))
	}
	s.logger.Info("import finished", fields...)
}

func expansionIDs(records []catalog.ExpansionRecord) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Valid() {
			ids = append(ids, strings.TrimSpace(rec.ID))
		}
	}
	return ids
}

func cardIDs(records []catalog.CardRecord) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Valid() {
			ids = append(ids, strings.TrimSpace(rec.ID))
		}
	}
	return ids
}
