package service

import (
	"github.com/dom/tcg-collection/internal/config"
	"github.com/dom/tcg-collection/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth       *AuthService
	Catalog    *CatalogService
	Collection *CollectionService
	Import     *ImportService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, source CatalogSource, logger *zap.Logger) *Services {
	return &Services{
		Auth:       NewAuthService(repos.User, repos.Session, cfg),
		Catalog:    NewCatalogService(repos.Expansion, repos.Card),
		Collection: NewCollectionService(repos.UserCard, repos.Card, repos.Expansion),
		Import:     NewImportService(source, repos.Expansion, repos.Card, logger),
	}
}
