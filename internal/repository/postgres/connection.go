package postgres

import (
	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table in migration order.
var Models = []interface{}{
	&domain.User{},
	&domain.UserSession{},
	&domain.Expansion{},
	&domain.Card{},
	&domain.UserCard{},
}

func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Surface unique and foreign key violations as gorm.ErrDuplicatedKey
		// and gorm.ErrForeignKeyViolated.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates tables, indexes and constraints.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:      NewUserRepository(db),
		Session:   NewSessionRepository(db),
		Expansion: NewExpansionRepository(db),
		Card:      NewCardRepository(db),
		UserCard:  NewUserCardRepository(db),
	}
}
