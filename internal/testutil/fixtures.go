package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	username := fmt.Sprintf("testuser_%s", uuid.New().String()[:8])
	return &UserBuilder{
		username: username,
		email:    username + "@example.com",
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// TokenResponse matches the API token pair response
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// BuildAndAuthenticate registers a user via the API, obtains a token pair and
// returns the user and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	var user domain.User
	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"username": b.username,
		"email":    b.email,
		"password": b.password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}

	tokens := Login(t, ts, b.username, b.password)
	return &user, tokens.Access
}

// Login obtains a token pair for an existing user
func Login(t *testing.T, ts *TestServer, username, password string) TokenResponse {
	t.Helper()

	resp := postJSON(t, ts.APIURL("/auth/token"), map[string]string{
		"username": username,
		"password": password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected token status code: %d", resp.StatusCode)
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	return tokens
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	payload, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("failed to POST %s: %v", url, err)
	}
	return resp
}

// ExpansionBuilder creates test expansions
type ExpansionBuilder struct {
	externalID  string
	name        string
	series      string
	releaseDate *time.Time
	totalCards  *int
}

// NewExpansionBuilder creates a new ExpansionBuilder with default values
func NewExpansionBuilder() *ExpansionBuilder {
	suffix := uuid.New().String()[:8]
	return &ExpansionBuilder{
		externalID: "set-" + suffix,
		name:       "Expansion " + suffix,
		series:     "Base",
	}
}

// WithExternalID sets the catalog id
func (b *ExpansionBuilder) WithExternalID(id string) *ExpansionBuilder {
	b.externalID = id
	return b
}

// WithName sets the expansion name
func (b *ExpansionBuilder) WithName(name string) *ExpansionBuilder {
	b.name = name
	return b
}

// WithReleaseDate sets the release date
func (b *ExpansionBuilder) WithReleaseDate(date time.Time) *ExpansionBuilder {
	b.releaseDate = &date
	return b
}

// WithTotalCards sets the announced card count
func (b *ExpansionBuilder) WithTotalCards(total int) *ExpansionBuilder {
	b.totalCards = &total
	return b
}

// Build creates the expansion in the database
func (b *ExpansionBuilder) Build(t *testing.T, db *gorm.DB) *domain.Expansion {
	t.Helper()

	expansion := &domain.Expansion{
		ExternalID: b.externalID,
		Name:       b.name,
		Series:     b.series,
		TotalCards: b.totalCards,
		SymbolURL:  fmt.Sprintf("https://images.example.com/%s/symbol.png", b.externalID),
		LogoURL:    fmt.Sprintf("https://images.example.com/%s/logo.png", b.externalID),
	}
	if b.releaseDate != nil {
		d := datatypes.Date(*b.releaseDate)
		expansion.ReleaseDate = &d
	}

	if err := db.Create(expansion).Error; err != nil {
		t.Fatalf("failed to create expansion: %v", err)
	}

	return expansion
}

// CardBuilder creates test cards
type CardBuilder struct {
	externalID string
	name       string
	number     string
	rarity     string
	expansion  *domain.Expansion
}

// NewCardBuilder creates a new CardBuilder with default values
func NewCardBuilder() *CardBuilder {
	suffix := uuid.New().String()[:8]
	return &CardBuilder{
		externalID: "card-" + suffix,
		name:       "Card " + suffix,
		number:     "1",
		rarity:     "Common",
	}
}

// WithExternalID sets the catalog id
func (b *CardBuilder) WithExternalID(id string) *CardBuilder {
	b.externalID = id
	return b
}

// WithName sets the card name
func (b *CardBuilder) WithName(name string) *CardBuilder {
	b.name = name
	return b
}

// WithExpansion sets the owning expansion
func (b *CardBuilder) WithExpansion(expansion *domain.Expansion) *CardBuilder {
	b.expansion = expansion
	return b
}

// Build creates the card in the database, creating an expansion if none was set
func (b *CardBuilder) Build(t *testing.T, db *gorm.DB) *domain.Card {
	t.Helper()

	if b.expansion == nil {
		b.expansion = NewExpansionBuilder().Build(t, db)
	}

	card := &domain.Card{
		ExternalID:    b.externalID,
		Name:          b.name,
		ExpansionID:   b.expansion.ID,
		Number:        b.number,
		Rarity:        b.rarity,
		ImageURLSmall: fmt.Sprintf("https://images.example.com/%s.png", b.externalID),
		ImageURLLarge: fmt.Sprintf("https://images.example.com/%s_hires.png", b.externalID),
		HP:            "60",
		Types:         datatypes.JSON(`["Grass"]`),
	}

	if err := db.Omit("Expansion").Create(card).Error; err != nil {
		t.Fatalf("failed to create card: %v", err)
	}
	card.Expansion = b.expansion

	return card
}

// UserCardBuilder creates ledger rows
type UserCardBuilder struct {
	user      *domain.User
	card      *domain.Card
	quantity  int
	language  domain.Language
	condition domain.Condition
	holo      bool
	favorite  bool
}

// NewUserCardBuilder creates a new UserCardBuilder with default values
func NewUserCardBuilder() *UserCardBuilder {
	return &UserCardBuilder{
		quantity:  1,
		language:  domain.LanguageEnglish,
		condition: domain.ConditionNearMint,
	}
}

// WithUser sets the owner
func (b *UserCardBuilder) WithUser(user *domain.User) *UserCardBuilder {
	b.user = user
	return b
}

// WithCard sets the card
func (b *UserCardBuilder) WithCard(card *domain.Card) *UserCardBuilder {
	b.card = card
	return b
}

// WithQuantity sets the number of copies
func (b *UserCardBuilder) WithQuantity(quantity int) *UserCardBuilder {
	b.quantity = quantity
	return b
}

// WithLanguage sets the printing language
func (b *UserCardBuilder) WithLanguage(language domain.Language) *UserCardBuilder {
	b.language = language
	return b
}

// WithCondition sets the condition
func (b *UserCardBuilder) WithCondition(condition domain.Condition) *UserCardBuilder {
	b.condition = condition
	return b
}

// Holographic marks the copy as holographic
func (b *UserCardBuilder) Holographic() *UserCardBuilder {
	b.holo = true
	return b
}

// Favorite marks the row as a favorite
func (b *UserCardBuilder) Favorite() *UserCardBuilder {
	b.favorite = true
	return b
}

// Build creates the ledger row in the database
func (b *UserCardBuilder) Build(t *testing.T, db *gorm.DB) *domain.UserCard {
	t.Helper()

	if b.user == nil {
		b.user, _ = NewUserBuilder().Build(t, db)
	}
	if b.card == nil {
		b.card = NewCardBuilder().Build(t, db)
	}

	userCard := &domain.UserCard{
		UserID:        b.user.ID,
		CardID:        b.card.ID,
		Quantity:      b.quantity,
		Language:      b.language,
		Condition:     b.condition,
		IsHolographic: b.holo,
		IsFavorite:    b.favorite,
	}

	if err := db.Omit("User", "Card").Create(userCard).Error; err != nil {
		t.Fatalf("failed to create user card: %v", err)
	}

	return userCard
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
