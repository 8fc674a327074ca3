package postgres_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/repository/postgres"
	"github.com/dom/tcg-collection/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestExpansionRepository_Upsert(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewExpansionRepository(testDB.DB)
	ctx := context.Background()

	release := datatypes.Date(time.Date(1999, 1, 9, 0, 0, 0, 0, time.UTC))
	expansion := &domain.Expansion{
		ExternalID:  "base1",
		Name:        "Base",
		Series:      "Base",
		ReleaseDate: &release,
	}

	// Create
	require.NoError(t, repo.Upsert(ctx, expansion))
	require.NotEqual(t, uuid.Nil, expansion.ID)
	firstID := expansion.ID

	// Update keeps the row identity
	total := 102
	again := &domain.Expansion{
		ExternalID: "base1",
		Name:       "Base Set",
		Series:     "Original",
		TotalCards: &total,
	}
	require.NoError(t, repo.Upsert(ctx, again))
	assert.Equal(t, firstID, again.ID)

	got, err := repo.GetByExternalID(ctx, "base1")
	require.NoError(t, err)
	assert.Equal(t, "Base Set", got.Name)
	assert.Equal(t, "Original", got.Series)
	assert.Nil(t, got.ReleaseDate)
	require.NotNil(t, got.TotalCards)
	assert.Equal(t, 102, *got.TotalCards)

	var count int64
	require.NoError(t, testDB.DB.Model(&domain.Expansion{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Name belongs to another external id
	clash := &domain.Expansion{ExternalID: "base9", Name: "Base Set"}
	assert.ErrorIs(t, repo.Upsert(ctx, clash), gorm.ErrDuplicatedKey)
}

func TestExpansionRepository_Lookup(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewExpansionRepository(testDB.DB)
	ctx := context.Background()

	testutil.NewExpansionBuilder().WithExternalID("swsh1").WithName("Sword & Shield").Build(t, testDB.DB)
	testutil.NewExpansionBuilder().WithExternalID("swsh2").WithName("Rebel Clash").Build(t, testDB.DB)
	testutil.NewExpansionBuilder().WithExternalID("sv1").WithName("Scarlet & Violet").Build(t, testDB.DB)
	testutil.NewExpansionBuilder().WithExternalID("odd").WithName("100% Rare_Set").Build(t, testDB.DB)

	t.Run("get all ordered by name", func(t *testing.T) {
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "100% Rare_Set", all[0].Name)
		assert.Equal(t, "Rebel Clash", all[1].Name)
		assert.Equal(t, "Scarlet & Violet", all[2].Name)
		assert.Equal(t, "Sword & Shield", all[3].Name)
	})

	t.Run("name fold", func(t *testing.T) {
		got, err := repo.GetByNameFold(ctx, "rebel CLASH")
		require.NoError(t, err)
		assert.Equal(t, "swsh2", got.ExternalID)

		_, err = repo.GetByNameFold(ctx, "rebel")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("search", func(t *testing.T) {
		tests := []struct {
			fragment string
			want     []string
		}{
			{fragment: "&", want: []string{"sv1", "swsh1"}},
			{fragment: "clash", want: []string{"swsh2"}},
			{fragment: "%", want: []string{"odd"}},
			{fragment: "e_s", want: []string{"odd"}},
			{fragment: "nothing", want: nil},
		}
		for _, tt := range tests {
			got, err := repo.SearchByName(ctx, tt.fragment)
			require.NoError(t, err)

			var ids []string
			for _, e := range got {
				ids = append(ids, e.ExternalID)
			}
			assert.Equal(t, tt.want, ids, tt.fragment)
		}
	})

	t.Run("existing external ids", func(t *testing.T) {
		known, err := repo.ExistingExternalIDs(ctx, []string{"sv1", "sv2", "swsh2"})
		require.NoError(t, err)
		assert.Len(t, known, 2)
		assert.Contains(t, known, "sv1")
		assert.Contains(t, known, "swsh2")

		known, err = repo.ExistingExternalIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, known)
	})
}

func TestExpansionRepository_ListOwnedByUser(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewExpansionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	jungle := testutil.NewExpansionBuilder().WithName("Jungle").Build(t, testDB.DB)
	base := testutil.NewExpansionBuilder().WithName("Base").Build(t, testDB.DB)
	testutil.NewExpansionBuilder().WithName("Fossil").Build(t, testDB.DB)

	snorlax := testutil.NewCardBuilder().WithExpansion(jungle).Build(t, testDB.DB)
	pikachu := testutil.NewCardBuilder().WithExpansion(base).Build(t, testDB.DB)

	testutil.NewUserCardBuilder().WithUser(user).WithCard(pikachu).WithQuantity(4).Build(t, testDB.DB)
	testutil.NewUserCardBuilder().WithUser(user).WithCard(pikachu).Holographic().Build(t, testDB.DB)
	testutil.NewUserCardBuilder().WithUser(user).WithCard(snorlax).Build(t, testDB.DB)
	testutil.NewUserCardBuilder().WithUser(other).WithCard(snorlax).Build(t, testDB.DB)

	owned, err := repo.ListOwnedByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)

	assert.Equal(t, base.ID, owned[0].Expansion.ID)
	assert.Equal(t, "Base", owned[0].Expansion.Name)
	assert.Equal(t, int64(2), owned[0].UserCardsCount)
	assert.Equal(t, "Jungle", owned[1].Expansion.Name)
	assert.Equal(t, int64(1), owned[1].UserCardsCount)

	none, err := repo.ListOwnedByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCardRepository_Upsert(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewCardRepository(testDB.DB)
	ctx := context.Background()

	base := testutil.NewExpansionBuilder().WithExternalID("base1").Build(t, testDB.DB)
	moved := testutil.NewExpansionBuilder().WithExternalID("base2").Build(t, testDB.DB)

	card := &domain.Card{
		ExternalID:  "base1-4",
		Name:        "Charizard",
		ExpansionID: base.ID,
		HP:          "120",
		Types:       datatypes.JSON(`["Fire"]`),
	}
	require.NoError(t, repo.Upsert(ctx, card))
	firstID := card.ID

	// Every mutable column is overwritten, including the parent expansion
	update := &domain.Card{
		ExternalID:  "base1-4",
		Name:        "Charizard",
		ExpansionID: moved.ID,
		Rarity:      "Rare Holo",
	}
	require.NoError(t, repo.Upsert(ctx, update))
	assert.Equal(t, firstID, update.ID)

	got, err := repo.GetByExternalID(ctx, "base1-4")
	require.NoError(t, err)
	assert.Equal(t, moved.ID, got.ExpansionID)
	require.NotNil(t, got.Expansion)
	assert.Equal(t, "base2", got.Expansion.ExternalID)
	assert.Equal(t, "Rare Holo", got.Rarity)
	assert.Empty(t, got.HP)
	assert.JSONEq(t, `null`, string(got.Types))

	byID, err := repo.GetByID(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, "base1-4", byID.ExternalID)

	// Unknown expansion is a foreign key violation
	orphan := &domain.Card{ExternalID: "x-1", Name: "Orphan", ExpansionID: uuid.New()}
	assert.ErrorIs(t, repo.Upsert(ctx, orphan), gorm.ErrForeignKeyViolated)
}

func TestCardRepository_CreateMissing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewCardRepository(testDB.DB)
	ctx := context.Background()

	expansion := testutil.NewExpansionBuilder().WithExternalID("big").Build(t, testDB.DB)
	existing := testutil.NewCardBuilder().WithExternalID("big-1").WithName("Keep Me").WithExpansion(expansion).Build(t, testDB.DB)

	var cards []*domain.Card
	for i := 1; i <= 230; i++ {
		cards = append(cards, &domain.Card{
			ExternalID:  "big-" + itoa(i),
			Name:        "Card " + itoa(i),
			ExpansionID: expansion.ID,
		})
	}

	inserted, err := repo.CreateMissing(ctx, cards)
	require.NoError(t, err)
	assert.Equal(t, int64(229), inserted)

	got, err := repo.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep Me", got.Name)

	inserted, err = repo.CreateMissing(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	ids, err := repo.ExternalIDsByExpansion(ctx, expansion.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 230)

	known, err := repo.ExistingExternalIDs(ctx, []string{"big-1", "big-999"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"big-1": {}}, known)
}

func TestCardRepository_ListByExpansionExternalID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewCardRepository(testDB.DB)
	ctx := context.Background()

	base := testutil.NewExpansionBuilder().WithExternalID("base1").Build(t, testDB.DB)
	other := testutil.NewExpansionBuilder().WithExternalID("base2").Build(t, testDB.DB)
	testutil.NewCardBuilder().WithExternalID("base1-58").WithName("Pikachu").WithExpansion(base).Build(t, testDB.DB)
	testutil.NewCardBuilder().WithExternalID("base1-60").WithName("Energy").WithExpansion(base).Build(t, testDB.DB)
	testutil.NewCardBuilder().WithExternalID("base1-59").WithName("Energy").WithExpansion(base).Build(t, testDB.DB)
	testutil.NewCardBuilder().WithExternalID("base2-1").WithName("Aaa").WithExpansion(other).Build(t, testDB.DB)

	cards, err := repo.ListByExpansionExternalID(ctx, "base1")
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "base1-59", cards[0].ExternalID)
	assert.Equal(t, "base1-60", cards[1].ExternalID)
	assert.Equal(t, "base1-58", cards[2].ExternalID)

	cards, err = repo.ListByExpansionExternalID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
