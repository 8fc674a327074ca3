package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/tcg-collection/internal/api/handlers"
	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()
	req := testutil.CreateAuthenticatedRequest(t, method, url, body, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUserCardHandler_Lifecycle(t *testing.T) {
	ts := testutil.NewTestServer(t)

	owner, ownerToken := testutil.NewUserBuilder().WithUsername("owner").BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().WithUsername("other").BuildAndAuthenticate(t, ts)
	card := testutil.NewCardBuilder().WithName("Charizard").Build(t, ts.DB.DB)

	// First add creates the row
	resp := doRequest(t, http.MethodPost, ts.APIURL("/user-cards"), map[string]interface{}{
		"card":     card.ID,
		"quantity": 2,
	}, ownerToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created handlers.UserCardResponse
	testutil.AssertJSONResponse(t, resp, &created)
	assert.Equal(t, 2, created.Quantity)
	assert.Equal(t, domain.LanguageEnglish, created.Language)
	assert.Equal(t, domain.ConditionNearMint, created.Condition)
	assert.Equal(t, "Charizard", created.CardName)

	// Same variant through /add increments in place
	resp = doRequest(t, http.MethodPost, ts.APIURL("/user-cards/add"), map[string]interface{}{
		"card":     card.ID,
		"quantity": 3,
	}, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var incremented handlers.UserCardResponse
	testutil.AssertJSONResponse(t, resp, &incremented)
	assert.Equal(t, created.ID, incremented.ID)
	assert.Equal(t, 5, incremented.Quantity)

	var rows int64
	require.NoError(t, ts.DB.DB.Model(&domain.UserCard{}).Where("user_id = ?", owner.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	itemURL := ts.APIURL("/user-cards/" + created.ID.String())

	// Another user cannot see or touch the row
	resp = doRequest(t, http.MethodPatch, itemURL, map[string]interface{}{"is_favorite": true}, otherToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doRequest(t, http.MethodGet, itemURL, nil, otherToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doRequest(t, http.MethodDelete, itemURL, nil, otherToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Owner update
	resp = doRequest(t, http.MethodPatch, itemURL, map[string]interface{}{"is_favorite": true, "notes": "binder 2"}, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated handlers.UserCardResponse
	testutil.AssertJSONResponse(t, resp, &updated)
	assert.True(t, updated.IsFavorite)
	assert.Equal(t, "binder 2", updated.Notes)
	assert.Equal(t, 5, updated.Quantity)

	// Owner delete
	resp = doRequest(t, http.MethodDelete, itemURL, nil, ownerToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doRequest(t, http.MethodGet, itemURL, nil, ownerToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserCardHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	card := testutil.NewCardBuilder().Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		path           string
		request        map[string]interface{}
		setup          func()
		token          string
		expectedStatus int
		invalidFields  []string
	}{
		{
			name:           "unauthenticated",
			path:           "/user-cards",
			request:        map[string]interface{}{"card": card.ID},
			token:          "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "defaults applied",
			path:           "/user-cards",
			request:        map[string]interface{}{"card": card.ID},
			token:          token,
			expectedStatus: http.StatusCreated,
		},
		{
			name:    "duplicate variant rejected",
			path:    "/user-cards",
			request: map[string]interface{}{"card": card.ID},
			setup: func() {
				testutil.NewUserCardBuilder().WithUser(user).WithCard(card).Build(t, ts.DB.DB)
			},
			token:          token,
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"non_field_errors"},
		},
		{
			name:    "different variant is a new row",
			path:    "/user-cards",
			request: map[string]interface{}{"card": card.ID, "language": "JP", "is_holographic": true},
			setup: func() {
				testutil.NewUserCardBuilder().WithUser(user).WithCard(card).Build(t, ts.DB.DB)
			},
			token:          token,
			expectedStatus: http.StatusCreated,
		},
		{
			name:    "explicit increment on the create route",
			path:    "/user-cards",
			request: map[string]interface{}{"card": card.ID, "on_conflict": "increment"},
			setup: func() {
				testutil.NewUserCardBuilder().WithUser(user).WithCard(card).Build(t, ts.DB.DB)
			},
			token:          token,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "add route creates when missing",
			path:           "/user-cards/add",
			request:        map[string]interface{}{"card": card.ID, "quantity": 4},
			token:          token,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown card",
			path:           "/user-cards",
			request:        map[string]interface{}{"card": uuid.New()},
			token:          token,
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"card"},
		},
		{
			name:           "zero quantity",
			path:           "/user-cards",
			request:        map[string]interface{}{"card": card.ID, "quantity": 0},
			token:          token,
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"quantity"},
		},
		{
			name:           "bad enums",
			path:           "/user-cards",
			request:        map[string]interface{}{"card": card.ID, "language": "XX", "condition": "MINT"},
			token:          token,
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"language", "condition"},
		},
		{
			name:           "bad conflict policy",
			path:           "/user-cards",
			request:        map[string]interface{}{"card": card.ID, "on_conflict": "merge"},
			token:          token,
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"on_conflict"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, ts.DB.DB.Exec("TRUNCATE TABLE user_cards CASCADE").Error)

			if tt.setup != nil {
				tt.setup()
			}

			resp := doRequest(t, http.MethodPost, ts.APIURL(tt.path), tt.request, tt.token)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if len(tt.invalidFields) > 0 {
				testutil.AssertValidationError(t, resp, tt.invalidFields...)
			}
		})
	}
}

func TestUserCardHandler_Update(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	card := testutil.NewCardBuilder().Build(t, ts.DB.DB)
	otherCard := testutil.NewCardBuilder().Build(t, ts.DB.DB)
	uc := testutil.NewUserCardBuilder().WithUser(user).WithCard(card).WithQuantity(3).Build(t, ts.DB.DB)
	testutil.NewUserCardBuilder().WithUser(user).WithCard(card).WithLanguage(domain.LanguageFrench).Build(t, ts.DB.DB)

	url := ts.APIURL("/user-cards/" + uc.ID.String())

	tests := []struct {
		name           string
		request        map[string]interface{}
		expectedStatus int
		invalidFields  []string
	}{
		{
			name:           "quantity",
			request:        map[string]interface{}{"quantity": 7},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "negative quantity",
			request:        map[string]interface{}{"quantity": -1},
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"quantity"},
		},
		{
			name:           "card cannot change",
			request:        map[string]interface{}{"card": otherCard.ID},
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"card"},
		},
		{
			name:           "same card is accepted",
			request:        map[string]interface{}{"card": card.ID, "notes": "ok"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "collides with another variant",
			request:        map[string]interface{}{"language": "FR"},
			expectedStatus: http.StatusBadRequest,
			invalidFields:  []string{"non_field_errors"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPatch, url, tt.request, token)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if len(tt.invalidFields) > 0 {
				testutil.AssertValidationError(t, resp, tt.invalidFields...)
			}
		})
	}

	t.Run("malformed id", func(t *testing.T) {
		resp := doRequest(t, http.MethodPatch, ts.APIURL("/user-cards/not-a-uuid"), map[string]interface{}{"quantity": 2}, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUserCardHandler_Views(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	other, _ := testutil.NewUserBuilder().WithUsername("stranger").Build(t, ts.DB.DB)

	base := testutil.NewExpansionBuilder().WithName("Base").Build(t, ts.DB.DB)
	jungle := testutil.NewExpansionBuilder().WithName("Jungle").Build(t, ts.DB.DB)
	testutil.NewExpansionBuilder().WithName("Fossil").Build(t, ts.DB.DB)

	pikachu := testutil.NewCardBuilder().WithName("Pikachu").WithExpansion(base).Build(t, ts.DB.DB)
	charizard := testutil.NewCardBuilder().WithName("Charizard").WithExpansion(base).Build(t, ts.DB.DB)
	snorlax := testutil.NewCardBuilder().WithName("Snorlax").WithExpansion(jungle).Build(t, ts.DB.DB)

	testutil.NewUserCardBuilder().WithUser(user).WithCard(pikachu).WithQuantity(3).Build(t, ts.DB.DB)
	testutil.NewUserCardBuilder().WithUser(user).WithCard(pikachu).WithQuantity(2).Holographic().Favorite().Build(t, ts.DB.DB)
	testutil.NewUserCardBuilder().WithUser(user).WithCard(charizard).Build(t, ts.DB.DB)
	testutil.NewUserCardBuilder().WithUser(user).WithCard(snorlax).Build(t, ts.DB.DB)
	testutil.NewUserCardBuilder().WithUser(other).WithCard(snorlax).WithQuantity(9).Build(t, ts.DB.DB)

	t.Run("list", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.APIURL("/user-cards"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body []handlers.UserCardResponse
		testutil.AssertJSONResponse(t, resp, &body)
		assert.Len(t, body, 4)
		for _, uc := range body {
			assert.NotEqual(t, 9, uc.Quantity)
		}
	})

	t.Run("grouped", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.APIURL("/user-cards/grouped"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body []handlers.CardGroupResponse
		testutil.AssertJSONResponse(t, resp, &body)
		require.Len(t, body, 3)

		assert.Equal(t, "Charizard", body[0].CardName)
		assert.Equal(t, "Pikachu", body[1].CardName)
		assert.Equal(t, "Snorlax", body[2].CardName)

		assert.Equal(t, 5, body[1].TotalQuantity)
		assert.Equal(t, 2, body[1].InstancesCount)
		assert.True(t, body[1].IsAnyFavorite)
		assert.Len(t, body[1].Instances, 2)
		assert.Equal(t, "Base", body[1].ExpansionName)
		assert.Equal(t, 1, body[2].TotalQuantity)
	})

	t.Run("owned expansions", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, ts.APIURL("/user-expansions"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body []handlers.OwnedExpansionResponse
		testutil.AssertJSONResponse(t, resp, &body)
		require.Len(t, body, 2)
		assert.Equal(t, "Base", body[0].Name)
		assert.Equal(t, int64(3), body[0].UserCardsCount)
		assert.Equal(t, "Jungle", body[1].Name)
		assert.Equal(t, int64(1), body[1].UserCardsCount)
	})

	t.Run("views require auth", func(t *testing.T) {
		for _, path := range []string{"/user-cards", "/user-cards/grouped", "/user-expansions"} {
			resp := doRequest(t, http.MethodGet, ts.APIURL(path), nil, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		}
	})
}
