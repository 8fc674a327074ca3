package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/tcg-collection/internal/domain"
	"github.com/dom/tcg-collection/internal/service"
	"github.com/dom/tcg-collection/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportHandler(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	ts.Catalog.SetExpansions(
		testutil.SetJSON("base1", "Base", "1999/01/09"),
		testutil.SetJSON("base2", "Jungle", "1999/06/16"),
	)
	ts.Catalog.SetCards("base1", testutil.ManyCardJSON("base1", 3)...)
	ts.Catalog.SetCards("base2", testutil.ManyCardJSON("base2", 2)...)

	t.Run("requires auth", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/import/expansions"), nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("cards before expansions", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/import/expansions/base1/cards"), nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, 0, ts.Catalog.CardRequests("base1"))
	})

	t.Run("expansions", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/import/expansions"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.ImportResult
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Equal(t, service.ImportResult{Created: 2}, result)
	})

	t.Run("cards for one expansion", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/import/expansions/base1/cards"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.ImportResult
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Equal(t, service.ImportResult{Created: 3}, result)
	})

	t.Run("all cards in bulk mode", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, ts.APIURL("/import/cards?bulk=true"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.BulkImportResult
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Equal(t, 2, result.Expansions)
		assert.Equal(t, 2, result.Totals.Created)
		assert.Equal(t, 3, result.Totals.Skipped)
		assert.Empty(t, result.Failures)

		var cards int64
		require.NoError(t, ts.DB.DB.Model(&domain.Card{}).Count(&cards).Error)
		assert.Equal(t, int64(5), cards)
	})
}

func TestImportHandler_Disabled(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.ImportAPIEnabled = false
	ts := testutil.NewTestServerWithConfig(t, cfg)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	for _, path := range []string{"/import/expansions", "/import/expansions/base1/cards", "/import/cards"} {
		resp := doRequest(t, http.MethodPost, ts.APIURL(path), nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	assert.Empty(t, ts.Catalog.Requests())
}
