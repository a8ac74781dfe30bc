package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/service"
)

func TestWatchlist(t *testing.T) {
	api := newTestAPI(t)
	seller := api.user(t, "seller")
	u := api.user(t, "watcher")
	l := api.listing(t, seller, "1")
	path := "/api/listings/" + l.ID + "/watchlist"

	watchState := func() model.WatchState {
		t.Helper()
		rec := api.do(t, http.MethodGet, "/api/listings/"+l.ID, "", u.ID)
		require.Equal(t, http.StatusOK, rec.Code)
		return decode[service.ListingView](t, rec).WatchState
	}

	assert.Equal(t, model.WatchNever, watchState())

	rec := api.do(t, http.MethodPut, path, `{"watch":true}`, u.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[model.Watchlist](t, rec).Active)
	assert.Equal(t, model.WatchWatching, watchState())

	rec = api.do(t, http.MethodGet, "/api/watchlist", "", u.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	watched := decode[[]model.ListingSummary](t, rec)
	require.Len(t, watched, 1)
	assert.Equal(t, l.ID, watched[0].ID)

	rec = api.do(t, http.MethodPut, path, `{"watch":false}`, u.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.Watchlist](t, rec).Active)
	assert.Equal(t, model.WatchNotWatching, watchState())

	rec = api.do(t, http.MethodGet, "/api/watchlist", "", u.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.ListingSummary](t, rec))
}

func TestWatchlist_Errors(t *testing.T) {
	api := newTestAPI(t)
	u := api.user(t, "watcher")

	rec := api.do(t, http.MethodPut, "/api/listings/x/watchlist", `{"watch":true}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/listings/x/watchlist", `{}`, u.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/listings/missing/watchlist", `{"watch":true}`, u.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/watchlist", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
