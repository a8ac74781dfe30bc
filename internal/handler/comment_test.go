package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/auctions/internal/model"
)

func TestComments(t *testing.T) {
	api := newTestAPI(t)
	seller := api.user(t, "seller")
	alice := api.user(t, "alice")
	l := api.listing(t, seller, "1")
	path := "/api/listings/" + l.ID + "/comments"

	rec := api.do(t, http.MethodPost, path, `{"text":"first!"}`, alice.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[model.Comment](t, rec)
	assert.Equal(t, "alice", c.Author.Username)

	rec = api.do(t, http.MethodPost, path, `{"text":"second"}`, seller.ID)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]model.Comment](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, "first!", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
}

func TestComments_Errors(t *testing.T) {
	api := newTestAPI(t)
	seller := api.user(t, "seller")
	l := api.listing(t, seller, "1")
	path := "/api/listings/" + l.ID + "/comments"

	rec := api.do(t, http.MethodPost, path, `{"text":"hi"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, path, `{"text":""}`, seller.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, path, `{"text":"   "}`, seller.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, path, `{"text":"`+strings.Repeat("a", 5001)+`"}`, seller.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/listings/missing/comments", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
