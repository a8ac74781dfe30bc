package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/handler"
	"github.com/sakif/auctions/internal/model"
)

func tokenCookie(rec interface{ Result() *http.Response }) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"pw","confirmation":"pw"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user := decode[map[string]any](t, rec)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "passwordHash")

	cookie := tokenCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	userID, err := api.tokens.Validate(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, user["id"], userID)
}

func TestRegister_Errors(t *testing.T) {
	api := newTestAPI(t)
	api.user(t, "taken")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"bad json", `{`, http.StatusBadRequest, "body"},
		{"missing username", `{"email":"a@b.co","password":"pw","confirmation":"pw"}`, http.StatusBadRequest, "username"},
		{"bad email", `{"username":"a","email":"nope","password":"pw","confirmation":"pw"}`, http.StatusBadRequest, "email"},
		{"mismatch", `{"username":"a","email":"a@b.co","password":"pw","confirmation":"px"}`, http.StatusBadRequest, "confirmation"},
		{"duplicate", `{"username":"taken","email":"new@b.co","password":"pw","confirmation":"pw"}`, http.StatusConflict, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/auth/register", tt.body, "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decode[handler.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantField, body.Field)
			assert.Nil(t, tokenCookie(rec))
		})
	}
}

func TestLoginLogoutMe(t *testing.T) {
	api := newTestAPI(t)
	user := api.user(t, "bob")

	rec := api.do(t, http.MethodPost, "/auth/login", `{"username":"bob","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decode[handler.ErrorResponse](t, rec).Error)

	rec = api.do(t, http.MethodPost, "/auth/login", `{"username":"bob","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, tokenCookie(rec))

	rec = api.do(t, http.MethodGet, "/api/me", "", user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", decode[model.User](t, rec).Username)

	rec = api.do(t, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/logout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := tokenCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}
