package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/handler"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository/sqlite"
	"github.com/sakif/auctions/internal/service"
)

// testAPI is the full handler stack on an in-memory database.
type testAPI struct {
	router   http.Handler
	tokens   *auth.TokenService
	auth     *service.AuthService
	listings *service.ListingService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(db, tokens, auth.NewPasswordService(bcrypt.MinCost), logger)
	listingSvc := service.NewListingService(db, db, db, db, db, logger)

	ah := handler.NewAuthHandler(authSvc, nil, logger)
	lh := handler.NewListingHandler(listingSvc, logger)
	ch := handler.NewCommentHandler(service.NewCommentService(db, db, db, logger), logger)
	wh := handler.NewWatchlistHandler(service.NewWatchlistService(db, db, logger), logger)

	r := chi.NewRouter()
	r.Post("/auth/register", ah.HandleRegister)
	r.Post("/auth/login", ah.HandleLogin)
	r.Post("/auth/logout", ah.HandleLogout)

	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/api/listings", lh.HandleList)
		r.Get("/api/listings/{id}", lh.HandleGet)
		r.Get("/api/listings/{id}/bids", lh.HandleListBids)
		r.Get("/api/listings/{id}/comments", ch.HandleList)
		r.Get("/api/categories", lh.HandleCategories)
		r.Get("/api/categories/{code}/listings", lh.HandleListByCategory)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/api/me", ah.HandleMe)
		r.Post("/api/listings", lh.HandleCreate)
		r.Post("/api/listings/{id}/bids", lh.HandlePlaceBid)
		r.Post("/api/listings/{id}/close", lh.HandleClose)
		r.Post("/api/listings/{id}/comments", ch.HandleAdd)
		r.Put("/api/listings/{id}/watchlist", wh.HandleToggle)
		r.Get("/api/watchlist", wh.HandleList)
	})

	return &testAPI{router: r, tokens: tokens, auth: authSvc, listings: listingSvc}
}

// do sends a request as userID ("" for anonymous).
func (a *testAPI) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := a.tokens.Generate(userID)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) user(t *testing.T, username string) *model.User {
	t.Helper()
	res, err := a.auth.Register(context.Background(), service.RegisterInput{
		Username:     username,
		Email:        username + "@example.com",
		Password:     "pw",
		Confirmation: "pw",
	})
	require.NoError(t, err)
	return res.User
}

func (a *testAPI) listing(t *testing.T, owner *model.User, price string) *model.Listing {
	t.Helper()
	l, err := a.listings.CreateListing(context.Background(), owner.ID, service.CreateListingInput{
		Title:         "Bicycle",
		StartingPrice: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return l
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}
