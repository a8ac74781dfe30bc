package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository/sqlite"
)

// testEnv wires every service to one in-memory database.
type testEnv struct {
	db        *sqlite.DB
	auth      *AuthService
	listings  *ListingService
	watchlist *WatchlistService
	comments  *CommentService
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	logger := newTestLogger()
	return &testEnv{
		db:        db,
		auth:      NewAuthService(db, tokens, auth.NewPasswordService(bcrypt.MinCost), logger),
		listings:  NewListingService(db, db, db, db, db, logger),
		watchlist: NewWatchlistService(db, db, logger),
		comments:  NewCommentService(db, db, db, logger),
	}
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Username:     username,
		Email:        username + "@example.com",
		Password:     "pw-" + username,
		Confirmation: "pw-" + username,
	})
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) listing(t *testing.T, owner *model.User, price string) *model.Listing {
	t.Helper()
	l, err := e.listings.CreateListing(context.Background(), owner.ID, CreateListingInput{
		Title:         "Old guitar",
		StartingPrice: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return l
}

func (e *testEnv) bid(t *testing.T, l *model.Listing, bidder *model.User, amount string) (*model.Bid, error) {
	t.Helper()
	return e.listings.PlaceBid(context.Background(), l.ID, bidder.ID, decimal.RequireFromString(amount))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
