package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

var _ repository.WatchlistRepository = (*DB)(nil)

// UpsertWatchlist creates or updates the (user, listing) row in one statement.
//
// A new row is always inserted as active; only an existing row takes the
// desired value. The UNIQUE (user_id, listing_id) index turns the second
// and later calls into the DO UPDATE branch, so concurrent toggles can
// never produce two rows.
func (db *DB) UpsertWatchlist(ctx context.Context, userID, listingID string, desired bool) (*model.Watchlist, error) {
	var w model.Watchlist
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO watchlist (id, user_id, listing_id, active)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT (user_id, listing_id) DO UPDATE SET active = ?
		 RETURNING id, user_id, listing_id, active`,
		xid.New().String(), userID, listingID, desired,
	).Scan(&w.ID, &w.UserID, &w.ListingID, &w.Active)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upserting watchlist (user=%s, listing=%s): %w", userID, listingID, err)
	}
	return &w, nil
}

// GetWatchlist returns apperror.ErrNotFound if the user never touched the listing.
func (db *DB) GetWatchlist(ctx context.Context, userID, listingID string) (*model.Watchlist, error) {
	var w model.Watchlist
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, listing_id, active FROM watchlist
		 WHERE user_id = ? AND listing_id = ?`,
		userID, listingID,
	).Scan(&w.ID, &w.UserID, &w.ListingID, &w.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("watchlist", listingID)
		}
		return nil, fmt.Errorf("sqlite: getting watchlist (user=%s, listing=%s): %w", userID, listingID, err)
	}
	return &w, nil
}

// ListWatched returns the listings the user actively watches, active or
// closed, in the order they were first watched.
func (db *DB) ListWatched(ctx context.Context, userID string) ([]model.ListingSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		 FROM watchlist w
		 JOIN listings l ON l.id = w.listing_id
		 WHERE w.user_id = ? AND w.active = 1
		 ORDER BY w.rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing watchlist for %s: %w", userID, err)
	}
	return collectSummaries(rows)
}
