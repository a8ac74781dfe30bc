package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

var _ repository.ListingRepository = (*DB)(nil)

const listingColumns = `l.id, l.owner_id, l.title, l.description, l.image_url,
	l.starting_price, l.category, l.active, l.winner_id, l.created_at`

// summaryColumns adds the two figures the index page needs. The current
// price is the most recently inserted bid (highest rowid), not the highest
// amount; NULL when the listing has no bids.
const summaryColumns = listingColumns + `,
	(SELECT b.price FROM bids b WHERE b.listing_id = l.id ORDER BY b.rowid DESC LIMIT 1),
	(SELECT COUNT(*) FROM bids b WHERE b.listing_id = l.id)`

// CreateListing inserts a new listing and fills in ID and CreatedAt.
func (db *DB) CreateListing(ctx context.Context, listing *model.Listing) error {
	listing.ID = xid.New().String()
	listing.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO listings (id, owner_id, title, description, image_url,
		                       starting_price, category, active, winner_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.OwnerID,
		listing.Title,
		listing.Description,
		listing.ImageURL,
		listing.StartingPrice,
		string(listing.Category),
		listing.Active,
		listing.WinnerID,
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating listing: %w", err)
	}

	return nil
}

// GetListing returns apperror.ErrNotFound if the id does not resolve.
func (db *DB) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	return getListing(ctx, db.conn, id)
}

func getListing(ctx context.Context, q queryer, id string) (*model.Listing, error) {
	l, err := scanListing(q.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings l WHERE l.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("listing", id)
		}
		return nil, fmt.Errorf("sqlite: getting listing %s: %w", id, err)
	}
	return l, nil
}

// ListActive returns active listings in insertion order, each with its
// current price and bid count.
func (db *DB) ListActive(ctx context.Context, filter repository.ListingFilter) ([]model.ListingSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM listings l WHERE l.active = 1`
	var args []any
	if filter.Category != "" {
		query += ` AND l.category = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY l.rowid`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing active listings: %w", err)
	}
	return collectSummaries(rows)
}

// CloseListing flips active off and picks the winner in a single UPDATE.
//
// The "AND active = 1" guard is what makes a second close a no-op: the
// winner recorded by the first close is never overwritten, even if more
// bids were somehow inserted in between.
func (db *DB) CloseListing(ctx context.Context, id string) (*model.Listing, error) {
	var closed *model.Listing
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE listings
			 SET active = 0,
			     winner_id = (SELECT b.user_id FROM bids b
			                  WHERE b.listing_id = listings.id
			                  ORDER BY b.rowid DESC LIMIT 1)
			 WHERE id = ? AND active = 1`,
			id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: closing listing %s: %w", id, err)
		}

		closed, err = getListing(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// scanListing reads one row selected with listingColumns.
func scanListing(row scanner) (*model.Listing, error) {
	var (
		l        model.Listing
		category string
		winnerID sql.NullString
	)
	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.Description,
		&l.ImageURL,
		&l.StartingPrice,
		&category,
		&l.Active,
		&winnerID,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Category = model.Category(category)
	l.WinnerID = stringPtr(winnerID)
	return &l, nil
}

// collectSummaries drains rows selected with summaryColumns and closes them.
func collectSummaries(rows *sql.Rows) ([]model.ListingSummary, error) {
	defer rows.Close()

	summaries := []model.ListingSummary{}
	for rows.Next() {
		var (
			s        model.ListingSummary
			category string
			winnerID sql.NullString
			latest   decimal.NullDecimal
		)
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Title, &s.Description, &s.ImageURL,
			&s.StartingPrice, &category, &s.Active, &winnerID, &s.CreatedAt,
			&latest, &s.BidCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning listing row: %w", err)
		}
		s.Category = model.Category(category)
		s.WinnerID = stringPtr(winnerID)
		s.CurrentPrice = s.StartingPrice
		if latest.Valid {
			s.CurrentPrice = latest.Decimal
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating listings: %w", err)
	}
	return summaries, nil
}
