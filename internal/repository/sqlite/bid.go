package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

var _ repository.BidRepository = (*DB)(nil)

const bidColumns = `id, listing_id, user_id, price, created_at`

// PlaceBid runs the caller's check and the insert in one transaction.
//
// Because the pool has a single connection, no other statement can slip
// between reading the latest bid and inserting the new one. Two bidders
// racing at the same price are therefore handled one after the other: the
// second sees the first's bid as latest and its check rejects it.
//
// On a rejected check nothing is written and check's error is returned as is.
func (db *DB) PlaceBid(ctx context.Context, bid *model.Bid, check repository.BidCheck) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		listing, err := getListing(ctx, tx, bid.ListingID)
		if err != nil {
			return err
		}

		latest, err := latestBid(ctx, tx, bid.ListingID)
		if err != nil {
			return err
		}

		if err := check(listing, latest); err != nil {
			return err
		}

		bid.ID = xid.New().String()
		bid.CreatedAt = time.Now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bids (`+bidColumns+`) VALUES (?, ?, ?, ?, ?)`,
			bid.ID,
			bid.ListingID,
			bid.UserID,
			bid.Price,
			bid.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting bid on listing %s: %w", bid.ListingID, err)
		}
		return nil
	})
}

// BidStats returns the latest bid and the bid count for a listing.
func (db *DB) BidStats(ctx context.Context, listingID string) (repository.BidStats, error) {
	var stats repository.BidStats

	latest, err := latestBid(ctx, db.conn, listingID)
	if err != nil {
		return stats, err
	}
	stats.Latest = latest

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bids WHERE listing_id = ?`, listingID,
	).Scan(&stats.Count)
	if err != nil {
		return stats, fmt.Errorf("sqlite: counting bids on listing %s: %w", listingID, err)
	}

	return stats, nil
}

// ListBids returns every bid on a listing, oldest first.
func (db *DB) ListBids(ctx context.Context, listingID string) ([]model.Bid, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE listing_id = ? ORDER BY rowid`,
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bids on %s: %w", listingID, err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning bid row: %w", err)
		}
		bids = append(bids, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bids: %w", err)
	}
	return bids, nil
}

// latestBid returns the most recently inserted bid, or nil if there are none.
func latestBid(ctx context.Context, q queryer, listingID string) (*model.Bid, error) {
	b, err := scanBid(q.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE listing_id = ? ORDER BY rowid DESC LIMIT 1`,
		listingID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting latest bid on %s: %w", listingID, err)
	}
	return b, nil
}

func scanBid(row scanner) (*model.Bid, error) {
	var b model.Bid
	if err := row.Scan(&b.ID, &b.ListingID, &b.UserID, &b.Price, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
