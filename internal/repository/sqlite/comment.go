package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts a comment. Author.ID must be set; Author.Username
// is left as the caller provided it.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, listing_id, user_id, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.ListingID,
		comment.Author.ID,
		comment.Text,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment on listing %s: %w", comment.ListingID, err)
	}
	return nil
}

// ListComments returns the comments on a listing in the order they were
// written, each with its author's username.
func (db *DB) ListComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.listing_id, c.user_id, u.username, c.text, c.created_at
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.listing_id = ?
		 ORDER BY c.rowid`,
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments on %s: %w", listingID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ListingID, &c.Author.ID, &c.Author.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}
