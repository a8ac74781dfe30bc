// Package repository declares the storage interfaces the services depend on.
// The sqlite subpackage implements all of them on a single *sqlite.DB.
package repository

import (
	"context"

	"github.com/sakif/auctions/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a password account. Duplicate username or email
	// returns an apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHubUser creates or refreshes the account linked to user.GitHubID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

// ListingFilter narrows ListActive. The zero value means "all active listings".
type ListingFilter struct {
	Category model.Category
}

type ListingRepository interface {
	CreateListing(ctx context.Context, listing *model.Listing) error
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	ListActive(ctx context.Context, filter ListingFilter) ([]model.ListingSummary, error)
	// CloseListing deactivates the listing and records the most recent
	// bidder as winner in one statement. Closing an inactive listing
	// changes nothing. The returned listing is the stored state afterwards.
	CloseListing(ctx context.Context, id string) (*model.Listing, error)
}

// BidStats is what the listing page derives from the bid history.
type BidStats struct {
	Latest *model.Bid // nil when there are no bids
	Count  int
}

// BidCheck decides whether a bid may be stored, given the listing and the
// most recent bid (nil if none). It runs inside the insert transaction and
// must not call back into the repository.
type BidCheck func(listing *model.Listing, latest *model.Bid) error

type BidRepository interface {
	// PlaceBid loads the listing and latest bid, runs check, and inserts bid
	// only if check returns nil, all inside one transaction.
	PlaceBid(ctx context.Context, bid *model.Bid, check BidCheck) error
	BidStats(ctx context.Context, listingID string) (BidStats, error)
	ListBids(ctx context.Context, listingID string) ([]model.Bid, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	// ListComments returns comments oldest first.
	ListComments(ctx context.Context, listingID string) ([]model.Comment, error)
}

type WatchlistRepository interface {
	// UpsertWatchlist creates the (user, listing) row as active, or sets an
	// existing row's active flag to desired.
	UpsertWatchlist(ctx context.Context, userID, listingID string, desired bool) (*model.Watchlist, error)
	GetWatchlist(ctx context.Context, userID, listingID string) (*model.Watchlist, error)
	ListWatched(ctx context.Context, userID string) ([]model.ListingSummary, error)
}
