// Package service holds the auction rules: who may see, bid on, close and
// comment on a listing, and what a valid bid is.
//
// Services take primitive inputs plus the acting user's ID and return
// apperror kinds. They never see HTTP; the handler package owns that.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

// ListingService runs the listing lifecycle: create, view, bid, close.
type ListingService struct {
	listings  repository.ListingRepository
	bids      repository.BidRepository
	comments  repository.CommentRepository
	watchlist repository.WatchlistRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

func NewListingService(
	listings repository.ListingRepository,
	bids repository.BidRepository,
	comments repository.CommentRepository,
	watchlist repository.WatchlistRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		listings:  listings,
		bids:      bids,
		comments:  comments,
		watchlist: watchlist,
		users:     users,
		logger:    logger,
	}
}

// CreateListingInput is what a seller fills in. Empty ImageURL and
// Category fall back to the placeholder image and "Other".
type CreateListingInput struct {
	Title         string
	Description   string
	ImageURL      string
	StartingPrice decimal.Decimal
	Category      model.Category
}

// ListingView is everything the listing page shows.
type ListingView struct {
	model.Listing
	// CurrentPrice is the most recent bid, or the starting price when
	// nobody has bid yet.
	CurrentPrice  decimal.Decimal  `json:"currentPrice"`
	BidCount      int              `json:"bidCount"`
	LeadingBidder *model.UserRef   `json:"leadingBidder,omitempty"`
	WatchState    model.WatchState `json:"watchState"`
	Comments      []model.Comment  `json:"comments"`
}

func (s *ListingService) CreateListing(ctx context.Context, ownerID string, in CreateListingInput) (*model.Listing, error) {
	if err := requireUser(ownerID, "create a listing"); err != nil {
		return nil, err
	}

	title, err := validateText("title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	if err := validatePrice("startingPrice", in.StartingPrice, true); err != nil {
		return nil, err
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if err := validateImageURL(imageURL); err != nil {
		return nil, err
	}
	if imageURL == "" {
		imageURL = model.PlaceholderImageURL
	}

	category := in.Category
	if category == "" {
		category = model.DefaultCategory
	}
	if !category.Valid() {
		return nil, apperror.ValidationFailed("category", fmt.Sprintf("unknown category %q", category))
	}

	listing := &model.Listing{
		OwnerID:       ownerID,
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		ImageURL:      imageURL,
		StartingPrice: in.StartingPrice,
		Category:      category,
		Active:        true,
	}
	if err := s.listings.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("service/listing: creating listing: %w", err)
	}

	s.logger.Info("listing created",
		slog.String("listingID", listing.ID),
		slog.String("ownerID", ownerID),
		slog.String("startingPrice", listing.StartingPrice.StringFixed(priceDecimalPlaces)),
	)
	return listing, nil
}

// GetListingView assembles the listing page for viewerID ("" if anonymous).
//
// A closed listing is only shown to its owner and its winner; anyone else,
// signed in or not, gets Forbidden.
func (s *ListingService) GetListingView(ctx context.Context, listingID, viewerID string) (*ListingView, error) {
	listing, err := s.visibleListing(ctx, listingID, viewerID)
	if err != nil {
		return nil, err
	}

	stats, err := s.bids.BidStats(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/listing: bid stats for %s: %w", listingID, err)
	}

	view := &ListingView{
		Listing:      *listing,
		CurrentPrice: listing.StartingPrice,
		BidCount:     stats.Count,
	}

	if stats.Latest != nil {
		view.CurrentPrice = stats.Latest.Price
		bidder, err := s.users.GetUserByID(ctx, stats.Latest.UserID)
		if err != nil {
			return nil, fmt.Errorf("service/listing: leading bidder %s: %w", stats.Latest.UserID, err)
		}
		view.LeadingBidder = &model.UserRef{ID: bidder.ID, Username: bidder.Username}
	}

	view.WatchState, err = watchState(ctx, s.watchlist, viewerID, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/listing: %w", err)
	}

	view.Comments, err = s.comments.ListComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/listing: comments for %s: %w", listingID, err)
	}

	return view, nil
}

// ListBids returns the bid history, oldest first, under the same
// visibility rule as GetListingView.
func (s *ListingService) ListBids(ctx context.Context, listingID, viewerID string) ([]model.Bid, error) {
	if _, err := s.visibleListing(ctx, listingID, viewerID); err != nil {
		return nil, err
	}
	bids, err := s.bids.ListBids(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/listing: bids on %s: %w", listingID, err)
	}
	return bids, nil
}

func (s *ListingService) visibleListing(ctx context.Context, listingID, viewerID string) (*model.Listing, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/listing: getting listing %s: %w", listingID, err)
	}
	if !listing.Active && !canSeeClosed(listing, viewerID) {
		return nil, apperror.Forbidden("this auction has ended")
	}
	return listing, nil
}

func canSeeClosed(listing *model.Listing, viewerID string) bool {
	if viewerID == "" {
		return false
	}
	if viewerID == listing.OwnerID {
		return true
	}
	return listing.WinnerID != nil && *listing.WinnerID == viewerID
}

// PlaceBid records a bid if it beats the current price.
//
// The first bid must be strictly above the starting price; every later
// bid strictly above the most recent one. The check runs inside the
// repository's insert transaction so two bidders can't both beat the
// same price.
func (s *ListingService) PlaceBid(ctx context.Context, listingID, bidderID string, amount decimal.Decimal) (*model.Bid, error) {
	if err := requireUser(bidderID, "bid"); err != nil {
		return nil, err
	}
	if err := validatePrice("amount", amount, false); err != nil {
		return nil, err
	}

	bid := &model.Bid{
		ListingID: listingID,
		UserID:    bidderID,
		Price:     amount,
	}
	err := s.bids.PlaceBid(ctx, bid, func(listing *model.Listing, latest *model.Bid) error {
		return checkBid(listing, latest, amount)
	})
	if err != nil {
		if errors.Is(err, apperror.ErrBidTooLow) {
			s.logger.Info("bid rejected",
				slog.String("listingID", listingID),
				slog.String("bidderID", bidderID),
				slog.String("amount", amount.StringFixed(priceDecimalPlaces)),
			)
		}
		return nil, fmt.Errorf("service/listing: placing bid on %s: %w", listingID, err)
	}

	s.logger.Info("bid placed",
		slog.String("listingID", listingID),
		slog.String("bidderID", bidderID),
		slog.String("amount", amount.StringFixed(priceDecimalPlaces)),
	)
	return bid, nil
}

// checkBid is the acceptance rule for a new bid.
func checkBid(listing *model.Listing, latest *model.Bid, amount decimal.Decimal) error {
	if !listing.Active {
		return apperror.ConflictMessage("this auction has ended")
	}
	floor := listing.StartingPrice
	if latest != nil {
		floor = latest.Price
	}
	if !amount.GreaterThan(floor) {
		return apperror.BidTooLow(floor.StringFixed(priceDecimalPlaces))
	}
	return nil
}

// CloseListing ends the auction. Only the owner may close; the most recent
// bidder, if any, becomes the winner. Closing twice returns the listing as
// the first close left it.
func (s *ListingService) CloseListing(ctx context.Context, listingID, closerID string) (*model.Listing, error) {
	if err := requireUser(closerID, "close a listing"); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/listing: getting listing %s: %w", listingID, err)
	}
	if listing.OwnerID != closerID {
		return nil, apperror.Forbidden("only the seller can close this listing")
	}
	if !listing.Active {
		return listing, nil
	}

	closed, err := s.listings.CloseListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/listing: closing %s: %w", listingID, err)
	}

	attrs := []any{slog.String("listingID", listingID)}
	if closed.WinnerID != nil {
		attrs = append(attrs, slog.String("winnerID", *closed.WinnerID))
	}
	s.logger.Info("listing closed", attrs...)
	return closed, nil
}

// ListActiveListings returns every open listing with its current price.
func (s *ListingService) ListActiveListings(ctx context.Context) ([]model.ListingSummary, error) {
	listings, err := s.listings.ListActive(ctx, repository.ListingFilter{})
	if err != nil {
		return nil, fmt.Errorf("service/listing: listing active: %w", err)
	}
	return listings, nil
}

func (s *ListingService) ListByCategory(ctx context.Context, category model.Category) ([]model.ListingSummary, error) {
	if !category.Valid() {
		return nil, apperror.ValidationFailed("category", fmt.Sprintf("unknown category %q", category))
	}
	listings, err := s.listings.ListActive(ctx, repository.ListingFilter{Category: category})
	if err != nil {
		return nil, fmt.Errorf("service/listing: listing category %s: %w", category, err)
	}
	return listings, nil
}

// Categories returns every category code with its label, in display order.
func (s *ListingService) Categories() []model.CategoryInfo {
	out := make([]model.CategoryInfo, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, model.CategoryInfo{Code: c, Label: c.Label()})
	}
	return out
}
