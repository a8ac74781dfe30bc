package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

// WatchlistService manages which listings a user follows.
type WatchlistService struct {
	listings  repository.ListingRepository
	watchlist repository.WatchlistRepository
	logger    *slog.Logger
}

func NewWatchlistService(
	listings repository.ListingRepository,
	watchlist repository.WatchlistRepository,
	logger *slog.Logger,
) *WatchlistService {
	return &WatchlistService{
		listings:  listings,
		watchlist: watchlist,
		logger:    logger,
	}
}

// ToggleWatchlist sets the user's watch flag on a listing.
//
// The first call for a (user, listing) pair always starts watching, even
// when desired is false; the button on a never-watched listing only ever
// says "watch". After that the row follows desired. Repeating a call with
// the same desired value changes nothing.
func (s *WatchlistService) ToggleWatchlist(ctx context.Context, userID, listingID string, desired bool) (*model.Watchlist, error) {
	if err := requireUser(userID, "use the watchlist"); err != nil {
		return nil, err
	}

	if _, err := s.listings.GetListing(ctx, listingID); err != nil {
		return nil, fmt.Errorf("service/watchlist: getting listing %s: %w", listingID, err)
	}

	w, err := s.watchlist.UpsertWatchlist(ctx, userID, listingID, desired)
	if err != nil {
		return nil, fmt.Errorf("service/watchlist: updating (user=%s, listing=%s): %w", userID, listingID, err)
	}

	s.logger.Debug("watchlist updated",
		slog.String("userID", userID),
		slog.String("listingID", listingID),
		slog.Bool("active", w.Active),
	)
	return w, nil
}

// ListWatched returns the listings the user is watching, open or closed.
func (s *WatchlistService) ListWatched(ctx context.Context, userID string) ([]model.ListingSummary, error) {
	if err := requireUser(userID, "see your watchlist"); err != nil {
		return nil, err
	}
	listings, err := s.watchlist.ListWatched(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/watchlist: listing for %s: %w", userID, err)
	}
	return listings, nil
}

// WatchState reports never / watching / not_watching. Anonymous users are
// always "never".
func (s *WatchlistService) WatchState(ctx context.Context, userID, listingID string) (model.WatchState, error) {
	state, err := watchState(ctx, s.watchlist, userID, listingID)
	if err != nil {
		return "", fmt.Errorf("service/watchlist: %w", err)
	}
	return state, nil
}

func watchState(ctx context.Context, repo repository.WatchlistRepository, userID, listingID string) (model.WatchState, error) {
	if userID == "" {
		return model.WatchNever, nil
	}

	w, err := repo.GetWatchlist(ctx, userID, listingID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return model.WatchNever, nil
	case err != nil:
		return "", fmt.Errorf("watch state (user=%s, listing=%s): %w", userID, listingID, err)
	case w.Active:
		return model.WatchWatching, nil
	default:
		return model.WatchNotWatching, nil
	}
}
