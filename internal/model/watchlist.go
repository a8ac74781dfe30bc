package model

// Watchlist records one user's interest in one listing.
// There is at most one row per (UserID, ListingID); only Active changes.
type Watchlist struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	ListingID string `json:"listingId"`
	Active    bool   `json:"active"`
}

// WatchState is what the listing page shows for the watch button.
// A user who never touched the button is distinct from one who switched it off.
type WatchState string

const (
	WatchNever       WatchState = "never"
	WatchWatching    WatchState = "watching"
	WatchNotWatching WatchState = "not_watching"
)
