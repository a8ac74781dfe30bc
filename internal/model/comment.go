package model

import "time"

// Comment is a free-text note on a listing. Append-only.
type Comment struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listingId"`
	Author    UserRef   `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
