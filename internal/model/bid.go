package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is an offer against a listing. Bids are never updated or deleted;
// the most recently inserted one defines the current price.
type Bid struct {
	ID        string          `json:"id"`
	ListingID string          `json:"listingId"`
	UserID    string          `json:"userId"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}
