package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImageURL is shown for listings created without an image.
const PlaceholderImageURL = "https://sisterhoodofstyle.com/wp-content/uploads/2018/02/no-image-1.jpg"

// Category is the three-letter code of a listing category.
//
// The codes are what gets stored and what clients send; Label gives the
// human-readable name. The set is fixed: new categories need a code change.
type Category string

const (
	CategoryCollectibles Category = "COL"
	CategoryBooks        Category = "BOK"
	CategoryElectronics  Category = "ELE"
	CategoryFashion      Category = "FAS"
	CategoryHome         Category = "HOM"
	CategoryAuto         Category = "AUT"
	CategoryMusic        Category = "MUS"
	CategorySports       Category = "SPO"
	CategoryToys         Category = "TOY"
	CategoryOther        Category = "OTH"
)

// DefaultCategory is used when a listing is created without one.
const DefaultCategory = CategoryOther

var categoryLabels = map[Category]string{
	CategoryCollectibles: "Collectibles",
	CategoryBooks:        "Books",
	CategoryElectronics:  "Electronics",
	CategoryFashion:      "Fashion",
	CategoryHome:         "Home and Garden",
	CategoryAuto:         "Auto parts",
	CategoryMusic:        "Musical instruments",
	CategorySports:       "Sporting goods",
	CategoryToys:         "Toys and Hobbies",
	CategoryOther:        "Other",
}

// Categories lists every category in display order.
var Categories = []Category{
	CategoryCollectibles,
	CategoryBooks,
	CategoryElectronics,
	CategoryFashion,
	CategoryHome,
	CategoryAuto,
	CategoryMusic,
	CategorySports,
	CategoryToys,
	CategoryOther,
}

// Valid reports whether c is one of the known codes.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name, or the raw code if it is unknown.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// CategoryInfo pairs a code with its label for category listings.
type CategoryInfo struct {
	Code  Category `json:"code"`
	Label string   `json:"label"`
}

// Listing is an item up for auction.
//
// Prices are decimal.Decimal rather than float64: a bid of 10.01 has to
// compare exactly against 10.00, and binary floats can't promise that.
//
// WinnerID is nil while the listing is active. After close it holds the
// most recent bidder, or stays nil when nobody bid.
type Listing struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"ownerId"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"imageUrl"`
	StartingPrice decimal.Decimal `json:"startingPrice"`
	Category      Category        `json:"category"`
	Active        bool            `json:"active"`
	WinnerID      *string         `json:"winnerId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ListingSummary is a listing plus the figures derived from its bids.
// Used by the index, category and watchlist pages.
type ListingSummary struct {
	Listing
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	BidCount     int             `json:"bidCount"`
}
