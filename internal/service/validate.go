package service

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/sakif/auctions/internal/apperror"
)

const (
	MaxTitleLength    = 512
	MaxImageURLLength = 200
	MaxCommentLength  = 5000

	// Prices carry cents and at most 17 integer digits, so they fit a
	// DECIMAL(19,2) column if the store ever moves off SQLite.
	priceDecimalPlaces = 2

	// Exponent bounds checked before any arithmetic. Rescaling a value like
	// 1e-200000000 builds a power of ten with that many digits. Trailing
	// zeros ("10.000") still fit inside these bounds.
	minPriceExponent = -18
	maxPriceExponent = 17
)

var maxPrice = decimal.New(1, 17)

// validatePrice checks sign, precision and magnitude. Starting prices may
// be zero; bids must be positive.
func validatePrice(field string, price decimal.Decimal, allowZero bool) error {
	switch exp := price.Exponent(); {
	case exp < minPriceExponent:
		return apperror.ValidationFailed(field,
			fmt.Sprintf("%s must have at most %d decimal places", field, priceDecimalPlaces))
	case exp > maxPriceExponent:
		return apperror.ValidationFailed(field, field+" is too large")
	}

	switch {
	case price.IsNegative():
		return apperror.ValidationFailed(field, field+" must not be negative")
	case price.IsZero() && !allowZero:
		return apperror.ValidationFailed(field, field+" must be greater than zero")
	case !price.Equal(price.Truncate(priceDecimalPlaces)):
		return apperror.ValidationFailed(field,
			fmt.Sprintf("%s must have at most %d decimal places", field, priceDecimalPlaces))
	case price.GreaterThanOrEqual(maxPrice):
		return apperror.ValidationFailed(field, field+" is too large")
	}
	return nil
}

// validateImageURL accepts an empty string (the caller substitutes the
// placeholder) or an absolute http(s) URL.
func validateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxImageURLLength {
		return apperror.ValidationFailed("imageUrl",
			fmt.Sprintf("image URL must be %d characters or less", MaxImageURLLength))
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.ValidationFailed("imageUrl", "image URL must be an absolute http or https URL")
	}
	return nil
}

// validateText trims s and checks it is non-empty and at most max runes.
func validateText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, max))
	}
	return s, nil
}

// requireUser turns an empty actor id into an Unauthenticated error.
func requireUser(userID, action string) error {
	if userID == "" {
		return apperror.Unauthenticated("sign in to " + action)
	}
	return nil
}
