package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/service"
)

// ListingHandler serves listings, bids, closing and categories.
type ListingHandler struct {
	listings *service.ListingService
	logger   *slog.Logger
}

func NewListingHandler(listings *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, logger: logger}
}

// Prices arrive as JSON numbers or strings ("10.01"); decimal.Decimal
// accepts both without going through float64.
type createListingRequest struct {
	Title         string           `json:"title" validate:"required,max=512"`
	Description   string           `json:"description"`
	ImageURL      string           `json:"imageUrl" validate:"omitempty,max=200,http_url"`
	StartingPrice *decimal.Decimal `json:"startingPrice" validate:"required"`
	Category      string           `json:"category" validate:"omitempty,len=3"`
}

type bidRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// HandleList returns every active listing with its current price.
//
// HTTP: GET /api/listings
func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListActiveListings(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// HandleCreate opens a new auction owned by the caller.
//
// HTTP: POST /api/listings (RequireAuth) → 201
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	listing, err := h.listings.CreateListing(r.Context(), userID, service.CreateListingInput{
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		StartingPrice: *req.StartingPrice,
		Category:      model.Category(req.Category),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

// HandleGet returns the listing page. Anonymous viewers are allowed.
//
// HTTP: GET /api/listings/{id} (OptionalAuth)
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	view, err := h.listings.GetListingView(r.Context(), chi.URLParam(r, "id"), viewerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePlaceBid bids on a listing. A bid that doesn't beat the current
// price is a 409 with error "bid_too_low".
//
// HTTP: POST /api/listings/{id}/bids (RequireAuth) → 201
func (h *ListingHandler) HandlePlaceBid(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req bidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	bid, err := h.listings.PlaceBid(r.Context(), chi.URLParam(r, "id"), userID, *req.Amount)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

// HandleListBids returns the bid history, oldest first.
//
// HTTP: GET /api/listings/{id}/bids (OptionalAuth)
func (h *ListingHandler) HandleListBids(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	bids, err := h.listings.ListBids(r.Context(), chi.URLParam(r, "id"), viewerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// HandleClose ends the auction.
//
// HTTP: POST /api/listings/{id}/close (RequireAuth, owner only)
func (h *ListingHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	listing, err := h.listings.CloseListing(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleCategories lists every category code and label.
//
// HTTP: GET /api/categories
func (h *ListingHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.listings.Categories())
}

// HandleListByCategory returns the active listings in one category.
//
// HTTP: GET /api/categories/{code}/listings
func (h *ListingHandler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	category := model.Category(chi.URLParam(r, "code"))

	listings, err := h.listings.ListByCategory(r.Context(), category)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}
