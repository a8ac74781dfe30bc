package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sakif/auctions/internal/apperror"
	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

func TestCreateListing_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	created := createTestListing(t, db, owner, "10.50")

	if created.ID == "" {
		t.Fatal("CreateListing() did not set ID")
	}

	found, err := db.GetListing(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetListing() error = %v", err)
	}
	if found.OwnerID != owner.ID {
		t.Errorf("OwnerID = %q, want %q", found.OwnerID, owner.ID)
	}
	if !found.StartingPrice.Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("StartingPrice = %s, want 10.50", found.StartingPrice)
	}
	if found.Category != model.CategoryElectronics {
		t.Errorf("Category = %q, want %q", found.Category, model.CategoryElectronics)
	}
	if !found.Active {
		t.Error("Active = false, want true")
	}
	if found.WinnerID != nil {
		t.Errorf("WinnerID = %q, want nil", *found.WinnerID)
	}
}

func TestGetListing_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetListing(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetListing() error = %v, want ErrNotFound", err)
	}
}

func TestListActive(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	bidder := createTestUser(t, db, "bidder")

	first := createTestListing(t, db, owner, "5")
	second := createTestListing(t, db, owner, "20")
	closed := createTestListing(t, db, owner, "1")

	placeTestBid(t, db, second, bidder, "25")
	placeTestBid(t, db, second, bidder, "30")
	if _, err := db.CloseListing(context.Background(), closed.ID); err != nil {
		t.Fatalf("CloseListing() error = %v", err)
	}

	got, err := db.ListActive(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(ListActive()) = %d, want 2", len(got))
	}

	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, first.ID, second.ID)
	}
	if !got[0].CurrentPrice.Equal(decimal.NewFromInt(5)) || got[0].BidCount != 0 {
		t.Errorf("first summary = %s/%d, want 5/0", got[0].CurrentPrice, got[0].BidCount)
	}
	if !got[1].CurrentPrice.Equal(decimal.NewFromInt(30)) || got[1].BidCount != 2 {
		t.Errorf("second summary = %s/%d, want 30/2", got[1].CurrentPrice, got[1].BidCount)
	}
}

func TestListActive_Empty(t *testing.T) {
	db := newTestDB(t)

	got, err := db.ListActive(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListActive() = %v, want empty non-nil slice", got)
	}
}

func TestListActive_CategoryFilter(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")

	createTestListing(t, db, owner, "1")
	book := &model.Listing{
		OwnerID:       owner.ID,
		Title:         "Novel",
		StartingPrice: decimal.NewFromInt(3),
		Category:      model.CategoryBooks,
		Active:        true,
	}
	if err := db.CreateListing(context.Background(), book); err != nil {
		t.Fatalf("CreateListing() error = %v", err)
	}

	got, err := db.ListActive(context.Background(), repository.ListingFilter{Category: model.CategoryBooks})
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != book.ID {
		t.Errorf("ListActive(BOK) = %+v, want only %s", got, book.ID)
	}
}

func TestCloseListing_RecordsLatestBidder(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	u2 := createTestUser(t, db, "u2")
	u3 := createTestUser(t, db, "u3")
	listing := createTestListing(t, db, owner, "10")

	placeTestBid(t, db, listing, u2, "11")
	placeTestBid(t, db, listing, u3, "12")

	closed, err := db.CloseListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("CloseListing() error = %v", err)
	}
	if closed.Active {
		t.Error("Active = true after close")
	}
	if closed.WinnerID == nil || *closed.WinnerID != u3.ID {
		t.Errorf("WinnerID = %v, want %s", closed.WinnerID, u3.ID)
	}
}

func TestCloseListing_NoBids(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	listing := createTestListing(t, db, owner, "10")

	closed, err := db.CloseListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("CloseListing() error = %v", err)
	}
	if closed.Active || closed.WinnerID != nil {
		t.Errorf("closed = active:%v winner:%v, want inactive with no winner", closed.Active, closed.WinnerID)
	}
}

func TestCloseListing_SecondCloseKeepsWinner(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	u2 := createTestUser(t, db, "u2")
	u3 := createTestUser(t, db, "u3")
	listing := createTestListing(t, db, owner, "10")

	placeTestBid(t, db, listing, u2, "11")
	if _, err := db.CloseListing(context.Background(), listing.ID); err != nil {
		t.Fatalf("first close: %v", err)
	}

	// A bid that bypasses the service checks must not change the outcome.
	placeTestBid(t, db, listing, u3, "50")

	again, err := db.CloseListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if again.WinnerID == nil || *again.WinnerID != u2.ID {
		t.Errorf("WinnerID = %v, want %s", again.WinnerID, u2.ID)
	}
}

func TestCloseListing_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.CloseListing(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CloseListing() error = %v, want ErrNotFound", err)
	}
}
