package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/auctions/internal/model"
	"github.com/sakif/auctions/internal/repository"
)

// CommentService handles the discussion under a listing. Comments are
// append-only: there is no edit or delete.
type CommentService struct {
	listings repository.ListingRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewCommentService(
	listings repository.ListingRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		listings: listings,
		comments: comments,
		users:    users,
		logger:   logger,
	}
}

// AddComment posts text under a listing. Closed listings still accept
// comments; the owner and winner can keep talking after the auction.
func (s *CommentService) AddComment(ctx context.Context, listingID, authorID, text string) (*model.Comment, error) {
	if err := requireUser(authorID, "comment"); err != nil {
		return nil, err
	}

	text, err := validateText("text", text, MaxCommentLength)
	if err != nil {
		return nil, err
	}

	if _, err := s.listings.GetListing(ctx, listingID); err != nil {
		return nil, fmt.Errorf("service/comment: getting listing %s: %w", listingID, err)
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: getting author %s: %w", authorID, err)
	}

	comment := &model.Comment{
		ListingID: listingID,
		Author:    model.UserRef{ID: author.ID, Username: author.Username},
		Text:      text,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/comment: creating comment on %s: %w", listingID, err)
	}

	s.logger.Info("comment added",
		slog.String("listingID", listingID),
		slog.String("commentID", comment.ID),
		slog.String("authorID", authorID),
	)
	return comment, nil
}

// ListComments returns a listing's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	if _, err := s.listings.GetListing(ctx, listingID); err != nil {
		return nil, fmt.Errorf("service/comment: getting listing %s: %w", listingID, err)
	}
	comments, err := s.comments.ListComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: listing comments on %s: %w", listingID, err)
	}
	return comments, nil
}
