package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/auctions/internal/auth"
	"github.com/sakif/auctions/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// HandleAdd posts a comment. HTTP: POST /api/listings/{id}/comments → 201
func (h *CommentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	comment, err := h.comments.AddComment(r.Context(), chi.URLParam(r, "id"), userID, req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// HandleList returns comments oldest first. HTTP: GET /api/listings/{id}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
