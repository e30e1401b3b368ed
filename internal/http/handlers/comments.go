package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/supportdesk/internal/config"
	"github.com/geocoder89/supportdesk/internal/domain/comment"
	"github.com/geocoder89/supportdesk/internal/domain/supportcase"
	"github.com/geocoder89/supportdesk/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type CommentStore interface {
	Create(ctx context.Context, caseID, authorID int64, displayName, content string) (comment.Comment, error)
	ListByCase(ctx context.Context, caseID int64) ([]comment.Comment, error)
}

type CaseReader interface {
	GetByID(ctx context.Context, id int64) (supportcase.Case, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type CommentsHandler struct {
	comments CommentStore
	cases    CaseReader
	users    UserReader
}

func NewCommentsHandler(comments CommentStore, cases CaseReader, users UserReader) *CommentsHandler {
	return &CommentsHandler{
		comments: comments,
		cases:    cases,
		users:    users,
	}
}

func (h *CommentsHandler) CreateComment(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	var req comment.CreateCommentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.cases.GetByID(cctx, req.CaseID)

	if err != nil {
		if errors.Is(err, supportcase.ErrNotFound) {
			RespondNotFound(ctx, "Case not found")
			return
		}
		RespondInternal(ctx, "Could not create comment")
		return
	}

	if !requireOwner(ctx, identity, c.UserID) {
		return
	}

	// snapshot the author's current display name; it stays as posted even if
	// the user renames later
	author, err := h.users.GetByID(cctx, identity)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "unauthorized", "Account no longer exists")
			return
		}
		RespondInternal(ctx, "Could not create comment")
		return
	}

	created, err := h.comments.Create(cctx, req.CaseID, identity, author.DisplayName, req.Content)

	if err != nil {
		if errors.Is(err, supportcase.ErrNotFound) {
			RespondNotFound(ctx, "Case not found")
			return
		}
		RespondInternal(ctx, "Could not create comment")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// ListComments returns the thread for a case the caller owns. 404 means the
// case does not exist; a case with no comments yet answers 200 with an empty
// array.
func (h *CommentsHandler) ListComments(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	caseID, ok := pathID(ctx, "caseId")

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.cases.GetByID(cctx, caseID)

	if err != nil {
		if errors.Is(err, supportcase.ErrNotFound) {
			RespondNotFound(ctx, "Case not found")
			return
		}
		RespondInternal(ctx, "Could not list comments")
		return
	}

	if !requireOwner(ctx, identity, c.UserID) {
		return
	}

	comments, err := h.comments.ListByCase(cctx, caseID)

	if err != nil {
		RespondInternal(ctx, "Could not list comments")
		return
	}

	ctx.JSON(http.StatusOK, comments)
}
