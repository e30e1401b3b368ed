package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/supportdesk/internal/config"
	"github.com/geocoder89/supportdesk/internal/domain/comment"
	"github.com/geocoder89/supportdesk/internal/domain/supportcase"
	"github.com/gin-gonic/gin"
)

type CaseStore interface {
	Create(ctx context.Context, ownerID int64, req supportcase.CreateCaseRequest) (supportcase.Case, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]supportcase.Case, error)
	GetByID(ctx context.Context, id int64) (supportcase.Case, error)
	Update(ctx context.Context, id int64, req supportcase.UpdateCaseRequest) (supportcase.Case, error)
	Delete(ctx context.Context, id int64) error
}

type ThreadLister interface {
	ListByCase(ctx context.Context, caseID int64) ([]comment.Comment, error)
}

type CasesHandler struct {
	cases  CaseStore
	thread ThreadLister
}

func NewCasesHandler(cases CaseStore, thread ThreadLister) *CasesHandler {
	return &CasesHandler{cases: cases, thread: thread}
}

func (h *CasesHandler) CreateCase(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	var req supportcase.CreateCaseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.cases.Create(cctx, identity, req)

	if err != nil {
		RespondInternal(ctx, "Could not create case")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CasesHandler) ListCases(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	cases, err := h.cases.ListByOwner(cctx, identity)

	if err != nil {
		RespondInternal(ctx, "Could not list cases")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": cases,
		"count": len(cases),
	})
}

type caseWithThread struct {
	supportcase.Case
	Comments []comment.Comment `json:"comments"`
}

func (h *CasesHandler) GetCase(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.cases.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, supportcase.ErrNotFound) {
			RespondNotFound(ctx, "Case not found")
			return
		}
		RespondInternal(ctx, "Could not fetch case")
		return
	}

	if !requireOwner(ctx, identity, c.UserID) {
		return
	}

	comments, err := h.thread.ListByCase(cctx, c.ID)

	if err != nil {
		RespondInternal(ctx, "Could not fetch case")
		return
	}

	ctx.JSON(http.StatusOK, caseWithThread{Case: c, Comments: comments})
}

func (h *CasesHandler) UpdateCase(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")

	if !ok {
		return
	}

	var req supportcase.UpdateCaseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// ownership is checked against the stored row before any write
	existing, err := h.cases.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, supportcase.ErrNotFound) {
			RespondNotFound(ctx, "Case not found")
			return
		}
		RespondInternal(ctx, "Could not update case")
		return
	}

	if !requireOwner(ctx, identity, existing.UserID) {
		return
	}

	updated, err := h.cases.Update(cctx, id, req)

	if err != nil {
		switch {
		case errors.Is(err, supportcase.ErrInvalidStatus):
			RespondBadRequest(ctx, "status must be one of Open, InProgress, Closed", nil)
		case errors.Is(err, supportcase.ErrNotFound):
			RespondNotFound(ctx, "Case not found")
		default:
			RespondInternal(ctx, "Could not update case")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *CasesHandler) DeleteCase(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	existing, err := h.cases.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, supportcase.ErrNotFound) {
			RespondNotFound(ctx, "Case not found")
			return
		}
		RespondInternal(ctx, "Could not delete case")
		return
	}

	if !requireOwner(ctx, identity, existing.UserID) {
		return
	}

	// comments cascade away with the case
	err = h.cases.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, supportcase.ErrNotFound) {
			RespondNotFound(ctx, "Case not found")
			return
		}
		RespondInternal(ctx, "Could not delete case")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Case deleted"})
}
