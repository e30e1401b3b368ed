package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/supportdesk/internal/config"
	"github.com/geocoder89/supportdesk/internal/domain/user"
	"github.com/geocoder89/supportdesk/internal/observability"
	"github.com/geocoder89/supportdesk/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, displayName string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	UpdateProfile(ctx context.Context, id int64, displayName, passwordHash *string) (user.User, error)
	Delete(ctx context.Context, id int64) error
}

type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

type AuthHandler struct {
	users UserStore
	jwt   TokenIssuer
	prom  *observability.Prom
}

func NewAuthHandler(users UserStore, jwt TokenIssuer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
		prom:  prom,
	}
}

func (h *AuthHandler) countAuth(op, result string) {
	if h.prom != nil {
		h.prom.AuthResults.WithLabelValues(op, result).Inc()
	}
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"omitempty,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// bcrypt is deliberately slow; this dominates the request budget
	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.countAuth("register", "error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(cctx, req.Email, hash, req.DisplayName)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.countAuth("register", "rejected")
			RespondConflict(ctx, "email_taken", "An account with this email already exists.")
			return
		}

		h.countAuth("register", "error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.Issue(u.ID, u.Email)

	if err != nil {
		h.countAuth("register", "error")
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.countAuth("register", "ok")

	ctx.JSON(http.StatusCreated, gin.H{
		"userId": u.ID,
		"token":  token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// unknown email and wrong password answer identically
	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		h.countAuth("login", "rejected")
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.countAuth("login", "rejected")
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.Issue(foundUser.ID, foundUser.Email)

	if err != nil {
		h.countAuth("login", "error")
		RespondInternal(ctx, "Could not generate token")
		return
	}

	h.countAuth("login", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"token":      token,
		"user_id":    foundUser.ID,
		"user_email": foundUser.Email,
		"user_name":  foundUser.DisplayName,
	})
}

func (h *AuthHandler) GetProfile(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, identity)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "No updates provided", nil)
		return
	}

	var passwordHash *string

	if req.NewPassword != nil {
		hash, err := security.HashPassword(*req.NewPassword)

		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}

		passwordHash = &hash
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, identity, req.DisplayName, passwordHash)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// DeleteAccount removes the user; owned cases and their comments go with it
// via the storage cascade.
func (h *AuthHandler) DeleteAccount(ctx *gin.Context) {
	identity, ok := identityFrom(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.Delete(cctx, identity)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
