package user

import (
	"errors"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	DisplayName  string    `json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

// Partial update: a nil field is left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,max=120"`
	NewPassword *string `json:"newPassword" binding:"omitempty,min=8"`
}

func (r UpdateProfileRequest) Empty() bool {
	return r.DisplayName == nil && r.NewPassword == nil
}
