package supportcase

import (
	"errors"
	"time"
)

// Status values are persisted verbatim; the database carries a matching CHECK
// constraint so nothing outside this set can land in storage.
const (
	StatusOpen       = "Open"
	StatusInProgress = "InProgress"
	StatusClosed     = "Closed"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

type Case struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	FilePath    *string   `json:"filePath,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

var (
	ErrNotFound      = errors.New("case not found")
	ErrInvalidStatus = errors.New("invalid case status")
)

type CreateCaseRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"required,min=1,max=5000"`
}

// with pointers if optional, it will be nil
type UpdateCaseRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,min=1,max=5000"`
	Status      *string `json:"status" binding:"omitempty,oneof=Open InProgress Closed"`
	FilePath    *string `json:"filePath" binding:"omitempty,max=500"`
}

func (r UpdateCaseRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil && r.FilePath == nil
}
