package comment

import "time"

// DisplayName is a snapshot of the author's name at posting time. It is
// deliberately not re-synced when the user later renames themselves.
type Comment struct {
	ID          int64     `json:"id"`
	CaseID      int64     `json:"caseId"`
	UserID      int64     `json:"userId"`
	DisplayName string    `json:"displayName"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateCommentRequest struct {
	CaseID  int64  `json:"caseId" binding:"required,min=1"`
	Content string `json:"content" binding:"required,min=1,max=5000"`
}
