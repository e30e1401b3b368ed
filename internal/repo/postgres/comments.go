package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/supportdesk/internal/domain/comment"
	"github.com/geocoder89/supportdesk/internal/domain/supportcase"
	"github.com/geocoder89/supportdesk/internal/domain/user"
	"github.com/geocoder89/supportdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCommentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CommentsRepo {
	return &CommentsRepo{pool: pool, prom: prom}
}

func (r *CommentsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create persists the comment with a server-assigned timestamp and the
// author's display name snapshot taken at posting time. A missing parent case
// surfaces as supportcase.ErrNotFound via the foreign key, so nothing is
// persisted in that case.
func (r *CommentsRepo) Create(ctx context.Context, caseID, authorID int64, displayName, content string) (comment.Comment, error) {
	var c comment.Comment

	err := r.observe("comments.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO comments (case_id, user_id, display_name, content)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, case_id, user_id, display_name, content, created_at`,
			caseID, authorID, displayName, content,
		).Scan(&c.ID, &c.CaseID, &c.UserID, &c.DisplayName, &c.Content, &c.CreatedAt)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			if pgErr.ConstraintName == "comments_user_id_fkey" {
				return comment.Comment{}, user.ErrNotFound
			}
			return comment.Comment{}, supportcase.ErrNotFound
		}

		return comment.Comment{}, err
	}

	return c, nil
}

// ListByCase returns the thread in non-decreasing creation order. An empty
// slice is a valid result; case existence is the caller's concern.
func (r *CommentsRepo) ListByCase(ctx context.Context, caseID int64) (comments []comment.Comment, err error) {
	var rows pgx.Rows

	err = r.observe("comments.list_by_case", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id, case_id, user_id, display_name, content, created_at
			 FROM comments
			 WHERE case_id = $1
			 ORDER BY created_at ASC, id ASC`,
			caseID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	comments = make([]comment.Comment, 0)

	for rows.Next() {
		var c comment.Comment

		e := rows.Scan(&c.ID, &c.CaseID, &c.UserID, &c.DisplayName, &c.Content, &c.CreatedAt)

		if e != nil {
			err = e
			return
		}
		comments = append(comments, c)
	}

	err = rows.Err()

	return
}
