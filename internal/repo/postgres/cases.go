package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/supportdesk/internal/domain/supportcase"
	"github.com/geocoder89/supportdesk/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CasesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewCasesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CasesRepo {
	return &CasesRepo{pool: pool, prom: prom}
}

func (r *CasesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *CasesRepo) Create(ctx context.Context, ownerID int64, req supportcase.CreateCaseRequest) (supportcase.Case, error) {
	var c supportcase.Case

	err := r.observe("cases.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO support_cases (user_id, title, description, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, user_id, title, description, status, file_path, created_at`,
			ownerID, req.Title, req.Description, supportcase.StatusOpen,
		).Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &c.Status, &c.FilePath, &c.CreatedAt)
	})

	if err != nil {
		return supportcase.Case{}, err
	}

	return c, nil
}

// ListByOwner returns only the caller's cases, in creation order. There is no
// unscoped variant on purpose.
func (r *CasesRepo) ListByOwner(ctx context.Context, ownerID int64) (cases []supportcase.Case, err error) {
	var rows pgx.Rows

	err = r.observe("cases.list_by_owner", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id, user_id, title, description, status, file_path, created_at
			 FROM support_cases
			 WHERE user_id = $1
			 ORDER BY created_at ASC, id ASC`,
			ownerID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	cases = make([]supportcase.Case, 0)

	for rows.Next() {
		var c supportcase.Case

		e := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &c.Status, &c.FilePath, &c.CreatedAt)

		if e != nil {
			err = e
			return
		}
		cases = append(cases, c)
	}

	err = rows.Err()

	return
}

func (r *CasesRepo) GetByID(ctx context.Context, id int64) (supportcase.Case, error) {
	var c supportcase.Case

	err := r.observe("cases.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, title, description, status, file_path, created_at
			 FROM support_cases
			 WHERE id = $1`,
			id,
		).Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &c.Status, &c.FilePath, &c.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return supportcase.Case{}, supportcase.ErrNotFound
		}

		return supportcase.Case{}, err
	}

	return c, nil
}

func (r *CasesRepo) Update(ctx context.Context, id int64, req supportcase.UpdateCaseRequest) (supportcase.Case, error) {
	sets := make([]string, 0, 4)
	args := []interface{}{id}
	argsPosition := 2

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argsPosition))
		args = append(args, *req.Title)
		argsPosition++
	}

	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argsPosition))
		args = append(args, *req.Description)
		argsPosition++
	}

	if req.Status != nil {
		// binding already enforces set membership; the check constraint is the
		// backstop for any other write path
		if !supportcase.ValidStatus(*req.Status) {
			return supportcase.Case{}, supportcase.ErrInvalidStatus
		}

		sets = append(sets, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *req.Status)
		argsPosition++
	}

	if req.FilePath != nil {
		sets = append(sets, fmt.Sprintf("file_path = $%d", argsPosition))
		args = append(args, *req.FilePath)
		argsPosition++
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := `UPDATE support_cases SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1
		 RETURNING id, user_id, title, description, status, file_path, created_at`

	var c supportcase.Case

	err := r.observe("cases.update", func() error {
		return r.pool.QueryRow(ctx, query, args...).
			Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &c.Status, &c.FilePath, &c.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return supportcase.Case{}, supportcase.ErrNotFound
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" && pgErr.ConstraintName == "support_cases_status_check" {
			return supportcase.Case{}, supportcase.ErrInvalidStatus
		}

		return supportcase.Case{}, err
	}

	return c, nil
}

// Delete removes the case; its comments go with it via the schema cascade.
func (r *CasesRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.observe("cases.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM support_cases WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return supportcase.ErrNotFound
	}

	return nil
}
