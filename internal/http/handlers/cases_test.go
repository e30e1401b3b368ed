package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/supportdesk/internal/domain/comment"
	"github.com/geocoder89/supportdesk/internal/domain/supportcase"
	"github.com/geocoder89/supportdesk/internal/http/handlers"
	"github.com/geocoder89/supportdesk/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type fakeCaseStore struct {
	createFn func(ctx context.Context, ownerID int64, req supportcase.CreateCaseRequest) (supportcase.Case, error)
	listFn   func(ctx context.Context, ownerID int64) ([]supportcase.Case, error)
	getFn    func(ctx context.Context, id int64) (supportcase.Case, error)
	updateFn func(ctx context.Context, id int64, req supportcase.UpdateCaseRequest) (supportcase.Case, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (f *fakeCaseStore) Create(ctx context.Context, ownerID int64, req supportcase.CreateCaseRequest) (supportcase.Case, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}
	return supportcase.Case{}, nil
}

func (f *fakeCaseStore) ListByOwner(ctx context.Context, ownerID int64) ([]supportcase.Case, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID)
	}
	return []supportcase.Case{}, nil
}

func (f *fakeCaseStore) GetByID(ctx context.Context, id int64) (supportcase.Case, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return supportcase.Case{}, supportcase.ErrNotFound
}

func (f *fakeCaseStore) Update(ctx context.Context, id int64, req supportcase.UpdateCaseRequest) (supportcase.Case, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return supportcase.Case{}, nil
}

func (f *fakeCaseStore) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeThread struct {
	listFn func(ctx context.Context, caseID int64) ([]comment.Comment, error)
}

func (f *fakeThread) ListByCase(ctx context.Context, caseID int64) ([]comment.Comment, error) {
	if f.listFn != nil {
		return f.listFn(ctx, caseID)
	}
	return []comment.Comment{}, nil
}

// setupAuthedRouter mounts a handler behind a stub identity, standing in for
// the real auth middleware.
func setupAuthedRouter(method, path string, identity int64, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, identity)
		c.Set(middlewares.CtxEmail, "a@x.com")
		c.Next()
	}, h)

	return r
}

func TestCreateCaseHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeCaseStore)
		wantStatusCode int
	}{
		{
			name: "success_defaults_open",
			body: `{"title":"Printer jam","description":"won't feed paper"}`,
			storeSetup: func(f *fakeCaseStore) {
				f.createFn = func(ctx context.Context, ownerID int64, req supportcase.CreateCaseRequest) (supportcase.Case, error) {
					if ownerID != 7 {
						t.Fatalf("owner id not taken from identity, got %d", ownerID)
					}
					return supportcase.Case{
						ID:          1,
						UserID:      ownerID,
						Title:       req.Title,
						Description: req.Description,
						Status:      supportcase.StatusOpen,
						CreatedAt:   now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "empty_title",
			body:           `{"title":"","description":"broken"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_description",
			body:           `{"title":"Printer jam"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			body: `{"title":"Printer jam","description":"won't feed paper"}`,
			storeSetup: func(f *fakeCaseStore) {
				f.createFn = func(ctx context.Context, ownerID int64, req supportcase.CreateCaseRequest) (supportcase.Case, error) {
					return supportcase.Case{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCaseStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewCasesHandler(store, &fakeThread{})
			r := setupAuthedRouter(http.MethodPost, "/cases", 7, h.CreateCase)

			w := doJSON(r, http.MethodPost, "/cases", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var c supportcase.Case
				if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if c.Status != supportcase.StatusOpen {
					t.Fatalf("new case status = %q, want Open", c.Status)
				}
			}
		})
	}
}

func TestListCasesHandler(t *testing.T) {
	store := &fakeCaseStore{
		listFn: func(ctx context.Context, ownerID int64) ([]supportcase.Case, error) {
			if ownerID != 7 {
				t.Fatalf("list not scoped to identity, got owner %d", ownerID)
			}
			return []supportcase.Case{
				{ID: 1, UserID: 7, Title: "first", Status: supportcase.StatusOpen},
				{ID: 2, UserID: 7, Title: "second", Status: supportcase.StatusClosed},
			}, nil
		},
	}

	h := handlers.NewCasesHandler(store, &fakeThread{})
	r := setupAuthedRouter(http.MethodGet, "/cases", 7, h.ListCases)

	req := httptest.NewRequest(http.MethodGet, "/cases", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []supportcase.Case `json:"items"`
		Count int                `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Fatalf("unexpected list response: %+v", resp)
	}
}

func TestGetCaseHandler(t *testing.T) {
	owned := supportcase.Case{ID: 5, UserID: 7, Title: "mine", Status: supportcase.StatusOpen}

	tests := []struct {
		name           string
		path           string
		identity       int64
		storeSetup     func(*fakeCaseStore)
		threadSetup    func(*fakeThread)
		wantStatusCode int
	}{
		{
			name:     "owner_gets_case_with_thread",
			path:     "/cases/5",
			identity: 7,
			storeSetup: func(f *fakeCaseStore) {
				f.getFn = func(ctx context.Context, id int64) (supportcase.Case, error) {
					return owned, nil
				}
			},
			threadSetup: func(f *fakeThread) {
				f.listFn = func(ctx context.Context, caseID int64) ([]comment.Comment, error) {
					return []comment.Comment{{ID: 1, CaseID: 5, UserID: 7, Content: "hello"}}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:     "other_user_forbidden",
			path:     "/cases/5",
			identity: 8,
			storeSetup: func(f *fakeCaseStore) {
				f.getFn = func(ctx context.Context, id int64) (supportcase.Case, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing_case",
			path:           "/cases/99",
			identity:       7,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "garbage_id",
			path:           "/cases/abc",
			identity:       7,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCaseStore{}
			thread := &fakeThread{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}
			if tt.threadSetup != nil {
				tt.threadSetup(thread)
			}

			h := handlers.NewCasesHandler(store, thread)
			r := setupAuthedRouter(http.MethodGet, "/cases/:id", tt.identity, h.GetCase)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					supportcase.Case
					Comments []comment.Comment `json:"comments"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.ID != 5 || len(resp.Comments) != 1 {
					t.Fatalf("unexpected case response: %+v", resp)
				}
			}
		})
	}
}

func TestUpdateCaseHandler(t *testing.T) {
	owned := supportcase.Case{ID: 5, UserID: 7, Title: "mine", Status: supportcase.StatusOpen}

	tests := []struct {
		name           string
		body           string
		identity       int64
		storeSetup     func(*fakeCaseStore)
		wantStatusCode int
	}{
		{
			name:     "status_update",
			body:     `{"status":"Closed"}`,
			identity: 7,
			storeSetup: func(f *fakeCaseStore) {
				f.getFn = func(ctx context.Context, id int64) (supportcase.Case, error) {
					return owned, nil
				}
				f.updateFn = func(ctx context.Context, id int64, req supportcase.UpdateCaseRequest) (supportcase.Case, error) {
					if req.Status == nil || *req.Status != supportcase.StatusClosed {
						t.Fatal("status not passed through")
					}
					updated := owned
					updated.Status = *req.Status
					return updated, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// set membership only, rejected at the binding
			name:           "status_outside_enum",
			body:           `{"status":"Reopened"}`,
			identity:       7,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:     "not_the_owner",
			body:     `{"status":"Closed"}`,
			identity: 8,
			storeSetup: func(f *fakeCaseStore) {
				f.getFn = func(ctx context.Context, id int64) (supportcase.Case, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing_case",
			body:           `{"status":"Closed"}`,
			identity:       7,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCaseStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewCasesHandler(store, &fakeThread{})
			r := setupAuthedRouter(http.MethodPut, "/cases/:id", tt.identity, h.UpdateCase)

			w := doJSON(r, http.MethodPut, "/cases/5", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteCaseHandler(t *testing.T) {
	owned := supportcase.Case{ID: 5, UserID: 7, Title: "mine", Status: supportcase.StatusOpen}

	tests := []struct {
		name           string
		identity       int64
		storeSetup     func(*fakeCaseStore)
		wantStatusCode int
	}{
		{
			name:     "owner_deletes",
			identity: 7,
			storeSetup: func(f *fakeCaseStore) {
				f.getFn = func(ctx context.Context, id int64) (supportcase.Case, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:     "other_user_forbidden",
			identity: 8,
			storeSetup: func(f *fakeCaseStore) {
				f.getFn = func(ctx context.Context, id int64) (supportcase.Case, error) {
					return owned, nil
				}
				f.deleteFn = func(ctx context.Context, id int64) error {
					t.Fatal("delete must not run for a non-owner")
					return nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing_case",
			identity:       7,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCaseStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewCasesHandler(store, &fakeThread{})
			r := setupAuthedRouter(http.MethodDelete, "/cases/:id", tt.identity, h.DeleteCase)

			req := httptest.NewRequest(http.MethodDelete, "/cases/5", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
