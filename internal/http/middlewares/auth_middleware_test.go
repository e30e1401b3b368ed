package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/supportdesk/internal/auth"
	"github.com/geocoder89/supportdesk/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (f *fakeVerifier) Verify(token string) (*auth.Claims, error) {
	return f.verifyFn(token)
}

func setupProtected(v middlewares.TokenVerifier) *gin.Engine {
	r := gin.New()
	mw := middlewares.NewAuthMiddleware(v, nil)

	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		id, ok := middlewares.UserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		verifyFn   func(token string) (*auth.Claims, error)
		wantStatus int
	}{
		{
			name:       "missing_header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not_bearer",
			authHeader: "Basic abc123",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty_token",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired_token",
			authHeader: "Bearer some-token",
			verifyFn: func(string) (*auth.Claims, error) {
				return nil, auth.ErrTokenExpired
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid_token",
			authHeader: "Bearer some-token",
			verifyFn: func(string) (*auth.Claims, error) {
				return nil, auth.ErrTokenInvalid
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid_token",
			authHeader: "Bearer some-token",
			verifyFn: func(string) (*auth.Claims, error) {
				return &auth.Claims{UserID: 7, Email: "a@x.com"}, nil
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVerifier{verifyFn: tt.verifyFn}
			if v.verifyFn == nil {
				v.verifyFn = func(string) (*auth.Claims, error) {
					t.Fatal("verifier should not be called")
					return nil, nil
				}
			}

			r := setupProtected(v)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
