package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/supportdesk/internal/auth"
)

func TestIssueAndVerifyRoundtrip(t *testing.T) {
	m := auth.NewManager("test-secret", 2*time.Hour)

	token, err := m.Issue(42, "a@x.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Fatalf("got userID %d, want 42", claims.UserID)
	}

	if claims.Email != "a@x.com" {
		t.Fatalf("got email %q, want a@x.com", claims.Email)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	// negative ttl issues a token that is already past its expiry
	m := auth.NewManager("test-secret", -time.Minute)

	token, err := m.Issue(42, "a@x.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = m.Verify(token)

	if !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := auth.NewManager("secret-one", 2*time.Hour)
	verifier := auth.NewManager("secret-two", 2*time.Hour)

	token, err := issuer.Issue(42, "a@x.com")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = verifier.Verify(token)

	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := auth.NewManager("test-secret", 2*time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := m.Verify(tok)

		if !errors.Is(err, auth.ErrTokenInvalid) {
			t.Fatalf("token %q: got %v, want ErrTokenInvalid", tok, err)
		}
	}
}
