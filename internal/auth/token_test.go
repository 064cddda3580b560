package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/config"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(config.Auth{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func TestIssueAndVerifyPair(t *testing.T) {
	issuer := testIssuer()
	userID := uuid.New()

	pair, err := issuer.IssuePair(userID)
	if err != nil {
		t.Fatalf("issuing pair: %v", err)
	}

	got, err := issuer.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("verifying access token: %v", err)
	}
	if got != userID {
		t.Fatalf("expected subject %s, got %s", userID, got)
	}

	got, err = issuer.VerifyRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("verifying refresh token: %v", err)
	}
	if got != userID {
		t.Fatalf("expected subject %s, got %s", userID, got)
	}
}

func TestAccessAndRefreshAreNotInterchangeable(t *testing.T) {
	issuer := testIssuer()

	pair, err := issuer.IssuePair(uuid.New())
	if err != nil {
		t.Fatalf("issuing pair: %v", err)
	}

	if _, err := issuer.VerifyAccess(pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not verify as access, got %v", err)
	}
	if _, err := issuer.VerifyRefresh(pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not verify as refresh, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := testIssuer()

	if _, err := issuer.VerifyAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(config.Auth{
		AccessSecret: "test-access-secret",
		AccessTTL:    -time.Minute,
	})

	pair, err := issuer.IssuePair(uuid.New())
	if err != nil {
		t.Fatalf("issuing pair: %v", err)
	}
	if _, err := issuer.VerifyAccess(pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := testIssuer()
	other := NewTokenIssuer(config.Auth{
		AccessSecret: "a-different-secret",
		AccessTTL:    time.Minute,
	})

	pair, err := other.IssuePair(uuid.New())
	if err != nil {
		t.Fatalf("issuing pair: %v", err)
	}
	if _, err := issuer.VerifyAccess(pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}
