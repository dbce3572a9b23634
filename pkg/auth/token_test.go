package auth

import (
	"testing"
	"time"

	"github.com/dkwapong/storefront-backend/pkg/config"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-api",
		Audience:          "storefront-web",
		ExpirationMinutes: 300,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()
	now := time.Now().UTC()

	signed, err := MintSessionToken(cfg, now, userID, "ama@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseSessionToken(cfg, signed)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if claims.Email != "ama@example.com" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}

	parsedID, err := claims.UserID()
	if err != nil {
		t.Fatalf("unexpected subject error: %v", err)
	}
	if parsedID != userID {
		t.Fatalf("expected subject %s, got %s", userID, parsedID)
	}

	expiry := claims.ExpiresAt.Time
	want := now.Add(5 * time.Hour)
	if diff := expiry.Sub(want); diff > time.Second || diff < -time.Second {
		t.Fatalf("expected 5h expiry, got %s", expiry.Sub(now))
	}
}

func TestParseSessionTokenRejectsWrongAudience(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	signed, err := MintSessionToken(cfg, time.Now().UTC(), uuid.New(), "kojo@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := cfg
	other.Audience = "another-app"
	if _, err := ParseSessionToken(other, signed); err == nil {
		t.Fatal("expected audience mismatch to fail")
	}
}

func TestMintSessionTokenValidation(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	cfg.Secret = ""
	if _, err := MintSessionToken(cfg, time.Now(), uuid.New(), "a@b.c"); err == nil {
		t.Fatal("expected missing secret to fail")
	}

	cfg = testJWTConfig()
	if _, err := MintSessionToken(cfg, time.Now(), uuid.Nil, "a@b.c"); err == nil {
		t.Fatal("expected nil user id to fail")
	}

	cfg.ExpirationMinutes = 0
	if _, err := MintSessionToken(cfg, time.Now(), uuid.New(), "a@b.c"); err == nil {
		t.Fatal("expected non-positive expiry to fail")
	}
}
