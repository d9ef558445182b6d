package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailgenie/orchestrator/pkg/config"
)

func tokenTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "token-test-secret",
		Issuer:            "retailgenie",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := tokenTestConfig()
	userID := uuid.New()
	now := time.Now()

	signed, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID: userID,
		Role:   RoleCustomer,
		JTI:    "access-123",
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: %s vs %s", claims.UserID, userID)
	}
	if claims.Role != RoleCustomer {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.ID != "access-123" {
		t.Fatalf("unexpected jti %q", claims.ID)
	}
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	signed, err := MintAccessToken(tokenTestConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   RoleCustomer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	claims, err := ParseAccessToken(tokenTestConfig(), signed)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestMintAccessTokenRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(tokenTestConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   Role("superuser"),
	})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := tokenTestConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   RoleCustomer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestParseAccessTokenAllowExpired(t *testing.T) {
	cfg := tokenTestConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   RoleCustomer,
		JTI:    "expired-jti",
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessTokenAllowExpired: %v", err)
	}
	if claims.ID != "expired-jti" {
		t.Fatalf("unexpected jti %q", claims.ID)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	signed, err := MintAccessToken(tokenTestConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   RoleCustomer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	other := tokenTestConfig()
	other.Secret = "a different secret"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}
