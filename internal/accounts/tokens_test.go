package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retailgenie/orchestrator/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "retailgenie",
		ExpirationMinutes:      60,
		RefreshTokenTTLMinutes: 1440,
	}
}

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	manager, err := NewTokenManager(NewMemoryTokenStore(), testJWTConfig())
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return manager
}

func TestNewTokenManagerValidates(t *testing.T) {
	if _, err := NewTokenManager(nil, testJWTConfig()); err == nil {
		t.Fatal("expected error for nil store")
	}

	cfg := testJWTConfig()
	cfg.RefreshTokenTTLMinutes = 0
	if _, err := NewTokenManager(NewMemoryTokenStore(), cfg); err == nil {
		t.Fatal("expected error for zero ttl")
	}

	cfg = testJWTConfig()
	cfg.RefreshTokenTTLMinutes = 30
	if _, err := NewTokenManager(NewMemoryTokenStore(), cfg); err == nil {
		t.Fatal("expected error when refresh ttl does not exceed access ttl")
	}
}

func TestTokenManagerGenerateAndHasSession(t *testing.T) {
	manager := newTestTokenManager(t)
	ctx := context.Background()

	accessID := NewAccessID()
	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected a refresh token")
	}

	active, err := manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if !active {
		t.Fatal("expected an active session after Generate")
	}

	active, err = manager.HasSession(ctx, NewAccessID())
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if active {
		t.Fatal("unknown access id should have no session")
	}
}

func TestTokenManagerRotate(t *testing.T) {
	manager := newTestTokenManager(t)
	ctx := context.Background()

	accessID := NewAccessID()
	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, accessID, token)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if newAccessID == accessID || newToken == token {
		t.Fatal("rotation must issue a fresh pair")
	}

	// the old session is gone after rotation
	if active, _ := manager.HasSession(ctx, accessID); active {
		t.Fatal("old access id still has a session")
	}
	if active, _ := manager.HasSession(ctx, newAccessID); !active {
		t.Fatal("new access id has no session")
	}

	// replaying the old token fails
	if _, _, err := manager.Rotate(ctx, accessID, token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken on replay, got %v", err)
	}
}

func TestTokenManagerRotateWrongToken(t *testing.T) {
	manager := newTestTokenManager(t)
	ctx := context.Background()

	accessID := NewAccessID()
	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, _, err := manager.Rotate(ctx, accessID, "forged"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	// a failed rotation must not revoke the legitimate session
	if active, _ := manager.HasSession(ctx, accessID); !active {
		t.Fatal("session revoked by failed rotation")
	}
}

func TestTokenManagerRevoke(t *testing.T) {
	manager := newTestTokenManager(t)
	ctx := context.Background()

	accessID := NewAccessID()
	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if active, _ := manager.HasSession(ctx, accessID); active {
		t.Fatal("expected session gone after revoke")
	}
}

func TestMemoryTokenStoreExpiry(t *testing.T) {
	store := NewMemoryTokenStore()
	current := time.Now()
	store.now = func() time.Time { return current }
	ctx := context.Background()

	key := store.AccessSessionKey("abc")
	if err := store.Set(ctx, key, "token", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := store.Get(ctx, key); !errors.Is(err, errTokenNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}
