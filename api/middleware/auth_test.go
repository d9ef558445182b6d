package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	pkgAuth "github.com/retailgenie/orchestrator/pkg/auth"
	"github.com/retailgenie/orchestrator/pkg/config"
)

type stubSessionChecker struct {
	active bool
	err    error
}

func (s *stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return s.active, s.err
}

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-test-secret",
		Issuer:            "retailgenie",
		ExpirationMinutes: 60,
	}
}

func mintToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	signed, err := pkgAuth.MintAccessToken(authTestConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   pkgAuth.RoleCustomer,
		JTI:    "jti-1",
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	return signed
}

func identityProbe(t *testing.T, gotUserID *string, gotRole *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUserID = UserIDFromContext(r.Context())
		*gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthSeedsIdentity(t *testing.T) {
	userID := uuid.New()
	var seenUser, seenRole string
	handler := Auth(authTestConfig(), &stubSessionChecker{active: true}, nil)(identityProbe(t, &seenUser, &seenRole))

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, userID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if seenUser != userID.String() {
		t.Fatalf("expected user id %s, got %q", userID, seenUser)
	}
	if seenRole != "customer" {
		t.Fatalf("expected role customer, got %q", seenRole)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(authTestConfig(), &stubSessionChecker{active: true}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := Auth(authTestConfig(), &stubSessionChecker{active: true}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer not.a.jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	handler := Auth(authTestConfig(), &stubSessionChecker{active: false}, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest("GET", "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", w.Code)
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	var seenUser, seenRole string
	handler := OptionalAuth(authTestConfig(), &stubSessionChecker{active: true}, nil)(identityProbe(t, &seenUser, &seenRole))

	r := httptest.NewRequest("POST", "/api/v1/message", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if seenUser != "" {
		t.Fatalf("anonymous request must carry no identity, got %q", seenUser)
	}
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	var seenUser, seenRole string
	handler := OptionalAuth(authTestConfig(), &stubSessionChecker{active: true}, nil)(identityProbe(t, &seenUser, &seenRole))

	r := httptest.NewRequest("POST", "/api/v1/message", nil)
	r.Header.Set("Authorization", "Bearer junk")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("invalid optional token must pass through, got %d", w.Code)
	}
	if seenUser != "" {
		t.Fatalf("invalid token must not seed identity, got %q", seenUser)
	}
}

func TestOptionalAuthSeedsValidToken(t *testing.T) {
	userID := uuid.New()
	var seenUser, seenRole string
	handler := OptionalAuth(authTestConfig(), &stubSessionChecker{active: true}, nil)(identityProbe(t, &seenUser, &seenRole))

	r := httptest.NewRequest("POST", "/api/v1/message", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, userID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if seenUser != userID.String() {
		t.Fatalf("expected user id %s, got %q", userID, seenUser)
	}
	if seenRole != "customer" {
		t.Fatalf("expected role customer, got %q", seenRole)
	}
}
