package accounts

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailgenie/orchestrator/pkg/config"
	redisclient "github.com/retailgenie/orchestrator/pkg/redis"
)

const refreshTokenBytes = 32

var (
	// ErrInvalidRefreshToken is returned when a refresh token does not match
	// the stored session.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	errTokenNotFound = errors.New("refresh session not found")
)

type tokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// TokenManager handles refresh token creation, storage, and rotation.
type TokenManager struct {
	store tokenStore
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewTokenManager constructs a refresh token manager over the given store.
// The store is typically Redis; MemoryTokenStore serves single-process runs.
func NewTokenManager(store tokenStore, cfg config.JWTConfig) (*TokenManager, error) {
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &TokenManager{store: store, ttl: ttl}, nil
}

// Generate creates a refresh token for the provided access ID and stores it.
func (m *TokenManager) Generate(ctx context.Context, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate validates the provided refresh token, invalidates the prior session,
// and issues a new access id / refresh token pair.
func (m *TokenManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	key := m.store.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", wrapTokenNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(newAccessID), newToken, m.ttl); err != nil {
		return "", "", err
	}

	if err := m.store.Del(ctx, key); err != nil {
		return "", "", err
	}

	return newAccessID, newToken, nil
}

// Revoke deletes the refresh mapping tied to the access identifier.
func (m *TokenManager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession reports whether the provided access ID still has an active refresh session.
func (m *TokenManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID)); err != nil {
		if isTokenNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti and store key.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func isTokenNotFound(err error) bool {
	return redisclient.IsNil(err) || errors.Is(err, errTokenNotFound)
}

func wrapTokenNotFound(err error) error {
	if isTokenNotFound(err) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenStore keeps refresh sessions in process memory. It backs the
// token manager when Redis is not configured.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

// NewMemoryTokenStore builds an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]memoryToken),
		now:    time.Now,
	}
}

func (s *MemoryTokenStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("memory token store only holds strings, got %T", value)
	}
	entry := memoryToken{value: str}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.tokens[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[key]
	if !ok {
		return "", errTokenNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.tokens, key)
		return "", errTokenNotFound
	}
	return entry.value, nil
}

func (s *MemoryTokenStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.tokens, key)
	}
	s.mu.Unlock()
	return nil
}

// AccessSessionKey mirrors the Redis key layout so either store is
// interchangeable behind the manager.
func (s *MemoryTokenStore) AccessSessionKey(accessID string) string {
	return "rg:session:access:" + accessID
}
