package sessions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
)

type fakeKeyedStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeKeyedStore() *fakeKeyedStore {
	return &fakeKeyedStore{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (s *fakeKeyedStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return nil
}

func (s *fakeKeyedStore) Get(_ context.Context, key string) (string, error) {
	raw, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return raw, nil
}

func (s *fakeKeyedStore) ChatSessionKey(sessionID string) string {
	return "rg:session:chat:" + sessionID
}

func newRedisTestRepository(store *fakeKeyedStore, historyLimit int) *RedisRepository {
	return &RedisRepository{store: store, ttl: 30 * time.Minute, historyLimit: historyLimit}
}

func TestNewRedisRepositoryValidates(t *testing.T) {
	if _, err := NewRedisRepository(nil, time.Minute, 0); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestRedisRepositoryCreateSetsTTL(t *testing.T) {
	store := newFakeKeyedStore()
	repo := newRedisTestRepository(store, 0)

	id, err := repo.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	key := store.ChatSessionKey(id)
	if _, ok := store.values[key]; !ok {
		t.Fatalf("session not written under %s", key)
	}
	if store.ttls[key] != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", store.ttls[key])
	}
}

func TestRedisRepositoryRoundTrip(t *testing.T) {
	store := newFakeKeyedStore()
	repo := newRedisTestRepository(store, 0)
	ctx := context.Background()

	id, err := repo.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.AppendHistory(ctx, id, RoleUser, "any offers?"); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if err := repo.AppendCart(ctx, id, ProductRef{ProductID: "p102", Quantity: 1}); err != nil {
		t.Fatalf("AppendCart: %v", err)
	}

	session, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(session.History) != 1 || session.History[0].Text != "any offers?" {
		t.Fatalf("unexpected history %+v", session.History)
	}
	if len(session.Cart) != 1 || session.Cart[0].ProductID != "p102" {
		t.Fatalf("unexpected cart %+v", session.Cart)
	}
}

func TestRedisRepositoryTrimsHistory(t *testing.T) {
	store := newFakeKeyedStore()
	repo := newRedisTestRepository(store, 3)
	ctx := context.Background()

	id, _ := repo.Create(ctx)
	for i := 0; i < 6; i++ {
		if err := repo.AppendHistory(ctx, id, RoleUser, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	session, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(session.History) != 3 {
		t.Fatalf("expected history trimmed to 3, got %d", len(session.History))
	}
	if session.History[0].Text != "turn 3" {
		t.Fatalf("unexpected oldest turn %q", session.History[0].Text)
	}
}

func TestRedisRepositoryMissingKeyIsNotFound(t *testing.T) {
	repo := newRedisTestRepository(newFakeKeyedStore(), 0)

	if _, err := repo.Get(context.Background(), "expired"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedisRepositorySetFailureIsDependencyError(t *testing.T) {
	store := newFakeKeyedStore()
	store.setErr = fmt.Errorf("connection reset")
	repo := newRedisTestRepository(store, 0)

	if _, err := repo.Create(context.Background()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
