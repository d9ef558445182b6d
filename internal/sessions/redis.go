package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	redisclient "github.com/retailgenie/orchestrator/pkg/redis"
)

type keyedStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	ChatSessionKey(sessionID string) string
}

// RedisRepository stores each session as a JSON value under a TTL'd key, so
// idle conversations expire instead of accumulating forever.
type RedisRepository struct {
	store        keyedStore
	ttl          time.Duration
	historyLimit int
}

// NewRedisRepository builds a Redis-backed session store.
func NewRedisRepository(client *redisclient.Client, ttl time.Duration, historyLimit int) (*RedisRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisRepository{store: client, ttl: ttl, historyLimit: historyLimit}, nil
}

func (r *RedisRepository) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	session := &Session{
		ID:        id,
		History:   []Turn{},
		Cart:      []ProductRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.save(ctx, session); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.store.Get(ctx, r.store.ChatSessionKey(id))
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	return &session, nil
}

func (r *RedisRepository) AppendHistory(ctx context.Context, id, role, text string) error {
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	session.History = append(session.History, Turn{Role: role, Text: text, At: time.Now().UTC()})
	if r.historyLimit > 0 && len(session.History) > r.historyLimit {
		session.History = session.History[len(session.History)-r.historyLimit:]
	}
	session.UpdatedAt = time.Now().UTC()
	return r.save(ctx, session)
}

func (r *RedisRepository) AppendCart(ctx context.Context, id string, ref ProductRef) error {
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	session.Cart = append(session.Cart, ref)
	session.UpdatedAt = time.Now().UTC()
	return r.save(ctx, session)
}

func (r *RedisRepository) save(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := r.store.Set(ctx, r.store.ChatSessionKey(session.ID), string(raw), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return nil
}
