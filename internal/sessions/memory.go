package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
)

// MemoryRepository keeps sessions in a mutex-guarded map. Suitable for a
// single process; concurrent requests against the same session id append
// under the lock so turns never interleave.
type MemoryRepository struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	historyLimit int
}

// NewMemoryRepository builds an in-memory session store. historyLimit bounds
// the retained turns per session; zero means unbounded.
func NewMemoryRepository(historyLimit int) *MemoryRepository {
	return &MemoryRepository{
		sessions:     make(map[string]*Session),
		historyLimit: historyLimit,
	}
}

func (r *MemoryRepository) Create(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC()
	r.sessions[id] = &Session{
		ID:        id,
		History:   []Turn{},
		Cart:      []ProductRef{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	clone := *session
	clone.History = append([]Turn(nil), session.History...)
	clone.Cart = append([]ProductRef(nil), session.Cart...)
	return &clone, nil
}

func (r *MemoryRepository) AppendHistory(_ context.Context, id, role, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	session.History = append(session.History, Turn{Role: role, Text: text, At: time.Now().UTC()})
	if r.historyLimit > 0 && len(session.History) > r.historyLimit {
		session.History = session.History[len(session.History)-r.historyLimit:]
	}
	session.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) AppendCart(_ context.Context, id string, ref ProductRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	session.Cart = append(session.Cart, ref)
	session.UpdatedAt = time.Now().UTC()
	return nil
}
