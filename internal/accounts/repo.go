package accounts

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/jsonstore"
	"github.com/retailgenie/orchestrator/pkg/types"
)

// Repository persists customer accounts. The flat-file implementation keeps
// the whole document in memory and rewrites it on every mutation.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}

type userDocument struct {
	Users []User `json:"users"`
}

type fileRepository struct {
	mu    sync.RWMutex
	file  *jsonstore.File
	users []User
}

// NewFileRepository opens the users document at path and loads any existing
// records. A missing file starts an empty repository.
func NewFileRepository(path string) (Repository, error) {
	file, err := jsonstore.Open(path)
	if err != nil {
		return nil, err
	}
	var doc userDocument
	if err := file.LoadOr(&doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load users document")
	}
	return &fileRepository{file: file, users: doc.Users}, nil
}

func (r *fileRepository) Create(_ context.Context, user *User) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "user is required")
	}
	normalized := normalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if normalizeEmail(r.users[i].Email) == normalized {
			return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
	}
	r.users = append(r.users, *user)
	return r.persistLocked()
}

func (r *fileRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.users {
		if r.users[i].ID == id {
			return cloneUser(&r.users[i]), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (r *fileRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	normalized := normalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.users {
		if normalizeEmail(r.users[i].Email) == normalized {
			return cloneUser(&r.users[i]), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (r *fileRepository) Update(_ context.Context, user *User) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "user is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == user.ID {
			r.users[i] = *cloneUser(user)
			return r.persistLocked()
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (r *fileRepository) persistLocked() error {
	if err := r.file.Save(userDocument{Users: r.users}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist users document")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(user *User) *User {
	clone := *user
	clone.Addresses = append([]types.Address(nil), user.Addresses...)
	if user.CurrentLocation != nil {
		loc := *user.CurrentLocation
		clone.CurrentLocation = &loc
	}
	return &clone
}
