// Package memory provides mutex-guarded in-process repositories. They back
// the "memory" database driver and service tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/domain/shared"
)

// UserRepository is an in-memory identity.UserRepository. Uniqueness checks
// and inserts happen under one lock.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*identity.User
	byEmail    map[string]uuid.UUID
	byUsername map[string]uuid.UUID
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[uuid.UUID]*identity.User),
		byEmail:    make(map[string]uuid.UUID),
		byUsername: make(map[string]uuid.UUID),
	}
}

// Create implements identity.UserRepository
func (r *UserRepository) Create(_ context.Context, user *identity.User) error {
	email := strings.ToLower(user.Email)
	username := strings.ToLower(user.Username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return shared.ErrAlreadyExists
	}
	if _, ok := r.byUsername[username]; ok {
		return shared.ErrAlreadyExists
	}
	if _, ok := r.byID[user.ID]; ok {
		return shared.ErrAlreadyExists
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[email] = user.ID
	r.byUsername[username] = user.ID
	return nil
}

// FindByEmail implements identity.UserRepository
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

// FindByID implements identity.UserRepository
func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u := *stored
	return &u, nil
}

// UpdateLastLogin implements identity.UserRepository
func (r *UserRepository) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.RecordLogin(at)
	return nil
}

// ExistsByUsername implements identity.UserRepository
func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[strings.ToLower(username)]
	return ok, nil
}

// ExistsByEmail implements identity.UserRepository
func (r *UserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return ok, nil
}

var _ identity.UserRepository = (*UserRepository)(nil)
