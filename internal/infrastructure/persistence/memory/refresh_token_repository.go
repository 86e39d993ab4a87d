package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/odyssey/backend/internal/domain/identity"
	"github.com/odyssey/backend/internal/domain/shared"
)

// RefreshTokenRepository is an in-memory identity.RefreshTokenRepository
type RefreshTokenRepository struct {
	mu     sync.Mutex
	byHash map[string]*identity.RefreshToken
}

// NewRefreshTokenRepository creates an empty repository
func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{byHash: make(map[string]*identity.RefreshToken)}
}

// Create implements identity.RefreshTokenRepository
func (r *RefreshTokenRepository) Create(_ context.Context, token *identity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(token)
}

func (r *RefreshTokenRepository) insertLocked(token *identity.RefreshToken) error {
	if _, ok := r.byHash[token.TokenHash]; ok {
		return shared.ErrAlreadyExists
	}
	stored := *token
	r.byHash[token.TokenHash] = &stored
	return nil
}

// FindByHash implements identity.RefreshTokenRepository
func (r *RefreshTokenRepository) FindByHash(_ context.Context, tokenHash string) (*identity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byHash[tokenHash]
	if !ok {
		return nil, shared.ErrNotFound
	}
	t := *stored
	return &t, nil
}

// Rotate implements identity.RefreshTokenRepository
func (r *RefreshTokenRepository) Rotate(_ context.Context, oldHash string, next *identity.RefreshToken, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byHash[oldHash]
	if !ok || old.IsRevoked() {
		return identity.ErrTokenReused
	}
	if _, exists := r.byHash[next.TokenHash]; exists {
		return shared.ErrAlreadyExists
	}
	old.Revoke(reason, time.Now())
	return r.insertLocked(next)
}

// Revoke implements identity.RefreshTokenRepository
func (r *RefreshTokenRepository) Revoke(_ context.Context, tokenHash, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.byHash[tokenHash]; ok {
		stored.Revoke(reason, time.Now())
	}
	return nil
}

// RevokeAllForUser implements identity.RefreshTokenRepository
func (r *RefreshTokenRepository) RevokeAllForUser(_ context.Context, userID uuid.UUID, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	now := time.Now()
	for _, t := range r.byHash {
		if t.UserID == userID && !t.IsRevoked() {
			t.Revoke(reason, now)
			n++
		}
	}
	return n, nil
}

// DeleteExpired implements identity.RefreshTokenRepository
func (r *RefreshTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, t := range r.byHash {
		if t.ExpiresAt.Before(before) {
			delete(r.byHash, hash)
			n++
		}
	}
	return n, nil
}

var _ identity.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
