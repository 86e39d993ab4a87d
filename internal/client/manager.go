package client

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TokenManager refreshes the stored session. Refresh calls go straight to
// the bare transport so they never pass through the auth pipeline.
type TokenManager struct {
	api    *apiCaller
	store  SessionStore
	window time.Duration
	logger *zap.Logger
	now    func() time.Time

	group singleflight.Group
}

func newTokenManager(api *apiCaller, store SessionStore, window time.Duration, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		api:    api,
		store:  store,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// shouldRefresh reports whether a proactive refresh is due for s. Without a
// window every request with a refresh marker refreshes first.
func (m *TokenManager) shouldRefresh(s Session) bool {
	if !s.HasRefreshMarker() {
		return false
	}
	if m.window <= 0 {
		return true
	}
	exp, ok := tokenExpiry(s.AccessToken)
	if !ok {
		return true
	}
	return exp.Sub(m.now()) <= m.window
}

// Refresh exchanges the stored refresh token for a new pair and saves it.
// Concurrent callers share one exchange. A caller that arrives after another
// already rotated the token gets the stored result instead of replaying the
// old token, which the server would treat as theft.
func (m *TokenManager) Refresh(ctx context.Context) (Session, error) {
	current, err := m.store.Load()
	if err != nil {
		return Session{}, err
	}
	if current.RefreshToken == "" {
		return Session{}, ErrNoSession
	}
	return m.refreshFrom(ctx, current.RefreshToken)
}

func (m *TokenManager) refreshFrom(ctx context.Context, presented string) (Session, error) {
	v, err, shared := m.group.Do("refresh", func() (any, error) {
		stored, err := m.store.Load()
		if err != nil {
			return Session{}, err
		}
		if stored.RefreshToken == "" {
			return Session{}, ErrNoSession
		}
		if stored.RefreshToken != presented {
			return stored, nil
		}

		var pair tokenPair
		if err := m.api.call(ctx, http.MethodPost, refreshPath, refreshRequest{RefreshToken: presented}, &pair); err != nil {
			return Session{}, err
		}
		next := NewSession(pair.AccessToken, pair.RefreshToken)
		if err := m.store.Save(next); err != nil {
			return Session{}, err
		}
		return next, nil
	})
	if shared {
		m.logger.Debug("Refresh coalesced with a concurrent caller")
	}
	if err != nil {
		return Session{}, err
	}
	return v.(Session), nil
}

// clear drops the session after a failed refresh
func (m *TokenManager) clear(reason error) {
	m.logger.Debug("Clearing session", zap.Error(reason))
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("Failed to clear session", zap.Error(err))
	}
}
