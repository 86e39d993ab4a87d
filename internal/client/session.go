package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is what the client keeps between calls. The three fields are
// always saved and cleared together.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// RefreshTokenTimestamp is the refresh token's exp in unix seconds. Zero
	// means no refresh is possible.
	RefreshTokenTimestamp int64 `json:"refreshTokenTimestamp"`
}

// HasRefreshMarker reports whether a refresh should be attempted
func (s Session) HasRefreshMarker() bool {
	return s.RefreshTokenTimestamp != 0 && s.RefreshToken != ""
}

// IsZero reports whether nothing is stored
func (s Session) IsZero() bool {
	return s == Session{}
}

// NewSession builds a session and stamps it with the refresh token's expiry
func NewSession(accessToken, refreshToken string) Session {
	s := Session{AccessToken: accessToken, RefreshToken: refreshToken}
	if exp, ok := tokenExpiry(refreshToken); ok {
		s.RefreshTokenTimestamp = exp.Unix()
	}
	return s
}

// tokenExpiry reads exp without checking the signature. The client holds no
// keys; the server verifies.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// SessionStore persists a Session
type SessionStore interface {
	Load() (Session, error)
	Save(s Session) error
	Clear() error
}

// MemoryStore keeps the session in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements SessionStore
func (m *MemoryStore) Load() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

// Save implements SessionStore
func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
	return nil
}

// Clear implements SessionStore
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()
	return nil
}

// FileStore keeps the session in a JSON file readable only by its owner
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location
func (f *FileStore) Path() string {
	return f.path
}

// Load implements SessionStore. A missing file is an empty session.
func (f *FileStore) Load() (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	return s, nil
}

// Save implements SessionStore. The file is replaced atomically.
func (f *FileStore) Save(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Clear implements SessionStore
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

var (
	_ SessionStore = (*MemoryStore)(nil)
	_ SessionStore = (*FileStore)(nil)
)
