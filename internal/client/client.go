// Package client is a Go client for the auth API. It keeps the session in a
// SessionStore and refreshes tokens transparently.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultTimeout applies when Config.Timeout is zero
const defaultTimeout = 30 * time.Second

// Config configures a Client
type Config struct {
	// BaseURL is the server root, e.g. "http://localhost:8080"
	BaseURL string
	// Transport defaults to http.DefaultTransport
	Transport http.RoundTripper
	// Store defaults to a MemoryStore
	Store   SessionStore
	Timeout time.Duration
	// RefreshWindow limits proactive refreshes to access tokens expiring
	// within the window. Zero refreshes before every authenticated request.
	RefreshWindow time.Duration
	Logger        *zap.Logger
}

// User is the public profile returned by the server
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// RegisterParams is the registration form
type RegisterParams struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
}

// UsernameAvailability is the answer of CheckUsername
type UsernameAvailability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type authResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type currentUserResponse struct {
	User User `json:"user"`
}

// Client talks to the auth API
type Client struct {
	store   SessionStore
	manager *TokenManager
	// public sends requests as they are; authed runs the token pipeline
	public *apiCaller
	authed *apiCaller
	logger *zap.Logger
}

// New creates a Client
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	public := &apiCaller{baseURL: base, http: &http.Client{Transport: transport, Timeout: timeout}}
	manager := newTokenManager(public, store, cfg.RefreshWindow, log)
	pipeline := Chain(transport,
		RefreshBeforeRequest(manager),
		RetryOnUnauthorized(manager),
		AttachBearer(store),
	)

	return &Client{
		store:   store,
		manager: manager,
		public:  public,
		authed:  &apiCaller{baseURL: base, http: &http.Client{Transport: pipeline, Timeout: timeout}},
		logger:  log,
	}, nil
}

// Session returns the stored session
func (c *Client) Session() (Session, error) {
	return c.store.Load()
}

// Register creates an account and saves the new session
func (c *Client) Register(ctx context.Context, params RegisterParams) (*User, error) {
	var resp authResponse
	if err := c.public.call(ctx, http.MethodPost, registerPath, params, &resp); err != nil {
		return nil, err
	}
	return c.saveAuth(resp)
}

// Login signs in and saves the new session
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp authResponse
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	if err := c.public.call(ctx, http.MethodPost, loginPath, in, &resp); err != nil {
		return nil, err
	}
	return c.saveAuth(resp)
}

func (c *Client) saveAuth(resp authResponse) (*User, error) {
	if err := c.store.Save(NewSession(resp.AccessToken, resp.RefreshToken)); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp.User, nil
}

// Refresh rotates the stored token pair
func (c *Client) Refresh(ctx context.Context) (Session, error) {
	return c.manager.Refresh(ctx)
}

// Logout revokes the stored tokens on the server and clears the session.
// Server errors are logged, not returned: the local session is gone either way.
func (c *Client) Logout(ctx context.Context) error {
	s, err := c.store.Load()
	if err != nil {
		return err
	}
	if !s.IsZero() {
		req := refreshRequest{RefreshToken: s.RefreshToken}
		if err := c.public.callAuthorized(ctx, http.MethodPost, logoutPath, req, s.AccessToken); err != nil {
			c.logger.Warn("Logout request failed", zap.Error(err))
		}
	}
	return c.store.Clear()
}

// CurrentUser fetches the profile of the signed in user
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var resp currentUserResponse
	if err := c.authed.call(ctx, http.MethodGet, mePath, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Mount restores the signed in user from the stored session. It returns nil
// when there is no session or the server no longer accepts it; the session is
// cleared in the latter case.
func (c *Client) Mount(ctx context.Context) (*User, error) {
	s, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, nil
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		if IsUnauthorized(err) {
			if clearErr := c.store.Clear(); clearErr != nil {
				return nil, clearErr
			}
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CheckUsername asks whether a username is valid and free
func (c *Client) CheckUsername(ctx context.Context, username string) (*UsernameAvailability, error) {
	var resp UsernameAvailability
	if err := c.public.call(ctx, http.MethodGet, checkUsernamePath+url.PathEscape(username), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsAPIError reports whether err carries the given error code
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
