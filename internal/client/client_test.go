package client

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/odyssey/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, opts ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{BaseURL: baseURL, Store: NewMemoryStore()}
	for _, opt := range opts {
		opt(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func registerJane(t *testing.T, c *Client) *User {
	t.Helper()
	user, err := c.Register(t.Context(), RegisterParams{
		Email:           "jane@example.com",
		Password:        testutil.Password,
		ConfirmPassword: testutil.Password,
		FirstName:       "Jane",
	})
	require.NoError(t, err)
	return user
}

func TestNew(t *testing.T) {
	for _, bad := range []string{"", "localhost", "://x"} {
		_, err := New(Config{BaseURL: bad})
		assert.Error(t, err, bad)
	}
	c, err := New(Config{BaseURL: "http://localhost:8080/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.public.baseURL)
}

func TestClient_Flow(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newTestClient(t, srv.URL)
	ctx := t.Context()

	user := registerJane(t, c)
	assert.Equal(t, "jane@example.com", user.Email)

	s, err := c.Session()
	require.NoError(t, err)
	assert.NotEmpty(t, s.AccessToken)
	assert.InDelta(t, time.Now().Add(7*24*time.Hour).Unix(), s.RefreshTokenTimestamp, 60)

	mounted, err := c.Mount(ctx)
	require.NoError(t, err)
	require.NotNil(t, mounted)
	assert.Equal(t, user.ID, mounted.ID)

	after, _ := c.Session()
	assert.NotEqual(t, s.RefreshToken, after.RefreshToken, "every authenticated call refreshes first")

	availability, err := c.CheckUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.False(t, availability.Available)

	require.NoError(t, c.Logout(ctx))
	cleared, _ := c.Session()
	assert.True(t, cleared.IsZero())

	mounted, err = c.Mount(ctx)
	require.NoError(t, err)
	assert.Nil(t, mounted)

	// the revoked refresh token must not work from another client either
	other := newTestClient(t, srv.URL)
	require.NoError(t, other.store.Save(after))
	_, err = other.Refresh(ctx)
	assert.True(t, IsUnauthorized(err))
}

func TestClient_Login(t *testing.T) {
	srv := testutil.NewServer(t)
	registerJane(t, newTestClient(t, srv.URL))
	c := newTestClient(t, srv.URL)

	_, err := c.Login(t.Context(), "jane@example.com", "wrong-Password1")
	require.Error(t, err)
	assert.True(t, IsAPIError(err, "AUTHENTICATION_FAILED"))
	s, _ := c.Session()
	assert.True(t, s.IsZero())

	user, err := c.Login(t.Context(), "JANE@example.com", "Password123")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.FirstName)
	s, _ = c.Session()
	assert.True(t, s.HasRefreshMarker())
}

func TestClient_ValidationError(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newTestClient(t, srv.URL)

	_, err := c.Register(t.Context(), RegisterParams{Email: "jane@example.com", Password: "Password123", ConfirmPassword: "nope"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, "Passwords do not match", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_RefreshWithoutSession(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Refresh(t.Context())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClient_ConcurrentRequestsShareRefresh(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newTestClient(t, srv.URL)
	registerJane(t, c)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.CurrentUser(t.Context())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	// a replayed token would have revoked the whole family
	_, err := c.Refresh(t.Context())
	require.NoError(t, err)
	user, err := c.CurrentUser(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
}

func TestClient_RefreshWindow(t *testing.T) {
	srv := testutil.NewServer(t)
	c := newTestClient(t, srv.URL, func(cfg *Config) { cfg.RefreshWindow = time.Minute })
	registerJane(t, c)
	before, _ := c.Session()

	_, err := c.CurrentUser(t.Context())
	require.NoError(t, err)

	after, _ := c.Session()
	assert.Equal(t, before, after, "a 15 minute token is outside a one minute window")
}

func TestClient_AuthLimiterLeavesRefreshAlone(t *testing.T) {
	cfg := testutil.Config()
	cfg.HTTP.AuthRateLimitEnabled = true
	cfg.HTTP.AuthRateLimitRequests = 5
	cfg.HTTP.AuthRateLimitWindow = time.Minute
	cfg.HTTP.RefreshRateLimitRequests = 60
	cfg.HTTP.RefreshRateLimitWindow = time.Minute
	srv := (&testutil.API{Config: cfg}).Server(t)

	c := newTestClient(t, srv.URL)
	registerJane(t, c)

	for i := 0; i < 10; i++ {
		user, err := c.CurrentUser(t.Context())
		require.NoError(t, err, "call %d", i+1)
		require.NotNil(t, user)
	}
	s, err := c.Session()
	require.NoError(t, err)
	assert.False(t, s.IsZero())
}
