package client

import (
	"bytes"
	"io"
	"net/http"
)

// Middleware wraps a RoundTripper
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base so that the first middleware sees the request first
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

// RefreshBeforeRequest refreshes the session before sending when a refresh
// is due. A failed refresh clears the session; the request is sent anyway.
func RefreshBeforeRequest(m *TokenManager) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			s, err := m.store.Load()
			if err == nil && m.shouldRefresh(s) {
				if _, err := m.refreshFrom(req.Context(), s.RefreshToken); err != nil {
					m.clear(err)
				}
			}
			return next.RoundTrip(req)
		})
	}
}

// AttachBearer sets the Authorization header from the stored access token
func AttachBearer(store SessionStore) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			s, err := store.Load()
			if err != nil || s.AccessToken == "" {
				return next.RoundTrip(req)
			}
			out := req.Clone(req.Context())
			out.Header.Set("Authorization", "Bearer "+s.AccessToken)
			return next.RoundTrip(out)
		})
	}
}

// RetryOnUnauthorized refreshes once and retries once when the server
// answers 401. If the refresh fails or the retry is rejected too, the session
// is cleared and the caller gets the last response.
func RetryOnUnauthorized(m *TokenManager) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			body, err := bufferBody(req)
			if err != nil {
				return nil, err
			}

			resp, err := next.RoundTrip(withBody(req, body))
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			s, err := m.Refresh(req.Context())
			if err != nil {
				m.clear(err)
				return resp, nil
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			retry := withBody(req, body)
			retry.Header.Set("Authorization", "Bearer "+s.AccessToken)
			resp, err = next.RoundTrip(retry)
			if err == nil && resp.StatusCode == http.StatusUnauthorized {
				m.clear(errUnauthorizedAfterRefresh)
			}
			return resp, err
		})
	}
}

// bufferBody reads the body so the request can be replayed
func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}

func withBody(req *http.Request, body []byte) *http.Request {
	out := req.Clone(req.Context())
	if body == nil {
		out.Body = http.NoBody
		out.GetBody = nil
		return out
	}
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.ContentLength = int64(len(body))
	return out
}
