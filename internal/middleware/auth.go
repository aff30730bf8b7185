package middleware

import (
	"fmt"
	"net/http"
)

// TokenProvider supplies bearer tokens for outbound requests.
type TokenProvider interface {
	Token() (string, error)
}

// BearerTransport returns an http.RoundTripper that sets the Authorization
// header on every request using a fresh token from tokens.
// The original request is cloned, never modified.
func BearerTransport(tokens TokenProvider, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		token, err := tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to get bearer token: %w", err)
		}

		authed := req.Clone(req.Context())
		authed.Header.Set("Authorization", "Bearer "+token)
		return next.RoundTrip(authed)
	})
}
