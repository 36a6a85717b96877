package auth

import (
	"crypto/subtle"
	"strings"
)

// SharedSecret authenticates machine callers such as the campaign
// scheduler, which present the secret as a bearer token.
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret returns ErrMissingSecret for an empty secret so that the
// boundary it protects can refuse to start.
func NewSharedSecret(secret string) (*SharedSecret, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &SharedSecret{secret: []byte(secret)}, nil
}

// VerifyHeader checks an Authorization header value in constant time.
func (s *SharedSecret) VerifyHeader(header string) bool {
	presented, ok := BearerToken(header)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), s.secret) == 1
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
