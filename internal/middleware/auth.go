package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/models"
)

// SessionCookie carries the session token for browser requests such as
// invite links.
const SessionCookie = "runpool_session"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityKey is the context key for the authenticated caller.
const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller identity, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityKey).(*models.Identity)
	return id
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	if id := IdentityFrom(ctx); id != nil {
		return id.UserID
	}
	return ""
}

// resolve validates the session token from the Authorization header or,
// failing that, the session cookie.
func resolve(jwtManager *auth.JWTManager, header http.Header) (*models.Identity, error) {
	token, ok := auth.BearerToken(header.Get("Authorization"))
	if !ok {
		cookie, err := (&http.Request{Header: header}).Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			return nil, auth.ErrMissingToken
		}
		token = cookie.Value
	}

	claims, err := jwtManager.Validate(token)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

// OptionalAuth returns an interceptor that resolves the caller identity if
// a valid session is presented and lets anonymous requests through. Core
// operations reject a missing identity themselves.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			id, err := resolve(jwtManager, req.Header())
			if err == nil {
				ctx = WithIdentity(ctx, id)
			} else if !errors.Is(err, auth.ErrMissingToken) {
				slog.Debug("Ignoring invalid session", "procedure", req.Spec().Procedure, "error", err)
			}
			return next(ctx, req)
		}
	}
}

// RequireAuth returns an interceptor that rejects requests without a
// resolved identity. Install it after OptionalAuth.
func RequireAuth() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !IdentityFrom(ctx).Valid() {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrUnauthenticated)
			}
			return next(ctx, req)
		}
	}
}

// RequireSharedSecret returns an interceptor admitting only callers that
// present the shared secret as a bearer token. A nil secret means the
// boundary is not configured and every call is refused.
func RequireSharedSecret(secret *auth.SharedSecret) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if secret == nil {
				return nil, connect.NewError(connect.CodeUnavailable, auth.ErrMissingSecret)
			}
			if !secret.VerifyHeader(req.Header().Get("Authorization")) {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}
			return next(ctx, req)
		}
	}
}

// Session returns HTTP middleware that resolves the caller identity for
// plain HTTP handlers, leaving anonymous requests untouched.
func Session(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := resolve(jwtManager, r.Header); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewSessionCookie builds the cookie that carries a session token.
func NewSessionCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
