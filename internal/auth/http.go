// ABOUTME: HTTP middleware for JWT authentication on console endpoints
// ABOUTME: Extracts JWT from Authorization header or cookie and adds the subject to context

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/2389/hookpanel/internal/problem"
)

// CookieName is the cookie the HTML settings page reads its token from.
const CookieName = "hookpanel_token"

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// extractToken finds the request's token. The Authorization header wins
// over the cookie when both are present.
func extractToken(r *http.Request) (token, source, errMsg string) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, errMsg = extractBearerToken(h)
		return token, SourceHeader, errMsg
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, SourceCookie, ""
	}
	return "", "", "missing authorization header"
}

// HTTPAuthMiddleware creates an HTTP middleware that extracts and validates JWT tokens.
// The verified subject is attached to the request context as an AuthContext.
func HTTPAuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, source, errMsg := extractToken(r)
			if errMsg != "" {
				problem.Unauthorized(w, r, errMsg)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				detail := "invalid token"
				if errors.Is(err, ErrExpiredToken) {
					detail = "token expired"
				}
				problem.Unauthorized(w, r, detail)
				return
			}

			authCtx := &AuthContext{Subject: subject, Source: source}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

// OptionalAuthMiddleware creates an HTTP middleware that attempts JWT auth but allows unauthenticated requests.
// Useful for endpoints that work differently for authenticated vs anonymous users.
func OptionalAuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, source, errMsg := extractToken(r)
			if errMsg != "" {
				next.ServeHTTP(w, r) // Continue as anonymous
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			authCtx := &AuthContext{Subject: subject, Source: source}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}
