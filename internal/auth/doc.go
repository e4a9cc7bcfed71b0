// Package auth authenticates console administrators.
//
// # Tokens
//
// Admins present HS256 JWTs signed with the configured auth.jwt_secret.
// The "sub" claim names the admin and is recorded in the audit log as the
// actor of every change. Tokens are minted by the "hookpanel token"
// command:
//
//	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
//	token, err := verifier.Generate("alice", 24*time.Hour)
//	subject, err := verifier.Verify(token)
//
// Secrets shorter than MinSecretLength bytes are rejected.
//
// # HTTP Middleware
//
// HTTPAuthMiddleware reads the token from the Authorization header
// ("Bearer <token>") or, for the HTML settings page, from the
// hookpanel_token cookie. Failures are answered with an RFC 7807 problem
// document of type "unauthorized". OptionalAuthMiddleware lets anonymous
// requests through without an AuthContext.
//
// Handlers read the identity with FromContext or SubjectFromContext.
package auth
