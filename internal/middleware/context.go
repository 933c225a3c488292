// Package middleware provides HTTP middleware components for the API
// server.
package middleware

import "context"

// userIDKey is the context key for the authenticated user id.
type userIDKey struct{}

// userEmailKey is the context key for the authenticated user email.
type userEmailKey struct{}

// errorCodeKey is the context key for error code.
type errorCodeKey struct{}

// SetUserID stores the authenticated user id in the context.
// Called by the bearer-auth middleware after validating the token.
func SetUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// GetUserID retrieves the authenticated user id from context.
// Returns 0 if not present.
func GetUserID(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey{}).(int64); ok {
		return id
	}
	return 0
}

// SetUserEmail stores the authenticated user email in the context.
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey{}, email)
}

// GetUserEmail retrieves the authenticated user email from context.
// Returns empty string if not present.
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(userEmailKey{}).(string); ok {
		return email
	}
	return ""
}

// SetErrorCode stores an error code in the context.
// Called by handlers when returning error responses.
func SetErrorCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, code)
}

// GetErrorCode retrieves the error code from context. Returns empty
// string if not present.
func GetErrorCode(ctx context.Context) string {
	if code, ok := ctx.Value(errorCodeKey{}).(string); ok {
		return code
	}
	return ""
}
