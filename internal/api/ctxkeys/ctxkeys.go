// Package ctxkeys holds typed context keys shared by the api packages.
// It is a leaf package so handlers and middleware can both import it.
package ctxkeys

import (
	"context"
	"errors"
)

// Key is the named type for all API context keys. context.Value compares
// type and value, so these never collide with plain string keys.
type Key string

const (
	// AuthScheme records which credential form the caller used:
	// "api_key" or "bearer".
	AuthScheme Key = "auth_scheme"

	// Subject is the bearer token subject. Empty for API key callers.
	Subject Key = "subject"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// ErrMissingAuthScheme is returned when no auth scheme was recorded on the
// context, i.e. the request never passed AuthMiddleware.
var ErrMissingAuthScheme = errors.New("missing auth scheme in context")

// Caller describes who made an authenticated request.
type Caller struct {
	Scheme  string
	Subject string
}

// CallerFrom retrieves the caller recorded by AuthMiddleware.
func CallerFrom(ctx context.Context) (Caller, error) {
	scheme, ok := ctx.Value(AuthScheme).(string)
	if !ok || scheme == "" {
		return Caller{}, ErrMissingAuthScheme
	}
	subject, _ := ctx.Value(Subject).(string)
	return Caller{Scheme: scheme, Subject: subject}, nil
}
