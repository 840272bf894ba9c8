// Package auth implements the shared-secret access guard and the bearer
// tokens derived from that secret.
// This is a leaf package with no domain dependencies. Used by
// internal/domain/tool and internal/api/middleware.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ===== ERRORS =====

var (
	ErrUnauthorized      = errors.New("invalid API key")
	ErrMissingCredential = errors.New("missing API key")
	ErrEmptySecret       = errors.New("auth: expected secret is empty")
)

// ===== CREDENTIAL CONTEXT =====

// Credential is what a transport extracted from its caller.
// At most one of APIKey and Token is expected to be set.
type Credential struct {
	APIKey string
	Token  string
}

func (c Credential) empty() bool { return c.APIKey == "" && c.Token == "" }

type credentialKey struct{}

// WithCredential attaches a transport credential to ctx.
func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

// CredentialFrom returns the transport credential on ctx, if any.
func CredentialFrom(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	return c, ok && !c.empty()
}

// ===== GUARD =====

// Guard compares caller credentials against one process-wide secret.
// It holds no per-caller state and is safe for concurrent use.
type Guard struct {
	expected   []byte
	fallback   Credential
	signingKey []byte
}

const signingKeyInfo = "netsuite-mcp bearer v1"

// NewGuard builds a Guard for expected. fallback is the process default
// credential used when neither the call nor its transport supplies one;
// pass "" to require an explicit credential.
func NewGuard(expected, fallback string) (*Guard, error) {
	if expected == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(expected), nil, []byte(signingKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("auth: derive signing key: %w", err)
	}

	return &Guard{
		expected:   []byte(expected),
		fallback:   Credential{APIKey: fallback},
		signingKey: key,
	}, nil
}

// Resolve picks the credential for a call: explicit argument first, then
// the transport credential on ctx, then the process default.
func (g *Guard) Resolve(ctx context.Context, explicit string) Credential {
	if explicit != "" {
		return Credential{APIKey: explicit}
	}
	if c, ok := CredentialFrom(ctx); ok {
		return c
	}
	return g.fallback
}

// Check verifies one credential. A token is accepted when it verifies
// against the key derived from the expected secret.
func (g *Guard) Check(c Credential) error {
	switch {
	case c.APIKey != "":
		if subtle.ConstantTimeCompare([]byte(c.APIKey), g.expected) != 1 {
			return ErrUnauthorized
		}
		return nil
	case c.Token != "":
		if _, err := g.ParseToken(c.Token); err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil
	default:
		return ErrMissingCredential
	}
}

// Authorize resolves and checks the credential for one call.
func (g *Guard) Authorize(ctx context.Context, explicit string) error {
	return g.Check(g.Resolve(ctx, explicit))
}
