// Package middleware holds the HTTP middleware for the /api/v1 surface.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/tool"
	pkgauth "github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

// HeaderAPIKey carries the shared secret in plain form.
const HeaderAPIKey = "X-API-Key"

// Auth schemes recorded under ctxkeys.AuthScheme.
const (
	SchemeAPIKey = "api_key"
	SchemeBearer = "bearer"
)

// AuthMiddleware rejects requests that carry no valid credential and
// attaches the accepted one to the context for the dispatcher.
//
// Flow:
//  1. X-API-Key header wins when present
//  2. otherwise "Authorization: Bearer <token>"
//  3. missing, malformed or mismatched credential → 401
//  4. inject pkgauth.Credential plus ctxkeys.AuthScheme / ctxkeys.Subject
func AuthMiddleware(guard *pkgauth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if key := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); key != "" {
				cred := pkgauth.Credential{APIKey: key}
				if err := guard.Check(cred); err != nil {
					writeUnauthorized(w, pkgauth.ErrUnauthorized.Error())
					return
				}
				ctx = pkgauth.WithCredential(ctx, cred)
				ctx = ctxkeys.WithValue(ctx, ctxkeys.AuthScheme, SchemeAPIKey)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if r.Header.Get("Authorization") == "" {
				writeUnauthorized(w, pkgauth.ErrMissingCredential.Error())
				return
			}

			tokenString := extractBearerToken(r)
			if tokenString == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := guard.ParseToken(tokenString)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx = pkgauth.WithCredential(ctx, pkgauth.Credential{Token: tokenString})
			ctx = ctxkeys.WithValue(ctx, ctxkeys.AuthScheme, SchemeBearer)
			ctx = ctxkeys.WithValue(ctx, ctxkeys.Subject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Returns empty string if the scheme is wrong or the token is empty.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")

	// case-sensitive per RFC 7235 usage in most clients
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 in the same envelope as handler errors.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := map[string]*tool.Error{"error": {Kind: tool.KindAuth, Message: message}}
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}
