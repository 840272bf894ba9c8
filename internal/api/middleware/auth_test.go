// Covers: credential absent, wrong, malformed or valid, plus context injection.
package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/api/middleware"
	pkgauth "github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

const testSecret = "default_key"

// ===== HELPER =====

func newGuard(t *testing.T) *pkgauth.Guard {
	t.Helper()
	g, err := pkgauth.NewGuard(testSecret, "")
	require.NoError(t, err)
	return g
}

// nextHandler returns an http.Handler that sets called=true and records the context.
func nextHandler(called *bool, capturedCtx *context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if capturedCtx != nil {
			*capturedCtx = r.Context()
		}
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, guard *pkgauth.Guard, req *http.Request) (*httptest.ResponseRecorder, bool, context.Context) {
	t.Helper()
	var captured context.Context
	called := false
	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(guard)(nextHandler(&called, &captured)).ServeHTTP(rr, req)
	return rr, called, captured
}

func newRequest(headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/fetch_customer", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// ===== TESTS: CREDENTIAL ABSENT OR MALFORMED =====

func TestAuthMiddleware_Rejects(t *testing.T) {
	t.Parallel()

	guard := newGuard(t)
	cases := map[string]map[string]string{
		"no credential":      nil,
		"empty bearer value": {"Authorization": "Bearer "},
		"wrong scheme":       {"Authorization": "Basic dXNlcjpwYXNz"},
		"garbage token":      {"Authorization": "Bearer not.a.real.jwt"},
		"wrong api key":      {middleware.HeaderAPIKey: "wrong_key"},
		"raw secret as jwt":  {"Authorization": "Bearer " + testSecret},
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rr, called, _ := serve(t, guard, newRequest(headers))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.False(t, called, "next handler should NOT be called")
		})
	}
}

func TestAuthMiddleware_TokenFromOtherSecret(t *testing.T) {
	t.Parallel()

	other, err := pkgauth.NewGuard("another_secret", "")
	require.NoError(t, err)
	token, err := other.IssueToken("intruder", 0)
	require.NoError(t, err)

	rr, called, _ := serve(t, newGuard(t), newRequest(map[string]string{"Authorization": "Bearer " + token}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

// TestAuthMiddleware_ErrorResponseShape verifies the 401 body uses the error envelope.
func TestAuthMiddleware_ErrorResponseShape(t *testing.T) {
	t.Parallel()

	rr, _, _ := serve(t, newGuard(t), newRequest(nil))

	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "AUTH", body.Error.Kind)
	assert.Equal(t, "missing API key", body.Error.Message)
}

// ===== TESTS: VALID CREDENTIAL =====

func TestAuthMiddleware_ValidAPIKey(t *testing.T) {
	t.Parallel()

	rr, called, ctx := serve(t, newGuard(t), newRequest(map[string]string{middleware.HeaderAPIKey: testSecret}))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)

	cred, ok := pkgauth.CredentialFrom(ctx)
	require.True(t, ok, "credential not injected")
	assert.Equal(t, testSecret, cred.APIKey)
	assert.Equal(t, middleware.SchemeAPIKey, ctx.Value(ctxkeys.AuthScheme))
}

func TestAuthMiddleware_ValidToken_InjectsSubject(t *testing.T) {
	t.Parallel()

	guard := newGuard(t)
	token, err := guard.IssueToken("smoke-client", 0)
	require.NoError(t, err)

	rr, called, ctx := serve(t, guard, newRequest(map[string]string{"Authorization": "Bearer " + token}))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)

	cred, ok := pkgauth.CredentialFrom(ctx)
	require.True(t, ok, "token credential not injected")
	assert.Equal(t, token, cred.Token)
	assert.NoError(t, guard.Check(cred), "injected credential should pass the guard")
	assert.Equal(t, "smoke-client", ctx.Value(ctxkeys.Subject))
	assert.Equal(t, middleware.SchemeBearer, ctx.Value(ctxkeys.AuthScheme))
}

// TestAuthMiddleware_APIKeyWinsOverBearer verifies header precedence.
func TestAuthMiddleware_APIKeyWinsOverBearer(t *testing.T) {
	t.Parallel()

	rr, called, ctx := serve(t, newGuard(t), newRequest(map[string]string{
		middleware.HeaderAPIKey: testSecret,
		"Authorization":         "Bearer garbage",
	}))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
	assert.Equal(t, middleware.SchemeAPIKey, ctx.Value(ctxkeys.AuthScheme))
}
