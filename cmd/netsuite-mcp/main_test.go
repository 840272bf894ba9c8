// Tests that touch env skip t.Parallel(): config reads process-global state.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/backend"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/domain/tool"
	"github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

// Pretty-printed on purpose: the mock returns fixture bytes verbatim.
const fixturesJSON = `{
  "record/v1/customer/123456": {"id": "123456", "companyName": "Acme"},
  "record/v1/metadata-catalog": {"records": [{"type": "customer"}]}
}`

// setupEnv points config at a temp fixture file and clears everything else.
func setupEnv(t *testing.T, apiKey string) string {
	t.Helper()
	dir := t.TempDir()

	fixtures := filepath.Join(dir, "netsuite.json")
	require.NoError(t, os.WriteFile(fixtures, []byte(fixturesJSON), 0o600))

	for key, value := range map[string]string{
		"MCP_API_KEY":              apiKey,
		"MCP_EXPECTED_API_KEY":     "",
		"NETSUITE_MODE":            "",
		"NETSUITE_FIXTURES":        fixtures,
		"NETSUITE_BACKEND_TIMEOUT": "",
		"NETSUITE_MCP_CONFIG":      "",
		"NETSUITE_MCP_DOTENV":      filepath.Join(dir, "absent.env"),
		"CACHE_MAX_ENTRIES":        "",
		"TOKEN_TTL":                "",
		"LOG_FILE":                 "",
		"LOG_LEVEL":                "error",
	} {
		t.Setenv(key, value)
	}
	return dir
}

func runCmd(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// ===== FLAGS =====

func TestRun_Version(t *testing.T) {
	t.Parallel()

	code, out, _ := runCmd("--version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "netsuite-mcp version")
}

func TestRun_Help_PrintsUsage(t *testing.T) {
	t.Parallel()

	code, out, _ := runCmd("--help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Usage:")
}

func TestRun_InvalidFlag_Returns2(t *testing.T) {
	t.Parallel()

	code, _, _ := runCmd("--unknown-flag")
	assert.Equal(t, exitUsage, code)
}

func TestRun_UnknownCommand_Returns2(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCmd("migrate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, `unknown command "migrate"`)
}

// ===== STARTUP RULE =====

func TestRun_Serve_RefusesWithoutAPIKey(t *testing.T) {
	setupEnv(t, "")

	code, out, errOut := runCmd("serve")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "missing MCP_API_KEY")
	assert.Empty(t, out, "stdout must stay empty")
}

func TestRun_HTTP_RefusesWrongAPIKey(t *testing.T) {
	setupEnv(t, "not_the_key")

	code, _, errOut := runCmd("http")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "invalid MCP_API_KEY")
}

func TestRun_Serve_LiveModeUnavailable(t *testing.T) {
	setupEnv(t, "default_key")
	t.Setenv("NETSUITE_MODE", "live")

	code, _, errOut := runCmd("serve")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, backend.ErrLiveUnavailable.Error())
}

func TestRun_Serve_MissingFixtures(t *testing.T) {
	dir := setupEnv(t, "default_key")
	t.Setenv("NETSUITE_FIXTURES", filepath.Join(dir, "nope.json"))

	code, _, _ := runCmd("serve")
	assert.Equal(t, exitError, code)
}

// ===== WIRING =====

func TestBootstrap_DispatcherUsesProcessKey(t *testing.T) {
	setupEnv(t, "default_key")

	var errOut bytes.Buffer
	a, err := bootstrap(context.Background(), &errOut)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.closeLog() })

	out, err := a.dispatcher.Invoke(context.Background(), tool.BuiltinFetchCustomer, map[string]any{"customer_id": "123456"})
	require.NoError(t, err)

	var customer map[string]any
	require.NoError(t, json.Unmarshal(out, &customer))
	assert.Equal(t, "Acme", customer["companyName"])
	assert.Equal(t, "123456", customer["id"])

	desc, err := a.dispatcher.Registry().Get(tool.BuiltinFetchCustomer)
	require.NoError(t, err)
	assert.True(t, desc.Cacheable)
	assert.Equal(t, 300.0, desc.TTL.Seconds())
}

// ===== TOKEN =====

func TestRun_Token_IssuesVerifiableToken(t *testing.T) {
	setupEnv(t, "default_key")

	code, out, errOut := runCmd("token", "--subject", "smoke", "--ttl", "5m")
	require.Equal(t, exitOK, code, "stderr: %s", errOut)

	guard, err := auth.NewGuard("default_key", "")
	require.NoError(t, err)
	claims, err := guard.ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "smoke", claims.Subject)
}

func TestRun_Token_RequiresValidKey(t *testing.T) {
	setupEnv(t, "")

	code, out, _ := runCmd("token")
	assert.Equal(t, exitError, code)
	assert.Empty(t, out, "no token must be printed")
}

// ===== FIXTURES =====

func TestRun_FixturesImport(t *testing.T) {
	dir := setupEnv(t, "")
	dbPath := filepath.Join(dir, "fixtures.db")

	code, out, errOut := runCmd("fixtures", "import", "--from", filepath.Join(dir, "netsuite.json"), "--to", dbPath)
	require.Equal(t, exitOK, code, "stderr: %s", errOut)
	assert.Contains(t, out, "imported 2 fixtures")

	loaded, err := backend.LoadFixtureFile(context.Background(), dbPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"123456","companyName":"Acme"}`, string(loaded["record/v1/customer/123456"]))
}

func TestRun_FixturesImport_Usage(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"fixtures"},
		{"fixtures", "export"},
		{"fixtures", "import", "--from", "x.json"},
	} {
		code, _, _ := runCmd(args...)
		assert.Equal(t, exitUsage, code, "args %v", args)
	}
}
