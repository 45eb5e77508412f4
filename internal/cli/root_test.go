package cli

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
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/carrot/internal/config"
	"github.com/idilsaglam/carrot/internal/prefs"
	"github.com/idilsaglam/carrot/internal/remote/remotetest"
)

type harness struct {
	srv  *remotetest.Server
	home string
	env  map[string]string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := remotetest.New(t)
	home := t.TempDir()
	return &harness{
		srv:  srv,
		home: home,
		env: map[string]string{
			"CARROT_API_URL":   srv.URL,
			"CARROT_HOME":      home,
			"CARROT_LOG_LEVEL": "error",
			"CARROT_THEME":     "mono",
		},
	}
}

// loggedIn uses the server's token through the environment.
func (h *harness) loggedIn() *harness {
	h.env["CARROT_TOKEN"] = h.srv.Token
	return h
}

func (h *harness) run(stdin string, args ...string) result {
	var out, errb bytes.Buffer
	code := Execute(context.Background(), args, strings.NewReader(stdin), &out, &errb, Env{
		Sources: config.Sources{
			UserFile:    filepath.Join(h.home, "config.toml"),
			ProjectFile: filepath.Join(h.home, "carrot.toml"),
			EnvFile:     filepath.Join(h.home, ".env"),
			Getenv:      func(k string) string { return h.env[k] },
		},
	})
	return result{code: code, stdout: out.String(), stderr: errb.String()}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	h := newHarness(t)
	r := h.run("", "frobnicate")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "unknown command")
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	r := h.run("", "--format", "xml", "view")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "invalid format xml")
	assert.Contains(t, r.stderr, "text, json, yaml")
}

func TestBadConfigIsUsageError(t *testing.T) {
	h := newHarness(t)
	h.env["CARROT_API_URL"] = "not a url"
	r := h.run("", "view")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "invalid api_url")
}

func TestMissingArgumentIsUsageError(t *testing.T) {
	h := newHarness(t).loggedIn()
	r := h.run("", "todo", "done")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "Usage: carrot todo done <n>")
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	h := newHarness(t)
	r := h.run("", "view", "--bogus")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "unknown flag")
}

func TestViewMode(t *testing.T) {
	h := newHarness(t)

	r := h.run("", "view")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "week\n", r.stdout)

	r = h.run("", "view", "Month")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "view mode set to month")

	p, err := prefs.Store{Dir: h.home}.Load()
	require.NoError(t, err)
	assert.Equal(t, prefs.Month, p.ViewMode)

	r = h.run("", "--format", "yaml", "view")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	var got prefs.Prefs
	require.NoError(t, yaml.Unmarshal([]byte(r.stdout), &got))
	assert.Equal(t, prefs.Month, got.ViewMode)

	r = h.run("", "view", "year")
	assert.Equal(t, ExitUsage, r.code)
}

func TestAuthLoginStatusLogout(t *testing.T) {
	h := newHarness(t)

	r := h.run("", "auth", "status")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "not logged in")

	r = h.run("carrots\n", "auth", "login", "-u", "bunny")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "logged in as bunny")
	assert.Contains(t, r.stderr, "Password: ")
	_, err := os.Stat(filepath.Join(h.home, "credentials.json"))
	require.NoError(t, err)

	r = h.run("", "--format", "json", "auth", "status")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	var st statusView
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &st))
	assert.True(t, st.LoggedIn)
	assert.Equal(t, "file", st.Source)

	r = h.run("", "auth", "whoami")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "bunny@example.com")

	r = h.run("", "auth", "logout")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "logged out")

	r = h.run("", "auth", "whoami")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "carrot auth login")
}

func TestAuthLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	r := h.run("lettuce\n", "auth", "login", "-u", "bunny")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "Incorrect username or password")

	r = h.run("", "auth", "status")
	assert.Contains(t, r.stdout, "not logged in")
}

func TestAuthLoginWithToken(t *testing.T) {
	h := newHarness(t)
	r := h.run("", "auth", "login", "--token", "Bearer "+h.srv.Token)
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	r = h.run("", "auth", "whoami")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Bunny")
}

func TestLogoutWithEnvToken(t *testing.T) {
	h := newHarness(t).loggedIn()
	r := h.run("", "auth", "logout")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "CARROT_TOKEN env var (nothing to delete)")
}

func TestSignup(t *testing.T) {
	h := newHarness(t)
	r := h.run("secret-pw\n", "auth", "signup", "--email", "new@example.com")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "account created for new@example.com")

	r = h.run("secret-pw\n", "auth", "signup", "--email", "not-an-email")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "invalid email address")
	assert.Zero(t, h.srv.Count("POST /signup/"), "rejected before any request")
}

func TestRejectedTokenSendsToLogin(t *testing.T) {
	h := newHarness(t)
	h.env["CARROT_TOKEN"] = "stale"
	r := h.run("", "todo", "ls")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "carrot auth login")
}
