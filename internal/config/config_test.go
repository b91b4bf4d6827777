package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jderrod/GrantStationTool/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp isolates a test from any .env or config in the working directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	return dir
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, filter.DefaultPath, cfg.Filters.Path)
	assert.Equal(t, DefaultCookiePath, cfg.Cookies.Path)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Dir)
	assert.Nil(t, cfg.Evaluation.FailClosedDates)
	assert.False(t, cfg.Evaluator().FailClosedDates)
}

func TestLoad_LocalOverlay(t *testing.T) {
	dir := chdirTemp(t)
	write(t, filepath.Join(dir, "grantstation.yaml"), `
credentials:
  username: file-user
filters:
  path: team_filters.json
output:
  dir: exports
`)
	write(t, filepath.Join(dir, "grantstation.local.yaml"), `
output:
  dir: my-exports
evaluation:
  fail_closed_dates: true
`)

	cfg, err := Load(filepath.Join(dir, "grantstation.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "file-user", cfg.Credentials.Username)
	assert.Equal(t, "team_filters.json", cfg.Filters.Path)
	assert.Equal(t, "my-exports", cfg.Output.Dir)
	assert.True(t, cfg.Evaluator().FailClosedDates)
}

func TestLoad_LocalOverlayTurnsFlagsOff(t *testing.T) {
	dir := chdirTemp(t)
	write(t, filepath.Join(dir, "grantstation.yaml"), `
evaluation:
  fail_closed_dates: true
  legacy_million_scaling: true
`)
	write(t, filepath.Join(dir, "grantstation.local.yaml"), `
evaluation:
  fail_closed_dates: false
`)

	cfg, err := Load(filepath.Join(dir, "grantstation.yaml"))
	require.NoError(t, err)
	ev := cfg.Evaluator()
	assert.False(t, ev.FailClosedDates, "an explicit false in the overlay wins")
	assert.True(t, ev.Amounts.LegacyMillionScaling, "flags the overlay leaves unset are kept")
}

func TestLoad_EnvironmentWins(t *testing.T) {
	dir := chdirTemp(t)
	write(t, filepath.Join(dir, "grantstation.yaml"), `
credentials:
  username: file-user
  password: file-pass
output:
  dir: ${GS_TEST_OUTPUT}
`)
	t.Setenv("GS_TEST_OUTPUT", "/tmp/gs-out")
	t.Setenv(EnvUsername, "env-user")

	cfg, err := Load(filepath.Join(dir, "grantstation.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Credentials.Username)
	assert.Equal(t, "file-pass", cfg.Credentials.Password)
	assert.Equal(t, "/tmp/gs-out", cfg.Output.Dir)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	testChdir(t, dir)
	os.Unsetenv(EnvPassword)
	t.Cleanup(func() { os.Unsetenv(EnvPassword) })
	write(t, filepath.Join(dir, ".env"), EnvPassword+"=from-dotenv\n")

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Credentials.Password)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := chdirTemp(t)
	write(t, filepath.Join(dir, "grantstation.yaml"), "filters: [unterminated")

	_, err := Load(filepath.Join(dir, "grantstation.yaml"))
	assert.ErrorContains(t, err, "parse config")
}

func TestPortalConfig_Overrides(t *testing.T) {
	chdirTemp(t)
	cfg := &Config{}
	cfg.Portal.BaseURL = "http://127.0.0.1:8080/"
	cfg.Portal.MaxPages = 3

	portal, err := cfg.PortalConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", portal.BaseURL)
	assert.Equal(t, 3, portal.MaxPages)
	assert.Equal(t, "/user/login", portal.LoginPath)
	assert.NotEmpty(t, portal.Selectors.Link, "selectors keep their embedded defaults")
	assert.NotEmpty(t, portal.Detail.Title)
}

func TestEvaluator(t *testing.T) {
	on := true
	cfg := &Config{Evaluation: Evaluation{FailClosedDates: &on, LegacyMillionScaling: &on}}
	ev := cfg.Evaluator()
	assert.True(t, ev.FailClosedDates)
	assert.True(t, ev.Amounts.LegacyMillionScaling)
}

func TestRequireCredentials(t *testing.T) {
	_, _, err := (&Config{Credentials: Credentials{Username: "u"}}).RequireCredentials()
	assert.True(t, errors.Is(err, ErrMissingCredentials))

	user, pass, err := (&Config{Credentials: Credentials{Username: "u", Password: "p"}}).RequireCredentials()
	require.NoError(t, err)
	assert.Equal(t, "u", user)
	assert.Equal(t, "p", pass)
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "conf/grantstation.local.yaml", localName("conf/grantstation.yaml"))
	assert.Equal(t, "grantstation.local", localName("grantstation"))
}

// testChdir changes the working directory to dir for the duration of the
// test, restoring the previous one on cleanup (equivalent to Go 1.24's t.Chdir).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
