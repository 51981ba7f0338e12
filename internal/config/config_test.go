package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-graph-client/internal/config"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GRAPH_APP_ID", "GRAPH_APP_SECRET", "GRAPH_APP_URL", "GRAPH_DOMAIN",
		"GRAPH_CONNECT_TIMEOUT", "GRAPH_TOTAL_TIMEOUT", "GRAPH_USER_AGENT",
		"GRAPH_SESSION_DIR", "GRAPH_DEFAULT_LOCALE", "LOG_LEVEL", "ENV",
	} {
		t.Setenv(name, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := config.New()

	require.Empty(t, cfg.GetAppID())
	require.Equal(t, "facebook.com", cfg.GetDomain())
	require.Equal(t, "go-graph-client/1.0", cfg.GetUserAgent())
	require.Equal(t, 10*time.Second, cfg.GetConnectTimeout())
	require.Equal(t, 60*time.Second, cfg.GetTotalTimeout())
	require.Equal(t, "en_US", cfg.GetDefaultLocale())
	require.Equal(t, "info", cfg.GetLogLevel())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.Empty(t, cfg.GetSessionDir())
	require.GreaterOrEqual(t, cfg.GetStateLength(), 10)
}

func TestNew_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRAPH_APP_ID", "117743971608120")
	t.Setenv("GRAPH_DOMAIN", "example.com")
	t.Setenv("GRAPH_CONNECT_TIMEOUT", "3s")
	t.Setenv("GRAPH_TOTAL_TIMEOUT", "not-a-duration")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := config.New()
	require.Equal(t, "117743971608120", cfg.GetAppID())
	require.Equal(t, "example.com", cfg.GetDomain())
	require.Equal(t, 3*time.Second, cfg.GetConnectTimeout())
	require.Equal(t, 60*time.Second, cfg.GetTotalTimeout())
	require.Equal(t, "debug", cfg.GetLogLevel())
}

func TestLoad_FileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_id: "1234"
app_secret: from-file
app_url: https://apps.example.com/canvas/
total_timeout: 30s
default_locale: de_DE
`), 0o600))

	t.Setenv("GRAPH_APP_SECRET", "from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "1234", cfg.GetAppID())
	require.Equal(t, "from-env", cfg.GetAppSecret(), "environment wins over file")
	require.Equal(t, "https://apps.example.com/canvas/", cfg.GetAppURL())
	require.Equal(t, 30*time.Second, cfg.GetTotalTimeout())
	require.Equal(t, "de_DE", cfg.GetDefaultLocale())
	require.Equal(t, "facebook.com", cfg.GetDomain())
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.Parse([]byte("app_id: [unterminated"))
	require.Error(t, err)

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("GRAPH_TEST_VALUE", "")
	require.Equal(t, "fallback", config.GetEnv("GRAPH_TEST_VALUE", "fallback"))
	t.Setenv("GRAPH_TEST_VALUE", "set")
	require.Equal(t, "set", config.GetEnv("GRAPH_TEST_VALUE", "fallback"))
}
