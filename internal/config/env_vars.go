package config

import (
	"os"
	"strings"
)

const (
	appIDEnvVar         = "GRAPH_APP_ID"
	appSecretEnvVar     = "GRAPH_APP_SECRET"
	appURLEnvVar        = "GRAPH_APP_URL"
	domainEnvVar        = "GRAPH_DOMAIN"
	connectTimeoutVar   = "GRAPH_CONNECT_TIMEOUT"
	totalTimeoutVar     = "GRAPH_TOTAL_TIMEOUT"
	userAgentEnvVar     = "GRAPH_USER_AGENT"
	sessionDirEnvVar    = "GRAPH_SESSION_DIR"
	defaultLocaleEnvVar = "GRAPH_DEFAULT_LOCALE"
	logLevelEnvVar      = "LOG_LEVEL"
	envEnvVar           = "ENV"
)

// EnvVars reads settings from the environment, falling back to the
// configuration file and then to defaults.
type EnvVars struct {
	file *values
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppID() string {
	return e.file.lookup(appIDEnvVar, "")
}

func (e EnvVars) GetAppSecret() string {
	return e.file.lookup(appSecretEnvVar, "")
}

func (e EnvVars) GetAppURL() string {
	return e.file.lookup(appURLEnvVar, "")
}

// GetSessionDir returns the directory of the on-disk session store. Empty
// selects the in-memory store.
func (e EnvVars) GetSessionDir() string {
	return e.file.lookup(sessionDirEnvVar, "")
}

func (e EnvVars) GetDefaultLocale() string {
	return e.file.lookup(defaultLocaleEnvVar, "en_US")
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.file.lookup(logLevelEnvVar, "info"))
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.file.lookup(envEnvVar, "DEV"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
