package config

import "time"

type Config interface {
	EnvConfig
	GraphConfig
	SecurityConfig
}

type EnvConfig interface {
	GetAppID() string
	GetAppSecret() string
	GetAppURL() string
	GetSessionDir() string
	GetDefaultLocale() string
	GetLogLevel() string
	GetEnv() string
}

type GraphConfig interface {
	GetDomain() string
	GetUserAgent() string
	GetConnectTimeout() time.Duration
	GetTotalTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Graph
	Security
}

// New returns a configuration read from environment variables only.
func New() Config {
	return newMainConfig(nil)
}

func newMainConfig(file *values) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{file: file},
		Graph:   Graph{file: file},
	}
}
