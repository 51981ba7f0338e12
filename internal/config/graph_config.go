package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

type Graph struct {
	file *values
}

var _ GraphConfig = Graph{}

func (g Graph) GetDomain() string {
	return g.file.lookup(domainEnvVar, "facebook.com")
}

func (g Graph) GetUserAgent() string {
	return g.file.lookup(userAgentEnvVar, "go-graph-client/1.0")
}

func (g Graph) GetConnectTimeout() time.Duration {
	return g.duration(connectTimeoutVar, 10*time.Second)
}

func (g Graph) GetTotalTimeout() time.Duration {
	return g.duration(totalTimeoutVar, 60*time.Second)
}

func (g Graph) duration(name string, defaultValue time.Duration) time.Duration {
	raw := g.file.lookup(name, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("setting", name).Str("value", raw).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}
