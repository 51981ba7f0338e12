package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML configuration file. Environment variables take precedence
// over its values.
type File struct {
	AppID          string `yaml:"app_id"`
	AppSecret      string `yaml:"app_secret"`
	AppURL         string `yaml:"app_url"`
	Domain         string `yaml:"domain"`
	ConnectTimeout string `yaml:"connect_timeout"`
	TotalTimeout   string `yaml:"total_timeout"`
	UserAgent      string `yaml:"user_agent"`
	SessionDir     string `yaml:"session_dir"`
	DefaultLocale  string `yaml:"default_locale"`
	LogLevel       string `yaml:"log_level"`
	Env            string `yaml:"env"`
}

// values maps environment variable names to file settings.
type values map[string]string

func (v *values) lookup(envVar, defaultValue string) string {
	if value := GetEnv(envVar, ""); value != "" {
		return value
	}
	if v != nil {
		if value := (*v)[envVar]; value != "" {
			return value
		}
	}
	return defaultValue
}

// Load reads the YAML file at path. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[config Load] read %s", path)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML content.
func Parse(data []byte) (Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "[config Parse] yaml.Unmarshal")
	}
	v := values{
		appIDEnvVar:         f.AppID,
		appSecretEnvVar:     f.AppSecret,
		appURLEnvVar:        f.AppURL,
		domainEnvVar:        f.Domain,
		connectTimeoutVar:   f.ConnectTimeout,
		totalTimeoutVar:     f.TotalTimeout,
		userAgentEnvVar:     f.UserAgent,
		sessionDirEnvVar:    f.SessionDir,
		defaultLocaleEnvVar: f.DefaultLocale,
		logLevelEnvVar:      f.LogLevel,
		envEnvVar:           f.Env,
	}
	return newMainConfig(&v), nil
}
