package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Service struct {
	URL string `yaml:"url" mapstructure:"url"`
}
type Services struct {
	ASR     Service `yaml:"asr" mapstructure:"asr"`
	Summary Service `yaml:"summary" mapstructure:"summary"`
	Publish Service `yaml:"publish" mapstructure:"publish"`
}
type Pipeline struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	LogLvl  string `yaml:"log_level" mapstructure:"log_level"`
}
type Paths struct {
	TeamConfig string `yaml:"team_config" mapstructure:"team_config"`
	Outputs    string `yaml:"outputs" mapstructure:"outputs"`
}
type Identification struct {
	TemplateType string `yaml:"template_type" mapstructure:"template_type"`
}
type Root struct {
	Pipeline       Pipeline       `yaml:"pipeline" mapstructure:"pipeline"`
	Paths          Paths          `yaml:"paths" mapstructure:"paths"`
	Services       Services       `yaml:"services" mapstructure:"services"`
	Identification Identification `yaml:"identification" mapstructure:"identification"`
}

// EnvPrefix is the prefix of environment overrides, e.g. TEAMSCRIBE_PATHS_OUTPUTS.
const EnvPrefix = "TEAMSCRIBE"

var defaults = map[string]any{
	"pipeline.name":                "teamscribe",
	"pipeline.version":             "dev",
	"pipeline.log_level":           "info",
	"paths.team_config":            "team_config.json",
	"paths.outputs":                "outputs",
	"services.asr.url":             "",
	"services.summary.url":         "",
	"services.publish.url":         "",
	"identification.template_type": "standard",
}

// Load resolves settings from an explicit file (or the CONFIG_ENV search
// paths when path is empty), then environment, then overrides. Overrides use
// dotted keys such as "paths.outputs".
func Load(path string, overrides map[string]any) (*Root, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = firstExisting(searchPaths()...)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func searchPaths() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("src", "shared", "config.yaml"),
	}
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}
