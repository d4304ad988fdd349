// Package config loads the service configuration from a YAML or JSON file
// with OMNI_ prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/omnidispatch/core/dispatch"
	"github.com/kilianp07/omnidispatch/core/metrics"
	"github.com/kilianp07/omnidispatch/infra/monitoring"
	"github.com/kilianp07/omnidispatch/infra/mqtt"
	"github.com/kilianp07/omnidispatch/infra/places"
	"github.com/kilianp07/omnidispatch/infra/speech"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: OMNI_SERVER__ADDR=:9000.
const EnvPrefix = "OMNI_"

type Config struct {
	Server   ServerConfig      `json:"server"`
	Dispatch dispatch.Config   `json:"dispatch"`
	AI       AIConfig          `json:"ai"`
	Places   places.Config     `json:"places"`
	Speech   speech.Config     `json:"speech"`
	MQTT     mqtt.Config       `json:"mqtt"`
	Metrics  metrics.Config    `json:"metrics"`
	Logging  LoggingConfig     `json:"logging"`
	Sentry   monitoring.Config `json:"sentry"`
}

// Load reads path, applies environment overrides, fills defaults, resolves
// API keys from the environment and validates the result. An empty path or
// a missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return nil, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	cfg.resolveSecrets(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Dispatch.SetDefaults()
	c.AI.SetDefaults()
	if c.Places.APIKeyEnv == "" {
		c.Places.APIKeyEnv = "GOOGLE_MAPS_API_KEY"
	}
	if c.Speech.APIKeyEnv == "" {
		c.Speech.APIKeyEnv = "ELEVENLABS_API_KEY"
	}
	c.Speech.SetDefaults()
	if c.MQTT.Enabled {
		c.MQTT.SetDefaults()
	}
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// resolveSecrets fills empty API keys from the named environment
// variables. A resolved key enables the places and speech collaborators.
func (c *Config) resolveSecrets(getenv func(string) string) {
	for i := range c.AI.Providers {
		p := &c.AI.Providers[i]
		if p.APIKey == "" && p.APIKeyEnv != "" {
			p.APIKey = getenv(p.APIKeyEnv)
		}
	}
	if c.Places.APIKey == "" {
		c.Places.APIKey = getenv(c.Places.APIKeyEnv)
		if c.Places.APIKey == "" {
			c.Places.APIKey = getenv("NEXT_PUBLIC_GOOGLE_MAPS_API_KEY")
		}
	}
	if c.Places.APIKey != "" {
		c.Places.Enabled = true
	}
	if c.Speech.APIKey == "" {
		c.Speech.APIKey = getenv(c.Speech.APIKeyEnv)
	}
	if v := getenv("ELEVENLABS_VOICE_ID"); v != "" && c.Speech.VoiceID == speech.DefaultVoiceID {
		c.Speech.VoiceID = v
	}
	if c.Speech.APIKey != "" {
		c.Speech.Enabled = true
	}
}

// Validate checks every section and joins the errors.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("server", c.Server.Validate())
	add("dispatch", c.Dispatch.Validate())
	add("ai", c.AI.Validate())
	add("mqtt", c.MQTT.Validate())
	add("logging", c.Logging.Validate())
	if c.Metrics.InfluxEnabled && c.Metrics.InfluxURL == "" {
		add("metrics", errors.New("influx_url is required when influx is enabled"))
	}
	return errors.Join(errs...)
}
