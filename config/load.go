package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/rtguard/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. RTGUARD_OUTLIER_THRESHOLD
// or RTGUARD_TIER1_R2_THRESHOLD.
const EnvPrefix = "RTGUARD"

// Load loads configuration from defaults, the optional YAML file at path and
// the environment. Precedence: env > config file > defaults.
// The result is validated.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	// Defaults
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, errors.Wrap(err, "marshal defaults")
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, errors.Wrap(err, "read defaults")
	}

	var raw []byte
	if path != "" {
		raw, err = os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
		if err := v.MergeConfig(bytes.NewReader(raw)); err != nil {
			return Config{}, errors.NewConfigurationError("file", "invalid YAML: "+err.Error(), path)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.NewConfigurationError("file", "unmarshal: "+err.Error(), path)
	}

	// viper lower-cases map keys; prefixes are case-sensitive, so families
	// are decoded from the file directly.
	c.Families = nil
	if raw != nil {
		var fam struct {
			Families map[string]string `yaml:"families"`
		}
		if err := yaml.Unmarshal(raw, &fam); err != nil {
			return Config{}, errors.NewConfigurationError("families", err.Error(), path)
		}
		c.Families = fam.Families
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save writes c as YAML to path, creating parent directories.
func Save(c Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "mkdir config dir")
		}
	}
	b, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

// Marshal renders c as YAML.
func Marshal(c Config) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshal yaml")
	}
	return b, nil
}
