package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadFile reads a YAML, JSON or TOML file and decodes it through Load. An
// empty path loads defaults. Options such as FromEnv apply on top of the file.
func LoadFile(path string, opts ...LoadOption) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Load(nil, opts...)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Load(v.AllSettings(), opts...)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
