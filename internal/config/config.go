package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load populates config from a YAML file with environment-variable override.
// config must be a pointer to a struct; its pre-set field values act as
// defaults. Nested keys map to env vars with "." replaced by "_"
// (e.g. HTTP_PORT overrides http.port).
func Load(file string, config any) error {
	v := viper.New()

	defaults := make(map[string]any)
	if err := mapstructure.Decode(config, &defaults); err != nil {
		return fmt.Errorf("mapstructure: %v", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return fmt.Errorf("merge defaults: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config from file %s: %v", file, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("unmarshal config: %v", err)
	}

	return nil
}
