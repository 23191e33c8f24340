package config

import (
	"github.com/caarlos0/env/v11"
)

// parseEnv overlays configuration from BWG_* environment variables.
// Only variables that are actually set override the current values.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
