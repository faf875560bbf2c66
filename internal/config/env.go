package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override, e.g. EZAN_CITY.
const EnvPrefix = "EZAN_"

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overwriting variables that are already set. With no
// arguments it reads ./.env, and a missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(files, ", "), err)
	}
	return nil
}

// ApplyEnv overrides c with every EZAN_* variable that is set, validating
// each value exactly like `config set`.
func (c *Config) ApplyEnv() error {
	for _, key := range ValidKeys {
		v, ok := os.LookupEnv(EnvName(key))
		if !ok {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "REDIS_USERNAME"); ok {
		c.RedisUsername = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "REDIS_PASSWORD"); ok {
		c.RedisPassword = v
	}
	return nil
}

// LoadEnv reads the config file, then .env, then applies EZAN_* overrides.
func LoadEnv() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
