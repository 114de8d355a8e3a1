package config

import (
	"fmt"
	"runtime"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config controls rendering behavior. Values come from an optional yaml file,
// overridable through environment variables; display metadata left empty here is
// derived from the repository's own metadata files.
type Config struct {
	Name        string `yaml:"name" env:"GITSTATIC_NAME"`
	Description string `yaml:"description" env:"GITSTATIC_DESCRIPTION"`
	Owner       string `yaml:"owner" env:"GITSTATIC_OWNER"`
	CloneURL    string `yaml:"clone_url" env:"GITSTATIC_CLONE_URL"`

	LogPageSize  int   `yaml:"log_page_size" env:"GITSTATIC_LOG_PAGE_SIZE" env-default:"100"`
	LogLength    int   `yaml:"log_length" env:"GITSTATIC_LOG_LENGTH" env-default:"0"`
	FeedSize     int   `yaml:"feed_size" env:"GITSTATIC_FEED_SIZE" env-default:"50"`
	MaxFileBytes int64 `yaml:"max_file_bytes" env:"GITSTATIC_MAX_FILE_BYTES" env-default:"2097152"`
	Workers      int   `yaml:"workers" env:"GITSTATIC_WORKERS" env-default:"0"`
	Highlight    bool  `yaml:"highlight" env:"GITSTATIC_HIGHLIGHT" env-default:"true"`
}

func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.LogPageSize <= 0 {
		return fmt.Errorf("log_page_size must be positive, got %d", c.LogPageSize)
	}
	if c.LogLength < 0 {
		return fmt.Errorf("log_length must not be negative, got %d", c.LogLength)
	}
	if c.FeedSize <= 0 {
		return fmt.Errorf("feed_size must be positive, got %d", c.FeedSize)
	}
	if c.MaxFileBytes <= 0 {
		return fmt.Errorf("max_file_bytes must be positive, got %d", c.MaxFileBytes)
	}
	return nil
}

// PoolSize resolves the worker count, defaulting to the machine's CPU count.
func (c *Config) PoolSize() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
