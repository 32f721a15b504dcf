package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "roadmapper.yml"

// Storage backends for CLI commands.
const (
	BackendAPI    = "api"    // HTTP API of a roadmapper server
	BackendRedis  = "redis"  // Direct Redis access
	BackendSQLite = "sqlite" // Local single-file store, no server
)

// Config represents the top-level roadmapper.yml configuration
type Config struct {
	Version string        `yaml:"version"`
	Backend string        `yaml:"backend,omitempty"`
	Redis   *RedisConfig  `yaml:"redis,omitempty"`
	Server  *ServerConfig `yaml:"server,omitempty"`
	API     *APIConfig    `yaml:"api,omitempty"`
	SQLite  *SQLiteConfig `yaml:"sqlite,omitempty"`
	Sync    *SyncConfig   `yaml:"sync,omitempty"`
	Setup   *SetupConfig  `yaml:"setup,omitempty"`
}

// RedisConfig locates the Redis server holding roadmaps and credentials
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ServerConfig specifies the HTTP API listener
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`
}

// APIConfig locates the HTTP API used by the api backend
type APIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// SQLiteConfig specifies the database file of the sqlite backend
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig tunes the reconciler
type SyncConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`      // Quiet period before a push (default 1s)
	PollInterval time.Duration `yaml:"poll_interval,omitempty"` // Period between pulls (default 10s)
}

// SetupConfig holds the records seeded by the setup command
type SetupConfig struct {
	AdminUsername   string `yaml:"admin_username"`
	AdminPassword   string `yaml:"admin_password"`
	DefaultUsername string `yaml:"default_username"`
	DefaultPassword string `yaml:"default_password"`
	DefaultProject  string `yaml:"default_project"`
}

// Default returns the configuration used when no roadmapper.yml exists.
func Default() *Config {
	c := &Config{Version: "1.0"}
	// Defaults cannot fail validation
	_ = c.Validate()
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for every omitted section
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Backend == "" {
		c.Backend = BackendAPI
	}
	if c.Backend != BackendAPI && c.Backend != BackendRedis && c.Backend != BackendSQLite {
		return fmt.Errorf("invalid backend: %s (must be 'api', 'redis', or 'sqlite')", c.Backend)
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = "redis://localhost:6379"
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 5 * time.Second
	}

	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.API.URL == "" {
		c.API.URL = "http://localhost:8080"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}

	if c.SQLite == nil {
		c.SQLite = &SQLiteConfig{}
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "roadmapper.db"
	}

	if c.Sync == nil {
		c.Sync = &SyncConfig{}
	}
	if c.Sync.Debounce == 0 {
		c.Sync.Debounce = time.Second
	}
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = 10 * time.Second
	}
	if c.Sync.Debounce < 0 || c.Sync.PollInterval < 0 {
		return fmt.Errorf("sync.debounce and sync.poll_interval must be positive")
	}

	if c.Setup == nil {
		c.Setup = &SetupConfig{}
	}
	c.Setup.applyDefaults()

	return nil
}

func (s *SetupConfig) applyDefaults() {
	if s.AdminUsername == "" {
		s.AdminUsername = "sandeep"
	}
	if s.AdminPassword == "" {
		s.AdminPassword = "admin_password_123"
	}
	if s.DefaultUsername == "" {
		s.DefaultUsername = "sandeep"
	}
	if s.DefaultPassword == "" {
		s.DefaultPassword = "password123"
	}
	if s.DefaultProject == "" {
		s.DefaultProject = "vision-2026"
	}
}

// ApplyEnv overrides file settings with REDIS_URL, ROADMAPPER_ADDR,
// ROADMAPPER_API and ROADMAPPER_BACKEND when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := getenv("ROADMAPPER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("ROADMAPPER_API"); v != "" {
		c.API.URL = v
	}
	if v := getenv("ROADMAPPER_BACKEND"); v != "" {
		c.Backend = v
	}
	return c.Validate()
}

// Load reads and validates roadmapper.yml from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to Default when the file does
// not exist, then applies environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	config, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		config = Default()
	}

	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	return config, nil
}
