package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalid is returned by Validate and Set for unusable values.
var ErrInvalid = errors.New("config: invalid value")

// Config represents vault configuration
type Config struct {
	Account AccountConfig `json:"account"`
	Storage StorageConfig `json:"storage"`
	Limits  LimitsConfig  `json:"limits"`
	Cache   CacheConfig   `json:"cache"`
	Log     LogConfig     `json:"log"`
}

// AccountConfig identifies the account whose data this node holds
type AccountConfig struct {
	ID string `json:"id"`
}

// StorageConfig holds on-disk settings
type StorageConfig struct {
	Dir      string `json:"dir"`
	Compress bool   `json:"compress"`
}

// LimitsConfig holds the defaults for newly created histories
type LimitsConfig struct {
	MaxVersions uint32 `json:"max_versions"`
	MaxBranches uint32 `json:"max_branches"`
}

// CacheConfig sizes the decoded history cache
type CacheConfig struct {
	Size int `json:"size"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `json:"level"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Dir:      ".vault",
			Compress: true,
		},
		Limits: LimitsConfig{
			MaxVersions: 100,
			MaxBranches: 1,
		},
		Cache: CacheConfig{Size: 256},
		Log:   LogConfig{Level: "info"},
	}
}

// LoadConfig reads the config at path over the defaults. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating its directory.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureAccount assigns a fresh account id if none is set and reports
// whether it did.
func (c *Config) EnsureAccount() bool {
	if c.Account.ID != "" {
		return false
	}
	c.Account.ID = uuid.NewString()
	return true
}

// Validate checks the values a vault cannot start with.
func (c *Config) Validate() error {
	if c.Account.ID != "" {
		if _, err := uuid.Parse(c.Account.ID); err != nil {
			return fmt.Errorf("%w: account.id %q: %v", ErrInvalid, c.Account.ID, err)
		}
	}
	if c.Storage.Dir == "" {
		return fmt.Errorf("%w: storage.dir is empty", ErrInvalid)
	}
	if c.Limits.MaxVersions < 1 || c.Limits.MaxBranches < 1 {
		return fmt.Errorf("%w: limits must be >= 1", ErrInvalid)
	}
	if c.Cache.Size < 1 {
		return fmt.Errorf("%w: cache.size must be >= 1", ErrInvalid)
	}
	return nil
}

// Get retrieves a configuration value by key (e.g., "limits.max_versions")
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "account.id":
		return c.Account.ID, nil
	case "storage.dir":
		return c.Storage.Dir, nil
	case "storage.compress":
		return strconv.FormatBool(c.Storage.Compress), nil
	case "limits.max_versions":
		return strconv.FormatUint(uint64(c.Limits.MaxVersions), 10), nil
	case "limits.max_branches":
		return strconv.FormatUint(uint64(c.Limits.MaxBranches), 10), nil
	case "cache.size":
		return strconv.Itoa(c.Cache.Size), nil
	case "log.level":
		return c.Log.Level, nil
	}
	return "", unknownKey(key)
}

// Set sets a configuration value by key and validates the result.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "account.id":
		next.Account.ID = value
	case "storage.dir":
		next.Storage.Dir = value
	case "storage.compress":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		next.Storage.Compress = b
	case "limits.max_versions", "limits.max_branches":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		if key == "limits.max_versions" {
			next.Limits.MaxVersions = uint32(n)
		} else {
			next.Limits.MaxBranches = uint32(n)
		}
	case "cache.size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		next.Cache.Size = n
	case "log.level":
		next.Log.Level = value
	default:
		return unknownKey(key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Keys lists every key accepted by Get and Set.
func Keys() []string {
	return []string{
		"account.id",
		"storage.dir",
		"storage.compress",
		"limits.max_versions",
		"limits.max_branches",
		"cache.size",
		"log.level",
	}
}

func unknownKey(key string) error {
	if !strings.Contains(key, ".") {
		return fmt.Errorf("invalid config key: %s (expected format: section.key)", key)
	}
	return fmt.Errorf("unknown config key: %s", key)
}
