// Package config provides loading and validation of the deck daemon
// configuration. It supports TOML format; every field has a working
// default so an absent file yields a runnable configuration. Durations
// are written as integer seconds in the file and converted at the accessor.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Error definitions for the config package.
var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the root configuration.
type Config struct {
	RootDir   string          `toml:"root_dir"`
	LogLevel  string          `toml:"log_level"`
	Execution ExecutionConfig `toml:"execution"`
	Cache     CacheConfig     `toml:"cache"`
	Token     TokenConfig     `toml:"token"`
	Privilege PrivilegeConfig `toml:"privilege"`
	// ExtraFlags extends the argument whitelist of existing commands.
	// It can never introduce a new command.
	ExtraFlags map[string][]string `toml:"extra_flags"`
}

// ExecutionConfig bounds subprocess execution. Timeouts are seconds.
type ExecutionConfig struct {
	DefaultTimeoutSec int    `toml:"default_timeout"`
	ScanTimeoutSec    int    `toml:"scan_timeout"`
	MaxMemoryBytes    uint64 `toml:"max_memory_bytes"`
	MaxProcesses      int    `toml:"max_processes"`
	WorkerCount       int    `toml:"worker_count"`
	KillGraceSec      int    `toml:"kill_grace"`
}

// DefaultTimeout returns the per-command timeout.
func (e ExecutionConfig) DefaultTimeout() time.Duration {
	return time.Duration(e.DefaultTimeoutSec) * time.Second
}

// ScanTimeout returns the timeout used for full network scans.
func (e ExecutionConfig) ScanTimeout() time.Duration {
	return time.Duration(e.ScanTimeoutSec) * time.Second
}

// KillGrace returns the SIGTERM-to-SIGKILL grace period.
func (e ExecutionConfig) KillGrace() time.Duration {
	return time.Duration(e.KillGraceSec) * time.Second
}

// CacheConfig bounds the result caches. TTLs are seconds.
type CacheConfig struct {
	ScanMaxEntries int `toml:"scan_max_entries"`
	ScanMaxBytes   int `toml:"scan_max_bytes"`
	ScanTTLSec     int `toml:"scan_ttl"`
	HostMaxEntries int `toml:"host_max_entries"`
	HostMaxBytes   int `toml:"host_max_bytes"`
	HostTTLSec     int `toml:"host_ttl"`
}

// ScanTTL returns the scan cache entry lifetime.
func (c CacheConfig) ScanTTL() time.Duration { return time.Duration(c.ScanTTLSec) * time.Second }

// HostTTL returns the host cache entry lifetime.
func (c CacheConfig) HostTTL() time.Duration { return time.Duration(c.HostTTLSec) * time.Second }

// TokenConfig controls the elevation credential cache. TTL is seconds.
type TokenConfig struct {
	TTLSec int `toml:"ttl"`
}

// TTL returns the credential lifetime.
func (t TokenConfig) TTL() time.Duration { return time.Duration(t.TTLSec) * time.Second }

// PrivilegeConfig names the identity to drop to when started as root.
type PrivilegeConfig struct {
	DropUID int `toml:"drop_uid"`
	DropGID int `toml:"drop_gid"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RootDir:  defaultRootDir(),
		LogLevel: "info",
		Execution: ExecutionConfig{
			DefaultTimeoutSec: 30,
			ScanTimeoutSec:    120,
			MaxMemoryBytes:    256 * 1024 * 1024,
			MaxProcesses:      10,
			WorkerCount:       2,
			KillGraceSec:      2,
		},
		Cache: CacheConfig{
			ScanMaxEntries: 5,
			ScanMaxBytes:   512 * 1024,
			ScanTTLSec:     300,
			HostMaxEntries: 3,
			HostMaxBytes:   256 * 1024,
			HostTTLSec:     120,
		},
		Token: TokenConfig{
			TTLSec: 900,
		},
		Privilege: PrivilegeConfig{
			DropUID: 1000,
			DropGID: 1000,
		},
	}
}

func defaultRootDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/deckd"
	}
	return filepath.Join(home, ".deckd")
}

// Load reads path and merges it over the defaults. A missing file is not
// an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks bounds on every numeric field.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("%w: root_dir must not be empty", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Execution.DefaultTimeoutSec <= 0 || c.Execution.ScanTimeoutSec <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.Execution.MaxMemoryBytes == 0 {
		return fmt.Errorf("%w: max_memory_bytes must be positive", ErrInvalidConfig)
	}
	if c.Execution.MaxProcesses <= 0 {
		return fmt.Errorf("%w: max_processes must be positive", ErrInvalidConfig)
	}
	if c.Execution.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.Execution.KillGraceSec < 0 {
		return fmt.Errorf("%w: kill_grace must not be negative", ErrInvalidConfig)
	}
	if c.Cache.ScanMaxEntries <= 0 || c.Cache.HostMaxEntries <= 0 {
		return fmt.Errorf("%w: cache entry bounds must be positive", ErrInvalidConfig)
	}
	if c.Cache.ScanMaxBytes <= 0 || c.Cache.HostMaxBytes <= 0 {
		return fmt.Errorf("%w: cache byte bounds must be positive", ErrInvalidConfig)
	}
	if c.Cache.ScanTTLSec <= 0 || c.Cache.HostTTLSec <= 0 {
		return fmt.Errorf("%w: cache TTLs must be positive", ErrInvalidConfig)
	}
	if c.Token.TTLSec <= 0 {
		return fmt.Errorf("%w: token ttl must be positive", ErrInvalidConfig)
	}
	return nil
}
