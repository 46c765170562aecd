package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Backend contains configuration for the remote inspection backend.
type Backend struct {
	BaseURL        string `toml:"base_url"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
	HealthPath     string `toml:"health_path"`
}

// Timeout returns the request timeout as a duration.
func (b Backend) Timeout() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// Sync contains configuration for the upload queue processor.
type Sync struct {
	FlushInterval int `toml:"flush_interval"`
	MaxRetries    int `toml:"max_retries"`
}

// Interval returns the flush interval as a duration.
func (s Sync) Interval() time.Duration {
	return time.Duration(s.FlushInterval) * time.Second
}

// Network contains configuration for connectivity monitoring.
type Network struct {
	ProbeInterval int `toml:"probe_interval"`
	ProbeTimeout  int `toml:"probe_timeout"`
}

// Interval returns the probe interval as a duration.
func (n Network) Interval() time.Duration {
	return time.Duration(n.ProbeInterval) * time.Second
}

// Timeout returns the per-probe timeout as a duration.
func (n Network) Timeout() time.Duration {
	return time.Duration(n.ProbeTimeout) * time.Second
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fieldsync.
//
// Configuration sections by subsystem:
//   - Paths: local data and log directories
//   - Backend: remote backend endpoint and credentials
//   - Sync: flush interval and retry budget for pending uploads
//   - Network: connectivity probe cadence
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Backend Backend `toml:"backend"`
	Sync    Sync    `toml:"sync"`
	Network Network `toml:"network"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fieldsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fieldsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the pending upload database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "uploads.db")
}

// LockPath returns the location of the processor lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "fieldsync.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
