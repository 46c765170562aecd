package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeSync()
	c.normalizeNetwork()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.Backend.APIToken = strings.TrimSpace(c.Backend.APIToken)
	if c.Backend.APIToken == "" {
		if value, ok := os.LookupEnv("FIELDSYNC_API_TOKEN"); ok {
			c.Backend.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultRequestTimeout
	}
	c.Backend.HealthPath = strings.TrimSpace(c.Backend.HealthPath)
	if c.Backend.HealthPath == "" {
		c.Backend.HealthPath = defaultHealthPath
	}
	if !strings.HasPrefix(c.Backend.HealthPath, "/") {
		c.Backend.HealthPath = "/" + c.Backend.HealthPath
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.FlushInterval <= 0 {
		c.Sync.FlushInterval = defaultFlushInterval
	}
	if c.Sync.MaxRetries <= 0 {
		c.Sync.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) normalizeNetwork() {
	if c.Network.ProbeInterval <= 0 {
		c.Network.ProbeInterval = defaultProbeInterval
	}
	if c.Network.ProbeTimeout <= 0 {
		c.Network.ProbeTimeout = defaultProbeTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
