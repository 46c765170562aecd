package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateNetwork()
}

func (c *Config) validateBackend() error {
	base := strings.TrimSpace(c.Backend.BaseURL)
	if base == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fieldsync/config.toml"
		}
		return fmt.Errorf("backend.base_url is required. Edit %s (create with 'fieldsync config init')", defaultPath)
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.base_url %q must be an absolute http(s) URL", base)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url scheme %q is not supported", parsed.Scheme)
	}
	if c.Backend.RequestTimeout <= 0 {
		return errors.New("backend.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.FlushInterval <= 0 {
		return errors.New("sync.flush_interval must be positive (seconds)")
	}
	if c.Sync.MaxRetries <= 0 {
		return errors.New("sync.max_retries must be positive")
	}
	return nil
}

func (c *Config) validateNetwork() error {
	if c.Network.ProbeInterval <= 0 {
		return errors.New("network.probe_interval must be positive (seconds)")
	}
	if c.Network.ProbeTimeout <= 0 {
		return errors.New("network.probe_timeout must be positive (seconds)")
	}
	if c.Network.ProbeTimeout >= c.Network.ProbeInterval {
		return errors.New("network.probe_timeout must be less than network.probe_interval")
	}
	return nil
}
