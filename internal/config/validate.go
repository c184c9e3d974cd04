package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateChannels() error {
	if len(c.Channels.Painting) == 0 {
		return errors.New("channels.painting must list at least one channel")
	}
	if len(c.Channels.Barcoding) == 0 {
		return errors.New("channels.barcoding must list at least one channel")
	}
	if c.Channels.Cycles < 0 {
		return fmt.Errorf("channels.cycles must not be negative, got %d", c.Channels.Cycles)
	}
	seen := make(map[string]struct{}, len(c.Channels.Painting))
	for _, channel := range c.Channels.Painting {
		if _, dup := seen[channel]; dup {
			return fmt.Errorf("channels.painting contains duplicate channel %q", channel)
		}
		seen[channel] = struct{}{}
	}
	seen = make(map[string]struct{}, len(c.Channels.Barcoding))
	for _, channel := range c.Channels.Barcoding {
		if _, dup := seen[channel]; dup {
			return fmt.Errorf("channels.barcoding contains duplicate channel %q", channel)
		}
		seen[channel] = struct{}{}
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.CellProfilerBinary == "" {
		return errors.New("tools.cellprofiler_binary must be set")
	}
	if c.Tools.TimeoutSeconds <= 0 {
		return fmt.Errorf("tools.timeout_seconds must be positive, got %d", c.Tools.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
