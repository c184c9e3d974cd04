package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeChannels()
	c.normalizeTools()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.input_table", &c.Paths.InputTable},
		{"paths.images_dir", &c.Paths.ImagesDir},
		{"paths.illum_dir", &c.Paths.IllumDir},
		{"paths.staging_dir", &c.Paths.StagingDir},
		{"paths.output_dir", &c.Paths.OutputDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.state_dir", &c.Paths.StateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			continue
		}
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeChannels() {
	c.Channels.Painting = trimChannelList(c.Channels.Painting)
	c.Channels.Barcoding = trimChannelList(c.Channels.Barcoding)
}

func trimChannelList(channels []string) []string {
	cleaned := make([]string, 0, len(channels))
	for _, channel := range channels {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		cleaned = append(cleaned, channel)
	}
	return cleaned
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.CellProfilerBinary) == "" {
		c.Tools.CellProfilerBinary = defaultCellProfiler
	}
	if c.Tools.TimeoutSeconds <= 0 {
		c.Tools.TimeoutSeconds = defaultToolTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.SiteSkip <= 0 {
		c.Workflow.SiteSkip = defaultSiteSkip
	}
	if c.Workflow.StaleStagingHours <= 0 {
		c.Workflow.StaleStagingHours = defaultStaleStagingHours
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
